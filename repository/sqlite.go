package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/campus-sense/registrar-go/config"
)

var _ registrar.Store = SQLiteStore{}

type SQLiteStore struct {
	db  *sql.DB
	cfg config.SQLite
}

// creates a new store backed by sqlite
// returns an error if the connection cannot be established or if a ping fails
func newSQLiteStore(ctx context.Context, cfg config.SQLite) (SQLiteStore, error) {
	// open connection
	db, err := sql.Open("sqlite", cfg.ConnectionString)
	if err != nil {
		return SQLiteStore{}, fmt.Errorf("failed to open connection to sqlite: %w", err)
	}

	// check connection
	err = db.PingContext(ctx)
	if err != nil {
		return SQLiteStore{}, fmt.Errorf("failed to ping db: %w", err)
	}

	// perform migrations
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return SQLiteStore{}, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "sqlite", driver)
	if err != nil {
		return SQLiteStore{}, fmt.Errorf("failed to create migration: %w", err)
	}

	err = m.Up()
	if err != nil && err.Error() != "no change" {
		return SQLiteStore{}, fmt.Errorf("failed to execute migrations: %w", err)
	}

	return SQLiteStore{db, cfg}, nil
}

func (s SQLiteStore) FindCourse(ctx context.Context, code string) (registrar.Course, error) {
	var course registrar.Course
	var days, start, end int
	var seats int64

	err := s.db.QueryRowContext(ctx,
		"SELECT code, title, department, level, days, start_min, end_min, seats FROM courses WHERE code=$1", code).
		Scan(&course.Code, &course.Title, &course.Department, &course.Level, &days, &start, &end, &seats)
	if errors.Is(err, sql.ErrNoRows) {
		return registrar.Course{}, registrar.ErrCourseNotFound
	} else if err != nil {
		return registrar.Course{}, fmt.Errorf("failed to query course: %w", err)
	}

	course.Slot = registrar.TimeSlot{Days: registrar.DaySet(days), Start: registrar.ClockTime(start), End: registrar.ClockTime(end)}
	course.Seats = uint(seats)

	course.Prerequisites, err = s.queryStrings(ctx,
		"SELECT prerequisite FROM course_prerequisites WHERE course_code=$1 ORDER BY prerequisite", code)
	if err != nil {
		return registrar.Course{}, fmt.Errorf("failed to query prerequisites: %w", err)
	}

	return course, nil
}

func (s SQLiteStore) FindStudent(ctx context.Context, rollNumber string) (registrar.Student, error) {
	var student registrar.Student

	err := s.db.QueryRowContext(ctx,
		"SELECT roll_number, name FROM students WHERE roll_number=$1", rollNumber).
		Scan(&student.RollNumber, &student.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return registrar.Student{}, registrar.ErrStudentNotFound
	} else if err != nil {
		return registrar.Student{}, fmt.Errorf("failed to query student: %w", err)
	}

	student.RegisteredCourses, err = s.queryStrings(ctx,
		"SELECT course_code FROM registrations WHERE roll_number=$1 ORDER BY position", rollNumber)
	if err != nil {
		return registrar.Student{}, fmt.Errorf("failed to query registrations: %w", err)
	}

	student.CompletedPrerequisites, err = s.queryStrings(ctx,
		"SELECT course_code FROM student_completed WHERE roll_number=$1 ORDER BY course_code", rollNumber)
	if err != nil {
		return registrar.Student{}, fmt.Errorf("failed to query completed prerequisites: %w", err)
	}

	return student, nil
}

func (s SQLiteStore) ListCourses(ctx context.Context, filter registrar.CourseFilter) ([]registrar.Course, error) {
	// department and minimum seats filter in SQL, day/time filters on the
	// decoded bitmask in Go
	query := "SELECT code FROM courses"
	var clauses []string
	var args []any
	if filter.Department != "" {
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.MinSeats > 0 {
		clauses = append(clauses, fmt.Sprintf("seats>=$%d", len(args)+1))
		args = append(args, int64(filter.MinSeats))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY code"

	codes, err := s.queryStrings(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	var courses []registrar.Course
	for _, code := range codes {
		course, err := s.FindCourse(ctx, code)
		if err != nil {
			return nil, err
		}
		if filter.Matches(course) {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (s SQLiteStore) AddCourse(ctx context.Context, course registrar.Course) error {
	var existing string
	err := s.db.QueryRowContext(ctx, "SELECT code FROM courses WHERE code=$1", course.Code).Scan(&existing)
	if err == nil {
		return registrar.ErrDuplicateCourse
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for existing course: %w", err)
	}

	return s.writeCourse(ctx, course, false)
}

func (s SQLiteStore) SaveCourse(ctx context.Context, course registrar.Course) error {
	return s.writeCourse(ctx, course, true)
}

func (s SQLiteStore) writeCourse(ctx context.Context, course registrar.Course, replace bool) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO courses (code, title, department, level, days, start_min, end_min, seats) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) "+
				"ON CONFLICT(code) DO UPDATE SET title=$2, department=$3, level=$4, days=$5, start_min=$6, end_min=$7, seats=$8",
			course.Code, course.Title, course.Department, course.Level,
			int(course.Slot.Days), int(course.Slot.Start), int(course.Slot.End), int64(course.Seats))
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO courses (code, title, department, level, days, start_min, end_min, seats) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
			course.Code, course.Title, course.Department, course.Level,
			int(course.Slot.Days), int(course.Slot.Start), int(course.Slot.End), int64(course.Seats))
	}
	if err != nil {
		return fmt.Errorf("insert statement failed: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM course_prerequisites WHERE course_code=$1", course.Code); err != nil {
		return fmt.Errorf("failed to clear prerequisites: %w", err)
	}
	for _, prereq := range course.Prerequisites {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO course_prerequisites (course_code, prerequisite) VALUES ($1, $2)", course.Code, prereq); err != nil {
			return fmt.Errorf("failed to insert prerequisite: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s SQLiteStore) AddStudent(ctx context.Context, student registrar.Student) error {
	return s.writeStudent(ctx, student)
}

func (s SQLiteStore) SaveStudent(ctx context.Context, student registrar.Student) error {
	return s.writeStudent(ctx, student)
}

func (s SQLiteStore) writeStudent(ctx context.Context, student registrar.Student) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO students (roll_number, name) VALUES ($1, $2) ON CONFLICT(roll_number) DO UPDATE SET name=$2",
		student.RollNumber, student.Name)
	if err != nil {
		return fmt.Errorf("insert statement failed: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM registrations WHERE roll_number=$1", student.RollNumber); err != nil {
		return fmt.Errorf("failed to clear registrations: %w", err)
	}
	for i, code := range student.RegisteredCourses {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO registrations (roll_number, course_code, position) VALUES ($1, $2, $3)",
			student.RollNumber, code, i); err != nil {
			return fmt.Errorf("failed to insert registration: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM student_completed WHERE roll_number=$1", student.RollNumber); err != nil {
		return fmt.Errorf("failed to clear completed prerequisites: %w", err)
	}
	for _, code := range student.CompletedPrerequisites {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO student_completed (roll_number, course_code) VALUES ($1, $2)",
			student.RollNumber, code); err != nil {
			return fmt.Errorf("failed to insert completed prerequisite: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s SQLiteStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var results []string

	defer rows.Close()
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return results, nil
}
