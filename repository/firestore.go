package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/campus-sense/registrar-go/config"
)

var _ registrar.Store = FirestoreStore{}

type FirestoreStore struct {
	firestore *firestore.Client
	cfg       config.Firestore
}

// firestoreCourse flattens the slot into integer fields so the document
// round-trips without custom serializers.
type firestoreCourse struct {
	Code          string   `firestore:"code"`
	Title         string   `firestore:"title"`
	Department    string   `firestore:"department"`
	Level         int      `firestore:"level"`
	Days          int      `firestore:"days"`
	StartMin      int      `firestore:"startMin"`
	EndMin        int      `firestore:"endMin"`
	Seats         int64    `firestore:"seats"`
	Prerequisites []string `firestore:"prerequisites"`
}

type firestoreStudent struct {
	RollNumber             string   `firestore:"rollNumber"`
	Name                   string   `firestore:"name"`
	RegisteredCourses      []string `firestore:"registeredCourses"`
	CompletedPrerequisites []string `firestore:"completedPrerequisites"`
}

func newFirestoreStore(ctx context.Context, cfg config.Firestore) (FirestoreStore, error) {
	// Create a new Firestore client using application default credentials.
	if cfg.CredentialsFile == "" {
		client, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return FirestoreStore{}, err
		}

		return FirestoreStore{client, cfg}, nil
	}

	// Create a new Firestore client using supplied credentials file.
	client, err := firestore.NewClient(ctx, cfg.ProjectID, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return FirestoreStore{}, err
	}

	return FirestoreStore{client, cfg}, nil
}

func (f FirestoreStore) FindCourse(ctx context.Context, code string) (registrar.Course, error) {
	doc, err := f.firestore.Collection(f.cfg.CourseCollectionID).Doc(code).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return registrar.Course{}, registrar.ErrCourseNotFound
	} else if err != nil {
		return registrar.Course{}, fmt.Errorf("failed to get course document: %w", err)
	}

	var record firestoreCourse
	if err := doc.DataTo(&record); err != nil {
		return registrar.Course{}, fmt.Errorf("failed to deserialize course: %w", err)
	}

	return record.toDomain(), nil
}

func (f FirestoreStore) FindStudent(ctx context.Context, rollNumber string) (registrar.Student, error) {
	doc, err := f.firestore.Collection(f.cfg.StudentCollectionID).Doc(rollNumber).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return registrar.Student{}, registrar.ErrStudentNotFound
	} else if err != nil {
		return registrar.Student{}, fmt.Errorf("failed to get student document: %w", err)
	}

	var record firestoreStudent
	if err := doc.DataTo(&record); err != nil {
		return registrar.Student{}, fmt.Errorf("failed to deserialize student: %w", err)
	}

	return registrar.Student{
		RollNumber:             record.RollNumber,
		Name:                   record.Name,
		RegisteredCourses:      record.RegisteredCourses,
		CompletedPrerequisites: record.CompletedPrerequisites,
	}, nil
}

func (f FirestoreStore) ListCourses(ctx context.Context, filter registrar.CourseFilter) ([]registrar.Course, error) {
	query := f.firestore.Collection(f.cfg.CourseCollectionID).Query
	if filter.Department != "" {
		query = query.Where("department", "==", filter.Department)
	}
	if filter.MinSeats > 0 {
		query = query.Where("seats", ">=", int64(filter.MinSeats))
	}

	documents, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get course documents: %w", err)
	}

	var courses []registrar.Course
	for _, document := range documents {
		var record firestoreCourse
		if err := document.DataTo(&record); err != nil {
			return nil, fmt.Errorf("failed to deserialize document: %w", err)
		}

		course := record.toDomain()
		if filter.Matches(course) {
			courses = append(courses, course)
		}
	}

	return courses, nil
}

func (f FirestoreStore) AddCourse(ctx context.Context, course registrar.Course) error {
	ref := f.firestore.Collection(f.cfg.CourseCollectionID).Doc(course.Code)

	_, err := ref.Get(ctx)
	if err == nil {
		return registrar.ErrDuplicateCourse
	} else if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to check for existing course: %w", err)
	}

	if _, err := ref.Set(ctx, fromCourse(course)); err != nil {
		return fmt.Errorf("failed to write course document: %w", err)
	}
	return nil
}

func (f FirestoreStore) SaveCourse(ctx context.Context, course registrar.Course) error {
	_, err := f.firestore.Collection(f.cfg.CourseCollectionID).Doc(course.Code).Set(ctx, fromCourse(course))
	if err != nil {
		return fmt.Errorf("failed to write course document: %w", err)
	}
	return nil
}

func (f FirestoreStore) AddStudent(ctx context.Context, student registrar.Student) error {
	return f.SaveStudent(ctx, student)
}

func (f FirestoreStore) SaveStudent(ctx context.Context, student registrar.Student) error {
	record := firestoreStudent{
		RollNumber:             student.RollNumber,
		Name:                   student.Name,
		RegisteredCourses:      student.RegisteredCourses,
		CompletedPrerequisites: student.CompletedPrerequisites,
	}

	_, err := f.firestore.Collection(f.cfg.StudentCollectionID).Doc(student.RollNumber).Set(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to write student document: %w", err)
	}
	return nil
}

func fromCourse(course registrar.Course) firestoreCourse {
	return firestoreCourse{
		Code:          course.Code,
		Title:         course.Title,
		Department:    course.Department,
		Level:         course.Level,
		Days:          int(course.Slot.Days),
		StartMin:      int(course.Slot.Start),
		EndMin:        int(course.Slot.End),
		Seats:         int64(course.Seats),
		Prerequisites: course.Prerequisites,
	}
}

func (r firestoreCourse) toDomain() registrar.Course {
	return registrar.Course{
		Code:       r.Code,
		Title:      r.Title,
		Department: r.Department,
		Level:      r.Level,
		Slot: registrar.TimeSlot{
			Days:  registrar.DaySet(r.Days),
			Start: registrar.ClockTime(r.StartMin),
			End:   registrar.ClockTime(r.EndMin),
		},
		Seats:         uint(r.Seats),
		Prerequisites: r.Prerequisites,
	}
}
