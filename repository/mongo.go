package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/campus-sense/registrar-go/config"
)

var _ registrar.Store = MongoStore{}

type MongoStore struct {
	courses  *mongo.Collection
	students *mongo.Collection
}

type mongoCourse struct {
	Code          string   `bson:"_id"`
	Title         string   `bson:"title"`
	Department    string   `bson:"department"`
	Level         int      `bson:"level"`
	Days          int      `bson:"days"`
	StartMin      int      `bson:"start_min"`
	EndMin        int      `bson:"end_min"`
	Seats         int64    `bson:"seats"`
	Prerequisites []string `bson:"prerequisites"`
}

type mongoStudent struct {
	RollNumber             string   `bson:"_id"`
	Name                   string   `bson:"name"`
	RegisteredCourses      []string `bson:"registered_courses"`
	CompletedPrerequisites []string `bson:"completed_prerequisites"`
}

func newMongoStore(ctx context.Context, cfg config.Mongo) (MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return MongoStore{}, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return MongoStore{}, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	return MongoStore{courses: db.Collection("courses"), students: db.Collection("students")}, nil
}

func (m MongoStore) FindCourse(ctx context.Context, code string) (registrar.Course, error) {
	var record mongoCourse
	err := m.courses.FindOne(ctx, bson.M{"_id": code}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return registrar.Course{}, registrar.ErrCourseNotFound
	} else if err != nil {
		return registrar.Course{}, fmt.Errorf("failed to find course: %w", err)
	}

	return record.toDomain(), nil
}

func (m MongoStore) FindStudent(ctx context.Context, rollNumber string) (registrar.Student, error) {
	var record mongoStudent
	err := m.students.FindOne(ctx, bson.M{"_id": rollNumber}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return registrar.Student{}, registrar.ErrStudentNotFound
	} else if err != nil {
		return registrar.Student{}, fmt.Errorf("failed to find student: %w", err)
	}

	return registrar.Student{
		RollNumber:             record.RollNumber,
		Name:                   record.Name,
		RegisteredCourses:      record.RegisteredCourses,
		CompletedPrerequisites: record.CompletedPrerequisites,
	}, nil
}

func (m MongoStore) ListCourses(ctx context.Context, filter registrar.CourseFilter) ([]registrar.Course, error) {
	query := bson.M{}
	if filter.Department != "" {
		query["department"] = filter.Department
	}
	if filter.MinSeats > 0 {
		query["seats"] = bson.M{"$gte": int64(filter.MinSeats)}
	}

	cursor, err := m.courses.Find(ctx, query, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer cursor.Close(ctx)

	var courses []registrar.Course
	for cursor.Next(ctx) {
		var record mongoCourse
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode course: %w", err)
		}

		course := record.toDomain()
		if filter.Matches(course) {
			courses = append(courses, course)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	return courses, nil
}

func (m MongoStore) AddCourse(ctx context.Context, course registrar.Course) error {
	_, err := m.courses.InsertOne(ctx, fromCourseMongo(course))
	if mongo.IsDuplicateKeyError(err) {
		return registrar.ErrDuplicateCourse
	} else if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}
	return nil
}

func (m MongoStore) SaveCourse(ctx context.Context, course registrar.Course) error {
	_, err := m.courses.ReplaceOne(ctx, bson.M{"_id": course.Code}, fromCourseMongo(course),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save course: %w", err)
	}
	return nil
}

func (m MongoStore) AddStudent(ctx context.Context, student registrar.Student) error {
	return m.SaveStudent(ctx, student)
}

func (m MongoStore) SaveStudent(ctx context.Context, student registrar.Student) error {
	record := mongoStudent{
		RollNumber:             student.RollNumber,
		Name:                   student.Name,
		RegisteredCourses:      student.RegisteredCourses,
		CompletedPrerequisites: student.CompletedPrerequisites,
	}

	_, err := m.students.ReplaceOne(ctx, bson.M{"_id": student.RollNumber}, record,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

func fromCourseMongo(course registrar.Course) mongoCourse {
	return mongoCourse{
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

func (r mongoCourse) toDomain() registrar.Course {
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
