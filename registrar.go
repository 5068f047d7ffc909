package registrar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Domain types are defined in this file

type Course struct {
	Code          string   `json:"code"`
	Title         string   `json:"title"`
	Department    string   `json:"department"`
	Level         int      `json:"level"`
	Slot          TimeSlot `json:"slot"`
	Seats         uint     `json:"seats"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

func (c Course) Valid() error {
	if c.Code == "" {
		return errors.New("Course code cannot be empty")
	}
	if c.Title == "" {
		return errors.New("Course title cannot be empty")
	}
	if c.Department == "" {
		return errors.New("Department cannot be empty")
	}
	if c.Level < 0 {
		return errors.New("Course level cannot be negative")
	}

	return c.Slot.Valid()
}

func (c Course) String() string {
	return fmt.Sprintf("%s (%s)", c.Code, c.Slot)
}

type Student struct {
	RollNumber             string   `json:"roll_number"`
	Name                   string   `json:"name"`
	RegisteredCourses      []string `json:"registered_courses"`
	CompletedPrerequisites []string `json:"completed_prerequisites"`
}

func (s Student) Valid() error {
	if s.RollNumber == "" {
		return errors.New("Roll number cannot be empty")
	}
	if s.Name == "" {
		return errors.New("Student name cannot be empty")
	}

	return nil
}

func (s Student) Registered(courseCode string) bool {
	for _, code := range s.RegisteredCourses {
		if code == courseCode {
			return true
		}
	}
	return false
}

func (s Student) Completed(courseCode string) bool {
	for _, code := range s.CompletedPrerequisites {
		if code == courseCode {
			return true
		}
	}
	return false
}

// MissingPrerequisites returns the subset of the course's prerequisites the
// student has not completed, in catalog order.
func (s Student) MissingPrerequisites(c Course) []string {
	var missing []string
	for _, code := range c.Prerequisites {
		if !s.Completed(code) {
			missing = append(missing, code)
		}
	}
	return missing
}

// SeatEvent is broadcast whenever a course's seat count changes.
type SeatEvent struct {
	CourseCode string `json:"course_code"`
	Seats      uint   `json:"seats"`
}

// CourseFilter narrows a catalog listing. Zero values match everything.
type CourseFilter struct {
	Department string
	Day        *time.Weekday
	At         *ClockTime
	MinSeats   uint
}

func (f CourseFilter) Matches(c Course) bool {
	if f.Department != "" && c.Department != f.Department {
		return false
	}
	if f.Day != nil && !c.Slot.Days.Has(*f.Day) {
		return false
	}
	if f.At != nil && (*f.At < c.Slot.Start || *f.At >= c.Slot.End) {
		return false
	}
	if c.Seats < f.MinSeats {
		return false
	}
	return true
}

// Store persists Course and Student records
type Store interface {
	FindCourse(ctx context.Context, code string) (Course, error)
	FindStudent(ctx context.Context, rollNumber string) (Student, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	AddCourse(ctx context.Context, course Course) error
	SaveCourse(ctx context.Context, course Course) error
	AddStudent(ctx context.Context, student Student) error
	SaveStudent(ctx context.Context, student Student) error
}

// Publisher delivers seat-change events. Delivery is best effort, a failed
// publish never rolls back the registration that produced it.
type Publisher interface {
	Publish(ctx context.Context, event SeatEvent) error
}

// RegistrationService is the transactional registration surface exposed to
// external callers.
type RegistrationService interface {
	Register(ctx context.Context, rollNumber, courseCode string) error
	Drop(ctx context.Context, rollNumber, courseCode string) error
	CheckConflicts(ctx context.Context, rollNumber string, candidate TimeSlot) (bool, error)
	AdjustSeats(ctx context.Context, courseCode string, delta int) (uint, error)
	RegisteredCourses(ctx context.Context, rollNumber string) ([]Course, error)
}

// CatalogService manages course records outside the registration flow.
type CatalogService interface {
	AddCourse(ctx context.Context, course Course) error
	UpdateCourse(ctx context.Context, course Course) error
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	SeatCount(ctx context.Context, courseCode string) (uint, error)
}
