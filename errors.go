package registrar

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned by the core. All are plain values so callers can map
// them to user-facing responses with errors.Is / errors.As.
var (
	ErrInvalidSlot       = errors.New("invalid time slot")
	ErrNoSeats           = errors.New("no seats available")
	ErrInvalidToken      = errors.New("invalid reservation token")
	ErrNegativeSeats     = errors.New("seat count cannot go negative")
	ErrAlreadyRegistered = errors.New("already registered for course")
	ErrNotRegistered     = errors.New("not registered for course")
	ErrCourseNotFound    = errors.New("course not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrDuplicateCourse   = errors.New("course code already exists")
)

// UnmetPrerequisitesError reports the prerequisites a student is missing for
// a course, for display to the student.
type UnmetPrerequisitesError struct {
	Missing []string
}

func (e *UnmetPrerequisitesError) Error() string {
	return fmt.Sprintf("unmet prerequisites: %s", strings.Join(e.Missing, ", "))
}

// ScheduleConflictError reports the already-registered course whose slot
// overlaps the candidate.
type ScheduleConflictError struct {
	CourseCode string
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with %s", e.CourseCode)
}

// StoreUnavailableError wraps a persistence failure. The coordinator treats
// it as aborting the in-progress transaction.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %s", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}
