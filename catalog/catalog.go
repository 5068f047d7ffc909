// Package catalog manages course records outside the registration flow.
package catalog

import (
	"context"
	"errors"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/campus-sense/registrar-go/seats"
)

// Catalog implements CatalogService
var _ registrar.CatalogService = (*Catalog)(nil)

type Catalog struct {
	store  registrar.Store
	ledger *seats.Ledger
}

func NewCatalog(store registrar.Store, ledger *seats.Ledger) *Catalog {
	return &Catalog{store: store, ledger: ledger}
}

// AddCourse creates a course record and loads its counter into the ledger.
// Fails with ErrDuplicateCourse when the code is taken.
func (c *Catalog) AddCourse(ctx context.Context, course registrar.Course) error {
	if err := course.Valid(); err != nil {
		return err
	}

	if err := c.store.AddCourse(ctx, course); err != nil {
		if errors.Is(err, registrar.ErrDuplicateCourse) {
			return err
		}
		return &registrar.StoreUnavailableError{Op: "add course", Err: err}
	}

	c.ledger.Load(course.Code, course.Seats)
	return nil
}

// UpdateCourse edits a course's title, slot or prerequisites. The seat count
// is never touched here: editing a schedule is not a registration, seats
// change only through the ledger.
func (c *Catalog) UpdateCourse(ctx context.Context, course registrar.Course) error {
	if err := course.Valid(); err != nil {
		return err
	}

	existing, err := c.store.FindCourse(ctx, course.Code)
	if errors.Is(err, registrar.ErrCourseNotFound) {
		return err
	} else if err != nil {
		return &registrar.StoreUnavailableError{Op: "find course", Err: err}
	}

	course.Seats = existing.Seats
	if current, ok := c.ledger.Seats(course.Code); ok {
		course.Seats = current
	}

	if err := c.store.SaveCourse(ctx, course); err != nil {
		return &registrar.StoreUnavailableError{Op: "save course", Err: err}
	}
	return nil
}

func (c *Catalog) ListCourses(ctx context.Context, filter registrar.CourseFilter) ([]registrar.Course, error) {
	courses, err := c.store.ListCourses(ctx, filter)
	if err != nil {
		return nil, &registrar.StoreUnavailableError{Op: "list courses", Err: err}
	}
	return courses, nil
}

// SeatCount reports the live counter when the ledger has one, falling back
// to the stored record.
func (c *Catalog) SeatCount(ctx context.Context, courseCode string) (uint, error) {
	if seatCount, ok := c.ledger.Seats(courseCode); ok {
		return seatCount, nil
	}

	course, err := c.store.FindCourse(ctx, courseCode)
	if errors.Is(err, registrar.ErrCourseNotFound) {
		return 0, err
	} else if err != nil {
		return 0, &registrar.StoreUnavailableError{Op: "find course", Err: err}
	}
	return course.Seats, nil
}
