package repository

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	registrar "github.com/campus-sense/registrar-go"
)

var _ registrar.Store = (*Cached)(nil)

// Cached is a read-through decorator for a Store. Course and student lookups
// dominate the registration path (every conflict check re-reads the
// student's whole schedule), so single-record reads are cached with a TTL
// and invalidated on write. Listings always hit the backing store.
type Cached struct {
	inner registrar.Store
	cache *gocache.Cache
}

func NewCached(inner registrar.Store, ttl time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Cached) FindCourse(ctx context.Context, code string) (registrar.Course, error) {
	if cached, ok := c.cache.Get(courseKey(code)); ok {
		return cached.(registrar.Course), nil
	}

	course, err := c.inner.FindCourse(ctx, code)
	if err != nil {
		return registrar.Course{}, err
	}

	c.cache.SetDefault(courseKey(code), course)
	return course, nil
}

func (c *Cached) FindStudent(ctx context.Context, rollNumber string) (registrar.Student, error) {
	if cached, ok := c.cache.Get(studentKey(rollNumber)); ok {
		return cached.(registrar.Student), nil
	}

	student, err := c.inner.FindStudent(ctx, rollNumber)
	if err != nil {
		return registrar.Student{}, err
	}

	c.cache.SetDefault(studentKey(rollNumber), student)
	return student, nil
}

func (c *Cached) ListCourses(ctx context.Context, filter registrar.CourseFilter) ([]registrar.Course, error) {
	return c.inner.ListCourses(ctx, filter)
}

func (c *Cached) AddCourse(ctx context.Context, course registrar.Course) error {
	if err := c.inner.AddCourse(ctx, course); err != nil {
		return err
	}
	c.cache.Delete(courseKey(course.Code))
	return nil
}

func (c *Cached) SaveCourse(ctx context.Context, course registrar.Course) error {
	if err := c.inner.SaveCourse(ctx, course); err != nil {
		return err
	}
	c.cache.Delete(courseKey(course.Code))
	return nil
}

func (c *Cached) AddStudent(ctx context.Context, student registrar.Student) error {
	if err := c.inner.AddStudent(ctx, student); err != nil {
		return err
	}
	c.cache.Delete(studentKey(student.RollNumber))
	return nil
}

func (c *Cached) SaveStudent(ctx context.Context, student registrar.Student) error {
	if err := c.inner.SaveStudent(ctx, student); err != nil {
		return err
	}
	c.cache.Delete(studentKey(student.RollNumber))
	return nil
}

func courseKey(code string) string {
	return "course/" + code
}

func studentKey(rollNumber string) string {
	return "student/" + rollNumber
}
