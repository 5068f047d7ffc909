package repository

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	registrar "github.com/campus-sense/registrar-go"
)

type countingStore struct {
	registrar.Store
	courseFinds  atomic.Int64
	studentFinds atomic.Int64
}

func (c *countingStore) FindCourse(ctx context.Context, code string) (registrar.Course, error) {
	c.courseFinds.Add(1)
	return c.Store.FindCourse(ctx, code)
}

func (c *countingStore) FindStudent(ctx context.Context, rollNumber string) (registrar.Student, error) {
	c.studentFinds.Add(1)
	return c.Store.FindStudent(ctx, rollNumber)
}

func testCourse(t *testing.T, code string) registrar.Course {
	t.Helper()

	start, err := registrar.ParseClock("09:00")
	require.NoError(t, err)
	end, err := registrar.ParseClock("10:00")
	require.NoError(t, err)
	slot, err := registrar.NewTimeSlot(registrar.NewDaySet(time.Friday), start, end)
	require.NoError(t, err)

	return registrar.Course{Code: code, Title: "t", Department: "CS", Slot: slot, Seats: 5}
}

func TestCached_FindCourse(t *testing.T) {
	ctx := context.Background()

	inner := NewMemoryStore()
	require.NoError(t, inner.AddCourse(ctx, testCourse(t, "CS101")))

	counting := &countingStore{Store: inner}
	cached := NewCached(counting, time.Minute)

	for i := 0; i < 3; i++ {
		course, err := cached.FindCourse(ctx, "CS101")
		require.NoError(t, err)
		require.Equal(t, "CS101", course.Code)
	}
	require.Equal(t, int64(1), counting.courseFinds.Load())

	// misses are not cached
	_, err := cached.FindCourse(ctx, "CS999")
	require.ErrorIs(t, err, registrar.ErrCourseNotFound)
	_, err = cached.FindCourse(ctx, "CS999")
	require.ErrorIs(t, err, registrar.ErrCourseNotFound)
	require.Equal(t, int64(3), counting.courseFinds.Load())
}

func TestCached_SaveInvalidates(t *testing.T) {
	ctx := context.Background()

	inner := NewMemoryStore()
	require.NoError(t, inner.AddCourse(ctx, testCourse(t, "CS101")))

	counting := &countingStore{Store: inner}
	cached := NewCached(counting, time.Minute)

	_, err := cached.FindCourse(ctx, "CS101")
	require.NoError(t, err)

	updated := testCourse(t, "CS101")
	updated.Seats = 4
	require.NoError(t, cached.SaveCourse(ctx, updated))

	course, err := cached.FindCourse(ctx, "CS101")
	require.NoError(t, err)
	require.Equal(t, uint(4), course.Seats)
	require.Equal(t, int64(2), counting.courseFinds.Load())
}

func TestCached_FindStudent(t *testing.T) {
	ctx := context.Background()

	inner := NewMemoryStore()
	require.NoError(t, inner.AddStudent(ctx, registrar.Student{RollNumber: "S1", Name: "Asha"}))

	counting := &countingStore{Store: inner}
	cached := NewCached(counting, time.Minute)

	_, err := cached.FindStudent(ctx, "S1")
	require.NoError(t, err)
	_, err = cached.FindStudent(ctx, "S1")
	require.NoError(t, err)
	require.Equal(t, int64(1), counting.studentFinds.Load())

	student := registrar.Student{RollNumber: "S1", Name: "Asha", RegisteredCourses: []string{"CS101"}}
	require.NoError(t, cached.SaveStudent(ctx, student))

	found, err := cached.FindStudent(ctx, "S1")
	require.NoError(t, err)
	require.Equal(t, []string{"CS101"}, found.RegisteredCourses)
}
