package repository

import (
	"context"
	"sort"
	"sync"

	registrar "github.com/campus-sense/registrar-go"
)

var _ registrar.Store = (*MemoryStore)(nil)

// MemoryStore keeps all records in process memory. Useful for tests and for
// running the service without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	courses  map[string]registrar.Course
	students map[string]registrar.Student
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses:  make(map[string]registrar.Course),
		students: make(map[string]registrar.Student),
	}
}

func (m *MemoryStore) FindCourse(ctx context.Context, code string) (registrar.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	course, ok := m.courses[code]
	if !ok {
		return registrar.Course{}, registrar.ErrCourseNotFound
	}
	return course, nil
}

func (m *MemoryStore) FindStudent(ctx context.Context, rollNumber string) (registrar.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	student, ok := m.students[rollNumber]
	if !ok {
		return registrar.Student{}, registrar.ErrStudentNotFound
	}
	return student, nil
}

func (m *MemoryStore) ListCourses(ctx context.Context, filter registrar.CourseFilter) ([]registrar.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var courses []registrar.Course
	for _, course := range m.courses {
		if filter.Matches(course) {
			courses = append(courses, course)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (m *MemoryStore) AddCourse(ctx context.Context, course registrar.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[course.Code]; ok {
		return registrar.ErrDuplicateCourse
	}
	m.courses[course.Code] = course
	return nil
}

func (m *MemoryStore) SaveCourse(ctx context.Context, course registrar.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.courses[course.Code] = course
	return nil
}

func (m *MemoryStore) AddStudent(ctx context.Context, student registrar.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.students[student.RollNumber] = student
	return nil
}

func (m *MemoryStore) SaveStudent(ctx context.Context, student registrar.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.students[student.RollNumber] = student
	return nil
}
