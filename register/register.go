package register

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/campus-sense/registrar-go/schedule"
	"github.com/campus-sense/registrar-go/seats"
)

// Register implements RegistrationService
var _ registrar.RegistrationService = (*Register)(nil)

// Register coordinates the registration transaction: seat reservation,
// conflict detection, persistence and the seat-change broadcast.
type Register struct {
	store     registrar.Store
	ledger    *seats.Ledger
	publisher registrar.Publisher

	// mu guards students and tokens
	mu       sync.Mutex
	students map[string]*sync.Mutex
	// tokens held for live registrations, keyed roll/course. A drop exchanges
	// the token; registrations that predate this process fall back to an
	// administrative increment.
	tokens map[string]seats.Token
}

func NewRegister(store registrar.Store, ledger *seats.Ledger, publisher registrar.Publisher) *Register {
	return &Register{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		students:  make(map[string]*sync.Mutex),
		tokens:    make(map[string]seats.Token),
	}
}

// Register enrolls a student in a course.
//
// Registration steps:
// 1. Reject if the student is already registered for the course
// 2. Reject if any prerequisite is uncompleted, reporting the missing set
// 3. Reserve a seat, rejecting when none are available
// 4. Check the candidate slot against the student's current schedule,
//    releasing the reservation on conflict
// 5. Persist the student and course, then broadcast the new seat count
func (r *Register) Register(ctx context.Context, rollNumber, courseCode string) error {
	unlock := r.lockStudent(rollNumber)
	defer unlock()

	student, err := r.findStudent(ctx, rollNumber)
	if err != nil {
		return err
	}

	if student.Registered(courseCode) {
		return registrar.ErrAlreadyRegistered
	}

	course, err := r.findCourse(ctx, courseCode)
	if err != nil {
		return err
	}

	if missing := student.MissingPrerequisites(course); len(missing) > 0 {
		return &registrar.UnmetPrerequisitesError{Missing: missing}
	}

	r.ledger.Ensure(courseCode, course.Seats)
	token, remaining, err := r.ledger.Reserve(courseCode)
	if err != nil {
		return err
	}

	current, err := r.currentSchedule(ctx, student)
	if err != nil {
		r.compensate(token)
		return err
	}
	if owner, conflict := schedule.FirstConflict(current, course.Slot); conflict {
		r.compensate(token)
		return &registrar.ScheduleConflictError{CourseCode: owner}
	}

	original := student
	student.RegisteredCourses = append(append([]string{}, student.RegisteredCourses...), courseCode)
	if err := r.store.SaveStudent(ctx, student); err != nil {
		r.compensate(token)
		return &registrar.StoreUnavailableError{Op: "save student", Err: err}
	}

	course.Seats = remaining
	if err := r.store.SaveCourse(ctx, course); err != nil {
		r.compensate(token)
		if revertErr := r.store.SaveStudent(ctx, original); revertErr != nil {
			log.Error().Err(revertErr).Str("roll_number", rollNumber).Str("course", courseCode).
				Msg("failed to revert student after aborted registration, reconciliation required")
		}
		return &registrar.StoreUnavailableError{Op: "save course", Err: err}
	}

	r.storeToken(registrationKey(rollNumber, courseCode), token)
	r.publish(ctx, registrar.SeatEvent{CourseCode: courseCode, Seats: remaining})
	return nil
}

// Drop removes a registration, returning the seat. Inverse of Register: a
// register followed by a drop restores the student's schedule and the seat
// count exactly.
func (r *Register) Drop(ctx context.Context, rollNumber, courseCode string) error {
	unlock := r.lockStudent(rollNumber)
	defer unlock()

	student, err := r.findStudent(ctx, rollNumber)
	if err != nil {
		return err
	}

	if !student.Registered(courseCode) {
		return registrar.ErrNotRegistered
	}

	course, err := r.findCourse(ctx, courseCode)
	if err != nil {
		return err
	}

	remaining := make([]string, 0, len(student.RegisteredCourses))
	for _, code := range student.RegisteredCourses {
		if code != courseCode {
			remaining = append(remaining, code)
		}
	}
	student.RegisteredCourses = remaining
	if err := r.store.SaveStudent(ctx, student); err != nil {
		return &registrar.StoreUnavailableError{Op: "save student", Err: err}
	}

	seatCount := r.returnSeat(rollNumber, courseCode, course.Seats)

	course.Seats = seatCount
	if err := r.store.SaveCourse(ctx, course); err != nil {
		log.Error().Err(err).Str("course", courseCode).Uint("seats", seatCount).
			Msg("seat returned in ledger but course record not saved, reconciliation required")
		return &registrar.StoreUnavailableError{Op: "save course", Err: err}
	}

	r.publish(ctx, registrar.SeatEvent{CourseCode: courseCode, Seats: seatCount})
	return nil
}

// CheckConflicts reports whether the candidate slot overlaps any course the
// student is currently registered for.
func (r *Register) CheckConflicts(ctx context.Context, rollNumber string, candidate registrar.TimeSlot) (bool, error) {
	if err := candidate.Valid(); err != nil {
		return false, err
	}

	student, err := r.findStudent(ctx, rollNumber)
	if err != nil {
		return false, err
	}

	current, err := r.currentSchedule(ctx, student)
	if err != nil {
		return false, err
	}

	slots := make([]registrar.TimeSlot, 0, len(current))
	for _, item := range current {
		slots = append(slots, item.Slot)
	}
	return schedule.WouldConflict(slots, candidate), nil
}

// AdjustSeats applies an administrative seat delta outside the registration
// flow and broadcasts the new count.
func (r *Register) AdjustSeats(ctx context.Context, courseCode string, delta int) (uint, error) {
	course, err := r.findCourse(ctx, courseCode)
	if err != nil {
		return 0, err
	}

	r.ledger.Ensure(courseCode, course.Seats)
	seatCount, err := r.ledger.Adjust(courseCode, delta)
	if err != nil {
		return 0, err
	}

	course.Seats = seatCount
	if err := r.store.SaveCourse(ctx, course); err != nil {
		if _, undoErr := r.ledger.Adjust(courseCode, -delta); undoErr != nil {
			log.Error().Err(undoErr).Str("course", courseCode).
				Msg("failed to undo seat adjustment, reconciliation required")
		}
		return 0, &registrar.StoreUnavailableError{Op: "save course", Err: err}
	}

	r.publish(ctx, registrar.SeatEvent{CourseCode: courseCode, Seats: seatCount})
	return seatCount, nil
}

// RegisteredCourses resolves the student's registered course codes to full
// course records.
func (r *Register) RegisteredCourses(ctx context.Context, rollNumber string) ([]registrar.Course, error) {
	student, err := r.findStudent(ctx, rollNumber)
	if err != nil {
		return nil, err
	}

	courses := make([]registrar.Course, 0, len(student.RegisteredCourses))
	for _, code := range student.RegisteredCourses {
		course, err := r.findCourse(ctx, code)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// lockStudent serializes register/drop calls per student so concurrent
// requests for one student cannot lose updates.
func (r *Register) lockStudent(rollNumber string) func() {
	r.mu.Lock()
	mu, ok := r.students[rollNumber]
	if !ok {
		mu = &sync.Mutex{}
		r.students[rollNumber] = mu
	}
	r.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (r *Register) findStudent(ctx context.Context, rollNumber string) (registrar.Student, error) {
	student, err := r.store.FindStudent(ctx, rollNumber)
	if errors.Is(err, registrar.ErrStudentNotFound) {
		return registrar.Student{}, err
	} else if err != nil {
		return registrar.Student{}, &registrar.StoreUnavailableError{Op: "find student", Err: err}
	}
	return student, nil
}

func (r *Register) findCourse(ctx context.Context, courseCode string) (registrar.Course, error) {
	course, err := r.store.FindCourse(ctx, courseCode)
	if errors.Is(err, registrar.ErrCourseNotFound) {
		return registrar.Course{}, err
	} else if err != nil {
		return registrar.Course{}, &registrar.StoreUnavailableError{Op: "find course", Err: err}
	}
	return course, nil
}

func (r *Register) currentSchedule(ctx context.Context, student registrar.Student) ([]schedule.Scheduled, error) {
	items := make([]schedule.Scheduled, 0, len(student.RegisteredCourses))
	for _, code := range student.RegisteredCourses {
		course, err := r.findCourse(ctx, code)
		if err != nil {
			return nil, err
		}
		items = append(items, schedule.Scheduled{Owner: course.Code, Slot: course.Slot})
	}
	return items, nil
}

// compensate undoes a reservation after a later step fails. A failed release
// means the seat is lost until reconciled, so it is logged loudly.
func (r *Register) compensate(token seats.Token) {
	if _, err := r.ledger.Release(token); err != nil {
		log.Error().Err(err).Str("token", token.String()).
			Msg("failed to release reservation during compensation, reconciliation required")
	}
}

// returnSeat gives one seat back on drop. Prefers exchanging the token held
// for the registration; registrations from a previous process have no token
// and use an administrative increment instead.
func (r *Register) returnSeat(rollNumber, courseCode string, knownSeats uint) uint {
	key := registrationKey(rollNumber, courseCode)
	r.ledger.Ensure(courseCode, knownSeats)

	if token, ok := r.takeToken(key); ok {
		if seatCount, err := r.ledger.Release(token); err == nil {
			return seatCount
		}
	}

	seatCount, err := r.ledger.Adjust(courseCode, 1)
	if err != nil {
		// Adjust(+1) on a known course cannot fail the negative guard.
		log.Error().Err(err).Str("course", courseCode).Msg("failed to return seat")
		return knownSeats
	}
	return seatCount
}

func (r *Register) publish(ctx context.Context, event registrar.SeatEvent) {
	if err := r.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("course", event.CourseCode).Msg("failed to publish seat event")
	}
}

func (r *Register) storeToken(key string, token seats.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[key] = token
}

func (r *Register) takeToken(key string) (seats.Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[key]
	if ok {
		delete(r.tokens, key)
	}
	return token, ok
}

func registrationKey(rollNumber, courseCode string) string {
	return rollNumber + "/" + courseCode
}
