// Package seats tracks the authoritative seat counter for each course and
// makes reservation and release atomic per course.
package seats

import (
	"fmt"
	"sync"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/google/uuid"
)

// Token is a single-use credential representing one held seat. It must be
// exchanged to release the seat again.
type Token struct {
	ID         string
	CourseCode string
}

func (t Token) String() string {
	return fmt.Sprintf("%s:%s", t.CourseCode, t.ID)
}

type counter struct {
	mu    sync.Mutex
	seats uint
	// reservation ids that have been issued but not yet released
	outstanding map[string]struct{}
}

// Ledger holds one counter per course. Counters are locked individually so
// reservations for unrelated courses never serialize against each other.
type Ledger struct {
	mu       sync.Mutex
	counters map[string]*counter
}

func NewLedger() *Ledger {
	return &Ledger{counters: make(map[string]*counter)}
}

// Load sets the counter for a course, overwriting any existing value. Used
// when seeding the ledger from the store at startup and when a course is
// added to the catalog.
func (l *Ledger) Load(courseCode string, seats uint) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counters[courseCode] = &counter{seats: seats, outstanding: make(map[string]struct{})}
}

// Ensure loads the counter only if the ledger has not seen the course yet,
// so a live count is never clobbered.
func (l *Ledger) Ensure(courseCode string, seats uint) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.counters[courseCode]; !ok {
		l.counters[courseCode] = &counter{seats: seats, outstanding: make(map[string]struct{})}
	}
}

// Seats returns the current counter value for a course.
func (l *Ledger) Seats(courseCode string) (uint, bool) {
	c, ok := l.counter(courseCode)
	if !ok {
		return 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seats, true
}

// Reserve takes one seat and returns a single-use token for it along with
// the remaining count. Fails with ErrNoSeats when the counter is zero; two
// concurrent reservations for the last seat admit exactly one winner.
func (l *Ledger) Reserve(courseCode string) (Token, uint, error) {
	c, ok := l.counter(courseCode)
	if !ok {
		return Token{}, 0, registrar.ErrCourseNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seats == 0 {
		return Token{}, 0, registrar.ErrNoSeats
	}
	c.seats--

	token := Token{ID: uuid.NewString(), CourseCode: courseCode}
	c.outstanding[token.ID] = struct{}{}
	return token, c.seats, nil
}

// Release returns a reserved seat and invalidates the token. Releasing a
// token twice fails with ErrInvalidToken so a seat can never be returned
// more times than it was taken.
func (l *Ledger) Release(token Token) (uint, error) {
	c, ok := l.counter(token.CourseCode)
	if !ok {
		return 0, fmt.Errorf("%w: unknown course %s", registrar.ErrInvalidToken, token.CourseCode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.outstanding[token.ID]; !ok {
		return 0, registrar.ErrInvalidToken
	}
	delete(c.outstanding, token.ID)
	c.seats++
	return c.seats, nil
}

// Adjust applies an administrative delta to a course counter, outside the
// reserve/release flow. Fails with ErrNegativeSeats if the result would drop
// below zero.
func (l *Ledger) Adjust(courseCode string, delta int) (uint, error) {
	c, ok := l.counter(courseCode)
	if !ok {
		return 0, registrar.ErrCourseNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if delta < 0 && uint(-delta) > c.seats {
		return 0, registrar.ErrNegativeSeats
	}
	if delta < 0 {
		c.seats -= uint(-delta)
	} else {
		c.seats += uint(delta)
	}
	return c.seats, nil
}

func (l *Ledger) counter(courseCode string) (*counter, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[courseCode]
	return c, ok
}
