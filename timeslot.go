package registrar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClockTime is a time of day in minutes since midnight. Slots recur weekly,
// so only the time of day ever participates in comparisons.
type ClockTime int

const minutesPerDay = 24 * 60

// ParseClock parses a 24-hour "HH:MM" string.
func ParseClock(s string) (ClockTime, error) {
	var hours, minutes int
	if _, err := fmt.Sscanf(s, "%d:%d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("failed to parse clock time %q: %w", s, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}

	return ClockTime(hours*60 + minutes), nil
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DaySet is a set of weekdays packed into a bitmask.
type DaySet uint8

func NewDaySet(days ...time.Weekday) DaySet {
	var set DaySet
	for _, d := range days {
		set |= 1 << uint(d)
	}
	return set
}

func (s DaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s DaySet) Intersects(o DaySet) bool {
	return s&o != 0
}

func (s DaySet) Empty() bool {
	return s == 0
}

// Days lists the members in Monday-first order.
func (s DaySet) Days() []time.Weekday {
	var days []time.Weekday
	for i := 0; i < 7; i++ {
		d := time.Weekday((i + 1) % 7)
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s DaySet) String() string {
	var names []string
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// ParseDay accepts full weekday names or three-letter abbreviations, case
// insensitively.
func ParseDay(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func (s DaySet) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return json.Marshal(names)
}

func (s *DaySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}

	var set DaySet
	for _, name := range names {
		d, err := ParseDay(name)
		if err != nil {
			return err
		}
		set |= NewDaySet(d)
	}
	*s = set
	return nil
}

// TimeSlot is a weekly recurring interval: a set of weekdays plus a half-open
// [Start, End) time-of-day range shared by all of them.
type TimeSlot struct {
	Days  DaySet    `json:"days"`
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// NewTimeSlot validates and constructs a slot. The weekday set must be
// non-empty and Start must precede End.
func NewTimeSlot(days DaySet, start, end ClockTime) (TimeSlot, error) {
	slot := TimeSlot{Days: days, Start: start, End: end}
	if err := slot.Valid(); err != nil {
		return TimeSlot{}, err
	}
	return slot, nil
}

func (s TimeSlot) Valid() error {
	if s.Days.Empty() {
		return fmt.Errorf("%w: weekday set is empty", ErrInvalidSlot)
	}
	if s.Start >= s.End {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidSlot, s.Start, s.End)
	}
	if s.Start < 0 || s.End > minutesPerDay {
		return fmt.Errorf("%w: times must fall within a single day", ErrInvalidSlot)
	}
	return nil
}

// Overlaps reports whether the two slots share a weekday and their half-open
// time ranges intersect. Back-to-back slots (a.End == b.Start) do not overlap.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	if !s.Days.Intersects(o.Days) {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Days, s.Start, s.End)
}
