package registrar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustSlot(t *testing.T, days DaySet, start, end string) TimeSlot {
	t.Helper()

	s, err := ParseClock(start)
	require.NoError(t, err)
	e, err := ParseClock(end)
	require.NoError(t, err)

	slot, err := NewTimeSlot(days, s, e)
	require.NoError(t, err)
	return slot
}

func TestParseClock(t *testing.T) {
	parsed, err := ParseClock("10:30")
	require.NoError(t, err)
	require.Equal(t, ClockTime(10*60+30), parsed)
	require.Equal(t, "10:30", parsed.String())

	_, err = ParseClock("25:00")
	require.Error(t, err)
	_, err = ParseClock("10:75")
	require.Error(t, err)
	_, err = ParseClock("lunchtime")
	require.Error(t, err)
}

func TestParseDay(t *testing.T) {
	for _, input := range []string{"Mon", "mon", "Monday", "MONDAY"} {
		day, err := ParseDay(input)
		require.NoError(t, err)
		require.Equal(t, time.Monday, day)
	}

	_, err := ParseDay("Funday")
	require.Error(t, err)
}

func TestNewTimeSlot_Invalid(t *testing.T) {
	start, _ := ParseClock("10:00")
	end, _ := ParseClock("11:30")

	_, err := NewTimeSlot(NewDaySet(), start, end)
	require.ErrorIs(t, err, ErrInvalidSlot)

	_, err = NewTimeSlot(NewDaySet(time.Monday), end, start)
	require.ErrorIs(t, err, ErrInvalidSlot)

	_, err = NewTimeSlot(NewDaySet(time.Monday), start, start)
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestOverlaps(t *testing.T) {
	monWed := NewDaySet(time.Monday, time.Wednesday)
	tueThu := NewDaySet(time.Tuesday, time.Thursday)
	wedFri := NewDaySet(time.Wednesday, time.Friday)

	a := mustSlot(t, monWed, "10:00", "11:30")

	// same days, intersecting times
	require.True(t, a.Overlaps(mustSlot(t, monWed, "10:30", "12:00")))
	// shared Wednesday only
	require.True(t, a.Overlaps(mustSlot(t, wedFri, "11:00", "12:00")))
	// containment
	require.True(t, a.Overlaps(mustSlot(t, monWed, "10:15", "10:45")))
	// disjoint days, identical times
	require.False(t, a.Overlaps(mustSlot(t, tueThu, "10:00", "11:30")))
	// disjoint times, shared days
	require.False(t, a.Overlaps(mustSlot(t, monWed, "12:00", "13:00")))
}

func TestOverlaps_BackToBack(t *testing.T) {
	mon := NewDaySet(time.Monday)

	a := mustSlot(t, mon, "09:00", "10:00")
	b := mustSlot(t, mon, "10:00", "11:00")

	require.False(t, a.Overlaps(b))
	require.False(t, b.Overlaps(a))
}

func slotGen() *rapid.Generator[TimeSlot] {
	return rapid.Custom(func(t *rapid.T) TimeSlot {
		dayCount := rapid.IntRange(1, 7).Draw(t, "dayCount")
		var days DaySet
		for i := 0; i < dayCount; i++ {
			days |= NewDaySet(time.Weekday(rapid.IntRange(0, 6).Draw(t, "day")))
		}

		start := rapid.IntRange(0, minutesPerDay-2).Draw(t, "start")
		end := rapid.IntRange(start+1, minutesPerDay-1).Draw(t, "end")

		slot, err := NewTimeSlot(days, ClockTime(start), ClockTime(end))
		if err != nil {
			t.Fatalf("generated invalid slot: %v", err)
		}
		return slot
	})
}

func TestOverlaps_Symmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := slotGen().Draw(t, "a")
		b := slotGen().Draw(t, "b")

		if a.Overlaps(b) != b.Overlaps(a) {
			t.Fatalf("overlap not symmetric for %s and %s", a, b)
		}
	})
}

func TestOverlaps_DisjointDaysNeverOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := slotGen().Draw(t, "a")
		b := slotGen().Draw(t, "b")
		// strip the shared days from b
		b.Days &^= a.Days
		if b.Days.Empty() {
			t.Skip("no days left")
		}

		if a.Overlaps(b) {
			t.Fatalf("slots with disjoint weekdays overlap: %s and %s", a, b)
		}
	})
}

func TestTimeSlotJSON(t *testing.T) {
	slot := mustSlot(t, NewDaySet(time.Monday, time.Wednesday), "10:00", "11:30")

	raw, err := json.Marshal(slot)
	require.NoError(t, err)
	require.JSONEq(t, `{"days":["Mon","Wed"],"start":"10:00","end":"11:30"}`, string(raw))

	var decoded TimeSlot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, slot, decoded)
}

func TestMissingPrerequisites(t *testing.T) {
	course := Course{
		Code:          "CS102",
		Prerequisites: []string{"CS100", "CS101"},
	}

	student := Student{RollNumber: "S1", CompletedPrerequisites: []string{"CS100"}}
	require.Equal(t, []string{"CS101"}, student.MissingPrerequisites(course))

	student.CompletedPrerequisites = []string{"CS100", "CS101"}
	require.Empty(t, student.MissingPrerequisites(course))

	student.CompletedPrerequisites = nil
	require.Equal(t, []string{"CS100", "CS101"}, student.MissingPrerequisites(course))
}
