package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	registrar "github.com/campus-sense/registrar-go"
)

func slot(t *testing.T, days registrar.DaySet, start, end string) registrar.TimeSlot {
	t.Helper()

	s, err := registrar.ParseClock(start)
	require.NoError(t, err)
	e, err := registrar.ParseClock(end)
	require.NoError(t, err)

	built, err := registrar.NewTimeSlot(days, s, e)
	require.NoError(t, err)
	return built
}

func TestFindConflicts(t *testing.T) {
	mon := registrar.NewDaySet(time.Monday)
	monWed := registrar.NewDaySet(time.Monday, time.Wednesday)
	tue := registrar.NewDaySet(time.Tuesday)

	items := []Scheduled{
		{Owner: "CS101", Slot: slot(t, monWed, "10:00", "11:30")},
		{Owner: "CS105", Slot: slot(t, mon, "10:30", "12:00")},
		{Owner: "MA201", Slot: slot(t, tue, "10:00", "11:30")},
		{Owner: "PH110", Slot: slot(t, mon, "11:30", "12:30")},
	}

	conflicts := FindConflicts(items)
	require.Equal(t, []Pair{
		{A: "CS101", B: "CS105"},
		{A: "CS105", B: "PH110"},
	}, conflicts)
}

func TestFindConflicts_Empty(t *testing.T) {
	require.Empty(t, FindConflicts(nil))
	require.Empty(t, FindConflicts([]Scheduled{
		{Owner: "CS101", Slot: slot(t, registrar.NewDaySet(time.Monday), "10:00", "11:00")},
	}))
}

func TestFindConflicts_OrderIndependentSet(t *testing.T) {
	mon := registrar.NewDaySet(time.Monday)
	a := Scheduled{Owner: "A", Slot: slot(t, mon, "09:00", "10:30")}
	b := Scheduled{Owner: "B", Slot: slot(t, mon, "10:00", "11:00")}
	c := Scheduled{Owner: "C", Slot: slot(t, mon, "13:00", "14:00")}

	forward := FindConflicts([]Scheduled{a, b, c})
	reversed := FindConflicts([]Scheduled{c, b, a})

	// same conflicting pair regardless of input order, pair ordering follows
	// the input
	require.Equal(t, []Pair{{A: "A", B: "B"}}, forward)
	require.Equal(t, []Pair{{A: "B", B: "A"}}, reversed)
}

func TestWouldConflict(t *testing.T) {
	monWed := registrar.NewDaySet(time.Monday, time.Wednesday)
	existing := []registrar.TimeSlot{
		slot(t, monWed, "10:00", "11:30"),
		slot(t, registrar.NewDaySet(time.Friday), "14:00", "16:00"),
	}

	require.True(t, WouldConflict(existing, slot(t, registrar.NewDaySet(time.Monday), "10:30", "12:00")))
	require.False(t, WouldConflict(existing, slot(t, monWed, "11:30", "13:00")))
	require.False(t, WouldConflict(nil, slot(t, monWed, "10:00", "11:30")))
}

func TestFirstConflict(t *testing.T) {
	mon := registrar.NewDaySet(time.Monday)
	existing := []Scheduled{
		{Owner: "CS101", Slot: slot(t, mon, "10:00", "11:30")},
		{Owner: "CS102", Slot: slot(t, mon, "11:00", "12:00")},
	}

	owner, conflict := FirstConflict(existing, slot(t, mon, "10:30", "11:00"))
	require.True(t, conflict)
	require.Equal(t, "CS101", owner)

	_, conflict = FirstConflict(existing, slot(t, mon, "13:00", "14:00"))
	require.False(t, conflict)
}
