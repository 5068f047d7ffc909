// Package schedule detects conflicts between weekly recurring time slots.
// Everything here is pure: no state, no side effects.
package schedule

import (
	registrar "github.com/campus-sense/registrar-go"
)

// Scheduled pairs a slot with the identifier of whatever owns it, typically
// a course code.
type Scheduled struct {
	Owner string
	Slot  registrar.TimeSlot
}

// Pair is an unordered conflict between two owners. A always appears before
// B in the input sequence, which keeps results reproducible.
type Pair struct {
	A string
	B string
}

// FindConflicts compares every pair of scheduled items and returns the pairs
// whose slots overlap. O(n²), which is fine: per-student schedules are small
// and bounded by the course catalog.
func FindConflicts(items []Scheduled) []Pair {
	var conflicts []Pair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].Slot.Overlaps(items[j].Slot) {
				conflicts = append(conflicts, Pair{A: items[i].Owner, B: items[j].Owner})
			}
		}
	}
	return conflicts
}

// WouldConflict reports whether the candidate slot overlaps any existing
// slot. Single-candidate specialization of FindConflicts so callers adding
// one registration don't re-scan all existing pairs.
func WouldConflict(existing []registrar.TimeSlot, candidate registrar.TimeSlot) bool {
	for _, slot := range existing {
		if slot.Overlaps(candidate) {
			return true
		}
	}
	return false
}

// FirstConflict is WouldConflict with owner attribution: it returns the owner
// of the first existing slot the candidate overlaps.
func FirstConflict(existing []Scheduled, candidate registrar.TimeSlot) (string, bool) {
	for _, item := range existing {
		if item.Slot.Overlaps(candidate) {
			return item.Owner, true
		}
	}
	return "", false
}
