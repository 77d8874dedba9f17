package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday identifies a working day. Monday is 0 so that slot grids index
// naturally from the start of the academic week.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// String returns a human-readable representation of the weekday.
func (d Weekday) String() string {
	switch d {
	case Monday:
		return "Monday"
	case Tuesday:
		return "Tuesday"
	case Wednesday:
		return "Wednesday"
	case Thursday:
		return "Thursday"
	case Friday:
		return "Friday"
	case Saturday:
		return "Saturday"
	case Sunday:
		return "Sunday"
	default:
		return "unknown"
	}
}

// ParseWeekday converts a day name to a Weekday.
func ParseWeekday(s string) (Weekday, error) {
	for d := Monday; d <= Sunday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// TimeOfDay is a clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// String formats the time back to HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// TimeSlot is one atomic schedulable period of the weekly grid. Slots are
// built once per run from the working-hours policy and never mutated.
type TimeSlot struct {
	Day   Weekday
	Index int
	Start TimeOfDay
	End   TimeOfDay
}

// SlotRef identifies a grid position without carrying clock times.
type SlotRef struct {
	Day  Weekday
	Slot int
}

// Ref returns the grid position of the slot.
func (s TimeSlot) Ref() SlotRef { return SlotRef{Day: s.Day, Slot: s.Index} }

// Overlaps reports whether two slots on the same day share any minutes.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	if s.Day != o.Day {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}
