package model

// TimeWindow is a daily availability interval. Available false means the
// teacher cannot be scheduled that day at all.
type TimeWindow struct {
	Available bool
	Start     TimeOfDay
	End       TimeOfDay
}

// Covers reports whether the window is open for the whole [start, end)
// interval.
func (w TimeWindow) Covers(start, end TimeOfDay) bool {
	return w.Available && w.Start <= start && end <= w.End
}

// Teacher is a normalized teacher record. Owned by the normalizer and
// read-only to the solver.
type Teacher struct {
	ID             string
	Name           string
	MaxWeekMinutes int
	Availability   map[Weekday]TimeWindow
}

// AvailableFor reports whether the teacher can teach the full interval on
// the given day.
func (t *Teacher) AvailableFor(day Weekday, start, end TimeOfDay) bool {
	w, ok := t.Availability[day]
	if !ok {
		return false
	}
	return w.Covers(start, end)
}

// Room is a normalized room record, read-only to the solver.
type Room struct {
	ID       string
	Capacity int
	Features []Feature
	Type     string
}

// HasFeatures reports whether the room provides every required feature.
func (r *Room) HasFeatures(required []Feature) bool {
	for _, f := range required {
		found := false
		for _, have := range r.Features {
			if have == f {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
