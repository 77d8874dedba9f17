package calendar

import (
	"fmt"

	"github.com/acadterm/timetabler/core/model"
)

// WorkingHours is the institutional working-hours policy a slot grid is
// derived from. Loaded from configuration.
type WorkingHours struct {
	StartTime        string   `json:"start_time" yaml:"start_time"`
	EndTime          string   `json:"end_time" yaml:"end_time"`
	LunchStart       string   `json:"lunch_start" yaml:"lunch_start"`
	LunchEnd         string   `json:"lunch_end" yaml:"lunch_end"`
	PeriodMinutes    int      `json:"period_minutes" yaml:"period_minutes"`
	BreakMinutes     int      `json:"break_minutes" yaml:"break_minutes"`
	LabPeriodMinutes int      `json:"lab_period_minutes" yaml:"lab_period_minutes"`
	MaxPeriodsPerDay int      `json:"max_periods_per_day" yaml:"max_periods_per_day"`
	WorkingDays      []string `json:"working_days" yaml:"working_days"`
}

// SetDefaults applies sane defaults for optional fields.
func (w *WorkingHours) SetDefaults() {
	if w.BreakMinutes < 0 {
		w.BreakMinutes = 0
	}
	if w.LabPeriodMinutes == 0 {
		w.LabPeriodMinutes = 2 * w.PeriodMinutes
	}
	if len(w.WorkingDays) == 0 {
		w.WorkingDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	}
}

// Grid is the finite set of schedulable slots for one week. Immutable once
// built; every session occurrence is placed into it.
type Grid struct {
	Days          []model.Weekday
	SlotsPerDay   int
	PeriodMinutes int
	BreakMinutes  int
	LabSlotSpan   int
	slots         map[model.Weekday][]model.TimeSlot
}

// Build derives the weekly slot grid from the policy. It fails with a
// ConfigError when the working window cannot fit a single period after the
// lunch break is removed, or when the field values are inconsistent.
func Build(policy WorkingHours) (*Grid, error) {
	policy.SetDefaults()

	if policy.PeriodMinutes <= 0 {
		return nil, &model.ConfigError{Field: "period_minutes", Reason: "must be positive"}
	}
	if policy.LabPeriodMinutes < policy.PeriodMinutes {
		return nil, &model.ConfigError{Field: "lab_period_minutes", Reason: "must be at least one period long"}
	}
	if policy.MaxPeriodsPerDay <= 0 {
		return nil, &model.ConfigError{Field: "max_periods_per_day", Reason: "must be positive"}
	}
	start, err := model.ParseTimeOfDay(policy.StartTime)
	if err != nil {
		return nil, &model.ConfigError{Field: "start_time", Reason: err.Error()}
	}
	end, err := model.ParseTimeOfDay(policy.EndTime)
	if err != nil {
		return nil, &model.ConfigError{Field: "end_time", Reason: err.Error()}
	}
	if end <= start {
		return nil, &model.ConfigError{Field: "end_time", Reason: "must be after start_time"}
	}
	var lunchStart, lunchEnd model.TimeOfDay
	hasLunch := policy.LunchStart != "" && policy.LunchEnd != ""
	if hasLunch {
		if lunchStart, err = model.ParseTimeOfDay(policy.LunchStart); err != nil {
			return nil, &model.ConfigError{Field: "lunch_start", Reason: err.Error()}
		}
		if lunchEnd, err = model.ParseTimeOfDay(policy.LunchEnd); err != nil {
			return nil, &model.ConfigError{Field: "lunch_end", Reason: err.Error()}
		}
		if lunchEnd <= lunchStart {
			return nil, &model.ConfigError{Field: "lunch_end", Reason: "must be after lunch_start"}
		}
	}

	days := make([]model.Weekday, 0, len(policy.WorkingDays))
	for _, name := range policy.WorkingDays {
		d, err := model.ParseWeekday(name)
		if err != nil {
			return nil, &model.ConfigError{Field: "working_days", Reason: err.Error()}
		}
		days = append(days, d)
	}

	// One day template shared by every working day.
	period := model.TimeOfDay(policy.PeriodMinutes)
	gap := model.TimeOfDay(policy.BreakMinutes)
	var template []model.TimeSlot
	cursor := start
	for len(template) < policy.MaxPeriodsPerDay {
		if hasLunch && cursor < lunchEnd && cursor+period > lunchStart {
			cursor = lunchEnd
		}
		if cursor+period > end {
			break
		}
		template = append(template, model.TimeSlot{
			Index: len(template),
			Start: cursor,
			End:   cursor + period,
		})
		cursor += period + gap
	}
	if len(template) == 0 {
		return nil, &model.ConfigError{
			Field:  "start_time",
			Reason: "working window cannot fit a single period after lunch break",
		}
	}

	g := &Grid{
		Days:          days,
		SlotsPerDay:   len(template),
		PeriodMinutes: policy.PeriodMinutes,
		BreakMinutes:  policy.BreakMinutes,
		LabSlotSpan:   (policy.LabPeriodMinutes + policy.PeriodMinutes - 1) / policy.PeriodMinutes,
		slots:         make(map[model.Weekday][]model.TimeSlot, len(days)),
	}
	for _, d := range days {
		daySlots := make([]model.TimeSlot, len(template))
		for i, s := range template {
			s.Day = d
			daySlots[i] = s
		}
		g.slots[d] = daySlots
	}
	return g, nil
}

// DaySlots returns the ordered slots of one working day.
func (g *Grid) DaySlots(day model.Weekday) []model.TimeSlot {
	return g.slots[day]
}

// SlotAt returns the slot at the given grid position.
func (g *Grid) SlotAt(ref model.SlotRef) (model.TimeSlot, error) {
	daySlots, ok := g.slots[ref.Day]
	if !ok {
		return model.TimeSlot{}, fmt.Errorf("%s is not a working day", ref.Day)
	}
	if ref.Slot < 0 || ref.Slot >= len(daySlots) {
		return model.TimeSlot{}, fmt.Errorf("slot %d out of range on %s", ref.Slot, ref.Day)
	}
	return daySlots[ref.Slot], nil
}

// SpanFor returns how many contiguous grid slots a session of the given
// duration covers.
func (g *Grid) SpanFor(durationMinutes int) int {
	if durationMinutes <= 0 {
		return 1
	}
	return (durationMinutes + g.PeriodMinutes - 1) / g.PeriodMinutes
}

// Window returns the clock interval covered by count slots starting at ref.
func (g *Grid) Window(ref model.SlotRef, count int) (model.TimeOfDay, model.TimeOfDay, error) {
	first, err := g.SlotAt(ref)
	if err != nil {
		return 0, 0, err
	}
	last, err := g.SlotAt(model.SlotRef{Day: ref.Day, Slot: ref.Slot + count - 1})
	if err != nil {
		return 0, 0, err
	}
	return first.Start, last.End, nil
}

// Contiguous reports whether count slots starting at ref form an unbroken
// run: every adjacent pair is separated only by the regular break, so a
// multi-slot session never straddles the lunch window.
func (g *Grid) Contiguous(ref model.SlotRef, count int) bool {
	daySlots, ok := g.slots[ref.Day]
	if !ok || ref.Slot < 0 || ref.Slot+count > len(daySlots) {
		return false
	}
	for i := ref.Slot; i < ref.Slot+count-1; i++ {
		if int(daySlots[i+1].Start-daySlots[i].End) > g.BreakMinutes {
			return false
		}
	}
	return true
}

// TotalSlots returns the number of slots in the whole weekly grid.
func (g *Grid) TotalSlots() int { return len(g.Days) * g.SlotsPerDay }
