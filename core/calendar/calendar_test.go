package calendar

import (
	"errors"
	"testing"

	"github.com/acadterm/timetabler/core/model"
)

func stdPolicy() WorkingHours {
	return WorkingHours{
		StartTime:        "09:00",
		EndTime:          "17:00",
		LunchStart:       "12:00",
		LunchEnd:         "13:00",
		PeriodMinutes:    60,
		BreakMinutes:     0,
		LabPeriodMinutes: 120,
		MaxPeriodsPerDay: 7,
		WorkingDays:      []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	}
}

func TestBuildStandardGrid(t *testing.T) {
	g, err := Build(stdPolicy())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// 09-12 gives three periods, 13-17 four more.
	if g.SlotsPerDay != 7 {
		t.Fatalf("expected 7 slots per day got %d", g.SlotsPerDay)
	}
	if len(g.Days) != 5 || g.TotalSlots() != 35 {
		t.Fatalf("expected 5 days / 35 slots got %d / %d", len(g.Days), g.TotalSlots())
	}
	if g.LabSlotSpan != 2 {
		t.Fatalf("expected lab span 2 got %d", g.LabSlotSpan)
	}
	mon := g.DaySlots(model.Monday)
	if mon[2].End.String() != "12:00" || mon[3].Start.String() != "13:00" {
		t.Fatalf("lunch window not excluded: %v %v", mon[2], mon[3])
	}
	for i := 1; i < len(mon); i++ {
		if mon[i].Start < mon[i-1].End {
			t.Fatalf("slots overlap: %v %v", mon[i-1], mon[i])
		}
	}
}

func TestBuildRespectsMaxPeriods(t *testing.T) {
	p := stdPolicy()
	p.MaxPeriodsPerDay = 4
	g, err := Build(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if g.SlotsPerDay != 4 {
		t.Fatalf("expected 4 slots per day got %d", g.SlotsPerDay)
	}
}

func TestBuildRejectsImpossibleWindow(t *testing.T) {
	p := stdPolicy()
	p.StartTime = "11:30"
	p.EndTime = "13:30"
	p.LunchStart = "11:30"
	p.LunchEnd = "13:00"
	p.PeriodMinutes = 60
	if _, err := Build(p); err == nil {
		t.Fatal("expected error for window that cannot fit one period")
	} else {
		var cerr *model.ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected ConfigError got %T", err)
		}
	}
}

func TestBuildRejectsBadFields(t *testing.T) {
	for _, mutate := range []func(*WorkingHours){
		func(p *WorkingHours) { p.PeriodMinutes = 0 },
		func(p *WorkingHours) { p.MaxPeriodsPerDay = 0 },
		func(p *WorkingHours) { p.EndTime = "08:00" },
		func(p *WorkingHours) { p.StartTime = "9am" },
		func(p *WorkingHours) { p.WorkingDays = []string{"Funday"} },
		func(p *WorkingHours) { p.LabPeriodMinutes = 30 },
	} {
		p := stdPolicy()
		mutate(&p)
		if _, err := Build(p); err == nil {
			t.Fatalf("expected error for policy %+v", p)
		}
	}
}

func TestContiguousStopsAtLunch(t *testing.T) {
	g, err := Build(stdPolicy())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !g.Contiguous(model.SlotRef{Day: model.Monday, Slot: 0}, 2) {
		t.Fatal("morning pair should be contiguous")
	}
	if g.Contiguous(model.SlotRef{Day: model.Monday, Slot: 2}, 2) {
		t.Fatal("a pair straddling lunch must not be contiguous")
	}
	if g.Contiguous(model.SlotRef{Day: model.Monday, Slot: 6}, 2) {
		t.Fatal("run past end of day must not be contiguous")
	}
}
