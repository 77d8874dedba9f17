package refine

import (
	"context"
	"testing"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/model"
	"github.com/acadterm/timetabler/infra/logger"
)

func testModel(t *testing.T, reqs ...*model.SessionRequirement) *constraint.Model {
	t.Helper()
	g, err := calendar.Build(calendar.WorkingHours{
		StartTime:        "09:00",
		EndTime:          "17:00",
		LunchStart:       "12:00",
		LunchEnd:         "13:00",
		PeriodMinutes:    60,
		LabPeriodMinutes: 120,
		MaxPeriodsPerDay: 7,
	})
	if err != nil {
		t.Fatalf("build grid: %v", err)
	}
	full := make(map[model.Weekday]model.TimeWindow)
	for d := model.Monday; d <= model.Friday; d++ {
		full[d] = model.TimeWindow{Available: true, Start: 9 * 60, End: 17 * 60}
	}
	teachers := map[string]*model.Teacher{
		"T1": {ID: "T1", MaxWeekMinutes: 18 * 60, Availability: full},
	}
	rooms := []*model.Room{
		{ID: "R1", Capacity: 60, Features: []model.Feature{"Projector"}},
	}
	m, err := constraint.New(g, constraint.Rules{}, teachers, rooms, reqs)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func theoryReq() *model.SessionRequirement {
	return &model.SessionRequirement{
		ID:               "CS101-theory-A",
		CourseID:         "CS101",
		Type:             model.Theory,
		SessionsPerWeek:  3,
		DurationMinutes:  60,
		RequiredFeatures: []model.Feature{"Projector"},
		Group:            model.GroupRef{DivisionID: "A"},
		GroupSize:        50,
		EligibleTeachers: []model.TeacherRef{{ID: "T1"}},
	}
}

// crowdedStart places all three weekly sessions back to back on Monday,
// which the consecutive-hours and same-day weights penalize heavily.
func crowdedStart(t *testing.T, req *model.SessionRequirement) *model.Assignment {
	t.Helper()
	a := model.NewAssignment()
	for i := 0; i < 3; i++ {
		occ := model.OccurrenceKey{RequirementID: req.ID, Index: i}
		p := model.Placement{Day: model.Monday, StartSlot: i, SlotCount: 1, RoomID: "R1", TeacherID: "T1"}
		if err := a.Place(req, occ, p); err != nil {
			t.Fatalf("seed placement %d: %v", i, err)
		}
	}
	return a
}

func TestRefineNeverWorsens(t *testing.T) {
	req := theoryReq()
	m := testModel(t, req)
	asn := crowdedStart(t, req)

	r := New(m, Config{Seed: 7}, logger.NopLogger{}, nil, "run-1")
	res := r.Refine(context.Background(), asn)

	if res.FinalScore > res.InitialScore {
		t.Fatalf("refinement worsened score: %0.2f -> %0.2f", res.InitialScore, res.FinalScore)
	}
	if res.Assignment.Len() != 3 {
		t.Fatalf("refinement changed placement count: got %d, want 3", res.Assignment.Len())
	}
}

func TestRefineSpreadsCrowdedDay(t *testing.T) {
	req := theoryReq()
	m := testModel(t, req)
	asn := crowdedStart(t, req)

	r := New(m, Config{Seed: 3, MaxIterations: 2000}, logger.NopLogger{}, nil, "run-1")
	res := r.Refine(context.Background(), asn)

	if res.FinalScore >= res.InitialScore {
		t.Fatalf("expected improvement from %0.2f, got %0.2f", res.InitialScore, res.FinalScore)
	}
}

func TestRefineDeterministicPerSeed(t *testing.T) {
	req := theoryReq()
	m := testModel(t, req)

	first := New(m, Config{Seed: 11}, logger.NopLogger{}, nil, "a").Refine(context.Background(), crowdedStart(t, req))
	second := New(m, Config{Seed: 11}, logger.NopLogger{}, nil, "b").Refine(context.Background(), crowdedStart(t, req))

	if first.FinalScore != second.FinalScore || first.Accepted != second.Accepted {
		t.Fatalf("same seed diverged: (%0.4f, %d) vs (%0.4f, %d)",
			first.FinalScore, first.Accepted, second.FinalScore, second.Accepted)
	}
}

func TestRefineHonorsCancellation(t *testing.T) {
	req := theoryReq()
	m := testModel(t, req)
	asn := crowdedStart(t, req)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(m, Config{Seed: 1}, logger.NopLogger{}, nil, "c").Refine(ctx, asn)

	if res.FinalScore != res.InitialScore {
		t.Fatalf("canceled pass must leave score unchanged")
	}
}

func TestRefineEmptyAssignment(t *testing.T) {
	req := theoryReq()
	m := testModel(t, req)

	res := New(m, Config{Seed: 1}, logger.NopLogger{}, nil, "d").Refine(context.Background(), model.NewAssignment())
	if res.Iterations != 0 || res.FinalScore != 0 {
		t.Fatalf("empty assignment should be a no-op, got %d iterations score %0.2f", res.Iterations, res.FinalScore)
	}
}
