package constraint

import (
	"testing"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/model"
)

func testGrid(t *testing.T) *calendar.Grid {
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
	return g
}

func testTeachers() map[string]*model.Teacher {
	full := make(map[model.Weekday]model.TimeWindow)
	for d := model.Monday; d <= model.Friday; d++ {
		full[d] = model.TimeWindow{Available: true, Start: 9 * 60, End: 17 * 60}
	}
	monOnly := map[model.Weekday]model.TimeWindow{
		model.Monday: {Available: true, Start: 9 * 60, End: 10 * 60},
	}
	return map[string]*model.Teacher{
		"T1": {ID: "T1", MaxWeekMinutes: 18 * 60, Availability: full},
		"T2": {ID: "T2", MaxWeekMinutes: 2 * 60, Availability: monOnly},
	}
}

func testRooms() []*model.Room {
	return []*model.Room{
		{ID: "R1", Capacity: 60, Features: []model.Feature{"Projector"}},
		{ID: "L1", Capacity: 30, Features: []model.Feature{model.FeatureComputers}},
	}
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

func newModel(t *testing.T, rules Rules, reqs ...*model.SessionRequirement) *Model {
	t.Helper()
	m, err := New(testGrid(t), rules, testTeachers(), testRooms(), reqs)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func cand(req *model.SessionRequirement, idx int, p model.Placement) Candidate {
	return Candidate{Req: req, Occ: model.OccurrenceKey{RequirementID: req.ID, Index: idx}, Placement: p}
}

func TestHardFeasibleBasics(t *testing.T) {
	req := theoryReq()
	m := newModel(t, Rules{}, req)
	a := model.NewAssignment()

	ok := cand(req, 0, model.Placement{Day: model.Monday, StartSlot: 1, SlotCount: 1, RoomID: "R1", TeacherID: "T1"})
	if !m.IsHardFeasible(ok, a) {
		t.Fatal("expected feasible placement")
	}

	tooSmall := ok
	tooSmall.Placement.RoomID = "L1" // capacity 30 < 50 students
	if m.IsHardFeasible(tooSmall, a) {
		t.Fatal("room below group size must be rejected")
	}

	badFeature := ok
	badFeature.Placement.RoomID = "L1"
	if m.IsHardFeasible(badFeature, a) {
		t.Fatal("room without required features must be rejected")
	}

	unavailable := ok
	unavailable.Placement.TeacherID = "T2"
	unavailable.Placement.Day = model.Tuesday
	if m.IsHardFeasible(unavailable, a) {
		t.Fatal("teacher outside availability must be rejected")
	}
}

func TestHardFeasibleCapacityBuffer(t *testing.T) {
	req := theoryReq()
	req.GroupSize = 55
	m := newModel(t, Rules{MinRoomCapacityBufferPct: 10}, req)
	a := model.NewAssignment()
	c := cand(req, 0, model.Placement{Day: model.Monday, StartSlot: 1, SlotCount: 1, RoomID: "R1", TeacherID: "T1"})
	// 55 students + 10% buffer needs 61 seats; R1 has 60.
	if m.IsHardFeasible(c, a) {
		t.Fatal("capacity buffer must be enforced")
	}
}

// The buffer adds seats on top of the group size. 50 students with a 20%
// buffer need exactly 60 seats, so a 60-seat room is the boundary fit.
func TestRequiredCapacityBufferOverGroupSize(t *testing.T) {
	req := theoryReq()
	m := newModel(t, Rules{MinRoomCapacityBufferPct: 20}, req)
	if got := m.RequiredCapacity(req); got != 60 {
		t.Fatalf("required capacity = %d, want 60", got)
	}

	a := model.NewAssignment()
	c := cand(req, 0, model.Placement{Day: model.Monday, StartSlot: 1, SlotCount: 1, RoomID: "R1", TeacherID: "T1"})
	if !m.IsHardFeasible(c, a) {
		t.Fatal("a 60-seat room must fit 50 students with a 20% buffer")
	}
}

func TestHardFeasibleConflicts(t *testing.T) {
	req := theoryReq()
	other := theoryReq()
	other.ID = "MA102-theory-A"
	other.CourseID = "MA102"
	m := newModel(t, Rules{}, req, other)

	a := model.NewAssignment()
	p := model.Placement{Day: model.Monday, StartSlot: 1, SlotCount: 1, RoomID: "R1", TeacherID: "T1"}
	if err := a.Place(req, model.OccurrenceKey{RequirementID: req.ID}, p); err != nil {
		t.Fatalf("place: %v", err)
	}

	clash := cand(other, 0, p)
	if m.IsHardFeasible(clash, a) {
		t.Fatal("teacher/room/group triple clash must be rejected")
	}
	blockers := m.Blockers(clash, a)
	if len(blockers) != 1 || blockers[0].RequirementID != req.ID {
		t.Fatalf("expected the placed occurrence as blocker, got %v", blockers)
	}
}

func TestHardFeasibleWeeklyCap(t *testing.T) {
	req := theoryReq()
	req.EligibleTeachers = []model.TeacherRef{{ID: "T2"}}
	m := newModel(t, Rules{}, req)
	a := model.NewAssignment()
	// T2 is capped at 120 minutes and available Monday 09:00-10:00 only.
	p := model.Placement{Day: model.Monday, StartSlot: 0, SlotCount: 1, RoomID: "R1", TeacherID: "T2"}
	if !m.IsHardFeasible(cand(req, 0, p), a) {
		t.Fatal("first Monday slot should be feasible for T2")
	}
	if err := a.Place(req, model.OccurrenceKey{RequirementID: req.ID, Index: 0}, p); err != nil {
		t.Fatalf("place: %v", err)
	}
	if m.IsHardFeasible(cand(req, 1, p), a) {
		t.Fatal("same slot twice must be rejected")
	}
}

func TestCandidatesRespectStaticRules(t *testing.T) {
	req := theoryReq()
	m := newModel(t, Rules{}, req)
	cands := m.Candidates(req, model.OccurrenceKey{RequirementID: req.ID})
	if len(cands) == 0 {
		t.Fatal("expected candidates for schedulable requirement")
	}
	for _, c := range cands {
		if c.Placement.RoomID != "R1" {
			t.Fatalf("only R1 satisfies features+capacity, got %s", c.Placement.RoomID)
		}
		if c.Placement.TeacherID != "T1" {
			t.Fatalf("only T1 is eligible, got %s", c.Placement.TeacherID)
		}
	}
	// 5 days x 7 slots x 1 room x 1 teacher.
	if len(cands) != 35 {
		t.Fatalf("expected 35 candidates got %d", len(cands))
	}
}

func TestSoftScorePositionalRules(t *testing.T) {
	req := theoryReq()
	rules := Rules{AvoidFirstLastPeriod: true, AvoidFridayAfternoon: true}
	m := newModel(t, rules, req)

	mid := model.NewAssignment()
	if err := mid.Place(req, model.OccurrenceKey{RequirementID: req.ID}, model.Placement{
		Day: model.Tuesday, StartSlot: 2, SlotCount: 1, RoomID: "R1", TeacherID: "T1",
	}); err != nil {
		t.Fatalf("place: %v", err)
	}
	edge := model.NewAssignment()
	if err := edge.Place(req, model.OccurrenceKey{RequirementID: req.ID}, model.Placement{
		Day: model.Friday, StartSlot: 6, SlotCount: 1, RoomID: "R1", TeacherID: "T1",
	}); err != nil {
		t.Fatalf("place: %v", err)
	}
	if m.SoftScore(edge) <= m.SoftScore(mid) {
		t.Fatalf("Friday last period should score worse: edge=%v mid=%v",
			m.SoftScore(edge), m.SoftScore(mid))
	}
}

func TestSoftScoreBackToBackLabs(t *testing.T) {
	lab1 := theoryReq()
	lab1.ID = "CS101-practical-A-B1"
	lab1.Type = model.Practical
	lab1.GroupSize = 25
	lab1.RequiredFeatures = []model.Feature{model.FeatureComputers}
	lab1.Group = model.GroupRef{DivisionID: "A", BatchID: "B1"}
	lab2 := *lab1
	lab2.ID = "MA102-practical-A-B1"
	lab2.CourseID = "MA102"

	m := newModel(t, Rules{AllowBackToBackLabs: false}, lab1, &lab2)
	adjacent := model.NewAssignment()
	mustPlace(t, adjacent, lab1, 0, model.Placement{Day: model.Monday, StartSlot: 0, SlotCount: 2, RoomID: "L1", TeacherID: "T1"})
	mustPlace(t, adjacent, &lab2, 0, model.Placement{Day: model.Monday, StartSlot: 2, SlotCount: 1, RoomID: "L1", TeacherID: "T1"})

	spread := model.NewAssignment()
	mustPlace(t, spread, lab1, 0, model.Placement{Day: model.Monday, StartSlot: 0, SlotCount: 2, RoomID: "L1", TeacherID: "T1"})
	mustPlace(t, spread, &lab2, 0, model.Placement{Day: model.Tuesday, StartSlot: 0, SlotCount: 1, RoomID: "L1", TeacherID: "T1"})

	if m.SoftScore(adjacent) <= m.SoftScore(spread) {
		t.Fatalf("back-to-back labs should score worse: adjacent=%v spread=%v",
			m.SoftScore(adjacent), m.SoftScore(spread))
	}
}

func TestSoftScoreBalancedWeekWins(t *testing.T) {
	req := theoryReq()
	m := newModel(t, Rules{BalanceWorkload: true}, req)

	packed := model.NewAssignment()
	for i := 0; i < 3; i++ {
		mustPlace(t, packed, req, i, model.Placement{Day: model.Monday, StartSlot: i * 2, SlotCount: 1, RoomID: "R1", TeacherID: "T1"})
	}
	spread := model.NewAssignment()
	for i, d := range []model.Weekday{model.Monday, model.Wednesday, model.Friday} {
		mustPlace(t, spread, req, i, model.Placement{Day: d, StartSlot: 2, SlotCount: 1, RoomID: "R1", TeacherID: "T1"})
	}
	if m.SoftScore(packed) <= m.SoftScore(spread) {
		t.Fatalf("packed week should score worse: packed=%v spread=%v",
			m.SoftScore(packed), m.SoftScore(spread))
	}
}

func mustPlace(t *testing.T, a *model.Assignment, req *model.SessionRequirement, idx int, p model.Placement) {
	t.Helper()
	if err := a.Place(req, model.OccurrenceKey{RequirementID: req.ID, Index: idx}, p); err != nil {
		t.Fatalf("place %s#%d: %v", req.ID, idx, err)
	}
}
