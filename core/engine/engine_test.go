package engine

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/events"
	"github.com/acadterm/timetabler/core/model"
	"github.com/acadterm/timetabler/core/normalize"
	"github.com/acadterm/timetabler/infra/logger"
)

func workingHours() calendar.WorkingHours {
	return calendar.WorkingHours{
		StartTime:        "09:00",
		EndTime:          "17:00",
		LunchStart:       "12:00",
		LunchEnd:         "13:00",
		PeriodMinutes:    60,
		LabPeriodMinutes: 120,
		MaxPeriodsPerDay: 7,
	}
}

func fullWeek() map[string]normalize.DayAvailability {
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	av := make(map[string]normalize.DayAvailability, len(days))
	for _, d := range days {
		av[d] = normalize.DayAvailability{Available: true, StartTime: "09:00", EndTime: "17:00"}
	}
	return av
}

func feasibleSnapshot() normalize.Snapshot {
	snap := normalize.Snapshot{
		Teachers: []normalize.TeacherRecord{
			{ID: "T1", Name: "Asha", Category: "core", MaxHoursPerWeek: 18, Availability: fullWeek()},
			{ID: "T2", Name: "Vikram", Category: "visiting", MaxHoursPerWeek: 8, Availability: fullWeek()},
		},
		Rooms: []normalize.RoomRecord{
			{ID: "R1", Capacity: 60, Features: []string{"Projector"}, Type: "classroom"},
			{ID: "L1", Capacity: 30, Features: []string{"Computers"}, Type: "lab"},
		},
		Divisions: []normalize.DivisionRecord{
			{ID: "CS-A", StudentCount: 50, LabBatches: 2},
		},
	}
	course := normalize.CourseRecord{ID: "CS101", Name: "Programming", DivisionID: "CS-A"}
	course.Sessions.Theory = &normalize.SessionSpec{SessionsPerWeek: 3, DurationMinutes: 60, MinRoomCapacity: 50}
	course.Sessions.Practical = &normalize.SessionSpec{SessionsPerWeek: 1, DurationMinutes: 120, RequiresLab: true, MinRoomCapacity: 25}
	course.AssignedTeachers = []normalize.AssignedTeacher{
		{TeacherID: "T1", SessionTypes: []string{"theory", "practical"}},
		{TeacherID: "T2", SessionTypes: []string{"theory", "practical"}},
	}
	snap.Courses = []normalize.CourseRecord{course}
	return snap
}

// cornerSnapshot has a sole teacher reachable only Monday 09:00-10:00,
// so at most one of the three weekly sessions can ever be placed.
func cornerSnapshot() normalize.Snapshot {
	snap := normalize.Snapshot{
		Teachers: []normalize.TeacherRecord{
			{ID: "T1", Name: "Asha", Category: "core", MaxHoursPerWeek: 18, Availability: map[string]normalize.DayAvailability{
				"Monday": {Available: true, StartTime: "09:00", EndTime: "10:00"},
			}},
		},
		Rooms: []normalize.RoomRecord{
			{ID: "R1", Capacity: 60, Type: "classroom"},
		},
		Divisions: []normalize.DivisionRecord{
			{ID: "CS-A", StudentCount: 50},
		},
	}
	course := normalize.CourseRecord{ID: "CS101", Name: "Programming", DivisionID: "CS-A"}
	course.Sessions.Theory = &normalize.SessionSpec{SessionsPerWeek: 3, DurationMinutes: 60}
	course.AssignedTeachers = []normalize.AssignedTeacher{
		{TeacherID: "T1", SessionTypes: []string{"theory"}},
	}
	snap.Courses = []normalize.CourseRecord{course}
	return snap
}

func newEngine(cfg Config) *Engine {
	return New(cfg, logger.NopLogger{}, nil, nil)
}

func TestGenerateCompleteSchedule(t *testing.T) {
	e := newEngine(Config{Runs: 2, Workers: 2, Seed: 42})
	sched, err := e.Generate(context.Background(), feasibleSnapshot(), workingHours(), constraint.Rules{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sched.Report.Status != model.StatusComplete {
		t.Fatalf("status = %s, want complete", sched.Report.Status)
	}
	// Three theory occurrences plus one practical per batch.
	if sched.Assignment.Len() != 5 {
		t.Fatalf("placements = %d, want 5", sched.Assignment.Len())
	}
	if len(sched.Report.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", sched.Report.Violations)
	}
	if sched.RunID == "" {
		t.Fatal("schedule carries no run id")
	}
}

func TestGeneratePartialWhenCornered(t *testing.T) {
	e := newEngine(Config{Runs: 1, Seed: 1})
	sched, err := e.Generate(context.Background(), cornerSnapshot(), workingHours(), constraint.Rules{})
	if !errors.Is(err, model.ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
	if sched == nil {
		t.Fatal("partial generation must still return the best schedule")
	}
	if sched.Report.Status != model.StatusPartial {
		t.Fatalf("status = %s, want partial", sched.Report.Status)
	}
	if len(sched.Report.Unplaced) < 2 {
		t.Fatalf("unplaced = %d, want at least 2", len(sched.Report.Unplaced))
	}
}

func placements(t *testing.T, a *model.Assignment) map[model.OccurrenceKey]model.Placement {
	t.Helper()
	out := make(map[model.OccurrenceKey]model.Placement, a.Len())
	for _, occ := range a.Keys() {
		p, ok := a.Get(occ)
		if !ok {
			t.Fatalf("missing placement for %s", occ)
		}
		out[occ] = p
	}
	return out
}

func TestGenerateDeterministicPerSeed(t *testing.T) {
	cfg := Config{Runs: 3, Workers: 2, Seed: 7}
	first, err := newEngine(cfg).Generate(context.Background(), feasibleSnapshot(), workingHours(), constraint.Rules{})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := newEngine(cfg).Generate(context.Background(), feasibleSnapshot(), workingHours(), constraint.Rules{})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Seed != second.Seed {
		t.Fatalf("winner seeds diverged: %d vs %d", first.Seed, second.Seed)
	}
	if !reflect.DeepEqual(placements(t, first.Assignment), placements(t, second.Assignment)) {
		t.Fatal("same configuration produced different schedules")
	}
}

func TestGenerateHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(Config{Runs: 2}).Generate(ctx, feasibleSnapshot(), workingHours(), constraint.Rules{})
	if err == nil {
		t.Fatal("expected an error from a canceled context")
	}
}

func TestGenerateRejectsEmptySnapshot(t *testing.T) {
	_, err := newEngine(Config{Runs: 1}).Generate(context.Background(), normalize.Snapshot{}, workingHours(), constraint.Rules{})
	if err == nil {
		t.Fatal("expected an error for an empty snapshot")
	}
}

// runTagLogger records the run ids it is asked to tag.
type runTagLogger struct {
	logger.NopLogger
	mu     sync.Mutex
	runIDs []string
}

func (l *runTagLogger) ForRun(runID string) logger.Logger {
	l.mu.Lock()
	l.runIDs = append(l.runIDs, runID)
	l.mu.Unlock()
	return l
}

func TestGenerateTagsRunLoggers(t *testing.T) {
	rec := &runTagLogger{}
	e := New(Config{Runs: 2, Workers: 2, Seed: 5}, rec, nil, nil)
	if _, err := e.Generate(context.Background(), feasibleSnapshot(), workingHours(), constraint.Rules{}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.runIDs) != 2 {
		t.Fatalf("tagged runs = %d, want 2", len(rec.runIDs))
	}
	if rec.runIDs[0] == rec.runIDs[1] {
		t.Fatal("run ids must be distinct")
	}
}

func TestGeneratePublishesEvents(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe()
	e := New(Config{Runs: 1, Seed: 42}, logger.NopLogger{}, bus, nil)
	if _, err := e.Generate(context.Background(), feasibleSnapshot(), workingHours(), constraint.Rules{}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	select {
	case ev := <-sub:
		if _, ok := ev.(events.RunEvent); !ok {
			t.Fatalf("first event should be a RunEvent, got %T", ev)
		}
	default:
		t.Fatal("no events published")
	}
}
