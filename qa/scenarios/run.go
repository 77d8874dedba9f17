package scenarios

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acadterm/timetabler/core/engine"
	"github.com/acadterm/timetabler/core/model"
	"github.com/acadterm/timetabler/infra/logger"
)

// RunScenario drives the engine with the scenario's dataset and checks the
// outcome against its expectations. It fails t on any mismatch.
func RunScenario(t *testing.T, sc *Scenario) *engine.Schedule {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sc.Rules.SetDefaults()
	cfg := engine.Config{Runs: sc.Runs, Seed: sc.Seed}
	eng := engine.New(cfg, logger.NopLogger{}, nil, nil)

	sched, err := eng.Generate(ctx, sc.Dataset, sc.WorkingHours, sc.Rules)
	require.NotNil(t, sched, "scenario %s: no schedule returned", sc.Name)

	switch sc.Expected.Status {
	case "complete":
		require.NoError(t, err, "scenario %s", sc.Name)
		require.Equal(t, model.StatusComplete, sched.Report.Status, "scenario %s", sc.Name)
	case "partial":
		require.True(t, errors.Is(err, model.ErrInfeasible),
			"scenario %s: want infeasible, got %v", sc.Name, err)
		require.Equal(t, model.StatusPartial, sched.Report.Status, "scenario %s", sc.Name)
	default:
		t.Fatalf("scenario %s: unknown expected status %q", sc.Name, sc.Expected.Status)
	}

	require.Empty(t, sched.Report.HardViolations(), "scenario %s", sc.Name)
	require.Len(t, sched.DataErrors, sc.Expected.DataErrors, "scenario %s: data errors", sc.Name)

	if sc.Expected.Placed >= 0 {
		require.Equal(t, sc.Expected.Placed, sched.Assignment.Len(),
			"scenario %s: placed occurrences", sc.Name)
	}
	require.LessOrEqual(t, len(sched.Report.Unplaced), sc.Expected.MaxUnplaced,
		"scenario %s: unplaced occurrences", sc.Name)
	if sc.Expected.MaxSoftScore > 0 {
		require.LessOrEqual(t, sched.Report.SoftScore, sc.Expected.MaxSoftScore,
			"scenario %s: soft score", sc.Name)
	}
	return sched
}
