// Package metrics defines the sink interfaces through which scheduling
// outcomes are recorded. Sinks like the Prometheus sink record run results
// and validation verdicts and can be combined with NewMultiSink. The
// factory helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics

import (
	"time"

	"github.com/acadterm/timetabler/core/model"
)

// RunResult summarizes one finished solver run.
type RunResult struct {
	RunID      string
	Seed       int64
	Status     model.ScheduleStatus
	Placed     int
	Total      int
	Backtracks int
	SoftScore  float64
	Duration   time.Duration
}

// MetricsSink records run results for observability purposes.
type MetricsSink interface {
	RecordRunResult(results []RunResult) error
}

// RefineOutcome captures the effect of one refinement pass.
type RefineOutcome struct {
	RunID        string
	InitialScore float64
	FinalScore   float64
	Accepted     int
	Iterations   int
}

// RefineRecorder is implemented by sinks able to record refinement outcomes.
type RefineRecorder interface {
	RecordRefineOutcome(RefineOutcome) error
}

// ValidationEvent captures the validator's verdict on the winning run.
type ValidationEvent struct {
	RunID          string
	HardViolations int
	SoftScore      float64
	Unplaced       int
	Time           time.Time
}

// ValidationRecorder is implemented by sinks able to record validation verdicts.
type ValidationRecorder interface {
	RecordValidation(ValidationEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRunResult([]RunResult) error       { return nil }
func (NopSink) RecordRefineOutcome(RefineOutcome) error { return nil }
func (NopSink) RecordValidation(ValidationEvent) error  { return nil }
