// Package engine orchestrates the scheduling pipeline: normalization,
// grid construction, parallel candidate searches, refinement, and the
// final independent validation of the winning schedule.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/events"
	"github.com/acadterm/timetabler/core/logger"
	"github.com/acadterm/timetabler/core/metrics"
	"github.com/acadterm/timetabler/core/model"
	"github.com/acadterm/timetabler/core/normalize"
	"github.com/acadterm/timetabler/core/refine"
	"github.com/acadterm/timetabler/core/solver"
	"github.com/acadterm/timetabler/core/validate"
)

// Config tunes a Generate call.
type Config struct {
	// Runs is the number of independent candidate searches.
	Runs int `json:"runs" yaml:"runs"`
	// Workers bounds the searches running concurrently.
	Workers int `json:"workers" yaml:"workers"`
	// Seed is the base seed; candidate run i uses Seed+i.
	Seed   int64         `json:"seed" yaml:"seed"`
	Solver solver.Config `json:"solver" yaml:"solver"`
	Refine refine.Config `json:"refine" yaml:"refine"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Runs <= 0 {
		c.Runs = 4
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers > c.Runs {
		c.Workers = c.Runs
	}
	c.Solver.SetDefaults()
	c.Refine.SetDefaults()
}

// Schedule is the engine's final product: the winning assignment together
// with the validator's report on it.
type Schedule struct {
	Assignment *model.Assignment
	Report     model.ScheduleReport
	RunID      string
	Seed       int64
	// Problem and Grid are the normalized inputs the schedule was built
	// against, kept for export and re-validation.
	Problem *normalize.Problem
	Grid    *calendar.Grid
	// DataErrors lists entities normalization rejected before search.
	DataErrors []error
}

// Engine runs the scheduling pipeline. bus and sink may be nil.
type Engine struct {
	cfg  Config
	log  logger.Logger
	bus  *events.Bus
	sink metrics.MetricsSink
}

// New creates an engine.
func New(cfg Config, log logger.Logger, bus *events.Bus, sink metrics.MetricsSink) *Engine {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{cfg: cfg, log: log, bus: bus, sink: sink}
}

// candidate is one finished run awaiting the winner pick.
type candidate struct {
	runID    string
	seed     int64
	asn      *model.Assignment
	unplaced int
	score    float64
}

// Generate produces a schedule for the snapshot under the given policies.
// It returns the best schedule found even when it is partial; in that case
// the error wraps model.ErrInfeasible and the report lists the gaps.
func (e *Engine) Generate(ctx context.Context, snap normalize.Snapshot, hours calendar.WorkingHours, rules constraint.Rules) (*Schedule, error) {
	problem, dataErrs := normalize.Normalize(snap)
	for _, err := range dataErrs {
		e.log.Warnf("normalize: %v", err)
	}
	if len(problem.Requirements) == 0 {
		return nil, fmt.Errorf("no schedulable requirements in snapshot (%d entities rejected)", len(dataErrs))
	}

	grid, err := calendar.Build(hours)
	if err != nil {
		return nil, fmt.Errorf("build slot grid: %w", err)
	}
	cm, err := constraint.New(grid, rules, problem.Teachers, problem.Rooms, problem.Requirements)
	if err != nil {
		return nil, fmt.Errorf("build constraint model: %w", err)
	}

	winner := e.race(ctx, cm, problem)
	if winner == nil {
		return nil, ctx.Err()
	}

	validator := validate.New(grid, cm.Rules(), problem.Teachers, problem.Rooms, problem.Requirements, cm)
	report, err := validator.CheckStrict(winner.asn)
	sched := &Schedule{
		Assignment: winner.asn,
		Report:     report,
		RunID:      winner.runID,
		Seed:       winner.seed,
		Problem:    problem,
		Grid:       grid,
		DataErrors: dataErrs,
	}
	if recErr := e.recordValidation(sched); recErr != nil {
		e.log.Warnf("metrics sink: %v", recErr)
	}
	if err != nil {
		return sched, err
	}
	if report.Status == model.StatusPartial {
		return sched, fmt.Errorf("%d occurrence(s) unplaced: %w", len(report.Unplaced), model.ErrInfeasible)
	}
	e.log.Infof("schedule complete: %d placements, soft score %0.2f (run %s)",
		winner.asn.Len(), report.SoftScore, sched.RunID)
	return sched, nil
}

// race runs the configured number of candidate searches on a bounded
// worker pool and picks the winner. Workers share nothing mutable; each
// owns its solver, refiner and assignment.
func (e *Engine) race(ctx context.Context, cm *constraint.Model, problem *normalize.Problem) *candidate {
	results := make([]*candidate, e.cfg.Runs)
	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup

	for i := 0; i < e.cfg.Runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			results[i] = e.runOne(ctx, cm, problem, e.cfg.Seed+int64(i))
		}(i)
	}
	wg.Wait()

	var finished []*candidate
	for _, c := range results {
		if c != nil {
			finished = append(finished, c)
		}
	}
	if len(finished) == 0 {
		return nil
	}
	// Complete beats partial, then fewer gaps, then soft score, then seed
	// so the pick is deterministic across identical invocations.
	sort.Slice(finished, func(i, j int) bool {
		a, b := finished[i], finished[j]
		if a.unplaced != b.unplaced {
			return a.unplaced < b.unplaced
		}
		if a.score != b.score {
			return a.score < b.score
		}
		return a.seed < b.seed
	})
	return finished[0]
}

func (e *Engine) runOne(ctx context.Context, cm *constraint.Model, problem *normalize.Problem, seed int64) *candidate {
	runID := uuid.NewString()
	start := time.Now()

	log := e.log
	if rt, ok := log.(logger.RunTagger); ok {
		log = rt.ForRun(runID)
	}

	solverCfg := e.cfg.Solver
	solverCfg.Seed = seed
	res := solver.New(cm, solverCfg, log, e.bus, runID).Solve(ctx, problem.Requirements)

	asn := res.Assignment
	if res.Status == model.StatusComplete {
		refineCfg := e.cfg.Refine
		refineCfg.Seed = seed
		out := refine.New(cm, refineCfg, log, e.bus, runID).Refine(ctx, asn)
		asn = out.Assignment
		if rec, ok := e.sink.(metrics.RefineRecorder); ok {
			if err := rec.RecordRefineOutcome(metrics.RefineOutcome{
				RunID:        runID,
				InitialScore: out.InitialScore,
				FinalScore:   out.FinalScore,
				Accepted:     out.Accepted,
				Iterations:   out.Iterations,
			}); err != nil {
				log.Warnf("metrics sink: %v", err)
			}
		}
	}

	score := cm.SoftScore(asn)
	if err := e.sink.RecordRunResult([]metrics.RunResult{{
		RunID:      runID,
		Seed:       seed,
		Status:     res.Status,
		Placed:     asn.Len(),
		Total:      asn.Len() + len(res.Unplaced),
		Backtracks: res.Backtracks,
		SoftScore:  score,
		Duration:   time.Since(start),
	}}); err != nil {
		log.Warnf("metrics sink: %v", err)
	}
	log.Debugw("candidate run finished", map[string]any{
		"seed":       seed,
		"status":     res.Status.String(),
		"placed":     asn.Len(),
		"unplaced":   len(res.Unplaced),
		"backtracks": res.Backtracks,
		"score":      score,
	})

	return &candidate{
		runID:    runID,
		seed:     seed,
		asn:      asn,
		unplaced: len(res.Unplaced),
		score:    score,
	}
}

func (e *Engine) recordValidation(s *Schedule) error {
	rec, ok := e.sink.(metrics.ValidationRecorder)
	if !ok {
		return nil
	}
	return rec.RecordValidation(metrics.ValidationEvent{
		RunID:          s.RunID,
		HardViolations: len(s.Report.HardViolations()),
		SoftScore:      s.Report.SoftScore,
		Unplaced:       len(s.Report.Unplaced),
		Time:           time.Now(),
	})
}
