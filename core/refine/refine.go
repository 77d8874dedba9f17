// Package refine improves a hard-feasible assignment by simulated
// annealing over single-occurrence relocation moves. Hard constraints are
// never relaxed: a move that fails the feasibility check is rejected
// before it is scored.
package refine

import (
	"context"
	"math"
	"math/rand"

	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/events"
	"github.com/acadterm/timetabler/core/logger"
	"github.com/acadterm/timetabler/core/model"
)

// Config bounds a refinement pass.
type Config struct {
	// MaxIterations caps the number of proposed moves.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// StallLimit stops the pass after this many proposals without an
	// improvement of the best score.
	StallLimit int `json:"stall_limit" yaml:"stall_limit"`
	// InitialTemp is the starting annealing temperature.
	InitialTemp float64 `json:"initial_temp" yaml:"initial_temp"`
	// Cooling is the geometric cooling factor applied per iteration.
	Cooling float64 `json:"cooling" yaml:"cooling"`
	// Seed drives move selection; equal seeds replay identical passes.
	Seed int64 `json:"seed" yaml:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 4000
	}
	if c.StallLimit == 0 {
		c.StallLimit = 800
	}
	if c.InitialTemp == 0 {
		c.InitialTemp = 6.0
	}
	if c.Cooling == 0 {
		c.Cooling = 0.995
	}
}

// Result reports the outcome of a pass.
type Result struct {
	Assignment *model.Assignment
	// InitialScore and FinalScore are the soft scores before and after
	// the pass. FinalScore is never greater than InitialScore.
	InitialScore float64
	FinalScore   float64
	Accepted     int
	Iterations   int
}

// Refiner runs annealing passes over one constraint model.
type Refiner struct {
	model *constraint.Model
	cfg   Config
	log   logger.Logger
	bus   *events.Bus
	runID string
	rng   *rand.Rand
}

// New creates a refiner. bus may be nil.
func New(m *constraint.Model, cfg Config, log logger.Logger, bus *events.Bus, runID string) *Refiner {
	cfg.SetDefaults()
	return &Refiner{
		model: m,
		cfg:   cfg,
		log:   log,
		bus:   bus,
		runID: runID,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Refine anneals the assignment in place on a private clone and returns
// the best assignment seen. The input is never mutated.
func (r *Refiner) Refine(ctx context.Context, asn *model.Assignment) Result {
	work := asn.Clone()
	occs := work.Keys()
	res := Result{
		Assignment:   asn,
		InitialScore: r.model.SoftScore(work),
	}
	res.FinalScore = res.InitialScore
	if len(occs) == 0 {
		return res
	}

	best := work.Clone()
	bestScore := res.InitialScore
	current := res.InitialScore
	temp := r.cfg.InitialTemp
	stall := 0

	for i := 0; i < r.cfg.MaxIterations; i++ {
		if ctx.Err() != nil {
			r.log.Warnf("run %s: refinement canceled at iteration %d", r.runID, i)
			break
		}
		res.Iterations = i + 1

		occ := occs[r.rng.Intn(len(occs))]
		req, ok := r.model.Requirement(occ.RequirementID)
		if !ok {
			continue
		}
		old, ok := work.Get(occ)
		if !ok {
			continue
		}

		work.Remove(req, occ)
		cand, ok := r.proposeMove(req, occ, old, work)
		if !ok {
			r.restore(work, req, occ, old)
			stall++
			if stall >= r.cfg.StallLimit {
				break
			}
			temp *= r.cfg.Cooling
			continue
		}
		if err := work.Place(req, occ, cand.Placement); err != nil {
			r.restore(work, req, occ, old)
			continue
		}

		score := r.model.SoftScore(work)
		delta := score - current
		if delta <= 0 || r.rng.Float64() < math.Exp(-delta/temp) {
			current = score
			res.Accepted++
			refineAccepted.Inc()
			if r.bus != nil {
				r.bus.Publish(events.RefineEvent{
					RunID: r.runID, Occ: occ,
					OldScore: current - delta, NewScore: score, Iteration: i,
				})
			}
			if score < bestScore {
				bestScore = score
				best = work.Clone()
				stall = 0
			} else {
				stall++
			}
		} else {
			work.Remove(req, occ)
			r.restore(work, req, occ, old)
			stall++
		}
		if stall >= r.cfg.StallLimit {
			break
		}
		temp *= r.cfg.Cooling
	}

	if bestScore < res.InitialScore {
		res.Assignment = best
		res.FinalScore = bestScore
	}
	r.log.Infof("run %s: refinement %0.2f -> %0.2f after %d iterations (%d accepted)",
		r.runID, res.InitialScore, res.FinalScore, res.Iterations, res.Accepted)
	return res
}

// proposeMove picks a random hard-feasible placement for occ that differs
// from its current one. The occurrence must already be removed from work.
func (r *Refiner) proposeMove(req *model.SessionRequirement, occ model.OccurrenceKey, old model.Placement, work *model.Assignment) (constraint.Candidate, bool) {
	pool := r.model.Candidates(req, occ)
	r.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for _, c := range pool {
		if samePlacement(c.Placement, old) {
			continue
		}
		if r.model.IsHardFeasible(c, work) {
			return c, true
		}
	}
	return constraint.Candidate{}, false
}

func (r *Refiner) restore(work *model.Assignment, req *model.SessionRequirement, occ model.OccurrenceKey, p model.Placement) {
	if err := work.Place(req, occ, p); err != nil {
		// Cannot happen: the slot set was just vacated by Remove.
		r.log.Errorf("run %s: restore failed for %s: %v", r.runID, occ, err)
	}
}

func samePlacement(a, b model.Placement) bool {
	return a.Day == b.Day && a.StartSlot == b.StartSlot &&
		a.RoomID == b.RoomID && a.TeacherID == b.TeacherID
}
