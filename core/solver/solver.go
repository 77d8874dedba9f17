// Package solver implements the assignment search: a constructive
// most-constrained-first heuristic with explicit decision frames and
// conflict-directed backjumping, bounded by a backtrack budget. It never
// commits a placement that fails the hard-constraint model.
package solver

import (
	"context"
	"math/rand"
	"sort"

	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/events"
	"github.com/acadterm/timetabler/core/logger"
	"github.com/acadterm/timetabler/core/model"
)

// Config bounds a solver run.
type Config struct {
	// MaxBacktracks caps the number of undone commitments before the run
	// gives up with a partial result.
	MaxBacktracks int `json:"max_backtracks" yaml:"max_backtracks"`
	// Seed drives tie-breaking jitter so parallel candidate runs explore
	// different corners of the search space deterministically.
	Seed int64 `json:"seed" yaml:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MaxBacktracks == 0 {
		c.MaxBacktracks = 20000
	}
}

// Result is the outcome of one search run. Unplaced lists the occurrences
// missing from the returned assignment; it is empty exactly when Status is
// Complete.
type Result struct {
	Assignment *model.Assignment
	Unplaced   []model.OccurrenceKey
	Status     model.ScheduleStatus
	Backtracks int
}

// Solver runs one search. Independent runs each construct their own Solver
// and share no mutable state.
type Solver struct {
	model *constraint.Model
	cfg   Config
	log   logger.Logger
	bus   *events.Bus
	runID string
	rng   *rand.Rand
}

// New creates a solver over the given constraint model. bus may be nil.
func New(m *constraint.Model, cfg Config, log logger.Logger, bus *events.Bus, runID string) *Solver {
	cfg.SetDefaults()
	return &Solver{
		model: m,
		cfg:   cfg,
		log:   log,
		bus:   bus,
		runID: runID,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

// frame is one decision point of the search stack. candidates holds the
// triples that were hard-feasible when the frame was created; because a
// backjump restores exactly that partial assignment, the list stays valid
// when the frame is resumed.
type frame struct {
	occ        model.OccurrenceKey
	req        *model.SessionRequirement
	candidates []scoredCandidate
	next       int
	// conflicts are the decision levels whose placements eliminated
	// candidates for this occurrence; backjump targets.
	conflicts map[int]struct{}
}

type scoredCandidate struct {
	cand  constraint.Candidate
	score float64
}

type searchState struct {
	asn       *model.Assignment
	stack     []*frame
	unplaced  map[model.OccurrenceKey]*model.SessionRequirement
	levelOf   map[model.OccurrenceKey]int
	hopeless  []model.OccurrenceKey
	allOccs   []model.OccurrenceKey
	pools     map[string][]constraint.Candidate
	best      *model.Assignment
	bestCount int

	backtracks int
}

func (st *searchState) snapshotBest() {
	if st.asn.Len() > st.bestCount {
		st.bestCount = st.asn.Len()
		st.best = st.asn.Clone()
	}
}

// Solve places every occurrence or returns the best partial assignment
// found within the budget. Cancellation is honored between search steps;
// no partially mutated state is ever exposed to the caller.
func (s *Solver) Solve(ctx context.Context, reqs []*model.SessionRequirement) Result {
	st := &searchState{
		asn:       model.NewAssignment(),
		unplaced:  make(map[model.OccurrenceKey]*model.SessionRequirement),
		levelOf:   make(map[model.OccurrenceKey]int),
		pools:     make(map[string][]constraint.Candidate, len(reqs)),
		bestCount: -1,
	}
	for _, r := range reqs {
		st.pools[r.ID] = s.model.Candidates(r, model.OccurrenceKey{RequirementID: r.ID})
		for _, occ := range r.Occurrences() {
			st.unplaced[occ] = r
			st.allOccs = append(st.allOccs, occ)
		}
	}
	s.publish(events.RunEvent{RunID: s.runID, Action: "started", Total: len(st.allOccs)})

	for len(st.unplaced) > 0 {
		if ctx.Err() != nil {
			s.log.Warnf("run %s canceled after %d placements", s.runID, st.asn.Len())
			return s.partial(st)
		}

		f := s.expand(st)
		if len(f.candidates) == 0 && len(f.conflicts) == 0 {
			// No placed occurrence constrains it and it still has no
			// feasible triple: unschedulable under any search order.
			s.log.Warnf("occurrence %s has no feasible triple", f.occ)
			st.hopeless = append(st.hopeless, f.occ)
			delete(st.unplaced, f.occ)
			continue
		}

		for f.next >= len(f.candidates) {
			resumed, ok := s.backjump(st, f)
			if !ok {
				return s.partial(st)
			}
			f = resumed
		}

		chosen := f.candidates[f.next]
		f.next++
		if err := st.asn.Place(f.req, f.occ, chosen.cand.Placement); err != nil {
			s.log.Errorf("run %s: %v", s.runID, err)
			return s.partial(st)
		}
		delete(st.unplaced, f.occ)
		st.levelOf[f.occ] = len(st.stack)
		st.stack = append(st.stack, f)
		solverPlacements.Inc()
		s.publish(events.PlacementEvent{
			RunID: s.runID, Occ: f.occ, Placement: chosen.cand.Placement,
			Action: "committed", Depth: len(st.stack),
		})
		st.snapshotBest()
	}

	if len(st.hopeless) > 0 {
		return s.partial(st)
	}
	solverRuns.WithLabelValues("complete").Inc()
	s.publish(events.RunEvent{RunID: s.runID, Action: "solved", Placed: st.asn.Len(), Total: len(st.allOccs)})
	return Result{Assignment: st.asn, Status: model.StatusComplete, Backtracks: st.backtracks}
}

// expand picks the most constrained unplaced occurrence (fewest feasible
// triples against the current partial assignment, recomputed lazily) and
// builds its decision frame with candidates in greedy order.
func (s *Solver) expand(st *searchState) *frame {
	keys := make([]model.OccurrenceKey, 0, len(st.unplaced))
	for occ := range st.unplaced {
		keys = append(keys, occ)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RequirementID != keys[j].RequirementID {
			return keys[i].RequirementID < keys[j].RequirementID
		}
		return keys[i].Index < keys[j].Index
	})

	var chosen *frame
	for _, occ := range keys {
		req := st.unplaced[occ]
		f := &frame{occ: occ, req: req, conflicts: make(map[int]struct{})}
		for _, c := range st.pools[req.ID] {
			c.Occ = occ
			if s.model.IsHardFeasible(c, st.asn) {
				f.candidates = append(f.candidates, scoredCandidate{cand: c})
			}
		}
		if chosen == nil || len(f.candidates) < len(chosen.candidates) {
			chosen = f
		}
		if len(chosen.candidates) == 0 {
			break
		}
	}

	if len(chosen.candidates) == 0 {
		// Record which decision levels block this occurrence; they are
		// the only useful backjump targets.
		for _, c := range st.pools[chosen.req.ID] {
			c.Occ = chosen.occ
			for _, blocker := range s.model.Blockers(c, st.asn) {
				if lvl, ok := st.levelOf[blocker]; ok {
					chosen.conflicts[lvl] = struct{}{}
				}
			}
		}
		return chosen
	}

	// Greedy order: lowest penalty first; seeded jitter breaks ties so
	// sibling runs diversify deterministically.
	for i := range chosen.candidates {
		c := &chosen.candidates[i]
		c.score = s.model.PlacementPenalty(c.cand, st.asn) + s.rng.Float64()*1e-3
	}
	sort.SliceStable(chosen.candidates, func(i, j int) bool {
		return chosen.candidates[i].score < chosen.candidates[j].score
	})
	return chosen
}

// backjump undoes commitments down to the deepest decision level that
// constrains the failing frame and resumes that level's frame at its next
// candidate. Returns false when the search space or the backtrack budget
// is exhausted.
func (s *Solver) backjump(st *searchState, failing *frame) (*frame, bool) {
	if len(failing.conflicts) == 0 {
		// Nothing to jump to: exhausted search space for this ordering.
		s.log.Warnf("run %s: search space exhausted at %s", s.runID, failing.occ)
		st.hopeless = append(st.hopeless, failing.occ)
		delete(st.unplaced, failing.occ)
		return nil, false
	}
	target := -1
	for lvl := range failing.conflicts {
		if lvl > target {
			target = lvl
		}
	}

	// Undo every frame above and including the target.
	for len(st.stack) > target {
		g := st.stack[len(st.stack)-1]
		st.stack = st.stack[:len(st.stack)-1]
		st.asn.Remove(g.req, g.occ)
		st.unplaced[g.occ] = g.req
		delete(st.levelOf, g.occ)
		st.backtracks++
		solverBacktracks.Inc()
		s.publish(events.PlacementEvent{
			RunID: s.runID, Occ: g.occ, Action: "backtracked", Depth: len(st.stack),
		})
		if len(st.stack) == target {
			// Pass the blame upward, minus the target itself.
			for lvl := range failing.conflicts {
				if lvl < target {
					g.conflicts[lvl] = struct{}{}
				}
			}
			if st.backtracks > s.cfg.MaxBacktracks {
				s.log.Warnf("run %s: backtrack budget exhausted (%d)", s.runID, st.backtracks)
				return nil, false
			}
			return g, true
		}
	}
	return nil, false
}

// partial assembles the best-effort result after cancellation, budget
// exhaustion or an unschedulable occurrence.
func (s *Solver) partial(st *searchState) Result {
	st.snapshotBest()
	best := st.best
	if best == nil {
		best = model.NewAssignment()
	}
	var unplaced []model.OccurrenceKey
	for _, occ := range st.allOccs {
		if _, ok := best.Get(occ); !ok {
			unplaced = append(unplaced, occ)
		}
	}
	solverRuns.WithLabelValues("partial").Inc()
	s.publish(events.RunEvent{RunID: s.runID, Action: "partial", Placed: best.Len(), Total: len(st.allOccs)})
	return Result{
		Assignment: best,
		Unplaced:   unplaced,
		Status:     model.StatusPartial,
		Backtracks: st.backtracks,
	}
}

func (s *Solver) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
