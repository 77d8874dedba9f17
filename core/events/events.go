// Package events defines the scheduling events emitted on the event bus.
//
// Available event types:
//   - RunEvent: lifecycle of one solver run
//   - PlacementEvent: an occurrence committed or undone during search
//   - RefineEvent: an accepted local-search move
package events

import (
	"github.com/acadterm/timetabler/core/model"
	"github.com/acadterm/timetabler/internal/eventbus"
)

// Event is the union of scheduling event types carried on the bus.
type Event any

// Bus carries scheduling events between the engine and its observers.
type Bus = eventbus.Bus[Event]

// NewBus creates a Bus for scheduling events.
func NewBus() *Bus { return eventbus.New[Event]() }

// NewBuffered creates a Bus whose subscribers get a channel buffer of n.
func NewBuffered(n int) *Bus { return eventbus.NewBuffered[Event](n) }

// RunEvent marks the start or end of a solver run. Action is "started",
// "solved", "partial" or "refined".
type RunEvent struct {
	RunID  string
	Action string
	Placed int
	Total  int
	Score  float64
}

// PlacementEvent is emitted when the solver commits or undoes a placement.
// Action is "committed" or "backtracked".
type PlacementEvent struct {
	RunID     string
	Occ       model.OccurrenceKey
	Placement model.Placement
	Action    string
	Depth     int
}

// RefineEvent is emitted for each accepted refinement move.
type RefineEvent struct {
	RunID     string
	Occ       model.OccurrenceKey
	OldScore  float64
	NewScore  float64
	Iteration int
}
