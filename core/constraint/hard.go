// Package constraint encodes the institutional scheduling rules as cheap
// hard-feasibility predicates used during search and soft scorers used for
// refinement. Both operate on Assignment values and share no mutable state,
// so independent runs can hold their own Model instance.
package constraint

import (
	"errors"
	"sort"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/model"
)

var (
	errBufferRange      = errors.New("min_room_capacity_buffer_pct must be within [0,100]")
	errUtilizationRange = errors.New("preferred_classroom_utilization must be within [0,1]")
)

// Candidate is one prospective placement of a session occurrence.
type Candidate struct {
	Req       *model.SessionRequirement
	Occ       model.OccurrenceKey
	Placement model.Placement
}

// Model evaluates candidates against the policy. Read-only after New.
type Model struct {
	grid      *calendar.Grid
	rules     Rules
	teachers  map[string]*model.Teacher
	rooms     map[string]*model.Room
	roomOrder []string
	reqs      map[string]*model.SessionRequirement
}

// New builds a constraint model over the given grid, policy and entities.
func New(grid *calendar.Grid, rules Rules, teachers map[string]*model.Teacher, rooms []*model.Room, reqs []*model.SessionRequirement) (*Model, error) {
	rules.SetDefaults()
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	roomIdx := make(map[string]*model.Room, len(rooms))
	roomOrder := make([]string, 0, len(rooms))
	for _, r := range rooms {
		roomIdx[r.ID] = r
		roomOrder = append(roomOrder, r.ID)
	}
	// Smallest rooms first so greedy enumeration keeps large rooms free.
	sort.Slice(roomOrder, func(i, j int) bool {
		a, b := roomIdx[roomOrder[i]], roomIdx[roomOrder[j]]
		if a.Capacity != b.Capacity {
			return a.Capacity < b.Capacity
		}
		return a.ID < b.ID
	})
	reqIdx := make(map[string]*model.SessionRequirement, len(reqs))
	for _, r := range reqs {
		reqIdx[r.ID] = r
	}
	return &Model{
		grid:      grid,
		rules:     rules,
		teachers:  teachers,
		rooms:     roomIdx,
		roomOrder: roomOrder,
		reqs:      reqIdx,
	}, nil
}

// Grid returns the slot grid the model evaluates against.
func (m *Model) Grid() *calendar.Grid { return m.grid }

// Rules returns the active rule set.
func (m *Model) Rules() Rules { return m.rules }

// Requirement resolves a requirement id.
func (m *Model) Requirement(id string) (*model.SessionRequirement, bool) {
	r, ok := m.reqs[id]
	return r, ok
}

// RequiredCapacity returns the seats a room must offer for the requirement,
// including the institutional buffer.
func (m *Model) RequiredCapacity(req *model.SessionRequirement) int {
	buffered := req.GroupSize + (req.GroupSize*m.rules.MinRoomCapacityBufferPct+99)/100
	if req.MinRoomCapacity > buffered {
		return req.MinRoomCapacity
	}
	return buffered
}

// IsHardFeasible reports whether the candidate can be committed on top of
// the partial assignment without violating any hard constraint. It is the
// cheap predicate the solver calls on every enumeration step.
func (m *Model) IsHardFeasible(c Candidate, partial *model.Assignment) bool {
	if !m.staticFeasible(c) {
		return false
	}
	teacher := m.teachers[c.Placement.TeacherID]
	if partial.TeacherMinutes(teacher.ID)+c.Req.DurationMinutes > teacher.MaxWeekMinutes {
		return false
	}
	for _, ref := range c.Placement.Slots() {
		if partial.TeacherOccupied(teacher.ID, ref) {
			return false
		}
		if partial.RoomOccupied(c.Placement.RoomID, ref) {
			return false
		}
		if partial.GroupOccupied(c.Req.Group, ref) {
			return false
		}
	}
	return true
}

// staticFeasible checks the constraints that do not depend on the partial
// assignment: grid bounds and contiguity, room capacity and features, and
// the teacher's availability window.
func (m *Model) staticFeasible(c Candidate) bool {
	ref := model.SlotRef{Day: c.Placement.Day, Slot: c.Placement.StartSlot}
	if !m.grid.Contiguous(ref, c.Placement.SlotCount) {
		return false
	}
	room, ok := m.rooms[c.Placement.RoomID]
	if !ok {
		return false
	}
	if room.Capacity < m.RequiredCapacity(c.Req) {
		return false
	}
	if !room.HasFeatures(c.Req.RequiredFeatures) {
		return false
	}
	teacher, ok := m.teachers[c.Placement.TeacherID]
	if !ok {
		return false
	}
	eligible := false
	for _, tr := range c.Req.EligibleTeachers {
		if tr.ID == teacher.ID {
			eligible = true
			break
		}
	}
	if !eligible {
		return false
	}
	start, end, err := m.grid.Window(ref, c.Placement.SlotCount)
	if err != nil {
		return false
	}
	return teacher.AvailableFor(c.Placement.Day, start, end)
}

// Blockers returns the occurrences already placed that make the candidate
// infeasible. An empty result with IsHardFeasible false means the candidate
// is intrinsically impossible (availability, capacity, features) and no
// amount of backtracking can enable it. Used for conflict-directed
// backjumping.
func (m *Model) Blockers(c Candidate, partial *model.Assignment) []model.OccurrenceKey {
	if !m.staticFeasible(c) {
		return nil
	}
	seen := make(map[model.OccurrenceKey]struct{})
	var out []model.OccurrenceKey
	add := func(occ model.OccurrenceKey) {
		if _, dup := seen[occ]; !dup {
			seen[occ] = struct{}{}
			out = append(out, occ)
		}
	}
	for _, ref := range c.Placement.Slots() {
		if occ, ok := partial.TeacherOccupant(c.Placement.TeacherID, ref); ok {
			add(occ)
		}
		if occ, ok := partial.RoomOccupant(c.Placement.RoomID, ref); ok {
			add(occ)
		}
		if occ, ok := partial.GroupOccupant(c.Req.Group, ref); ok {
			add(occ)
		}
	}
	teacher := m.teachers[c.Placement.TeacherID]
	if partial.TeacherMinutes(teacher.ID)+c.Req.DurationMinutes > teacher.MaxWeekMinutes {
		// Every placement of this teacher contributes to the cap.
		for _, occ := range partial.Keys() {
			if p, ok := partial.Get(occ); ok && p.TeacherID == teacher.ID {
				add(occ)
			}
		}
	}
	return out
}

// Candidates enumerates every statically feasible (slot, room, teacher)
// triple for the requirement, ignoring the partial assignment. The solver
// filters with IsHardFeasible and orders by penalty.
func (m *Model) Candidates(req *model.SessionRequirement, occ model.OccurrenceKey) []Candidate {
	span := m.grid.SpanFor(req.DurationMinutes)
	var out []Candidate
	for _, day := range m.grid.Days {
		for start := 0; start+span <= m.grid.SlotsPerDay; start++ {
			for _, teacher := range req.EligibleTeachers {
				for _, room := range m.roomOrder {
					c := Candidate{
						Req: req,
						Occ: occ,
						Placement: model.Placement{
							Day:       day,
							StartSlot: start,
							SlotCount: span,
							RoomID:    room,
							TeacherID: teacher.ID,
						},
					}
					if m.staticFeasible(c) {
						out = append(out, c)
					}
				}
			}
		}
	}
	return out
}
