package model

import (
	"fmt"
	"sort"
)

// Placement pins one session occurrence to a day, a run of contiguous grid
// slots, a room and a teacher.
type Placement struct {
	Day       Weekday
	StartSlot int
	SlotCount int
	RoomID    string
	TeacherID string
}

// Slots returns the grid positions covered by the placement.
func (p Placement) Slots() []SlotRef {
	refs := make([]SlotRef, p.SlotCount)
	for i := range refs {
		refs[i] = SlotRef{Day: p.Day, Slot: p.StartSlot + i}
	}
	return refs
}

type groupClaim struct {
	occ   OccurrenceKey
	group GroupRef
}

// Assignment is the mutable artifact a solver run builds: a mapping from
// session occurrences to placements, plus occupancy indexes that make
// conflict checks O(1). An Assignment is exclusively owned by the run that
// constructs it and is never mutated concurrently.
type Assignment struct {
	placements map[OccurrenceKey]Placement

	teacherBusy    map[string]map[SlotRef]OccurrenceKey
	roomBusy       map[string]map[SlotRef]OccurrenceKey
	divisionClaims map[string]map[SlotRef][]groupClaim
	teacherMinutes map[string]int
}

// NewAssignment returns an empty assignment.
func NewAssignment() *Assignment {
	return &Assignment{
		placements:     make(map[OccurrenceKey]Placement),
		teacherBusy:    make(map[string]map[SlotRef]OccurrenceKey),
		roomBusy:       make(map[string]map[SlotRef]OccurrenceKey),
		divisionClaims: make(map[string]map[SlotRef][]groupClaim),
		teacherMinutes: make(map[string]int),
	}
}

// Len returns the number of placed occurrences.
func (a *Assignment) Len() int { return len(a.placements) }

// Get returns the placement for the given occurrence.
func (a *Assignment) Get(occ OccurrenceKey) (Placement, bool) {
	p, ok := a.placements[occ]
	return p, ok
}

// Keys returns all placed occurrence keys in a deterministic order.
func (a *Assignment) Keys() []OccurrenceKey {
	keys := make([]OccurrenceKey, 0, len(a.placements))
	for k := range a.placements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RequirementID != keys[j].RequirementID {
			return keys[i].RequirementID < keys[j].RequirementID
		}
		return keys[i].Index < keys[j].Index
	})
	return keys
}

// TeacherOccupied reports whether the teacher already holds the slot.
func (a *Assignment) TeacherOccupied(teacherID string, ref SlotRef) bool {
	_, ok := a.teacherBusy[teacherID][ref]
	return ok
}

// RoomOccupied reports whether the room already holds the slot.
func (a *Assignment) RoomOccupied(roomID string, ref SlotRef) bool {
	_, ok := a.roomBusy[roomID][ref]
	return ok
}

// GroupOccupied reports whether placing the given group into the slot would
// collide with an existing claim. Sibling batches of the same division may
// share a slot; a division-level claim blocks everything in the division.
func (a *Assignment) GroupOccupied(group GroupRef, ref SlotRef) bool {
	for _, c := range a.divisionClaims[group.DivisionID][ref] {
		if c.group.ConflictsWith(group) {
			return true
		}
	}
	return false
}

// GroupOccupant returns the occurrence blocking the group at the slot.
func (a *Assignment) GroupOccupant(group GroupRef, ref SlotRef) (OccurrenceKey, bool) {
	for _, c := range a.divisionClaims[group.DivisionID][ref] {
		if c.group.ConflictsWith(group) {
			return c.occ, true
		}
	}
	return OccurrenceKey{}, false
}

// TeacherOccupant returns the occurrence holding the teacher at the slot.
func (a *Assignment) TeacherOccupant(teacherID string, ref SlotRef) (OccurrenceKey, bool) {
	occ, ok := a.teacherBusy[teacherID][ref]
	return occ, ok
}

// RoomOccupant returns the occurrence holding the room at the slot.
func (a *Assignment) RoomOccupant(roomID string, ref SlotRef) (OccurrenceKey, bool) {
	occ, ok := a.roomBusy[roomID][ref]
	return occ, ok
}

// TeacherMinutes returns the cumulative scheduled minutes for the teacher.
func (a *Assignment) TeacherMinutes(teacherID string) int {
	return a.teacherMinutes[teacherID]
}

// Place records the placement for an occurrence of req and updates the
// occupancy indexes. Placing an occurrence twice is an internal error.
func (a *Assignment) Place(req *SessionRequirement, occ OccurrenceKey, p Placement) error {
	if _, ok := a.placements[occ]; ok {
		return fmt.Errorf("occurrence %s already placed", occ)
	}
	a.placements[occ] = p
	for _, ref := range p.Slots() {
		if a.teacherBusy[p.TeacherID] == nil {
			a.teacherBusy[p.TeacherID] = make(map[SlotRef]OccurrenceKey)
		}
		a.teacherBusy[p.TeacherID][ref] = occ
		if a.roomBusy[p.RoomID] == nil {
			a.roomBusy[p.RoomID] = make(map[SlotRef]OccurrenceKey)
		}
		a.roomBusy[p.RoomID][ref] = occ
		if a.divisionClaims[req.Group.DivisionID] == nil {
			a.divisionClaims[req.Group.DivisionID] = make(map[SlotRef][]groupClaim)
		}
		a.divisionClaims[req.Group.DivisionID][ref] = append(
			a.divisionClaims[req.Group.DivisionID][ref],
			groupClaim{occ: occ, group: req.Group},
		)
	}
	a.teacherMinutes[p.TeacherID] += req.DurationMinutes
	return nil
}

// Remove undoes a placement and restores the occupancy indexes.
func (a *Assignment) Remove(req *SessionRequirement, occ OccurrenceKey) {
	p, ok := a.placements[occ]
	if !ok {
		return
	}
	delete(a.placements, occ)
	for _, ref := range p.Slots() {
		delete(a.teacherBusy[p.TeacherID], ref)
		delete(a.roomBusy[p.RoomID], ref)
		claims := a.divisionClaims[req.Group.DivisionID][ref]
		for i, c := range claims {
			if c.occ == occ {
				a.divisionClaims[req.Group.DivisionID][ref] = append(claims[:i], claims[i+1:]...)
				break
			}
		}
	}
	a.teacherMinutes[p.TeacherID] -= req.DurationMinutes
}

// Clone returns a deep copy. Used when a candidate solution is handed to a
// refiner or kept as best-so-far while search continues.
func (a *Assignment) Clone() *Assignment {
	cp := NewAssignment()
	for k, v := range a.placements {
		cp.placements[k] = v
	}
	for id, slots := range a.teacherBusy {
		m := make(map[SlotRef]OccurrenceKey, len(slots))
		for ref, occ := range slots {
			m[ref] = occ
		}
		cp.teacherBusy[id] = m
	}
	for id, slots := range a.roomBusy {
		m := make(map[SlotRef]OccurrenceKey, len(slots))
		for ref, occ := range slots {
			m[ref] = occ
		}
		cp.roomBusy[id] = m
	}
	for id, slots := range a.divisionClaims {
		m := make(map[SlotRef][]groupClaim, len(slots))
		for ref, claims := range slots {
			m[ref] = append([]groupClaim(nil), claims...)
		}
		cp.divisionClaims[id] = m
	}
	for id, mins := range a.teacherMinutes {
		cp.teacherMinutes[id] = mins
	}
	return cp
}
