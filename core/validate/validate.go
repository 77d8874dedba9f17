// Package validate audits a finished assignment against every hard rule
// from first principles. It shares no occupancy index with the solver:
// every conflict table is rebuilt here from the raw placements, so a
// solver bug cannot hide a broken timetable.
package validate

import (
	"fmt"
	"sort"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/model"
)

// Scorer computes the soft score of an assignment. The constraint model
// satisfies it; a nil Scorer reports a zero score.
type Scorer interface {
	SoftScore(*model.Assignment) float64
}

// Validator audits assignments for one problem instance.
type Validator struct {
	grid     *calendar.Grid
	rules    constraint.Rules
	teachers map[string]*model.Teacher
	rooms    map[string]*model.Room
	reqs     map[string]*model.SessionRequirement
	scorer   Scorer
}

// New creates a validator. scorer may be nil.
func New(grid *calendar.Grid, rules constraint.Rules, teachers map[string]*model.Teacher, rooms []*model.Room, reqs []*model.SessionRequirement, scorer Scorer) *Validator {
	rules.SetDefaults()
	roomIdx := make(map[string]*model.Room, len(rooms))
	for _, r := range rooms {
		roomIdx[r.ID] = r
	}
	reqIdx := make(map[string]*model.SessionRequirement, len(reqs))
	for _, r := range reqs {
		reqIdx[r.ID] = r
	}
	return &Validator{
		grid:     grid,
		rules:    rules,
		teachers: teachers,
		rooms:    roomIdx,
		reqs:     reqIdx,
		scorer:   scorer,
	}
}

// Check audits asn and returns the full report. Checking never mutates the
// assignment; calling Check twice yields identical reports.
func (v *Validator) Check(asn *model.Assignment) model.ScheduleReport {
	var report model.ScheduleReport

	teacherSeen := map[string]map[model.SlotRef]model.OccurrenceKey{}
	roomSeen := map[string]map[model.SlotRef]model.OccurrenceKey{}
	groupSeen := map[string]map[model.SlotRef][]groupUse{}
	teacherMinutes := map[string]int{}
	placed := map[model.OccurrenceKey]bool{}

	for _, occ := range asn.Keys() {
		p, _ := asn.Get(occ)
		req, ok := v.reqs[occ.RequirementID]
		if !ok || occ.Index < 0 || occ.Index >= req.SessionsPerWeek {
			report.Violations = append(report.Violations, model.ConstraintViolation{
				Kind:     model.ViolationDuplicatePlacement,
				Severity: model.SeverityHard,
				Entities: map[string]string{"occurrence": occ.String()},
				Detail:   fmt.Sprintf("placement %s does not match any known occurrence", occ),
			})
			continue
		}
		placed[occ] = true

		v.checkSpan(&report, req, occ, p)
		v.checkRoom(&report, req, occ, p)
		v.checkTeacher(&report, req, occ, p)
		teacherMinutes[p.TeacherID] += req.DurationMinutes

		for _, slot := range p.Slots() {
			v.claim(&report, teacherSeen, p.TeacherID, slot, occ, model.ViolationTeacherConflict, "teacher")
			v.claim(&report, roomSeen, p.RoomID, slot, occ, model.ViolationRoomConflict, "room")
			v.claimGroup(&report, groupSeen, req.Group, slot, occ)
		}
	}

	v.checkWeeklyLoads(&report, teacherMinutes)
	report.Unplaced = v.missing(&report, placed)

	report.Status = model.StatusComplete
	if len(report.Unplaced) > 0 {
		report.Status = model.StatusPartial
	}
	if v.scorer != nil {
		report.SoftScore = v.scorer.SoftScore(asn)
	}
	return report
}

// CheckStrict runs Check and converts hard violations into an
// InvariantError. Missing placements are excluded: a partial assignment
// whose placed sessions are all conflict-free passes strict checking and
// is reported through Status and Unplaced instead.
func (v *Validator) CheckStrict(asn *model.Assignment) (model.ScheduleReport, error) {
	report := v.Check(asn)
	var hard []model.ConstraintViolation
	for _, viol := range report.HardViolations() {
		if viol.Kind != model.ViolationMissingPlacement {
			hard = append(hard, viol)
		}
	}
	if len(hard) > 0 {
		return report, &model.InvariantError{Violations: hard}
	}
	return report, nil
}

type groupUse struct {
	group model.GroupRef
	occ   model.OccurrenceKey
}

// checkSpan verifies the placement lies on the grid and, for multi-slot
// sessions, occupies contiguous teaching time.
func (v *Validator) checkSpan(report *model.ScheduleReport, req *model.SessionRequirement, occ model.OccurrenceKey, p model.Placement) {
	want := v.grid.SpanFor(req.DurationMinutes)
	if p.SlotCount != want {
		report.Violations = append(report.Violations, model.ConstraintViolation{
			Kind:     model.ViolationAvailability,
			Severity: model.SeverityHard,
			Entities: map[string]string{"occurrence": occ.String()},
			Detail:   fmt.Sprintf("%s spans %d slots, needs %d", occ, p.SlotCount, want),
		})
		return
	}
	if !v.grid.Contiguous(model.SlotRef{Day: p.Day, Slot: p.StartSlot}, p.SlotCount) {
		report.Violations = append(report.Violations, model.ConstraintViolation{
			Kind:     model.ViolationAvailability,
			Severity: model.SeverityHard,
			Entities: map[string]string{"occurrence": occ.String()},
			Detail:   fmt.Sprintf("%s is not contiguous within working hours on %s", occ, p.Day),
		})
	}
}

func (v *Validator) checkRoom(report *model.ScheduleReport, req *model.SessionRequirement, occ model.OccurrenceKey, p model.Placement) {
	room, ok := v.rooms[p.RoomID]
	if !ok {
		report.Violations = append(report.Violations, model.ConstraintViolation{
			Kind:     model.ViolationRoomConflict,
			Severity: model.SeverityHard,
			Entities: map[string]string{"occurrence": occ.String(), "room": p.RoomID},
			Detail:   fmt.Sprintf("%s assigned to unknown room %s", occ, p.RoomID),
		})
		return
	}
	if need := requiredCapacity(v.rules, req); room.Capacity < need {
		report.Violations = append(report.Violations, model.ConstraintViolation{
			Kind:     model.ViolationCapacity,
			Severity: model.SeverityHard,
			Entities: map[string]string{"occurrence": occ.String(), "room": room.ID},
			Detail:   fmt.Sprintf("room %s holds %d, %s needs %d", room.ID, room.Capacity, occ, need),
		})
	}
	if !room.HasFeatures(req.RequiredFeatures) {
		report.Violations = append(report.Violations, model.ConstraintViolation{
			Kind:     model.ViolationMissingFeature,
			Severity: model.SeverityHard,
			Entities: map[string]string{"occurrence": occ.String(), "room": room.ID},
			Detail:   fmt.Sprintf("room %s lacks features required by %s", room.ID, occ),
		})
	}
}

func (v *Validator) checkTeacher(report *model.ScheduleReport, req *model.SessionRequirement, occ model.OccurrenceKey, p model.Placement) {
	t, ok := v.teachers[p.TeacherID]
	if !ok {
		report.Violations = append(report.Violations, model.ConstraintViolation{
			Kind:     model.ViolationAvailability,
			Severity: model.SeverityHard,
			Entities: map[string]string{"occurrence": occ.String(), "teacher": p.TeacherID},
			Detail:   fmt.Sprintf("%s assigned to unknown teacher %s", occ, p.TeacherID),
		})
		return
	}
	eligible := false
	for _, ref := range req.EligibleTeachers {
		if ref.ID == t.ID {
			eligible = true
			break
		}
	}
	if !eligible {
		report.Violations = append(report.Violations, model.ConstraintViolation{
			Kind:     model.ViolationAvailability,
			Severity: model.SeverityHard,
			Entities: map[string]string{"occurrence": occ.String(), "teacher": t.ID},
			Detail:   fmt.Sprintf("teacher %s is not eligible for %s", t.ID, occ),
		})
	}
	for _, slot := range p.Slots() {
		ts, err := v.grid.SlotAt(slot)
		if err != nil {
			report.Violations = append(report.Violations, model.ConstraintViolation{
				Kind:     model.ViolationAvailability,
				Severity: model.SeverityHard,
				Entities: map[string]string{"occurrence": occ.String()},
				Detail:   fmt.Sprintf("%s placed outside the slot grid on %s", occ, slot.Day),
			})
			return
		}
		if !t.AvailableFor(slot.Day, ts.Start, ts.End) {
			report.Violations = append(report.Violations, model.ConstraintViolation{
				Kind:     model.ViolationAvailability,
				Severity: model.SeverityHard,
				Entities: map[string]string{"occurrence": occ.String(), "teacher": t.ID},
				Detail:   fmt.Sprintf("teacher %s is unavailable for %s on %s", t.ID, occ, slot.Day),
			})
			return
		}
	}
}

func (v *Validator) claim(report *model.ScheduleReport, seen map[string]map[model.SlotRef]model.OccurrenceKey, id string, slot model.SlotRef, occ model.OccurrenceKey, kind model.ViolationKind, entity string) {
	if seen[id] == nil {
		seen[id] = map[model.SlotRef]model.OccurrenceKey{}
	}
	if prev, taken := seen[id][slot]; taken {
		report.Violations = append(report.Violations, model.ConstraintViolation{
			Kind:     kind,
			Severity: model.SeverityHard,
			Entities: map[string]string{entity: id, "occurrence": occ.String(), "conflicts_with": prev.String()},
			Detail:   fmt.Sprintf("%s %s double-booked on %s slot %d by %s and %s", entity, id, slot.Day, slot.Slot, prev, occ),
		})
		return
	}
	seen[id][slot] = occ
}

func (v *Validator) claimGroup(report *model.ScheduleReport, seen map[string]map[model.SlotRef][]groupUse, g model.GroupRef, slot model.SlotRef, occ model.OccurrenceKey) {
	if seen[g.DivisionID] == nil {
		seen[g.DivisionID] = map[model.SlotRef][]groupUse{}
	}
	for _, use := range seen[g.DivisionID][slot] {
		if use.group.ConflictsWith(g) {
			report.Violations = append(report.Violations, model.ConstraintViolation{
				Kind:     model.ViolationGroupConflict,
				Severity: model.SeverityHard,
				Entities: map[string]string{"division": g.DivisionID, "occurrence": occ.String(), "conflicts_with": use.occ.String()},
				Detail:   fmt.Sprintf("students of %s booked twice on %s slot %d by %s and %s", g, slot.Day, slot.Slot, use.occ, occ),
			})
			return
		}
	}
	seen[g.DivisionID][slot] = append(seen[g.DivisionID][slot], groupUse{group: g, occ: occ})
}

func (v *Validator) checkWeeklyLoads(report *model.ScheduleReport, minutes map[string]int) {
	ids := make([]string, 0, len(minutes))
	for id := range minutes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t, ok := v.teachers[id]
		if !ok || t.MaxWeekMinutes <= 0 {
			continue
		}
		if minutes[id] > t.MaxWeekMinutes {
			report.Violations = append(report.Violations, model.ConstraintViolation{
				Kind:     model.ViolationWeeklyHours,
				Severity: model.SeverityHard,
				Entities: map[string]string{"teacher": id},
				Detail:   fmt.Sprintf("teacher %s scheduled %d minutes, cap %d", id, minutes[id], t.MaxWeekMinutes),
			})
		}
	}
}

// missing lists every expected occurrence absent from the assignment, in
// deterministic order, and records a violation per gap.
func (v *Validator) missing(report *model.ScheduleReport, placed map[model.OccurrenceKey]bool) []model.OccurrenceKey {
	ids := make([]string, 0, len(v.reqs))
	for id := range v.reqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var gaps []model.OccurrenceKey
	for _, id := range ids {
		for _, occ := range v.reqs[id].Occurrences() {
			if placed[occ] {
				continue
			}
			gaps = append(gaps, occ)
			report.Violations = append(report.Violations, model.ConstraintViolation{
				Kind:     model.ViolationMissingPlacement,
				Severity: model.SeverityHard,
				Entities: map[string]string{"occurrence": occ.String()},
				Detail:   fmt.Sprintf("occurrence %s is not scheduled", occ),
			})
		}
	}
	return gaps
}

func requiredCapacity(rules constraint.Rules, req *model.SessionRequirement) int {
	buffered := req.GroupSize + (req.GroupSize*rules.MinRoomCapacityBufferPct+99)/100
	if req.MinRoomCapacity > buffered {
		return req.MinRoomCapacity
	}
	return buffered
}
