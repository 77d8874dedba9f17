package constraint

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/acadterm/timetabler/core/model"
)

// entry is one placed session viewed by the soft scorers.
type entry struct {
	req       *model.SessionRequirement
	placement model.Placement
	start     model.TimeOfDay
	end       model.TimeOfDay
}

func (e entry) endSlot() int { return e.placement.StartSlot + e.placement.SlotCount }

type dayKey struct {
	id  string
	day model.Weekday
}

// SoftScore computes the total soft-constraint penalty of an assignment.
// Lower is better; a hard-feasible assignment always gets a finite score.
func (m *Model) SoftScore(a *model.Assignment) float64 {
	teacherDays := make(map[dayKey][]entry)
	groupDays := make(map[dayKey][]entry)
	roomSlots := make(map[string]int)
	teacherDaily := make(map[string]map[model.Weekday]float64)
	groupDaily := make(map[string]map[model.Weekday]float64)

	for _, occ := range a.Keys() {
		p, _ := a.Get(occ)
		req, ok := m.reqs[occ.RequirementID]
		if !ok {
			continue
		}
		start, end, err := m.grid.Window(model.SlotRef{Day: p.Day, Slot: p.StartSlot}, p.SlotCount)
		if err != nil {
			continue
		}
		e := entry{req: req, placement: p, start: start, end: end}
		teacherDays[dayKey{p.TeacherID, p.Day}] = append(teacherDays[dayKey{p.TeacherID, p.Day}], e)
		groupDays[dayKey{req.Group.String(), p.Day}] = append(groupDays[dayKey{req.Group.String(), p.Day}], e)
		roomSlots[p.RoomID] += p.SlotCount

		if teacherDaily[p.TeacherID] == nil {
			teacherDaily[p.TeacherID] = make(map[model.Weekday]float64)
		}
		teacherDaily[p.TeacherID][p.Day] += float64(req.DurationMinutes)
		gid := req.Group.String()
		if groupDaily[gid] == nil {
			groupDaily[gid] = make(map[model.Weekday]float64)
		}
		groupDaily[gid][p.Day] += float64(req.DurationMinutes)
	}

	var score float64
	for _, entries := range teacherDays {
		score += m.scoreDaySequence(entries, false)
	}
	for _, entries := range groupDays {
		score += m.scoreDaySequence(entries, true)
	}
	score += m.scorePlacements(a)
	if m.rules.BalanceWorkload {
		for _, daily := range teacherDaily {
			score += m.rules.Weights.WorkloadVariance * weekVariance(daily, m.grid.Days)
		}
		for _, daily := range groupDaily {
			score += m.rules.Weights.WorkloadVariance * weekVariance(daily, m.grid.Days)
		}
	}
	if target := m.rules.PreferredClassroomUtilization; target > 0 {
		for _, id := range m.roomOrder {
			ratio := float64(roomSlots[id]) / float64(m.grid.TotalSlots())
			score += m.rules.Weights.RoomUtilizationGap * math.Abs(ratio-target)
		}
	}
	return score
}

// scoreDaySequence applies the sequence rules to one teacher-day or
// group-day. Group-only rules are gated by the group flag.
func (m *Model) scoreDaySequence(entries []entry, group bool) float64 {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].placement.StartSlot < entries[j].placement.StartSlot
	})
	w := m.rules.Weights
	var score float64

	var dailyMinutes int
	for _, e := range entries {
		dailyMinutes += e.req.DurationMinutes
	}
	if excess := dailyMinutes - m.rules.MaxDailyHours*60; excess > 0 {
		score += w.DailyHours * float64(excess) / 60
	}

	runMinutes := entries[0].req.DurationMinutes
	sameDayCount := make(map[string]int)
	sameDayCount[entries[0].req.ID]++
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		sameDayCount[cur.req.ID]++
		adjacent := cur.placement.StartSlot == prev.endSlot()
		gap := int(cur.start - prev.end)

		if adjacent {
			runMinutes += cur.req.DurationMinutes
		} else {
			if excess := runMinutes - m.rules.MaxConsecutiveHours*60; excess > 0 {
				score += w.ConsecutiveHours * float64(excess) / 60
			}
			runMinutes = cur.req.DurationMinutes
		}
		if !adjacent && m.rules.MinBreakBetweenSessions > 0 && gap < m.rules.MinBreakBetweenSessions {
			score += w.ShortBreak
		}
		if group {
			if adjacent && !m.rules.AllowBackToBackLabs &&
				prev.req.Type == model.Practical && cur.req.Type == model.Practical {
				score += w.BackToBackLabs
			}
			if m.rules.MaintainTeacherContinuity && adjacent &&
				prev.req.CourseID == cur.req.CourseID &&
				prev.placement.TeacherID != cur.placement.TeacherID {
				score += w.TeacherSwitch
			}
		}
	}
	if excess := runMinutes - m.rules.MaxConsecutiveHours*60; excess > 0 {
		score += w.ConsecutiveHours * float64(excess) / 60
	}
	for _, n := range sameDayCount {
		if n > 1 {
			score += w.SameDayRepeat * float64(n-1)
		}
	}
	if group && m.rules.GroupSimilarSubjects {
		score += w.SubjectSwitch * float64(courseFragments(entries))
	}
	return score
}

// courseFragments counts how many extra runs the day has compared to one
// contiguous run per course: zero when every course's sessions are
// clustered.
func courseFragments(entries []entry) int {
	runs := 0
	distinct := make(map[string]struct{})
	for i, e := range entries {
		distinct[e.req.CourseID] = struct{}{}
		if i == 0 || entries[i-1].req.CourseID != e.req.CourseID {
			runs++
		}
	}
	return runs - len(distinct)
}

// scorePlacements applies the per-placement positional rules.
func (m *Model) scorePlacements(a *model.Assignment) float64 {
	var score float64
	for _, occ := range a.Keys() {
		p, _ := a.Get(occ)
		req, ok := m.reqs[occ.RequirementID]
		if !ok {
			continue
		}
		score += m.positionalPenalty(req, p)
	}
	return score
}

// positionalPenalty is the portion of the soft score attributable to one
// placement in isolation. Shared with the solver's greedy candidate
// ordering.
func (m *Model) positionalPenalty(req *model.SessionRequirement, p model.Placement) float64 {
	w := m.rules.Weights
	var score float64
	last := m.grid.SlotsPerDay
	afternoon := m.grid.SlotsPerDay / 2
	if m.rules.AvoidFirstLastPeriod && (p.StartSlot == 0 || p.StartSlot+p.SlotCount == last) {
		score += w.FirstLastPeriod
	}
	if m.rules.PreferMorningLabs && req.Type == model.Practical && p.StartSlot >= afternoon {
		score += w.AfternoonLab
	}
	if m.rules.AvoidFridayAfternoon && p.Day == model.Friday && p.StartSlot >= afternoon {
		score += w.FridayAfternoon
	}
	if m.rules.PrioritizeCoreBefore && teacherPriority(req, p.TeacherID) == model.PriorityVisiting {
		position := float64(dayIndex(m.grid.Days, p.Day)*m.grid.SlotsPerDay + p.StartSlot)
		earliness := 1 - position/float64(m.grid.TotalSlots())
		score += w.VisitingEarly * earliness
	}
	return score
}

// PlacementPenalty is the greedy ordering score for a candidate: its
// positional soft cost plus congestion terms that steer the search towards
// empty days and lightly used rooms, preserving future flexibility.
func (m *Model) PlacementPenalty(c Candidate, partial *model.Assignment) float64 {
	score := m.positionalPenalty(c.Req, c.Placement)

	// Prefer days the group and teacher are still free on.
	for s := 0; s < m.grid.SlotsPerDay; s++ {
		ref := model.SlotRef{Day: c.Placement.Day, Slot: s}
		if partial.GroupOccupied(c.Req.Group, ref) {
			score += 0.25
		}
		if partial.TeacherOccupied(c.Placement.TeacherID, ref) {
			score += 0.1
		}
		if partial.RoomOccupied(c.Placement.RoomID, ref) {
			score += 0.05
		}
	}
	// Spreading occurrences of one requirement across days beats repeats.
	for i := 0; i < c.Req.SessionsPerWeek; i++ {
		sibling := model.OccurrenceKey{RequirementID: c.Req.ID, Index: i}
		if sibling == c.Occ {
			continue
		}
		if p, ok := partial.Get(sibling); ok && p.Day == c.Placement.Day {
			score += m.rules.Weights.SameDayRepeat
		}
	}
	return score
}

func teacherPriority(req *model.SessionRequirement, teacherID string) model.TeacherPriority {
	for _, ref := range req.EligibleTeachers {
		if ref.ID == teacherID {
			return ref.Priority
		}
	}
	return model.PriorityCore
}

func dayIndex(days []model.Weekday, d model.Weekday) int {
	for i, day := range days {
		if day == d {
			return i
		}
	}
	return 0
}

// weekVariance computes the variance of daily load across all working
// days, counting free days as zero load.
func weekVariance(daily map[model.Weekday]float64, days []model.Weekday) float64 {
	samples := make([]float64, len(days))
	for i, d := range days {
		samples[i] = daily[d]
	}
	return stat.Variance(samples, nil)
}
