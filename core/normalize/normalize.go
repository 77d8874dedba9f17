// Package normalize converts raw CRUD-layer snapshots into the internal
// session-requirement units the solver operates on. Unschedulable courses
// are rejected here, before search starts, with per-entity DataErrors.
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/acadterm/timetabler/core/model"
)

// Problem is the fully materialized input of a solver run.
type Problem struct {
	Requirements []*model.SessionRequirement
	Teachers     map[string]*model.Teacher
	Rooms        []*model.Room
}

// RequirementByID returns the requirement with the given id.
func (p *Problem) RequirementByID(id string) (*model.SessionRequirement, bool) {
	for _, r := range p.Requirements {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Occurrences returns every weekly placement the problem needs, in a
// deterministic order.
func (p *Problem) Occurrences() []model.OccurrenceKey {
	var keys []model.OccurrenceKey
	for _, r := range p.Requirements {
		keys = append(keys, r.Occurrences()...)
	}
	return keys
}

// Normalize expands the snapshot into a Problem. Courses that cannot be
// scheduled at all are reported as DataErrors and skipped; the remaining
// courses proceed. A non-nil Problem is returned even when some courses
// fail, so callers decide whether partial input is acceptable.
func Normalize(snap Snapshot) (*Problem, []error) {
	var dataErrs []error

	teachers := make(map[string]*model.Teacher, len(snap.Teachers))
	categories := make(map[string]model.TeacherPriority, len(snap.Teachers))
	for _, rec := range snap.Teachers {
		t, err := normalizeTeacher(rec)
		if err != nil {
			dataErrs = append(dataErrs, err)
			continue
		}
		teachers[t.ID] = t
		if strings.EqualFold(rec.Category, "visiting") {
			categories[t.ID] = model.PriorityVisiting
		} else {
			categories[t.ID] = model.PriorityCore
		}
	}

	rooms := make([]*model.Room, 0, len(snap.Rooms))
	for _, rec := range snap.Rooms {
		features := make([]model.Feature, len(rec.Features))
		for i, f := range rec.Features {
			features[i] = model.Feature(f)
		}
		rooms = append(rooms, &model.Room{
			ID:       rec.ID,
			Capacity: rec.Capacity,
			Features: features,
			Type:     rec.Type,
		})
	}

	divisions := make(map[string]DivisionRecord, len(snap.Divisions))
	for _, d := range snap.Divisions {
		divisions[d.ID] = d
	}

	p := &Problem{Teachers: teachers, Rooms: rooms}
	for _, course := range snap.Courses {
		reqs, errs := normalizeCourse(course, divisions, categories, rooms)
		if len(errs) > 0 {
			dataErrs = append(dataErrs, errs...)
			continue
		}
		p.Requirements = append(p.Requirements, reqs...)
	}

	dataErrs = append(dataErrs, checkTeacherLoads(p)...)
	return p, dataErrs
}

func normalizeTeacher(rec TeacherRecord) (*model.Teacher, error) {
	t := &model.Teacher{
		ID:             rec.ID,
		Name:           rec.Name,
		MaxWeekMinutes: rec.MaxHoursPerWeek * 60,
		Availability:   make(map[model.Weekday]model.TimeWindow, len(rec.Availability)),
	}
	for dayName, av := range rec.Availability {
		day, err := model.ParseWeekday(dayName)
		if err != nil {
			return nil, &model.DataError{TeacherID: rec.ID, Reason: err.Error()}
		}
		if !av.Available {
			t.Availability[day] = model.TimeWindow{}
			continue
		}
		start, err := model.ParseTimeOfDay(av.StartTime)
		if err != nil {
			return nil, &model.DataError{TeacherID: rec.ID, Reason: fmt.Sprintf("%s: %v", dayName, err)}
		}
		end, err := model.ParseTimeOfDay(av.EndTime)
		if err != nil {
			return nil, &model.DataError{TeacherID: rec.ID, Reason: fmt.Sprintf("%s: %v", dayName, err)}
		}
		t.Availability[day] = model.TimeWindow{Available: true, Start: start, End: end}
	}
	return t, nil
}

func normalizeCourse(course CourseRecord, divisions map[string]DivisionRecord, categories map[string]model.TeacherPriority, rooms []*model.Room) ([]*model.SessionRequirement, []error) {
	division, ok := divisions[course.DivisionID]
	if !ok {
		return nil, []error{&model.DataError{
			CourseID:   course.ID,
			DivisionID: course.DivisionID,
			Reason:     "division not found in snapshot",
		}}
	}

	specs := []struct {
		typ  model.SessionType
		spec *SessionSpec
	}{
		{model.Theory, course.Sessions.Theory},
		{model.Practical, course.Sessions.Practical},
		{model.Tutorial, course.Sessions.Tutorial},
	}

	var reqs []*model.SessionRequirement
	var errs []error
	for _, s := range specs {
		if s.spec == nil || s.spec.SessionsPerWeek <= 0 {
			continue
		}
		eligible := eligibleTeachers(course, s.typ, categories)
		if len(eligible) == 0 {
			errs = append(errs, &model.DataError{
				CourseID:   course.ID,
				DivisionID: course.DivisionID,
				Session:    s.typ,
				Reason:     "no eligible teacher for declared session type",
			})
			continue
		}
		features := make([]model.Feature, len(s.spec.RequiredFeatures))
		for i, f := range s.spec.RequiredFeatures {
			features[i] = model.Feature(f)
		}
		if s.spec.RequiresLab && !hasFeature(features, model.FeatureComputers) {
			features = append(features, model.FeatureComputers)
		}

		base := model.SessionRequirement{
			CourseID:         course.ID,
			Type:             s.typ,
			SessionsPerWeek:  s.spec.SessionsPerWeek,
			DurationMinutes:  s.spec.DurationMinutes,
			RequiresLab:      s.spec.RequiresLab,
			RequiredFeatures: features,
			MinRoomCapacity:  s.spec.MinRoomCapacity,
			EligibleTeachers: eligible,
		}

		split := s.spec.RequiresLab && division.LabBatches > 0
		if split {
			batchSize := (division.StudentCount + division.LabBatches - 1) / division.LabBatches
			for b := 1; b <= division.LabBatches; b++ {
				r := base
				r.Group = model.GroupRef{DivisionID: division.ID, BatchID: fmt.Sprintf("B%d", b)}
				r.GroupSize = batchSize
				r.ID = requirementID(&r)
				reqs = append(reqs, &r)
			}
		} else {
			r := base
			r.Group = model.GroupRef{DivisionID: division.ID}
			r.GroupSize = division.StudentCount
			r.ID = requirementID(&r)
			reqs = append(reqs, &r)
		}

		if s.spec.RequiresLab && !anyCapableRoom(rooms, &base) {
			errs = append(errs, &model.DataError{
				CourseID:   course.ID,
				DivisionID: course.DivisionID,
				Session:    s.typ,
				Reason:     "no lab room provides the required features and capacity",
			})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return reqs, nil
}

func requirementID(r *model.SessionRequirement) string {
	if r.Group.IsBatch() {
		return fmt.Sprintf("%s-%s-%s-%s", r.CourseID, r.Type, r.Group.DivisionID, r.Group.BatchID)
	}
	return fmt.Sprintf("%s-%s-%s", r.CourseID, r.Type, r.Group.DivisionID)
}

// eligibleTeachers maps the course's assigned teachers for one session type
// to ordered TeacherRefs, core-category teachers first. Input order is kept
// within each category.
func eligibleTeachers(course CourseRecord, typ model.SessionType, categories map[string]model.TeacherPriority) []model.TeacherRef {
	var refs []model.TeacherRef
	for _, at := range course.AssignedTeachers {
		prio, known := categories[at.TeacherID]
		if !known {
			continue
		}
		for _, st := range at.SessionTypes {
			if strings.EqualFold(st, typ.String()) {
				refs = append(refs, model.TeacherRef{ID: at.TeacherID, Priority: prio})
				break
			}
		}
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Priority < refs[j].Priority })
	return refs
}

func hasFeature(features []model.Feature, f model.Feature) bool {
	for _, have := range features {
		if have == f {
			return true
		}
	}
	return false
}

func anyCapableRoom(rooms []*model.Room, r *model.SessionRequirement) bool {
	for _, room := range rooms {
		if room.Capacity >= r.MinRoomCapacity && room.HasFeatures(r.RequiredFeatures) {
			return true
		}
	}
	return false
}

// checkTeacherLoads verifies that the minimum unavoidable load of each
// teacher fits their weekly cap: only requirements where the teacher is the
// sole eligible choice count, since pooled requirements may land elsewhere.
func checkTeacherLoads(p *Problem) []error {
	committed := make(map[string]int)
	for _, r := range p.Requirements {
		if len(r.EligibleTeachers) != 1 {
			continue
		}
		committed[r.EligibleTeachers[0].ID] += r.SessionsPerWeek * r.DurationMinutes
	}
	var errs []error
	for id, minutes := range committed {
		t, ok := p.Teachers[id]
		if !ok {
			continue
		}
		if minutes > t.MaxWeekMinutes {
			errs = append(errs, &model.DataError{
				TeacherID: id,
				Reason: fmt.Sprintf("committed to %d minutes/week but capped at %d",
					minutes, t.MaxWeekMinutes),
			})
		}
	}
	return errs
}
