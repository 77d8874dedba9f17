package model

import "fmt"

// SessionType distinguishes the kinds of weekly sessions a course requires.
type SessionType int

const (
	Theory SessionType = iota
	Practical
	Tutorial
)

// String returns a human-readable representation of the session type.
func (t SessionType) String() string {
	switch t {
	case Theory:
		return "theory"
	case Practical:
		return "practical"
	case Tutorial:
		return "tutorial"
	default:
		return "unknown"
	}
}

// Feature is a named room capability such as "Projector" or "Computers".
type Feature string

// FeatureComputers marks lab-capable rooms.
const FeatureComputers Feature = "Computers"

// TeacherPriority orders a course's eligible teachers.
type TeacherPriority int

const (
	PriorityCore TeacherPriority = iota
	PriorityVisiting
)

// String returns a human-readable representation of the priority.
func (p TeacherPriority) String() string {
	switch p {
	case PriorityCore:
		return "core"
	case PriorityVisiting:
		return "visiting"
	default:
		return "unknown"
	}
}

// TeacherRef is an eligible teacher for a session requirement, carrying the
// priority used for candidate ordering.
type TeacherRef struct {
	ID       string
	Priority TeacherPriority
}

// SessionRequirement is one (course, session type, student group) unit that
// needs SessionsPerWeek independent placements. Produced by the normalizer;
// read-only to the solver.
type SessionRequirement struct {
	ID               string
	CourseID         string
	Type             SessionType
	SessionsPerWeek  int
	DurationMinutes  int
	RequiresLab      bool
	RequiredFeatures []Feature
	MinRoomCapacity  int
	Group            GroupRef
	GroupSize        int
	EligibleTeachers []TeacherRef
}

// Occurrences returns the keys of every weekly placement this requirement
// needs.
func (r *SessionRequirement) Occurrences() []OccurrenceKey {
	keys := make([]OccurrenceKey, r.SessionsPerWeek)
	for i := range keys {
		keys[i] = OccurrenceKey{RequirementID: r.ID, Index: i}
	}
	return keys
}

// OccurrenceKey identifies one weekly placement of a session requirement.
type OccurrenceKey struct {
	RequirementID string
	Index         int
}

// String renders the key for diagnostics.
func (k OccurrenceKey) String() string {
	return fmt.Sprintf("%s#%d", k.RequirementID, k.Index)
}
