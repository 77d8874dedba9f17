package model

// ScheduleStatus summarizes the outcome of a run.
type ScheduleStatus int

const (
	StatusComplete ScheduleStatus = iota
	StatusPartial
)

// String returns a human-readable representation of the status.
func (s ScheduleStatus) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// ViolationKind classifies a constraint violation found by the validator.
type ViolationKind int

const (
	ViolationTeacherConflict ViolationKind = iota
	ViolationRoomConflict
	ViolationGroupConflict
	ViolationCapacity
	ViolationMissingFeature
	ViolationAvailability
	ViolationWeeklyHours
	ViolationMissingPlacement
	ViolationDuplicatePlacement
)

// String returns a human-readable representation of the violation kind.
func (k ViolationKind) String() string {
	switch k {
	case ViolationTeacherConflict:
		return "teacher_conflict"
	case ViolationRoomConflict:
		return "room_conflict"
	case ViolationGroupConflict:
		return "group_conflict"
	case ViolationCapacity:
		return "room_capacity"
	case ViolationMissingFeature:
		return "missing_feature"
	case ViolationAvailability:
		return "teacher_availability"
	case ViolationWeeklyHours:
		return "weekly_hours"
	case ViolationMissingPlacement:
		return "missing_placement"
	case ViolationDuplicatePlacement:
		return "duplicate_placement"
	default:
		return "unknown"
	}
}

// Severity distinguishes hard violations from scored preferences.
type Severity int

const (
	SeverityHard Severity = iota
	SeveritySoft
)

// String returns a human-readable representation of the severity.
func (s Severity) String() string {
	if s == SeverityHard {
		return "hard"
	}
	return "soft"
}

// ConstraintViolation describes one broken rule with enough entity
// identifiers for a caller to explain it without re-deriving context.
type ConstraintViolation struct {
	Kind     ViolationKind     `json:"kind"`
	Severity Severity          `json:"severity"`
	Entities map[string]string `json:"entities,omitempty"`
	Detail   string            `json:"detail"`
}

// ScheduleReport is the validator's verdict on a finished assignment. It is
// the only artifact downstream consumers may trust.
type ScheduleReport struct {
	Status     ScheduleStatus        `json:"status"`
	Violations []ConstraintViolation `json:"violations,omitempty"`
	Unplaced   []OccurrenceKey       `json:"unplaced,omitempty"`
	SoftScore  float64               `json:"soft_score"`
}

// HardViolations returns only the hard-severity violations.
func (r ScheduleReport) HardViolations() []ConstraintViolation {
	var out []ConstraintViolation
	for _, v := range r.Violations {
		if v.Severity == SeverityHard {
			out = append(out, v)
		}
	}
	return out
}
