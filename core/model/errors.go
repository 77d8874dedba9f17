package model

import (
	"errors"
	"fmt"
)

// ErrInfeasible indicates the search budget was exhausted before every
// occurrence could be placed. The run still returns its best partial
// assignment together with the unplaced occurrences.
var ErrInfeasible = errors.New("search budget exhausted before full placement")

// ConfigError reports a malformed or impossible policy. It is fatal and
// aborts a run before search starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// DataError reports an unschedulable entity discovered during
// normalization, e.g. a course with no eligible teacher or no capable room.
// It aborts normalization for that course but lets others proceed.
type DataError struct {
	CourseID   string
	DivisionID string
	TeacherID  string
	Session    SessionType
	Reason     string
}

func (e *DataError) Error() string {
	if e.CourseID == "" && e.TeacherID != "" {
		return fmt.Sprintf("teacher %s: %s", e.TeacherID, e.Reason)
	}
	return fmt.Sprintf("course %s (%s, division %s): %s",
		e.CourseID, e.Session, e.DivisionID, e.Reason)
}

// InvariantError is raised when the validator finds a hard-constraint
// violation in a solver-produced assignment. This should be unreachable and
// is surfaced loudly rather than masked.
type InvariantError struct {
	Violations []ConstraintViolation
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("solver produced %d hard-constraint violation(s); first: %s",
		len(e.Violations), e.Violations[0].Detail)
}
