package model

// GroupRef identifies the student group a session is taught to: a whole
// division, or one lab batch within it when BatchID is non-empty.
type GroupRef struct {
	DivisionID string
	BatchID    string
}

// IsBatch reports whether the reference points at a lab batch rather than
// the whole division.
func (g GroupRef) IsBatch() bool { return g.BatchID != "" }

// ConflictsWith reports whether two group references may not share a time
// slot. A division conflicts with itself and with all of its batches; two
// sibling batches run in parallel and do not conflict.
func (g GroupRef) ConflictsWith(o GroupRef) bool {
	if g.DivisionID != o.DivisionID {
		return false
	}
	if !g.IsBatch() || !o.IsBatch() {
		return true
	}
	return g.BatchID == o.BatchID
}

// String renders the reference for diagnostics.
func (g GroupRef) String() string {
	if g.IsBatch() {
		return g.DivisionID + "/" + g.BatchID
	}
	return g.DivisionID
}
