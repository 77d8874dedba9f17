// Package export renders finished schedules for downstream consumers:
// machine-readable JSON and plain-text weekly grids per division, teacher
// or room. The JSON form round-trips: a Document can be read back and
// re-validated without the original solver state.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/model"
)

// Entry is one scheduled session occurrence in export form.
type Entry struct {
	RequirementID string `json:"requirement_id"`
	Occurrence    int    `json:"occurrence"`
	CourseID      string `json:"course_id"`
	SessionType   string `json:"session_type"`
	DivisionID    string `json:"division_id"`
	BatchID       string `json:"batch_id,omitempty"`
	Day           string `json:"day"`
	StartSlot     int    `json:"start_slot"`
	SlotCount     int    `json:"slot_count"`
	Start         string `json:"start"`
	End           string `json:"end"`
	RoomID        string `json:"room_id"`
	TeacherID     string `json:"teacher_id"`
}

// Document is the full JSON export: the schedule plus the validator's
// verdict on it.
type Document struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Status      string               `json:"status"`
	SoftScore   float64              `json:"soft_score"`
	Entries     []Entry              `json:"entries"`
	Report      model.ScheduleReport `json:"report"`
}

// Build flattens the assignment into sorted export entries.
func Build(asn *model.Assignment, reqs []*model.SessionRequirement, grid *calendar.Grid) ([]Entry, error) {
	byID := make(map[string]*model.SessionRequirement, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}

	var entries []Entry
	for _, occ := range asn.Keys() {
		p, _ := asn.Get(occ)
		req, ok := byID[occ.RequirementID]
		if !ok {
			return nil, fmt.Errorf("export: unknown requirement %s", occ.RequirementID)
		}
		start, end, err := grid.Window(model.SlotRef{Day: p.Day, Slot: p.StartSlot}, p.SlotCount)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", occ, err)
		}
		entries = append(entries, Entry{
			RequirementID: req.ID,
			Occurrence:    occ.Index,
			CourseID:      req.CourseID,
			SessionType:   req.Type.String(),
			DivisionID:    req.Group.DivisionID,
			BatchID:       req.Group.BatchID,
			Day:           p.Day.String(),
			StartSlot:     p.StartSlot,
			SlotCount:     p.SlotCount,
			Start:         start.String(),
			End:           end.String(),
			RoomID:        p.RoomID,
			TeacherID:     p.TeacherID,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RequirementID != entries[j].RequirementID {
			return entries[i].RequirementID < entries[j].RequirementID
		}
		return entries[i].Occurrence < entries[j].Occurrence
	})
	return entries, nil
}

// WriteJSON writes the document to w as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON decodes a previously exported document.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return doc, fmt.Errorf("decode schedule document: %w", err)
	}
	return doc, nil
}

// Placements rebuilds the occurrence-to-placement mapping from entries.
func Placements(entries []Entry) (map[model.OccurrenceKey]model.Placement, error) {
	out := make(map[model.OccurrenceKey]model.Placement, len(entries))
	for _, e := range entries {
		day, err := model.ParseWeekday(e.Day)
		if err != nil {
			return nil, fmt.Errorf("entry %s#%d: %w", e.RequirementID, e.Occurrence, err)
		}
		occ := model.OccurrenceKey{RequirementID: e.RequirementID, Index: e.Occurrence}
		if _, dup := out[occ]; dup {
			return nil, fmt.Errorf("entry %s duplicated in document", occ)
		}
		out[occ] = model.Placement{
			Day:       day,
			StartSlot: e.StartSlot,
			SlotCount: e.SlotCount,
			RoomID:    e.RoomID,
			TeacherID: e.TeacherID,
		}
	}
	return out, nil
}

// View selects the axis a text grid is grouped by.
type View int

const (
	ByDivision View = iota
	ByTeacher
	ByRoom
)

func (v View) String() string {
	switch v {
	case ByTeacher:
		return "teacher"
	case ByRoom:
		return "room"
	default:
		return "division"
	}
}

func (v View) key(e Entry) string {
	switch v {
	case ByTeacher:
		return e.TeacherID
	case ByRoom:
		return e.RoomID
	default:
		return e.DivisionID
	}
}

func (v View) label(e Entry) string {
	course := e.CourseID
	if e.BatchID != "" {
		course = e.CourseID + "/" + e.BatchID
	}
	switch v {
	case ByTeacher:
		return fmt.Sprintf("%s %s (%s, %s)", course, e.SessionType, e.DivisionID, e.RoomID)
	case ByRoom:
		return fmt.Sprintf("%s %s (%s, %s)", course, e.SessionType, e.DivisionID, e.TeacherID)
	default:
		return fmt.Sprintf("%s %s (%s, %s)", course, e.SessionType, e.RoomID, e.TeacherID)
	}
}

// WriteGrids writes one weekly text grid per entity on the chosen axis.
// Rows are slot windows, columns are working days.
func WriteGrids(w io.Writer, entries []Entry, grid *calendar.Grid, view View) error {
	grouped := make(map[string][]Entry)
	for _, e := range entries {
		grouped[view.key(e)] = append(grouped[view.key(e)], e)
	}
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := fmt.Fprintf(w, "%s %s\n", view, key); err != nil {
			return err
		}
		if err := writeGrid(w, grouped[key], grid, view); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func writeGrid(w io.Writer, entries []Entry, grid *calendar.Grid, view View) error {
	type cellKey struct {
		day  string
		slot int
	}
	cells := make(map[cellKey]string)
	for _, e := range entries {
		for s := e.StartSlot; s < e.StartSlot+e.SlotCount; s++ {
			cells[cellKey{day: e.Day, slot: s}] = view.label(e)
		}
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprint(tw, "time")
	for _, day := range grid.Days {
		fmt.Fprintf(tw, "\t%s", day)
	}
	fmt.Fprintln(tw)
	for slot := 0; slot < grid.SlotsPerDay; slot++ {
		ts := grid.DaySlots(grid.Days[0])[slot]
		fmt.Fprintf(tw, "%s-%s", ts.Start, ts.End)
		for _, day := range grid.Days {
			label := cells[cellKey{day: day.String(), slot: slot}]
			if label == "" {
				label = "-"
			}
			fmt.Fprintf(tw, "\t%s", label)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
