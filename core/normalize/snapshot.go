package normalize

// The types in this file are the handover contract with the surrounding
// CRUD layer: plain data snapshots of courses, teachers, rooms, divisions
// and no behaviour. They are decoded from JSON or YAML documents.

// SessionSpec describes one session type a course requires.
type SessionSpec struct {
	SessionsPerWeek  int      `json:"sessions_per_week" yaml:"sessions_per_week"`
	DurationMinutes  int      `json:"duration_minutes" yaml:"duration_minutes"`
	RequiresLab      bool     `json:"requires_lab" yaml:"requires_lab"`
	RequiredFeatures []string `json:"required_features" yaml:"required_features"`
	MinRoomCapacity  int      `json:"min_room_capacity" yaml:"min_room_capacity"`
}

// AssignedTeacher links a teacher to the session types they may teach on a
// course.
type AssignedTeacher struct {
	TeacherID    string   `json:"teacher_id" yaml:"teacher_id"`
	SessionTypes []string `json:"session_types" yaml:"session_types"`
}

// CourseRecord is a course as exported by the CRUD layer.
type CourseRecord struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	DivisionID string `json:"division_id" yaml:"division_id"`
	Sessions   struct {
		Theory    *SessionSpec `json:"theory,omitempty" yaml:"theory,omitempty"`
		Practical *SessionSpec `json:"practical,omitempty" yaml:"practical,omitempty"`
		Tutorial  *SessionSpec `json:"tutorial,omitempty" yaml:"tutorial,omitempty"`
	} `json:"sessions" yaml:"sessions"`
	AssignedTeachers []AssignedTeacher `json:"assigned_teachers" yaml:"assigned_teachers"`
}

// DayAvailability is one entry of a teacher's 7-day availability map.
type DayAvailability struct {
	Available bool   `json:"available" yaml:"available"`
	StartTime string `json:"start_time" yaml:"start_time"`
	EndTime   string `json:"end_time" yaml:"end_time"`
}

// TeacherRecord is a teacher as exported by the CRUD layer. Category is
// "core" or "visiting" and drives candidate ordering.
type TeacherRecord struct {
	ID              string                     `json:"id" yaml:"id"`
	Name            string                     `json:"name" yaml:"name"`
	Category        string                     `json:"category" yaml:"category"`
	MaxHoursPerWeek int                        `json:"max_hours_per_week" yaml:"max_hours_per_week"`
	Availability    map[string]DayAvailability `json:"availability" yaml:"availability"`
}

// RoomRecord is a room as exported by the CRUD layer.
type RoomRecord struct {
	ID       string   `json:"id" yaml:"id"`
	Capacity int      `json:"capacity" yaml:"capacity"`
	Features []string `json:"features" yaml:"features"`
	Type     string   `json:"type" yaml:"type"`
}

// DivisionRecord is a student cohort with an optional lab subdivision.
type DivisionRecord struct {
	ID           string `json:"id" yaml:"id"`
	StudentCount int    `json:"student_count" yaml:"student_count"`
	LabBatches   int    `json:"lab_batches" yaml:"lab_batches"`
}

// Snapshot bundles everything the engine consumes for one run.
type Snapshot struct {
	Courses   []CourseRecord   `json:"courses" yaml:"courses"`
	Teachers  []TeacherRecord  `json:"teachers" yaml:"teachers"`
	Rooms     []RoomRecord     `json:"rooms" yaml:"rooms"`
	Divisions []DivisionRecord `json:"divisions" yaml:"divisions"`
}
