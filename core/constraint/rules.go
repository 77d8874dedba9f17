package constraint

// Rules is the institutional constraint-rules policy snapshot. Toggles
// enable soft rules; weights tune their relative cost. Loaded from
// configuration alongside the working-hours policy.
type Rules struct {
	// Hard.
	MinRoomCapacityBufferPct int `json:"min_room_capacity_buffer_pct" yaml:"min_room_capacity_buffer_pct"`

	// Soft limits.
	MaxConsecutiveHours     int `json:"max_consecutive_hours" yaml:"max_consecutive_hours"`
	MaxDailyHours           int `json:"max_daily_hours" yaml:"max_daily_hours"`
	MinBreakBetweenSessions int `json:"min_break_between_sessions_minutes" yaml:"min_break_between_sessions_minutes"`

	// Soft toggles.
	AllowBackToBackLabs       bool `json:"allow_back_to_back_labs" yaml:"allow_back_to_back_labs"`
	AvoidFirstLastPeriod      bool `json:"avoid_first_last_period" yaml:"avoid_first_last_period"`
	PreferMorningLabs         bool `json:"prefer_morning_labs" yaml:"prefer_morning_labs"`
	AvoidFridayAfternoon      bool `json:"avoid_friday_afternoon" yaml:"avoid_friday_afternoon"`
	BalanceWorkload           bool `json:"balance_workload" yaml:"balance_workload"`
	GroupSimilarSubjects      bool `json:"group_similar_subjects" yaml:"group_similar_subjects"`
	MaintainTeacherContinuity bool `json:"maintain_teacher_continuity" yaml:"maintain_teacher_continuity"`
	PrioritizeCoreBefore      bool `json:"prioritize_core_before" yaml:"prioritize_core_before"`

	// PreferredClassroomUtilization is the target weekly occupancy ratio
	// per room in [0,1]. Zero disables the rule.
	PreferredClassroomUtilization float64 `json:"preferred_classroom_utilization" yaml:"preferred_classroom_utilization"`

	Weights Weights `json:"weights" yaml:"weights"`
}

// Weights are the per-rule soft penalty weights. Lower total score is
// better; a weight of zero silences a rule without disabling its toggle.
type Weights struct {
	ConsecutiveHours   float64 `json:"consecutive_hours" yaml:"consecutive_hours"`
	DailyHours         float64 `json:"daily_hours" yaml:"daily_hours"`
	ShortBreak         float64 `json:"short_break" yaml:"short_break"`
	BackToBackLabs     float64 `json:"back_to_back_labs" yaml:"back_to_back_labs"`
	FirstLastPeriod    float64 `json:"first_last_period" yaml:"first_last_period"`
	AfternoonLab       float64 `json:"afternoon_lab" yaml:"afternoon_lab"`
	FridayAfternoon    float64 `json:"friday_afternoon" yaml:"friday_afternoon"`
	WorkloadVariance   float64 `json:"workload_variance" yaml:"workload_variance"`
	SubjectSwitch      float64 `json:"subject_switch" yaml:"subject_switch"`
	TeacherSwitch      float64 `json:"teacher_switch" yaml:"teacher_switch"`
	VisitingEarly      float64 `json:"visiting_early" yaml:"visiting_early"`
	RoomUtilizationGap float64 `json:"room_utilization_gap" yaml:"room_utilization_gap"`
	SameDayRepeat      float64 `json:"same_day_repeat" yaml:"same_day_repeat"`
}

// SetDefaults applies the default rule set used when the policy snapshot
// leaves fields unset.
func (r *Rules) SetDefaults() {
	if r.MaxConsecutiveHours == 0 {
		r.MaxConsecutiveHours = 3
	}
	if r.MaxDailyHours == 0 {
		r.MaxDailyHours = 6
	}
	w := &r.Weights
	if w.ConsecutiveHours == 0 {
		w.ConsecutiveHours = 4
	}
	if w.DailyHours == 0 {
		w.DailyHours = 4
	}
	if w.ShortBreak == 0 {
		w.ShortBreak = 2
	}
	if w.BackToBackLabs == 0 {
		w.BackToBackLabs = 3
	}
	if w.FirstLastPeriod == 0 {
		w.FirstLastPeriod = 1
	}
	if w.AfternoonLab == 0 {
		w.AfternoonLab = 2
	}
	if w.FridayAfternoon == 0 {
		w.FridayAfternoon = 2
	}
	if w.WorkloadVariance == 0 {
		w.WorkloadVariance = 0.05
	}
	if w.SubjectSwitch == 0 {
		w.SubjectSwitch = 1
	}
	if w.TeacherSwitch == 0 {
		w.TeacherSwitch = 2
	}
	if w.VisitingEarly == 0 {
		w.VisitingEarly = 1
	}
	if w.RoomUtilizationGap == 0 {
		w.RoomUtilizationGap = 5
	}
	if w.SameDayRepeat == 0 {
		w.SameDayRepeat = 3
	}
}

// Validate checks field ranges.
func (r Rules) Validate() error {
	if r.MinRoomCapacityBufferPct < 0 || r.MinRoomCapacityBufferPct > 100 {
		return errBufferRange
	}
	if r.PreferredClassroomUtilization < 0 || r.PreferredClassroomUtilization > 1 {
		return errUtilizationRange
	}
	return nil
}
