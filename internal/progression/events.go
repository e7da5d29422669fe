package progression

// EventKind is the closed set of things the engine reports back to its
// caller. The core never owns UI side effects; the caller decides how to
// present an event and when to act on it (including advance_scheduled,
// which replaces the old timer-driven auto-navigation).
type EventKind string

const (
	EventVisitRecorded       EventKind = "visit_recorded"
	EventAbsencesBackfilled  EventKind = "absences_backfilled"
	EventLessonCompleted     EventKind = "lesson_completed"
	EventModuleCompleted     EventKind = "module_completed"
	EventCourseCompleted     EventKind = "course_completed"
	EventAssessmentSubmitted EventKind = "assessment_submitted"
	EventProctorWarning      EventKind = "proctor_warning"
	EventForcedSubmit        EventKind = "forced_submit"
	EventAdvanceScheduled    EventKind = "advance_scheduled"
)

type Event struct {
	Kind         EventKind `json:"kind"`
	ModuleID     string    `json:"module_id,omitempty"`
	LessonID     string    `json:"lesson_id,omitempty"`
	AssessmentID string    `json:"assessment_id,omitempty"`
	Score        int       `json:"score,omitempty"`
	Passed       bool      `json:"passed,omitempty"`
	Days         int       `json:"days,omitempty"`    // absences_backfilled
	Warning      int       `json:"warning,omitempty"` // proctor_warning count
}
