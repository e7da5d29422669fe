package progression

import (
	"github.com/opencampus/courseplayer/internal/attendance"
	"github.com/opencampus/courseplayer/internal/content"
)

// AssessmentResult is what the engine recorded for one assessment.
type AssessmentResult struct {
	Score  int    `json:"score"`
	Passed bool   `json:"passed"`
	Forced bool   `json:"forced,omitempty"`
	Date   string `json:"date"` // RFC3339 completion timestamp
}

type Note struct {
	ID        string `json:"id"`
	LessonID  string `json:"lesson_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Progress stores only primitive facts about the learner. Derived state
// (module completion, unlock status, certificate) is computed on read so a
// stored flag can never drift from the facts.
type Progress struct {
	CompletedLessons  map[string]bool             `json:"completed_lessons"`
	StartedLessons    map[string]bool             `json:"started_lessons"`
	AnsweredQuestions map[string]bool             `json:"answered_questions"`
	AssessmentResults map[string]AssessmentResult `json:"assessment_results"`
	Bookmarks         map[string]bool             `json:"bookmarks"`
	Notes             []Note                      `json:"notes"`
	CurrentModuleID   string                      `json:"current_module_id,omitempty"`
	CurrentLessonID   string                      `json:"current_lesson_id,omitempty"`
	LastVisit         string                      `json:"last_visit,omitempty"` // ISO calendar date
}

func NewProgress() *Progress {
	return &Progress{
		CompletedLessons:  map[string]bool{},
		StartedLessons:    map[string]bool{},
		AnsweredQuestions: map[string]bool{},
		AssessmentResults: map[string]AssessmentResult{},
		Bookmarks:         map[string]bool{},
	}
}

// normalize repairs nil maps after a JSON round trip.
func (p *Progress) normalize() {
	if p.CompletedLessons == nil {
		p.CompletedLessons = map[string]bool{}
	}
	if p.StartedLessons == nil {
		p.StartedLessons = map[string]bool{}
	}
	if p.AnsweredQuestions == nil {
		p.AnsweredQuestions = map[string]bool{}
	}
	if p.AssessmentResults == nil {
		p.AssessmentResults = map[string]AssessmentResult{}
	}
	if p.Bookmarks == nil {
		p.Bookmarks = map[string]bool{}
	}
}

// ModuleCompleted derives completion: every lesson of the module done. An
// empty module is never considered complete.
func (p *Progress) ModuleCompleted(m *content.Module) bool {
	if len(m.Lessons) == 0 {
		return false
	}
	for _, l := range m.Lessons {
		if !p.CompletedLessons[l.ID] {
			return false
		}
	}
	return true
}

// CourseCompleted derives whole-course completion.
func (p *Progress) CourseCompleted(course *content.Course) bool {
	if len(course.Modules) == 0 {
		return false
	}
	for i := range course.Modules {
		if !p.ModuleCompleted(&course.Modules[i]) {
			return false
		}
	}
	return true
}

// Snapshot is the unit of persistence for one learner: the progress facts
// plus the attendance ledger.
type Snapshot struct {
	Progress   *Progress           `json:"progress"`
	Attendance []attendance.Record `json:"attendance"`
}
