package progression

import "sort"

// Views are derived, read-only projections for the UI. Handing these out
// instead of the Progress pointer keeps all mutation behind session
// operations.

type LessonView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	DurationSec   int    `json:"duration_sec"`
	UnlockDate    string `json:"unlock_date,omitempty"`
	HasAssessment bool   `json:"has_assessment"`
	Unlocked      bool   `json:"unlocked"`
	Started       bool   `json:"started"`
	Completed     bool   `json:"completed"`
	Bookmarked    bool   `json:"bookmarked"`
}

type ModuleView struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	UnlockDate string       `json:"unlock_date,omitempty"`
	Unlocked   bool         `json:"unlocked"`
	Completed  bool         `json:"completed"`
	Lessons    []LessonView `json:"lessons"`
}

type CourseView struct {
	CourseID        string       `json:"course_id"`
	Title           string       `json:"title"`
	StartDate       string       `json:"start_date"`
	EndDate         string       `json:"end_date,omitempty"`
	CurrentModuleID string       `json:"current_module_id,omitempty"`
	CurrentLessonID string       `json:"current_lesson_id,omitempty"`
	Modules         []ModuleView `json:"modules"`
}

// CourseView overlays the catalog with this learner's unlock and
// completion state, recomputed for the current day.
func (s *Session) CourseView() CourseView {
	today := s.today()
	course := &s.cat.Course
	v := CourseView{
		CourseID:        course.ID,
		Title:           course.Title,
		StartDate:       course.StartDate,
		EndDate:         course.EndDate,
		CurrentModuleID: s.progress.CurrentModuleID,
		CurrentLessonID: s.progress.CurrentLessonID,
	}
	for mi := range course.Modules {
		m := &course.Modules[mi]
		mv := ModuleView{
			ID:         m.ID,
			Title:      m.Title,
			UnlockDate: m.UnlockDate,
			Unlocked:   s.policy.ModuleUnlocked(s.cat, s.progress, mi, today),
			Completed:  s.progress.ModuleCompleted(m),
		}
		for li := range m.Lessons {
			l := &m.Lessons[li]
			mv.Lessons = append(mv.Lessons, LessonView{
				ID:            l.ID,
				Title:         l.Title,
				DurationSec:   l.DurationSec,
				UnlockDate:    l.UnlockDate,
				HasAssessment: l.AssessmentID != "",
				Unlocked:      s.policy.LessonUnlocked(s.cat, s.progress, mi, li, today),
				Started:       s.progress.StartedLessons[l.ID],
				Completed:     s.progress.CompletedLessons[l.ID],
				Bookmarked:    s.progress.Bookmarks[l.ID],
			})
		}
		v.Modules = append(v.Modules, mv)
	}
	return v
}

type ProgressView struct {
	CurrentModuleID      string                      `json:"current_module_id,omitempty"`
	CurrentLessonID      string                      `json:"current_lesson_id,omitempty"`
	LastVisit            string                      `json:"last_visit,omitempty"`
	CompletedLessons     []string                    `json:"completed_lessons"`
	CompletedModules     []string                    `json:"completed_modules"`
	AnsweredQuestions    []string                    `json:"answered_questions"`
	Bookmarks            []string                    `json:"bookmarks"`
	Notes                []Note                      `json:"notes"`
	AssessmentResults    map[string]AssessmentResult `json:"assessment_results"`
	AttendanceRate       int                         `json:"attendance_rate"`
	CertificateAvailable bool                        `json:"certificate_available"`
}

// ProgressView summarizes the learner's state, with module completion and
// certificate availability derived from the lesson facts.
func (s *Session) ProgressView() ProgressView {
	course := &s.cat.Course
	var modules []string
	for mi := range course.Modules {
		if s.progress.ModuleCompleted(&course.Modules[mi]) {
			modules = append(modules, course.Modules[mi].ID)
		}
	}
	results := make(map[string]AssessmentResult, len(s.progress.AssessmentResults))
	for id, r := range s.progress.AssessmentResults {
		results[id] = r
	}
	return ProgressView{
		CurrentModuleID:      s.progress.CurrentModuleID,
		CurrentLessonID:      s.progress.CurrentLessonID,
		LastVisit:            s.progress.LastVisit,
		CompletedLessons:     sortedKeys(s.progress.CompletedLessons),
		CompletedModules:     modules,
		AnsweredQuestions:    sortedKeys(s.progress.AnsweredQuestions),
		Bookmarks:            sortedKeys(s.progress.Bookmarks),
		Notes:                append([]Note(nil), s.progress.Notes...),
		AssessmentResults:    results,
		AttendanceRate:       s.ledger.Rate(),
		CertificateAvailable: course.Certificate && s.progress.CourseCompleted(course),
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
