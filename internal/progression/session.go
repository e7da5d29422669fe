package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opencampus/courseplayer/internal/assessment"
	"github.com/opencampus/courseplayer/internal/attendance"
	"github.com/opencampus/courseplayer/internal/calendar"
	"github.com/opencampus/courseplayer/internal/content"
)

var (
	ErrNotFound           = errors.New("progression: not found")
	ErrLockedContent      = errors.New("progression: content is locked")
	ErrNoActiveAssessment = errors.New("progression: no assessment in progress")
)

// Session is the progression state of one learner: an explicit object the
// caller owns, never a process-wide singleton. It is not safe for
// concurrent use; the Manager serializes access per learner.
type Session struct {
	cat    *content.Catalog
	policy Policy
	engine *assessment.Engine
	now    func() time.Time

	progress *Progress
	ledger   *attendance.Ledger

	// in-progress assessment, if any
	activeAssessment string
	answers          map[string]int
	proctor          *assessment.Proctor
}

// NewSession builds a session from an optional snapshot (nil starts
// fresh).
func NewSession(cat *content.Catalog, policy Policy, engine *assessment.Engine, now func() time.Time, snap *Snapshot) (*Session, error) {
	s := &Session{
		cat:      cat,
		policy:   policy,
		engine:   engine,
		now:      now,
		progress: NewProgress(),
		ledger:   attendance.NewLedger(),
	}
	if snap != nil {
		if snap.Progress != nil {
			s.progress = snap.Progress
			s.progress.normalize()
		}
		ledger, err := attendance.Restore(snap.Attendance)
		if err != nil {
			return nil, fmt.Errorf("restore attendance: %w", err)
		}
		s.ledger = ledger
	}
	return s, nil
}

// Snapshot exports the persistable state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{Progress: s.progress, Attendance: s.ledger.Records()}
}

func (s *Session) Progress() *Progress { return s.progress }

func (s *Session) today() time.Time { return calendar.Day(s.now()) }

// VisitResult is what recordVisit hands back to the UI.
type VisitResult struct {
	CurrentModuleID string  `json:"current_module_id"`
	CurrentLessonID string  `json:"current_lesson_id"`
	Backfilled      int     `json:"backfilled"`
	Events          []Event `json:"events"`
}

// RecordVisit marks today's presence, backfilling absent records for the
// gap since the last visit first so today is never swept into the range.
func (s *Session) RecordVisit() VisitResult {
	today := s.today()
	var events []Event
	backfilled := 0

	if last, ok := calendar.ParseDay(s.progress.LastVisit); ok && last.Before(today) {
		if n := s.ledger.Backfill(last, today); n > 0 {
			backfilled = n
			events = append(events, Event{Kind: EventAbsencesBackfilled, Days: n})
		}
	}
	if !s.ledger.Has(today) {
		s.ledger.RecordPresence(today, "")
	}
	s.progress.LastVisit = calendar.DayString(today)
	events = append(events, Event{Kind: EventVisitRecorded})

	if s.progress.CurrentLessonID == "" {
		s.selectLandingLesson(today)
	}
	return VisitResult{
		CurrentModuleID: s.progress.CurrentModuleID,
		CurrentLessonID: s.progress.CurrentLessonID,
		Backfilled:      backfilled,
		Events:          events,
	}
}

// selectLandingLesson scans modules/lessons in order for the first
// unlocked, not-yet-completed lesson; with everything complete it falls
// back to the first unlocked lesson.
func (s *Session) selectLandingLesson(today time.Time) {
	var fallbackModule, fallbackLesson string
	for mi := range s.cat.Course.Modules {
		m := &s.cat.Course.Modules[mi]
		for li := range m.Lessons {
			if !s.policy.LessonUnlocked(s.cat, s.progress, mi, li, today) {
				continue
			}
			if fallbackLesson == "" {
				fallbackModule, fallbackLesson = m.ID, m.Lessons[li].ID
			}
			if !s.progress.CompletedLessons[m.Lessons[li].ID] {
				s.progress.CurrentModuleID = m.ID
				s.progress.CurrentLessonID = m.Lessons[li].ID
				return
			}
		}
	}
	s.progress.CurrentModuleID = fallbackModule
	s.progress.CurrentLessonID = fallbackLesson
}

// ModuleUnlocked recomputes the unlock state of one module.
func (s *Session) ModuleUnlocked(moduleID string) (bool, error) {
	_, mi, ok := s.cat.ModuleByID(moduleID)
	if !ok {
		return false, ErrNotFound
	}
	return s.policy.ModuleUnlocked(s.cat, s.progress, mi, s.today()), nil
}

// LessonUnlocked recomputes the unlock state of one lesson.
func (s *Session) LessonUnlocked(lessonID string) (bool, error) {
	_, mi, li, ok := s.cat.LessonByID(lessonID)
	if !ok {
		return false, ErrNotFound
	}
	return s.policy.LessonUnlocked(s.cat, s.progress, mi, li, s.today()), nil
}

// NavigateTo moves the learner to a lesson. Locked targets are rejected
// with no state change; this is the access-control checkpoint UI
// integrations must honor.
func (s *Session) NavigateTo(moduleID, lessonID string) error {
	lesson, mi, li, ok := s.cat.LessonByID(lessonID)
	if !ok {
		return ErrNotFound
	}
	if s.cat.Course.Modules[mi].ID != moduleID {
		return ErrNotFound
	}
	if !s.policy.LessonUnlocked(s.cat, s.progress, mi, li, s.today()) {
		return ErrLockedContent
	}
	s.progress.CurrentModuleID = moduleID
	s.progress.CurrentLessonID = lessonID
	s.progress.StartedLessons[lesson.ID] = true
	return nil
}

// CompleteLesson marks a lesson done, derives module/course completion and
// records today's presence attributed to the lesson. Completing an
// already-completed lesson is a no-op.
func (s *Session) CompleteLesson(lessonID string) ([]Event, error) {
	_, mi, li, ok := s.cat.LessonByID(lessonID)
	if !ok {
		return nil, ErrNotFound
	}
	if !s.policy.LessonUnlocked(s.cat, s.progress, mi, li, s.today()) {
		return nil, ErrLockedContent
	}
	return s.completeLesson(lessonID, mi), nil
}

func (s *Session) completeLesson(lessonID string, moduleIdx int) []Event {
	if s.progress.CompletedLessons[lessonID] {
		return nil
	}
	m := &s.cat.Course.Modules[moduleIdx]
	wasComplete := s.progress.ModuleCompleted(m)

	s.progress.CompletedLessons[lessonID] = true
	s.ledger.RecordPresence(s.today(), lessonID)

	events := []Event{{Kind: EventLessonCompleted, ModuleID: m.ID, LessonID: lessonID}}
	if !wasComplete && s.progress.ModuleCompleted(m) {
		events = append(events, Event{Kind: EventModuleCompleted, ModuleID: m.ID})
		if s.progress.CourseCompleted(&s.cat.Course) {
			events = append(events, Event{Kind: EventCourseCompleted})
		}
	}
	return events
}

// BeginAssessment opens an assessment for answering and starts proctoring.
// The lesson it gates must be unlocked.
func (s *Session) BeginAssessment(assessmentID string) error {
	a, ok := s.cat.AssessmentByID(assessmentID)
	if !ok {
		return ErrNotFound
	}
	if len(a.Questions) == 0 {
		return assessment.ErrInvalidAssessment
	}
	_, mi, li, ok := s.cat.LessonByID(a.LessonID)
	if !ok {
		return ErrNotFound
	}
	if !s.policy.LessonUnlocked(s.cat, s.progress, mi, li, s.today()) {
		return ErrLockedContent
	}
	s.activeAssessment = assessmentID
	s.answers = map[string]int{}
	s.proctor = s.engine.NewProctor()
	return nil
}

// RecordAnswer stores one selected option for the in-progress assessment.
func (s *Session) RecordAnswer(questionID string, option int) error {
	if s.activeAssessment == "" {
		return ErrNoActiveAssessment
	}
	a, _ := s.cat.AssessmentByID(s.activeAssessment)
	for _, q := range a.Questions {
		if q.ID == questionID {
			s.answers[questionID] = option
			return nil
		}
	}
	return ErrNotFound
}

// SubmitAssessment scores the answers and applies the pass policy: a pass
// completes the gated lesson and, under auto-advance, schedules the next
// unlocked lesson; a fail records the score and changes nothing else.
func (s *Session) SubmitAssessment(assessmentID string, answers map[string]int) (assessment.Result, []Event, error) {
	return s.submit(assessmentID, answers, false)
}

func (s *Session) submit(assessmentID string, answers map[string]int, forced bool) (assessment.Result, []Event, error) {
	a, ok := s.cat.AssessmentByID(assessmentID)
	if !ok {
		return assessment.Result{}, nil, ErrNotFound
	}
	_, mi, li, ok := s.cat.LessonByID(a.LessonID)
	if !ok {
		return assessment.Result{}, nil, ErrNotFound
	}
	if !s.policy.LessonUnlocked(s.cat, s.progress, mi, li, s.today()) {
		return assessment.Result{}, nil, ErrLockedContent
	}

	res, err := s.engine.Submit(a, answers, forced)
	if err != nil {
		return assessment.Result{}, nil, err
	}
	s.progress.AssessmentResults[a.ID] = AssessmentResult{
		Score:  res.Score,
		Passed: res.Passed,
		Forced: res.Forced,
		Date:   s.now().UTC().Format(time.RFC3339),
	}
	if s.activeAssessment == assessmentID {
		s.activeAssessment = ""
		s.answers = nil
		s.proctor = nil
	}

	events := []Event{{
		Kind:         EventAssessmentSubmitted,
		AssessmentID: a.ID,
		LessonID:     a.LessonID,
		Score:        res.Score,
		Passed:       res.Passed,
	}}
	if res.Passed {
		events = append(events, s.completeLesson(a.LessonID, mi)...)
		if s.policy.AutoAdvance {
			if nm, nl, ok := s.policy.NextLesson(s.cat, s.progress, a.LessonID, s.today()); ok {
				events = append(events, Event{Kind: EventAdvanceScheduled, ModuleID: nm, LessonID: nl})
			}
		}
	}
	return res, events, nil
}

// ProctorReport is the outcome of one reported proctor signal, including
// the forced submission result when the threshold was crossed.
type ProctorReport struct {
	Outcome assessment.Outcome `json:"outcome"`
	Result  *assessment.Result `json:"result,omitempty"`
	Events  []Event            `json:"events,omitempty"`
}

// ReportProctorEvent counts a violation signal against the in-progress
// assessment and force-submits the entered answers at the threshold.
func (s *Session) ReportProctorEvent(sig assessment.Signal) (ProctorReport, error) {
	if s.activeAssessment == "" || s.proctor == nil {
		return ProctorReport{}, ErrNoActiveAssessment
	}
	out := s.proctor.Report(sig)
	report := ProctorReport{
		Outcome: out,
		Events:  []Event{{Kind: EventProctorWarning, AssessmentID: s.activeAssessment, Warning: out.WarningCount}},
	}
	if !out.ForceSubmit {
		return report, nil
	}
	id := s.activeAssessment
	res, events, err := s.submit(id, s.answers, true)
	if err != nil {
		return report, err
	}
	report.Result = &res
	report.Events = append(report.Events, Event{Kind: EventForcedSubmit, AssessmentID: id})
	report.Events = append(report.Events, events...)
	return report, nil
}

// NextLesson resolves the lesson after the current one, or ok=false at the
// end of the course or when the next module is still locked.
func (s *Session) NextLesson() (moduleID, lessonID string, ok bool) {
	if s.progress.CurrentLessonID == "" {
		return "", "", false
	}
	return s.policy.NextLesson(s.cat, s.progress, s.progress.CurrentLessonID, s.today())
}

// ToggleBookmark flips a lesson bookmark and returns the new state.
func (s *Session) ToggleBookmark(lessonID string) (bool, error) {
	if _, _, _, ok := s.cat.LessonByID(lessonID); !ok {
		return false, ErrNotFound
	}
	if s.progress.Bookmarks[lessonID] {
		delete(s.progress.Bookmarks, lessonID)
		return false, nil
	}
	s.progress.Bookmarks[lessonID] = true
	return true, nil
}

// AnswerVideoQuestion marks an in-video question answered.
func (s *Session) AnswerVideoQuestion(questionID string) error {
	if _, ok := s.cat.QuestionLesson(questionID); !ok {
		return ErrNotFound
	}
	s.progress.AnsweredQuestions[questionID] = true
	return nil
}

func (s *Session) AddNote(lessonID, text string) (Note, error) {
	if _, _, _, ok := s.cat.LessonByID(lessonID); !ok {
		return Note{}, ErrNotFound
	}
	now := s.now().UTC().Format(time.RFC3339)
	n := Note{
		ID:        uuid.NewString(),
		LessonID:  lessonID,
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.progress.Notes = append(s.progress.Notes, n)
	return n, nil
}

func (s *Session) UpdateNote(noteID, text string) (Note, error) {
	for i := range s.progress.Notes {
		if s.progress.Notes[i].ID == noteID {
			s.progress.Notes[i].Content = text
			s.progress.Notes[i].UpdatedAt = s.now().UTC().Format(time.RFC3339)
			return s.progress.Notes[i], nil
		}
	}
	return Note{}, ErrNotFound
}

func (s *Session) DeleteNote(noteID string) error {
	for i := range s.progress.Notes {
		if s.progress.Notes[i].ID == noteID {
			s.progress.Notes = append(s.progress.Notes[:i], s.progress.Notes[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *Session) AttendanceRate() int { return s.ledger.Rate() }

func (s *Session) AttendanceRecords() []attendance.Record { return s.ledger.Records() }

// SweepAbsences backfills absent days between the last visit and today
// without marking today present or touching the last-visit date. Used by
// the daily background sweep; a no-op for learners who never visited.
func (s *Session) SweepAbsences() int {
	last, ok := calendar.ParseDay(s.progress.LastVisit)
	if !ok {
		return 0
	}
	return s.ledger.Backfill(last, s.today())
}
