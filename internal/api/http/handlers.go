package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/courseplayer/internal/assessment"
	"github.com/opencampus/courseplayer/internal/auth"
	"github.com/opencampus/courseplayer/internal/progression"
)

// Mount registers the learner-facing routes. The caller wraps the router
// with auth.Middleware so every request carries a learner id.
func Mount(r chi.Router, mgr *progression.Manager) {
	r.Get("/course", GetCourseHandler(mgr))
	r.Get("/progress", GetProgressHandler(mgr))
	r.Get("/attendance", GetAttendanceHandler(mgr))
	r.Get("/next-lesson", NextLessonHandler(mgr))
	r.Get("/modules/{moduleID}/unlocked", ModuleUnlockedHandler(mgr))
	r.Get("/lessons/{lessonID}/unlocked", LessonUnlockedHandler(mgr))
	r.Post("/visit", RecordVisitHandler(mgr))
	r.Post("/navigate", NavigateHandler(mgr))
	r.Post("/lessons/{lessonID}/complete", CompleteLessonHandler(mgr))
	r.Post("/lessons/{lessonID}/bookmark", ToggleBookmarkHandler(mgr))
	r.Post("/questions/{questionID}/answered", AnswerQuestionHandler(mgr))
	r.Post("/assessments/{assessmentID}/begin", BeginAssessmentHandler(mgr))
	r.Post("/assessments/{assessmentID}/answers", RecordAnswerHandler(mgr))
	r.Post("/assessments/{assessmentID}/submit", SubmitAssessmentHandler(mgr))
	r.Post("/proctor", ProctorHandler(mgr))
	r.Post("/notes", AddNoteHandler(mgr))
	r.Put("/notes/{noteID}", UpdateNoteHandler(mgr))
	r.Delete("/notes/{noteID}", DeleteNoteHandler(mgr))
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progression.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, progression.ErrLockedContent):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, progression.ErrNoActiveAssessment):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, assessment.ErrIncompleteSubmission),
		errors.Is(err, assessment.ErrInvalidAssessment):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, progression.ErrFlushFailed):
		// Mutation applied in memory; the caller may retry to flush.
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func GetCourseHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var view progression.CourseView
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			view = s.CourseView()
			return nil, nil
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(view)
	}
}

func GetProgressHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var view progression.ProgressView
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			view = s.ProgressView()
			return nil, nil
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(view)
	}
}

func GetAttendanceHandler(mgr *progression.Manager) http.HandlerFunc {
	type out struct {
		Rate    int         `json:"rate"`
		Records interface{} `json:"records"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var resp out
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			resp = out{Rate: s.AttendanceRate(), Records: s.AttendanceRecords()}
			return nil, nil
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// NextLessonHandler resolves the lesson after the current one; next is
// null at the end of the course or while the next module stays locked.
func NextLessonHandler(mgr *progression.Manager) http.HandlerFunc {
	type next struct {
		ModuleID string `json:"module_id"`
		LessonID string `json:"lesson_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var resp struct {
			Next *next `json:"next"`
		}
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			if mID, lID, ok := s.NextLesson(); ok {
				resp.Next = &next{ModuleID: mID, LessonID: lID}
			}
			return nil, nil
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func ModuleUnlockedHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "moduleID")
		var unlocked bool
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			var err error
			unlocked, err = s.ModuleUnlocked(id)
			return nil, err
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"unlocked": unlocked})
	}
}

func LessonUnlockedHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "lessonID")
		var unlocked bool
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			var err error
			unlocked, err = s.LessonUnlocked(id)
			return nil, err
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"unlocked": unlocked})
	}
}

func RecordVisitHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var res progression.VisitResult
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			res = s.RecordVisit()
			return res.Events, nil
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

func NavigateHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ModuleID string `json:"module_id"`
			LessonID string `json:"lesson_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.ModuleID == "" || req.LessonID == "" {
			http.Error(w, "module_id and lesson_id required", 400)
			return
		}
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			return nil, s.NavigateTo(req.ModuleID, req.LessonID)
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CompleteLessonHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "lessonID")
		events, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			return s.CompleteLesson(id)
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"events": events})
	}
}

func ToggleBookmarkHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "lessonID")
		var bookmarked bool
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			var err error
			bookmarked, err = s.ToggleBookmark(id)
			return nil, err
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"bookmarked": bookmarked})
	}
}

func AnswerQuestionHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionID")
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			return nil, s.AnswerVideoQuestion(id)
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func BeginAssessmentHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assessmentID")
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			return nil, s.BeginAssessment(id)
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RecordAnswerHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id"`
			Option     int    `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			return nil, s.RecordAnswer(req.QuestionID, req.Option)
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SubmitAssessmentHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assessmentID")
		var req struct {
			Answers map[string]int `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		var res assessment.Result
		events, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			var events []progression.Event
			var err error
			res, events, err = s.SubmitAssessment(id, req.Answers)
			return events, err
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"score":  res.Score,
			"passed": res.Passed,
			"events": events,
		})
	}
}

func ProctorHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Event string `json:"event"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sig, ok := assessment.ParseSignal(req.Event)
		if !ok {
			http.Error(w, "unknown proctor event", 400)
			return
		}
		var report progression.ProctorReport
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			var err error
			report, err = s.ReportProctorEvent(sig)
			return report.Events, err
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"warning_count": report.Outcome.WarningCount,
			"forced_submit": report.Result != nil,
			"result":        report.Result,
			"events":        report.Events,
		})
	}
}

func AddNoteHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LessonID string `json:"lesson_id"`
			Content  string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.LessonID == "" {
			http.Error(w, "lesson_id required", 400)
			return
		}
		var note progression.Note
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			var err error
			note, err = s.AddNote(req.LessonID, req.Content)
			return nil, err
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(note)
	}
}

func UpdateNoteHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "noteID")
		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		var note progression.Note
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			var err error
			note, err = s.UpdateNote(id, req.Content)
			return nil, err
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(note)
	}
}

func DeleteNoteHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "noteID")
		_, err := mgr.WithLearner(r.Context(), auth.LearnerID(r.Context()), func(s *progression.Session) ([]progression.Event, error) {
			return nil, s.DeleteNote(id)
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
