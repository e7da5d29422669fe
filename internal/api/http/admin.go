package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/courseplayer/internal/progression"
)

// MountAdmin registers the ops routes; the caller wraps them with
// auth.AdminMiddleware.
func MountAdmin(r chi.Router, mgr *progression.Manager) {
	r.Get("/learners", ListLearnersHandler(mgr))
	r.Delete("/learners/{learnerID}", ResetLearnerHandler(mgr))
	r.Post("/sweep", SweepHandler(mgr))
}

func ListLearnersHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learners, err := mgr.Learners(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"learners": learners})
	}
}

func ResetLearnerHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "learnerID")
		if err := mgr.ResetLearner(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SweepHandler triggers the absence backfill on demand, same job the cron
// schedule runs nightly.
func SweepHandler(mgr *progression.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.SweepAbsences(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
