package httpapi

import (
	"net/http"
	"time"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/store"
)

type ApplicationsHandler struct {
	Store Store
}

// List serves GET /applications?status=&since=RFC3339&limit=.
func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListApplicationsOpts{}

	switch s := domain.ApplicationStatus(q.Get("status")); s {
	case "", domain.StatusApplied, domain.StatusDryRun, domain.StatusFailed:
		opts.Status = s
	default:
		WriteError(w, r, http.StatusBadRequest, "invalid_query", "status must be one of applied, dry_run, failed")
		return
	}
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_query", "since must be RFC3339")
			return
		}
		opts.Since = t
	}
	limit, ok := queryInt(r, "limit", 0)
	if !ok || limit < 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_query", "limit must be a non-negative integer")
		return
	}
	opts.Limit = limit

	apps, err := h.Store.ListApplications(r.Context(), opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, apps)
}

func (h ApplicationsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.Stats(r.Context(), startOfDay(time.Now()))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, st)
}

func (h ApplicationsHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 20)
	if !ok || limit < 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_query", "limit must be a non-negative integer")
		return
	}
	runs, err := h.Store.RecentRuns(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, runs)
}
