package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"jobapply-engine/internal/store"
)

type ListingsHandler struct {
	Store Store
}

// List serves GET /listings?sort=score|date|company|title&window=24h|7d|all
// &min_score=&passed=true&limit=.
func (h ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryInt(r, "limit", 0)
	if !ok || limit < 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_query", "limit must be a non-negative integer")
		return
	}
	minScore, ok := queryFloat(r, "min_score")
	if !ok || minScore < 0 || minScore > 10 {
		WriteError(w, r, http.StatusBadRequest, "invalid_query", "min_score must be a number within 0..10")
		return
	}
	window := q.Get("window")
	switch window {
	case "", "24h", "7d", "all":
	default:
		WriteError(w, r, http.StatusBadRequest, "invalid_query", "window must be one of 24h, 7d, all")
		return
	}

	rows, err := h.Store.ListListings(r.Context(), store.ListListingsOpts{
		Sort:       q.Get("sort"),
		Window:     window,
		MinScore:   minScore,
		PassedOnly: queryBool(r, "passed"),
		Limit:      limit,
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, rows)
}

// GetByPath expects /listings/{id}.
func (h ListingsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/listings/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid listing id")
		return
	}
	row, err := h.Store.GetListing(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "listing not found")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, row)
}
