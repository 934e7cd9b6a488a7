package httpapi

import (
	"context"
	"net/http"
	"time"
)

type HealthHandler struct {
	Version string
	Ping    func(ctx context.Context) error
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			WriteError(w, r, http.StatusServiceUnavailable, "db_unavailable", err.Error())
			return
		}
	}
	writeJSON(w, map[string]any{
		"ok":      true,
		"version": h.Version,
		"time":    time.Now().UTC(),
	})
}
