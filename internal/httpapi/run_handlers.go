package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"jobapply-engine/internal/logging"
	"jobapply-engine/internal/pipeline"
)

type RunHandler struct {
	Runner Runner
	Log    *zap.Logger
	Base   context.Context
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Runner.Status())
}

// Run starts a pipeline pass in the background and returns 202. Progress
// arrives over /events and /run/status.
func (h RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Runner.Running() {
		WriteError(w, r, http.StatusConflict, "already_running", pipeline.ErrRunning.Error())
		return
	}

	log := logging.OrNop(h.Log)
	reqID := RequestIDFrom(r.Context())
	base := h.Base
	if base == nil {
		base = context.Background()
	}
	go func() {
		_, err := h.Runner.RunOnce(base, pipeline.TriggerManual)
		if errors.Is(err, pipeline.ErrRunning) {
			log.Info("manual run skipped, already running", zap.String("request_id", reqID))
		}
	}()
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
