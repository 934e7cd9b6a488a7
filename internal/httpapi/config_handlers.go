package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/events"
)

type ConfigHandler struct {
	Holder *config.Holder
	Hub    *events.Hub
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Holder.Get())
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()

	var incoming config.Config
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if dec.More() {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: trailing data")
		return
	}

	// structured errors so the UI can show them per field
	_, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		writeErrorDetails(w, r, http.StatusBadRequest, "invalid_config", "configuration is invalid", vr)
		return
	}

	saved, err := h.Holder.Save(incoming)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalid) {
			status = http.StatusBadRequest
		}
		WriteError(w, r, status, "save_failed", err.Error())
		return
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeConfigReloaded, nil))
	writeJSON(w, saved)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.Holder.Path())
	writeJSON(w, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.Holder.Get())
	writeJSON(w, vr)
}

// Reload re-reads the file from disk, for edits made outside the API.
func (h ConfigHandler) Reload(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Holder.Reload()
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "reload_failed", err.Error())
		return
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeConfigReloaded, nil))
	writeJSON(w, cfg)
}
