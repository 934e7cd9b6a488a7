package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// NewMux registers every route on a plain mux; Handler adds middleware.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Version: d.Version, Ping: d.Ping}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Listings
	lh := ListingsHandler{Store: d.Store}
	mux.HandleFunc("/listings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))
	mux.HandleFunc("/listings/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.GetByPath, // expects /listings/{id}
	}))

	// Applications and dashboard
	ah := ApplicationsHandler{Store: d.Store}
	mux.HandleFunc("/applications", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.List,
	}))
	mux.HandleFunc("/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.Stats,
	}))
	mux.HandleFunc("/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.Runs,
	}))

	// Config
	ch := ConfigHandler{Holder: d.Config, Hub: d.Hub}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))
	mux.HandleFunc("/config/reload", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Reload,
	}))

	// Secrets
	sh := SecretsHandler{Holder: d.Config}
	mux.HandleFunc("/secrets/webhook-token", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetWebhookToken,
		http.MethodDelete: sh.DeleteWebhookToken,
	}))

	// Pipeline
	rh := RunHandler{Runner: d.Runner, Log: d.Log, Base: d.BaseContext}
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Run,
	}))
	mux.HandleFunc("/run/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}
	return mux
}

// Handler is the full API with the middleware chain applied.
func Handler(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return Chain(NewMux(d), RequestID, Recover(log), AccessLog(log), Cors)
}
