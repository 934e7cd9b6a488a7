package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap/zaptest"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/events"
	"jobapply-engine/internal/metrics"
	"jobapply-engine/internal/pipeline"
	"jobapply-engine/internal/rank"
	"jobapply-engine/internal/secrets"
	"jobapply-engine/internal/store"
)

type fakeRunner struct {
	mu      sync.Mutex
	running bool
	calls   int
	ctx     context.Context
	done    chan struct{}
}

func (f *fakeRunner) RunOnce(ctx context.Context, _ string) (pipeline.Report, error) {
	f.mu.Lock()
	f.calls++
	f.ctx = ctx
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return pipeline.Report{RunID: "r1"}, nil
}

func (f *fakeRunner) Status() pipeline.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return pipeline.Status{Running: f.running, LastAdded: 3}
}

func (f *fakeRunner) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type testAPI struct {
	h      http.Handler
	db     *store.DB
	holder *config.Holder
	hub    *events.Hub
	runner *fakeRunner
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()
	return newTestAPIWithBase(t, nil)
}

func newTestAPIWithBase(t *testing.T, base context.Context) testAPI {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "jobapply.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, config.SaveAtomic(cfgPath, config.Default()))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	api := testAPI{
		db:     db,
		holder: config.NewHolder(cfgPath, cfg),
		hub:    events.NewHub(),
		runner: &fakeRunner{},
	}
	api.h = Handler(Deps{
		Store:   db,
		Config:  api.holder,
		Runner:  api.runner,
		Hub:     api.hub,
		Metrics: metrics.New(),
		Log:     zaptest.NewLogger(t),
		Version: "test",
		Ping:    db.Pool.PingContext,

		BaseContext: base,
	})
	return api
}

func (a testAPI) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var e APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func seedListing(t *testing.T, db *store.DB, id string, total float64) {
	t.Helper()
	_, err := db.UpsertListing(context.Background(), domain.Listing{
		ID: id, Title: "Engineer " + id, Company: "Acme", URL: "https://jobs.example/" + id,
	}, rank.Result{Total: total, Passed: total >= 8.5, Breakdown: map[rank.Criterion]float64{}})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)

	h := HealthHandler{Ping: func(context.Context) error { return errors.New("db gone") }}
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListings(t *testing.T) {
	api := newTestAPI(t)
	seedListing(t, api.db, "a", 9.2)
	seedListing(t, api.db, "b", 4.0)

	rec := api.do(t, http.MethodGet, "/listings?sort=score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []store.ListingRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)

	rec = api.do(t, http.MethodGet, "/listings?passed=true", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)

	rec = api.do(t, http.MethodGet, "/listings/b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Engineer b"`)

	rec = api.do(t, http.MethodGet, "/listings/zzz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeErr(t, rec).Error.Code)

	for _, q := range []string{"limit=x", "limit=-1", "min_score=11", "window=1y"} {
		rec = api.do(t, http.MethodGet, "/listings?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestApplicationsAndStats(t *testing.T) {
	api := newTestAPI(t)
	seedListing(t, api.db, "a", 9.2)
	ctx := context.Background()
	_, err := api.db.RecordApplication(ctx, domain.Application{ListingID: "a", Status: domain.StatusApplied, AppliedAt: time.Now()})
	require.NoError(t, err)
	_, err = api.db.RecordApplication(ctx, domain.Application{ListingID: "a", Status: domain.StatusDryRun, AppliedAt: time.Now()})
	require.NoError(t, err)

	rec := api.do(t, http.MethodGet, "/applications?status=dry_run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var apps []domain.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, domain.StatusDryRun, apps[0].Status)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/applications?status=won", "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/applications?since=yesterday", "").Code)

	rec = api.do(t, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Listings)
	assert.Equal(t, 1, st.Applied)
	assert.Equal(t, 1, st.AppliedToday)
	assert.Equal(t, 1, st.DryRuns)

	rec = api.do(t, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestConfig_GetPutValidate(t *testing.T) {
	api := newTestAPI(t)
	sub := api.hub.Subscribe()
	defer api.hub.Unsubscribe(sub)

	rec := api.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 8.5, cfg.ScoreThreshold)

	cfg.ScoreThreshold = 7.5
	cfg.Application.MaxPerDay = 3
	body, _ := json.Marshal(cfg)
	rec = api.do(t, http.MethodPut, "/config", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 7.5, api.holder.Get().ScoreThreshold)
	assert.Contains(t, <-sub, events.TypeConfigReloaded)

	// the file on disk now carries the change
	reloaded, err := config.Load(api.holder.Path())
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Application.MaxPerDay)

	cfg.ScoringWeights.Keyword = 0.9
	body, _ = json.Marshal(cfg)
	rec = api.do(t, http.MethodPut, "/config", string(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeErr(t, rec)
	assert.Equal(t, "invalid_config", e.Error.Code)
	assert.Contains(t, rec.Body.String(), "scoring_weights")
	assert.Equal(t, 7.5, api.holder.Get().ScoreThreshold, "rejected config is not applied")

	rec = api.do(t, http.MethodPut, "/config", `{"nope": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeErr(t, rec).Error.Code)

	rec = api.do(t, http.MethodGet, "/config/validate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var vr config.Validation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vr))
	assert.Empty(t, vr.Errors)

	rec = api.do(t, http.MethodGet, "/config/path", "")
	assert.Contains(t, rec.Body.String(), config.FileName)

	rec = api.do(t, http.MethodPost, "/config/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRun(t *testing.T) {
	api := newTestAPI(t)
	api.runner.done = make(chan struct{})

	rec := api.do(t, http.MethodPost, "/run", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case <-api.runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("run was not started")
	}

	api.runner.mu.Lock()
	api.runner.running = true
	api.runner.mu.Unlock()
	rec = api.do(t, http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_running", decodeErr(t, rec).Error.Code)

	rec = api.do(t, http.MethodGet, "/run/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"running":true`)
	assert.Contains(t, rec.Body.String(), `"last_added":3`)

	assert.Equal(t, http.StatusMethodNotAllowed, api.do(t, http.MethodGet, "/run", "").Code)
}

func TestRun_StopsWithServer(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	api := newTestAPIWithBase(t, base)
	api.runner.done = make(chan struct{})

	require.Equal(t, http.StatusAccepted, api.do(t, http.MethodPost, "/run", "").Code)
	select {
	case <-api.runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("run was not started")
	}

	api.runner.mu.Lock()
	runCtx := api.runner.ctx
	api.runner.mu.Unlock()
	require.NotNil(t, runCtx)
	assert.NoError(t, runCtx.Err())

	cancel()
	select {
	case <-runCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("run context outlived the server context")
	}
	assert.ErrorIs(t, runCtx.Err(), context.Canceled)
}

func TestSecrets(t *testing.T) {
	keyring.MockInit()
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/secrets/webhook-token", `{"token":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_webhook", decodeErr(t, rec).Error.Code)

	cfg := api.holder.Get()
	cfg.Submitter.Kind = "webhook"
	cfg.Submitter.WebhookURL = "https://apply.example/hook"
	_, err := api.holder.Save(cfg)
	require.NoError(t, err)

	rec = api.do(t, http.MethodPost, "/secrets/webhook-token", `{"token":"abc"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	tok, err := secrets.GetWebhookToken(secrets.WebhookAccount(cfg.Submitter.WebhookURL))
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/secrets/webhook-token", `{"token":""}`).Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/secrets/webhook-token", "").Code)
}

func TestMiddleware(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	rec = api.do(t, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	rec = api.do(t, http.MethodDelete, "/listings", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	e := decodeErr(t, rec)
	assert.Equal(t, "method_not_allowed", e.Error.Code)
	assert.NotEmpty(t, e.Error.RequestID)

	req = httptest.NewRequest(http.MethodOptions, "/config", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	panicky := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		RequestID, Recover(zaptest.NewLogger(t)))
	rec = httptest.NewRecorder()
	panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeErr(t, rec).Error.Code)

	rec = api.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobapply_listings_scored_total")
}

func TestEvents_SSE(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	nextData := func() string {
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
		return ""
	}
	assert.Contains(t, nextData(), `"type":"ping"`)

	require.Eventually(t, func() bool { return api.hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	api.hub.Emit(events.TypeListingAdded, map[string]string{"id": "a"})
	assert.Contains(t, nextData(), `"type":"listing_added"`)
}
