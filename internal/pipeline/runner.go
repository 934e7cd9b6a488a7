// Package pipeline runs one fetch → normalize → filter → score → store →
// apply pass over the configured sources.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobapply-engine/internal/apply"
	"jobapply-engine/internal/config"
	"jobapply-engine/internal/docselect"
	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/events"
	"jobapply-engine/internal/ingest"
	"jobapply-engine/internal/logging"
	"jobapply-engine/internal/metrics"
	"jobapply-engine/internal/rank"
	"jobapply-engine/internal/store"
)

// ErrRunning is returned when a run is requested while one is in flight.
var ErrRunning = errors.New("pipeline run already in progress")

const (
	TriggerManual    = "manual"
	TriggerSchedule  = "schedule"
	TriggerStartup   = "startup"
	TriggerCLI       = "cli"
	defaultScoreJobs = 4
)

// Store is the persistence the runner needs.
type Store interface {
	UpsertListing(ctx context.Context, l domain.Listing, res rank.Result) (added bool, err error)
	RecordRun(ctx context.Context, r store.Run) error
	CleanupOldListings(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Deps struct {
	Config    func() config.Config
	Store     Store
	History   apply.History
	Quota     apply.Quota
	Submitter apply.Submitter
	Hub       *events.Hub
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	// Fetchers overrides the sources built from config.
	Fetchers func(cfg config.Config) []ingest.Fetcher
}

type Runner struct {
	d       Deps
	log     *zap.Logger
	running atomic.Bool
	status  atomic.Value // stores Status
	now     func() time.Time

	// only touched while running is held
	limiter    *ingest.HostLimiter
	limiterRPS float64

	mu   sync.Mutex
	done chan struct{} // closed when the current run returns
}

func New(d Deps) *Runner {
	r := &Runner{
		d:   d,
		log: logging.OrNop(d.Log),
		now: time.Now,
	}
	if d.Config != nil {
		r.hostLimiter(d.Config().Sources.RequestsPerSecond)
	}
	r.status.Store(Status{})
	return r
}

// Status is the snapshot served by /run/status.
type Status struct {
	Running     bool       `json:"running"`
	RunID       string     `json:"run_id,omitempty"`
	Trigger     string     `json:"trigger,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	LastOkAt    *time.Time `json:"last_ok_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastAdded   int        `json:"last_added"`
	LastPassed  int        `json:"last_passed"`
	LastApplied int        `json:"last_applied"`
}

func (r *Runner) Status() Status { return r.status.Load().(Status) }

func (r *Runner) Running() bool { return r.running.Load() }

// Wait blocks until the run in flight, if any, has returned.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// hostLimiter returns the shared per-host limiter, rebuilt when the
// configured rate changed since the last run.
func (r *Runner) hostLimiter(rps float64) *ingest.HostLimiter {
	if r.limiter == nil || rps != r.limiterRPS {
		r.limiter = ingest.NewHostLimiter(rps, 2)
		r.limiterRPS = rps
	}
	return r.limiter
}

// Report describes one finished run.
type Report struct {
	RunID        string            `json:"run_id"`
	Trigger      string            `json:"trigger"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Fetched      int               `json:"fetched"`
	Filtered     int               `json:"filtered"`
	Scored       int               `json:"scored"`
	Added        int               `json:"added"`
	Passed       int               `json:"passed"`
	SourceErrors map[string]string `json:"source_errors,omitempty"`
	Apply        *apply.Summary    `json:"apply,omitempty"`
}

func (rep Report) run(errMsg string) store.Run {
	out := store.Run{
		ID:         rep.RunID,
		Trigger:    rep.Trigger,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		Fetched:    rep.Fetched,
		Filtered:   rep.Filtered,
		Scored:     rep.Scored,
		Added:      rep.Added,
		Passed:     rep.Passed,
		Error:      errMsg,
	}
	if rep.Apply != nil {
		out.Applied = rep.Apply.Applied
		out.DryRuns = rep.Apply.DryRuns
		out.Failed = rep.Apply.Failed
	}
	return out
}

type scored struct {
	listing domain.Listing
	result  rank.Result
}

// RunOnce runs a single pass. Source failures are logged and reported but
// do not fail the run; store and apply errors do.
func (r *Runner) RunOnce(ctx context.Context, trigger string) (Report, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Report{}, ErrRunning
	}
	defer r.running.Store(false)

	done := make(chan struct{})
	r.mu.Lock()
	r.done = done
	r.mu.Unlock()
	defer close(done)

	cfg := r.d.Config()
	rep := Report{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: r.now(),
	}
	r.markStarted(rep)
	log := r.log.With(zap.String("run_id", rep.RunID), zap.String("trigger", trigger))
	log.Info("run started")
	r.d.Hub.Emit(events.TypeRunStarted, map[string]string{"run_id": rep.RunID, "trigger": trigger})

	err := r.run(ctx, cfg, &rep, log)
	rep.FinishedAt = r.now()

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	// record even when ctx was cancelled
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if rerr := r.d.Store.RecordRun(recCtx, rep.run(errMsg)); rerr != nil {
		log.Error("record run failed", zap.Error(rerr))
	}

	r.markFinished(rep, err)
	r.observe(rep, err)
	r.d.Hub.Emit(events.TypeRunFinished, rep)

	if err != nil {
		log.Error("run failed", zap.Error(err))
		return rep, err
	}
	log.Info("run finished",
		zap.Int("fetched", rep.Fetched),
		zap.Int("filtered", rep.Filtered),
		zap.Int("added", rep.Added),
		zap.Int("passed", rep.Passed),
		zap.Duration("took", rep.FinishedAt.Sub(rep.StartedAt)))
	return rep, nil
}

func (r *Runner) run(ctx context.Context, cfg config.Config, rep *Report, log *zap.Logger) error {
	engine, err := rank.NewEngine(cfg.Preferences, cfg.ScoringWeights, cfg.ScoreThreshold)
	if err != nil {
		return fmt.Errorf("score engine: %w", err)
	}

	raw, srcErrs := r.fetchAll(ctx, cfg, log)
	rep.SourceErrors = srcErrs
	if err := ctx.Err(); err != nil {
		return err
	}

	normalized := make([]domain.Listing, 0, len(raw))
	for _, l := range raw {
		normalized = append(normalized, ingest.Normalize(l))
	}
	listings := ingest.Dedupe(normalized)
	rep.Fetched = len(listings)

	filters := Filters{RedFlags: cfg.Filters.RedFlags, LocationsBlock: cfg.Filters.LocationsBlock}
	kept := listings[:0:0]
	for _, l := range listings {
		if ok, why := filters.Keep(l); !ok {
			rep.Filtered++
			r.metric(func(m *metrics.Metrics) { m.ListingsFiltered.WithLabelValues(why).Inc() })
			log.Debug("listing filtered", zap.String("listing_id", l.ID), zap.String("reason", why), zap.String("title", l.Title))
			continue
		}
		kept = append(kept, l)
	}

	results, err := scoreAll(ctx, engine, kept, cfg.Application.ScoreConcurrency)
	if err != nil {
		return err
	}
	rep.Scored = len(results)

	var candidates []apply.Candidate
	for _, s := range results {
		added, err := r.d.Store.UpsertListing(ctx, s.listing, s.result)
		if err != nil {
			return fmt.Errorf("upsert listing %s: %w", s.listing.ID, err)
		}
		r.metric(func(m *metrics.Metrics) {
			m.ListingsScored.Inc()
			m.Score.Observe(s.result.Total)
		})
		if added {
			rep.Added++
			r.d.Hub.Emit(events.TypeListingAdded, map[string]any{
				"id": s.listing.ID, "title": s.listing.Title, "company": s.listing.Company, "score": s.result.Total,
			})
		}
		if s.result.Passed {
			rep.Passed++
			candidates = append(candidates, apply.Candidate{Listing: s.listing, Result: s.result})
		}
	}

	if cfg.App.RetentionDays > 0 {
		n, err := r.d.Store.CleanupOldListings(ctx, time.Duration(cfg.App.RetentionDays)*24*time.Hour)
		if err != nil {
			log.Warn("listing cleanup failed", zap.Error(err))
		} else if n > 0 {
			log.Info("old listings removed", zap.Int64("deleted", n))
		}
	}

	if !cfg.Application.AutoApply || len(candidates) == 0 {
		return nil
	}
	sum, err := r.applyAll(ctx, cfg, rep.RunID, candidates, log)
	rep.Apply = &sum
	return err
}

// fetchAll runs every source concurrently with its own timeout. Errors are
// collected per source and never cancel the other sources.
func (r *Runner) fetchAll(ctx context.Context, cfg config.Config, log *zap.Logger) ([]domain.Listing, map[string]string) {
	var srcs []source
	if r.d.Fetchers != nil {
		for _, f := range r.d.Fetchers(cfg) {
			srcs = append(srcs, source{fetcher: f, timeout: defaultFeedTimeout})
		}
	} else {
		srcs = buildSources(cfg, r.hostLimiter(cfg.Sources.RequestsPerSecond), r.log)
	}
	if len(srcs) == 0 {
		log.Warn("no sources configured")
		return nil, nil
	}

	var (
		mu   sync.Mutex
		all  []domain.Listing
		errs = map[string]string{}
		g    errgroup.Group
	)
	for _, s := range srcs {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			name := s.fetcher.Name()
			res, err := s.fetcher.Fetch(fctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("source failed", zap.String("source", name), zap.Error(err))
				errs[name] = err.Error()
				r.metric(func(m *metrics.Metrics) { m.SourceErrors.WithLabelValues(name).Inc() })
				return nil
			}
			log.Info("source fetched", zap.String("source", name), zap.Int("listings", len(res.Listings)))
			r.metric(func(m *metrics.Metrics) { m.ListingsFetched.WithLabelValues(name).Add(float64(len(res.Listings))) })
			all = append(all, res.Listings...)
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == 0 {
		errs = nil
	}
	return all, errs
}

// scoreAll keeps input order so the result is deterministic regardless of
// concurrency.
func scoreAll(ctx context.Context, engine rank.Scorer, ls []domain.Listing, workers int) ([]scored, error) {
	if workers <= 0 {
		workers = defaultScoreJobs
	}
	out := make([]scored, len(ls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, l := range ls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = scored{listing: l, result: engine.Score(l)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) applyAll(ctx context.Context, cfg config.Config, runID string, cands []apply.Candidate, log *zap.Logger) (apply.Summary, error) {
	a := apply.NewApplier(r.d.History, r.d.Quota, r.d.Submitter, docselect.New(cfg.Documents), apply.Options{
		Threshold:     cfg.ScoreThreshold,
		MaxPerDay:     cfg.Application.MaxPerDay,
		DryRun:        cfg.Application.DryRun,
		Delay:         time.Duration(cfg.Application.DelaySeconds) * time.Second,
		MaxCandidates: cfg.Application.MaxPerRun,
	}, log)
	a.OnAttempt(func(at apply.Attempt) {
		r.metric(func(m *metrics.Metrics) { m.Applications.WithLabelValues(string(at.Status)).Inc() })
		if at.Status != apply.AttemptSkipped {
			r.d.Hub.Emit(events.TypeApplication, at)
		}
	})

	sum, err := a.Run(ctx, runID, cands)
	if err != nil {
		return sum, fmt.Errorf("apply: %w", err)
	}

	if used, err := r.d.Quota.Used(ctx, r.now().Format("2006-01-02")); err == nil {
		r.metric(func(m *metrics.Metrics) { m.ApplicationsToday.Set(float64(used)) })
	}
	return sum, nil
}

func (r *Runner) metric(fn func(m *metrics.Metrics)) {
	if r.d.Metrics != nil {
		fn(r.d.Metrics)
	}
}

func (r *Runner) observe(rep Report, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.metric(func(m *metrics.Metrics) {
		m.Runs.WithLabelValues(rep.Trigger, result).Inc()
		m.RunDuration.Observe(rep.FinishedAt.Sub(rep.StartedAt).Seconds())
	})
}

func (r *Runner) markStarted(rep Report) {
	st := r.Status()
	at := rep.StartedAt
	st.Running = true
	st.RunID = rep.RunID
	st.Trigger = rep.Trigger
	st.LastRunAt = &at
	r.status.Store(st)
}

func (r *Runner) markFinished(rep Report, err error) {
	st := r.Status()
	st.Running = false
	st.LastAdded = rep.Added
	st.LastPassed = rep.Passed
	st.LastApplied = 0
	if rep.Apply != nil {
		st.LastApplied = rep.Apply.Applied
	}
	if err != nil {
		st.LastError = err.Error()
	} else {
		at := rep.FinishedAt
		st.LastError = ""
		st.LastOkAt = &at
	}
	r.status.Store(st)
}
