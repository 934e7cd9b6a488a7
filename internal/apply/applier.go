package apply

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"jobapply-engine/internal/docselect"
	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/logging"
	"jobapply-engine/internal/rank"
)

var ErrNoResume = errors.New("no resume selected")

const recordTimeout = 10 * time.Second

// History is the application record the gate consults.
type History interface {
	HasApplied(ctx context.Context, listingID, url string) (bool, error)
	CountAppliedSince(ctx context.Context, since time.Time) (int, error)
	RecordApplication(ctx context.Context, a domain.Application) (int64, error)
}

// Quota is the daily application counter. Reserve must be atomic: two
// callers racing for the last slot cannot both get true.
type Quota interface {
	Reserve(ctx context.Context, day string, limit int) (bool, error)
	Release(ctx context.Context, day string) error
	Used(ctx context.Context, day string) (int, error)
}

type Candidate struct {
	Listing domain.Listing
	Result  rank.Result
}

// AttemptStatus extends the stored application statuses with "skipped" for
// candidates the gate turned away.
type AttemptStatus string

const (
	AttemptApplied AttemptStatus = AttemptStatus(domain.StatusApplied)
	AttemptDryRun  AttemptStatus = AttemptStatus(domain.StatusDryRun)
	AttemptFailed  AttemptStatus = AttemptStatus(domain.StatusFailed)
	AttemptSkipped AttemptStatus = "skipped"
)

type Attempt struct {
	ListingID   string        `json:"listing_id"`
	Title       string        `json:"title"`
	Company     string        `json:"company"`
	Score       float64       `json:"score"`
	Status      AttemptStatus `json:"status"`
	Reasons     []Reason      `json:"reasons,omitempty"`
	Resume      string        `json:"resume,omitempty"`
	CoverLetter string        `json:"cover_letter,omitempty"`
	Error       string        `json:"error,omitempty"`
}

type Summary struct {
	Attempts []Attempt `json:"attempts"`
	Applied  int       `json:"applied"`
	DryRuns  int       `json:"dry_runs"`
	Failed   int       `json:"failed"`
	Skipped  int       `json:"skipped"`
}

func (s *Summary) add(a Attempt) {
	s.Attempts = append(s.Attempts, a)
	switch a.Status {
	case AttemptApplied:
		s.Applied++
	case AttemptDryRun:
		s.DryRuns++
	case AttemptFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}

type Options struct {
	Threshold float64
	MaxPerDay int
	DryRun    bool
	// Delay is the minimum gap between two live submissions.
	Delay time.Duration
	// MaxCandidates caps how many listings one run submits or dry-runs.
	// Skipped listings do not count. 0 = no cap.
	MaxCandidates int
}

type Applier struct {
	hist   History
	quota  Quota
	sub    Submitter
	docs   *docselect.Selector
	opts   Options
	pace   *rate.Limiter
	log    *zap.Logger
	now    func() time.Time
	notify func(Attempt)
}

func NewApplier(hist History, q Quota, sub Submitter, docs *docselect.Selector, opts Options, log *zap.Logger) *Applier {
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	return &Applier{
		hist:  hist,
		quota: q,
		sub:   sub,
		docs:  docs,
		opts:  opts,
		pace:  rate.NewLimiter(limit, 1),
		log:   logging.OrNop(log),
		now:   time.Now,
	}
}

// OnAttempt registers a callback invoked after every candidate is handled.
func (a *Applier) OnAttempt(fn func(Attempt)) { a.notify = fn }

func (a *Applier) Gate() Gate {
	return Gate{Threshold: a.opts.Threshold, MaxPerDay: a.opts.MaxPerDay}
}

// Run walks the candidates from highest score down. It stops early once the
// daily limit is hit or ctx is done; per-candidate failures are recorded and
// do not abort the run.
func (a *Applier) Run(ctx context.Context, runID string, cands []Candidate) (Summary, error) {
	var sum Summary

	ordered := append([]Candidate(nil), cands...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Result.Total > ordered[j].Result.Total
	})
	gate := a.Gate()
	attempted := 0
	for _, c := range ordered {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		now := a.now()
		day := now.Format("2006-01-02")
		today, err := a.appliedToday(ctx, now)
		if err != nil {
			return sum, err
		}
		already, err := a.hist.HasApplied(ctx, c.Listing.ID, c.Listing.URL)
		if err != nil {
			return sum, fmt.Errorf("has applied %s: %w", c.Listing.ID, err)
		}

		d := gate.Decide(GateInput{
			Result:         c.Result,
			AppliedToday:   today,
			AlreadyApplied: already,
			DryRun:         a.opts.DryRun,
		})

		att := Attempt{
			ListingID: c.Listing.ID,
			Title:     c.Listing.Title,
			Company:   c.Listing.Company,
			Score:     c.Result.Total,
			Reasons:   d.Reasons,
		}

		if d.ShouldApply || d.OnlyDryRun() {
			if a.opts.MaxCandidates > 0 && attempted >= a.opts.MaxCandidates {
				a.log.Info("per-run candidate cap reached", zap.String("run_id", runID), zap.Int("max_candidates", a.opts.MaxCandidates))
				break
			}
			attempted++
		}

		limitHit := d.Has(ReasonDailyLimit)
		switch {
		case d.ShouldApply:
			att, limitHit = a.submit(ctx, runID, day, c, att)
		case d.OnlyDryRun():
			att = a.dryRun(ctx, runID, c, att)
		default:
			att.Status = AttemptSkipped
		}
		sum.add(att)
		if a.notify != nil {
			a.notify(att)
		}

		if limitHit {
			a.log.Info("daily application limit reached", zap.String("run_id", runID), zap.Int("max_per_day", a.opts.MaxPerDay))
			break
		}
	}
	return sum, nil
}

func (a *Applier) appliedToday(ctx context.Context, now time.Time) (int, error) {
	used, err := a.quota.Used(ctx, now.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("quota used: %w", err)
	}
	y, m, dd := now.Date()
	recorded, err := a.hist.CountAppliedSince(ctx, time.Date(y, m, dd, 0, 0, 0, 0, now.Location()))
	if err != nil {
		return 0, fmt.Errorf("count applied: %w", err)
	}
	return max(used, recorded), nil
}

func (a *Applier) documents(c Candidate, att *Attempt) bool {
	docs := a.docs.Select(c.Listing)
	att.Resume, att.CoverLetter = docs.Paths()
	if att.Resume == "" {
		att.Status = AttemptFailed
		att.Error = ErrNoResume.Error()
		return false
	}
	return true
}

func (a *Applier) dryRun(ctx context.Context, runID string, c Candidate, att Attempt) Attempt {
	if !a.documents(c, &att) {
		return att
	}
	att.Status = AttemptDryRun
	a.record(ctx, runID, c, att, "would apply")
	a.log.Info("dry run: would apply",
		zap.String("run_id", runID),
		zap.String("listing_id", c.Listing.ID),
		zap.Float64("score", c.Result.Total),
		zap.String("resume", att.Resume))
	return att
}

// submit reports limitHit when another writer took the last slot between
// the gate check and the reservation.
func (a *Applier) submit(ctx context.Context, runID, day string, c Candidate, att Attempt) (_ Attempt, limitHit bool) {
	if !a.documents(c, &att) {
		a.record(ctx, runID, c, att, att.Error)
		return att, false
	}
	if err := a.pace.Wait(ctx); err != nil {
		att.Status = AttemptFailed
		att.Error = err.Error()
		return att, false
	}

	ok, err := a.quota.Reserve(ctx, day, a.opts.MaxPerDay)
	if err != nil {
		att.Status = AttemptFailed
		att.Error = fmt.Sprintf("quota reserve: %v", err)
		return att, false
	}
	if !ok {
		att.Status = AttemptSkipped
		att.Reasons = append(att.Reasons, ReasonDailyLimit)
		return att, true
	}

	out, err := a.sub.Submit(ctx, Submission{
		RunID:       runID,
		Listing:     c.Listing,
		Score:       c.Result.Total,
		Resume:      att.Resume,
		CoverLetter: att.CoverLetter,
	})
	if err != nil {
		if rerr := a.quota.Release(context.WithoutCancel(ctx), day); rerr != nil {
			a.log.Warn("quota release failed", zap.String("day", day), zap.Error(rerr))
		}
		att.Status = AttemptFailed
		att.Error = err.Error()
		a.log.Warn("submission failed",
			zap.String("run_id", runID),
			zap.String("listing_id", c.Listing.ID),
			zap.Error(err))
		a.record(ctx, runID, c, att, err.Error())
		return att, false
	}

	att.Status = AttemptApplied
	detail := out.Detail
	if out.Reference != "" {
		detail = out.Reference + ": " + detail
	}
	a.record(ctx, runID, c, att, detail)
	a.log.Info("applied",
		zap.String("run_id", runID),
		zap.String("listing_id", c.Listing.ID),
		zap.String("company", c.Listing.Company),
		zap.Float64("score", c.Result.Total))
	return att, false
}

// record failures only log; the attempt outcome has already happened, so
// the write outlives a cancelled run.
func (a *Applier) record(ctx context.Context, runID string, c Candidate, att Attempt, detail string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	_, err := a.hist.RecordApplication(ctx, domain.Application{
		ListingID:   c.Listing.ID,
		URL:         c.Listing.URL,
		Title:       c.Listing.Title,
		Company:     c.Listing.Company,
		Location:    c.Listing.Location,
		Score:       c.Result.Total,
		Resume:      att.Resume,
		CoverLetter: att.CoverLetter,
		Status:      domain.ApplicationStatus(att.Status),
		Detail:      detail,
		RunID:       runID,
		AppliedAt:   a.now(),
	})
	if err != nil {
		a.log.Error("record application failed", zap.String("listing_id", c.Listing.ID), zap.Error(err))
	}
}
