package httpapi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/events"
	"jobapply-engine/internal/metrics"
	"jobapply-engine/internal/pipeline"
	"jobapply-engine/internal/store"
)

// Store is the read side of the database the API serves.
type Store interface {
	ListListings(ctx context.Context, opts store.ListListingsOpts) ([]store.ListingRow, error)
	GetListing(ctx context.Context, id string) (store.ListingRow, error)
	ListApplications(ctx context.Context, opts store.ListApplicationsOpts) ([]domain.Application, error)
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
	Stats(ctx context.Context, dayStart time.Time) (store.Stats, error)
}

// Runner triggers pipeline runs.
type Runner interface {
	RunOnce(ctx context.Context, trigger string) (pipeline.Report, error)
	Status() pipeline.Status
	Running() bool
}

type Deps struct {
	Store   Store
	Config  *config.Holder
	Runner  Runner
	Hub     *events.Hub
	Metrics *metrics.Metrics
	Log     *zap.Logger
	Version string
	// Ping checks the database for /health. Optional.
	Ping func(ctx context.Context) error
	// BaseContext parents runs started by POST /run, so they stop with the
	// server. Defaults to context.Background.
	BaseContext context.Context
}
