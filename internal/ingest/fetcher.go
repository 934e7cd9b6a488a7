// Package ingest turns collaborator sources into normalized listings.
package ingest

import (
	"context"

	"jobapply-engine/internal/domain"
)

type Result struct {
	Source   string
	Listings []domain.Listing
}

// Fetcher is one listing source. Fetch returns raw listings; callers run
// them through Normalize.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (Result, error)
}
