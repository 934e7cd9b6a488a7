package store

import (
	"context"
	"database/sql"
	"time"
)

// Stats is the dashboard summary.
type Stats struct {
	Listings        int        `json:"listings"`
	ListingsPassed  int        `json:"listings_passed"`
	AverageScore    float64    `json:"average_score"`
	Applied         int        `json:"applied"`
	AppliedToday    int        `json:"applied_today"`
	DryRuns         int        `json:"dry_runs"`
	Failed          int        `json:"failed"`
	LastApplication *time.Time `json:"last_application,omitempty"`
}

// Stats counts "today" from dayStart, which the caller computes in the
// user's local time.
func (d *DB) Stats(ctx context.Context, dayStart time.Time) (Stats, error) {
	var s Stats
	var avg sql.NullFloat64
	if err := d.Pool.QueryRowContext(ctx, `
SELECT COUNT(1), COALESCE(SUM(passed), 0), AVG(score) FROM listings;`).Scan(&s.Listings, &s.ListingsPassed, &avg); err != nil {
		return Stats{}, err
	}
	if avg.Valid {
		s.AverageScore = float64(int(avg.Float64*100+0.5)) / 100
	}

	var last sql.NullString
	if err := d.Pool.QueryRowContext(ctx, `
SELECT
  COALESCE(SUM(CASE WHEN status = 'applied' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN status = 'applied' AND applied_at >= ? THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN status = 'dry_run' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
  MAX(CASE WHEN status = 'applied' THEN applied_at END)
FROM applications;`, dayStart.UTC().Format(sqliteTime)).Scan(&s.Applied, &s.AppliedToday, &s.DryRuns, &s.Failed, &last); err != nil {
		return Stats{}, err
	}
	if last.Valid {
		t := parseTime(last.String)
		s.LastApplication = &t
	}
	return s, nil
}
