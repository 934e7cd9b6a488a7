package store

import (
	"context"
	"fmt"
	"time"
)

// Run is the persisted summary of one pipeline run.
type Run struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Filtered   int       `json:"filtered"`
	Scored     int       `json:"scored"`
	Added      int       `json:"added"`
	Passed     int       `json:"passed"`
	Applied    int       `json:"applied"`
	DryRuns    int       `json:"dry_runs"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

func (d *DB) RecordRun(ctx context.Context, r Run) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT OR REPLACE INTO runs (id, trigger, started_at, finished_at, fetched, filtered, scored, added, passed, applied, dry_runs, failed, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID, r.Trigger, r.StartedAt.UTC().Format(sqliteTime), r.FinishedAt.UTC().Format(sqliteTime),
		r.Fetched, r.Filtered, r.Scored, r.Added, r.Passed, r.Applied, r.DryRuns, r.Failed, r.Error)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (d *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, trigger, started_at, finished_at, fetched, filtered, scored, added, passed, applied, dry_runs, failed, error
FROM runs ORDER BY started_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Trigger, &started, &finished, &r.Fetched, &r.Filtered, &r.Scored,
			&r.Added, &r.Passed, &r.Applied, &r.DryRuns, &r.Failed, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
