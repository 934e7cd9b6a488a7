package store

import (
	"context"
	"fmt"
	"time"

	"jobapply-engine/internal/domain"
)

type ListApplicationsOpts struct {
	Status domain.ApplicationStatus // empty = all
	Since  time.Time
	Limit  int
}

func (d *DB) RecordApplication(ctx context.Context, a domain.Application) (int64, error) {
	at := a.AppliedAt
	if at.IsZero() {
		at = d.now()
	}
	res, err := d.Pool.ExecContext(ctx, `
INSERT INTO applications (listing_id, url, title, company, location, score, resume, cover_letter, status, detail, run_id, applied_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		a.ListingID, a.URL, a.Title, a.Company, a.Location, a.Score, a.Resume, a.CoverLetter,
		string(a.Status), a.Detail, a.RunID, at.UTC().Format(sqliteTime),
	)
	if err != nil {
		return 0, fmt.Errorf("insert application: %w", err)
	}
	return res.LastInsertId()
}

// HasApplied reports whether a successful application exists for the
// listing id or, when given, the same posting URL. Dry runs and failures
// do not count.
func (d *DB) HasApplied(ctx context.Context, listingID, url string) (bool, error) {
	var one int
	err := d.Pool.QueryRowContext(ctx, `
SELECT COUNT(1) FROM applications
WHERE status = ? AND (listing_id = ? OR (? != '' AND url = ?));`,
		string(domain.StatusApplied), listingID, url, url).Scan(&one)
	if err != nil {
		return false, err
	}
	return one > 0, nil
}

// CountAppliedSince counts successful applications at or after since.
func (d *DB) CountAppliedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `
SELECT COUNT(1) FROM applications WHERE status = ? AND applied_at >= ?;`,
		string(domain.StatusApplied), since.UTC().Format(sqliteTime)).Scan(&n)
	return n, err
}

func (d *DB) ListApplications(ctx context.Context, opts ListApplicationsOpts) ([]domain.Application, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}

	where := []string{"applied_at >= ?"}
	args := []any{opts.Since.UTC().Format(sqliteTime)}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	args = append(args, opts.Limit)

	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, listing_id, url, title, company, location, score, resume, cover_letter, status, detail, run_id, applied_at
FROM applications
WHERE `+joinAnd(where)+`
ORDER BY applied_at DESC, id DESC
LIMIT ?;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Application{}
	for rows.Next() {
		var a domain.Application
		var status, at string
		if err := rows.Scan(&a.ID, &a.ListingID, &a.URL, &a.Title, &a.Company, &a.Location, &a.Score,
			&a.Resume, &a.CoverLetter, &status, &a.Detail, &a.RunID, &at); err != nil {
			return nil, err
		}
		a.Status = domain.ApplicationStatus(status)
		a.AppliedAt = parseTime(at)
		out = append(out, a)
	}
	return out, rows.Err()
}
