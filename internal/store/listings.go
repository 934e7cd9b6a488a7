package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/rank"
)

// ListingRow is a stored listing with its latest score.
type ListingRow struct {
	domain.Listing
	Score     float64                    `json:"score"`
	Breakdown map[rank.Criterion]float64 `json:"breakdown"`
	Passed    bool                       `json:"pass_threshold"`
	Tags      []string                   `json:"tags"`
	FirstSeen time.Time                  `json:"first_seen"`
	LastSeen  time.Time                  `json:"last_seen"`
}

type ListListingsOpts struct {
	Sort       string // score | date | company | title
	Window     string // 24h | 7d | all
	MinScore   float64
	PassedOnly bool
	Limit      int
}

const (
	defaultListLimit = 200
	maxListLimit     = 2000
)

// UpsertListing stores l with its score. added reports whether the listing
// was new; existing rows keep first_seen and get the fresh score.
func (d *DB) UpsertListing(ctx context.Context, l domain.Listing, res rank.Result) (added bool, err error) {
	keywords, _ := json.Marshal(nonNil(l.Keywords))
	benefits, _ := json.Marshal(nonNil(l.Benefits))
	breakdown, _ := json.Marshal(res.Breakdown)
	tags, _ := json.Marshal(nonNil(res.Tags))

	var posted any
	if l.PostedAt != nil {
		posted = l.PostedAt.UTC().Format(sqliteTime)
	}
	now := d.stamp()

	// relies on the primary key on id
	r, err := d.Pool.ExecContext(ctx, `
INSERT OR IGNORE INTO listings (id, title, company, url, description, keywords, salary_min, salary_max,
  location, company_rating, seniority, benefits, source, posted_at, score, breakdown, passed, tags, first_seen, last_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		l.ID, l.Title, l.Company, l.URL, l.Description, string(keywords), nullFloat(l.SalaryMin), nullFloat(l.SalaryMax),
		l.Location, nullFloat(l.Rating), string(l.Seniority), string(benefits), l.Source, posted,
		res.Total, string(breakdown), res.Passed, string(tags), now, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert listing: %w", err)
	}
	if n, _ := r.RowsAffected(); n > 0 {
		return true, nil
	}

	_, err = d.Pool.ExecContext(ctx, `
UPDATE listings SET title = ?, company = ?, url = ?, description = ?, keywords = ?, salary_min = ?, salary_max = ?,
  location = ?, company_rating = ?, seniority = ?, benefits = ?, source = ?, posted_at = ?,
  score = ?, breakdown = ?, passed = ?, tags = ?, last_seen = ?
WHERE id = ?;`,
		l.Title, l.Company, l.URL, l.Description, string(keywords), nullFloat(l.SalaryMin), nullFloat(l.SalaryMax),
		l.Location, nullFloat(l.Rating), string(l.Seniority), string(benefits), l.Source, posted,
		res.Total, string(breakdown), res.Passed, string(tags), now, l.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update listing: %w", err)
	}
	return false, nil
}

const listingCols = `id, title, company, url, description, keywords, salary_min, salary_max, location, company_rating,
  seniority, benefits, source, posted_at, score, breakdown, passed, tags, first_seen, last_seen`

func (d *DB) GetListing(ctx context.Context, id string) (ListingRow, error) {
	row := d.Pool.QueryRowContext(ctx, `SELECT `+listingCols+` FROM listings WHERE id = ?;`, id)
	lr, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ListingRow{}, ErrNotFound
	}
	return lr, err
}

func (d *DB) ListListings(ctx context.Context, opts ListListingsOpts) ([]ListingRow, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}

	// whitelist sort columns (prevents SQL injection)
	order := map[string]string{
		"score":   "score DESC, last_seen DESC",
		"date":    "last_seen DESC",
		"company": "company ASC, score DESC",
		"title":   "title ASC, score DESC",
	}[opts.Sort]
	if order == "" {
		order = "score DESC, last_seen DESC"
	}

	where := []string{"score >= ?"}
	args := []any{opts.MinScore}
	switch opts.Window {
	case "24h":
		where = append(where, "last_seen >= datetime('now','-24 hours')")
	case "all":
		// no filter
	default:
		where = append(where, "last_seen >= datetime('now','-7 days')")
	}
	if opts.PassedOnly {
		where = append(where, "passed = 1")
	}

	query := fmt.Sprintf(`SELECT %s FROM listings WHERE %s ORDER BY %s LIMIT ?;`,
		listingCols, joinAnd(where), order)
	args = append(args, opts.Limit)

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ListingRow{}
	for rows.Next() {
		lr, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

// CleanupOldListings removes listings not seen since olderThan ago, except
// those that have an application on record.
func (d *DB) CleanupOldListings(ctx context.Context, olderThan time.Duration) (deleted int64, err error) {
	cutoff := d.now().Add(-olderThan).UTC().Format(sqliteTime)
	res, err := d.Pool.ExecContext(ctx, `
DELETE FROM listings
WHERE last_seen < ?
  AND id NOT IN (SELECT listing_id FROM applications);`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old listings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (ListingRow, error) {
	var (
		lr                         ListingRow
		keywords, benefits         string
		breakdown, tags            string
		salaryMin, salaryMax, rate sql.NullFloat64
		posted                     sql.NullString
		seniority                  string
		firstSeen, lastSeen        string
	)
	err := s.Scan(&lr.ID, &lr.Title, &lr.Company, &lr.URL, &lr.Description, &keywords, &salaryMin, &salaryMax,
		&lr.Location, &rate, &seniority, &benefits, &lr.Source, &posted,
		&lr.Score, &breakdown, &lr.Passed, &tags, &firstSeen, &lastSeen)
	if err != nil {
		return ListingRow{}, err
	}
	_ = json.Unmarshal([]byte(keywords), &lr.Keywords)
	_ = json.Unmarshal([]byte(benefits), &lr.Benefits)
	_ = json.Unmarshal([]byte(breakdown), &lr.Breakdown)
	_ = json.Unmarshal([]byte(tags), &lr.Tags)
	lr.SalaryMin = fromNull(salaryMin)
	lr.SalaryMax = fromNull(salaryMax)
	lr.Rating = fromNull(rate)
	lr.Seniority = domain.Seniority(seniority)
	if posted.Valid {
		t := parseTime(posted.String)
		lr.PostedAt = &t
	}
	lr.FirstSeen = parseTime(firstSeen)
	lr.LastSeen = parseTime(lastSeen)
	return lr, nil
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func joinAnd(conds []string) string {
	out := ""
	for i, c := range conds {
		if i > 0 {
			out += " AND "
		}
		out += c
	}
	return out
}
