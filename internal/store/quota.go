package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Quota is the SQLite-backed daily application counter.
type Quota struct {
	db *DB
}

func (d *DB) Quota() *Quota { return &Quota{db: d} }

// Reserve takes one slot for day if fewer than limit are used. The read and
// the increment share one transaction, and the pool has a single
// connection, so concurrent callers cannot both take the last slot.
func (q *Quota) Reserve(ctx context.Context, day string, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	tx, err := q.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var used int
	err = tx.QueryRowContext(ctx, `SELECT used FROM daily_quota WHERE day = ?;`, day).Scan(&used)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read quota: %w", err)
	}
	if used >= limit {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO daily_quota (day, used) VALUES (?, 1)
ON CONFLICT(day) DO UPDATE SET used = used + 1;`, day); err != nil {
		return false, fmt.Errorf("bump quota: %w", err)
	}
	return true, tx.Commit()
}

// Release gives back a slot taken by Reserve. It never goes below zero.
func (q *Quota) Release(ctx context.Context, day string) error {
	_, err := q.db.Pool.ExecContext(ctx, `
UPDATE daily_quota SET used = used - 1 WHERE day = ? AND used > 0;`, day)
	return err
}

func (q *Quota) Used(ctx context.Context, day string) (int, error) {
	var used int
	err := q.db.Pool.QueryRowContext(ctx, `SELECT used FROM daily_quota WHERE day = ?;`, day).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return used, err
}
