package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 2

// Migrate brings the schema up to schemaVersion, one user_version step at a
// time.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v < 1 {
		if err := migrateV1(tx); err != nil {
			return fmt.Errorf("schema v1: %w", err)
		}
	}
	if v < 2 {
		if err := migrateV2(tx); err != nil {
			return fmt.Errorf("schema v2: %w", err)
		}
	}
	if v < schemaVersion {
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ---- Schema v1: listings and applications ----
func migrateV1(tx *sql.Tx) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  keywords TEXT NOT NULL DEFAULT '[]',
  salary_min REAL,
  salary_max REAL,
  location TEXT NOT NULL DEFAULT '',
  company_rating REAL,
  seniority TEXT NOT NULL DEFAULT 'unknown',
  benefits TEXT NOT NULL DEFAULT '[]',
  source TEXT NOT NULL DEFAULT '',
  posted_at TEXT,
  score REAL NOT NULL DEFAULT 0,
  breakdown TEXT NOT NULL DEFAULT '{}',
  passed INTEGER NOT NULL DEFAULT 0,
  tags TEXT NOT NULL DEFAULT '[]',
  first_seen TEXT NOT NULL,
  last_seen TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS applications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  listing_id TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  score REAL NOT NULL DEFAULT 0,
  resume TEXT NOT NULL DEFAULT '',
  cover_letter TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  detail TEXT NOT NULL DEFAULT '',
  run_id TEXT NOT NULL DEFAULT '',
  applied_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_last_seen ON listings(last_seen);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_score ON listings(score);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_url ON listings(url) WHERE url != '';`,
		`CREATE INDEX IF NOT EXISTS idx_applications_listing ON applications(listing_id);`,
		`CREATE INDEX IF NOT EXISTS idx_applications_applied_at ON applications(applied_at);`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// ---- Schema v2: daily quota and run history ----
func migrateV2(tx *sql.Tx) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS daily_quota (
  day TEXT PRIMARY KEY,
  used INTEGER NOT NULL DEFAULT 0
);`, `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  trigger TEXT NOT NULL DEFAULT '',
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  fetched INTEGER NOT NULL DEFAULT 0,
  filtered INTEGER NOT NULL DEFAULT 0,
  scored INTEGER NOT NULL DEFAULT 0,
  added INTEGER NOT NULL DEFAULT 0,
  passed INTEGER NOT NULL DEFAULT 0,
  applied INTEGER NOT NULL DEFAULT 0,
  dry_runs INTEGER NOT NULL DEFAULT 0,
  failed INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT ''
);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	// Dev databases from before run ids were tracked on applications.
	if !columnExists(tx, "applications", "run_id") {
		if _, err := tx.Exec(`ALTER TABLE applications ADD COLUMN run_id TEXT NOT NULL DEFAULT '';`); err != nil {
			return err
		}
	}
	return nil
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
