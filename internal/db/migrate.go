package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs every schema statement. Statements are idempotent so the
// whole list runs on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateLegacyCache(db); err != nil {
		return fmt.Errorf("migrating legacy planner cache: %w", err)
	}
	return nil
}

// migrateLegacyCache moves rows of the pre-namespace planner_cache table
// into snapshot_fields under the empty namespace, then drops the table. The
// empty namespace is never read, so the old data is retained but not
// adopted by any identity.
func migrateLegacyCache(db *sql.DB) error {
	ctx := context.Background()

	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'planner_cache'`).Scan(&name)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking for planner_cache: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO snapshot_fields (namespace, field, value, updated_at)
		SELECT '', field, value, strftime('%Y-%m-%dT%H:%M:%SZ', 'now') FROM planner_cache`); err != nil {
		return fmt.Errorf("copying planner_cache rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE planner_cache`); err != nil {
		return fmt.Errorf("dropping planner_cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing planner_cache migration: %w", err)
	}
	committed = true
	return nil
}

var migrations = []string{
	// Local per-identity snapshot cache, one row per state field.
	`CREATE TABLE IF NOT EXISTS snapshot_fields (
		namespace  TEXT NOT NULL,
		field      TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (namespace, field)
	)`,

	// Last signed-in identity, replayed on start.
	`CREATE TABLE IF NOT EXISTS login_session (
		id           TEXT PRIMARY KEY DEFAULT 'current' CHECK(id = 'current'),
		uid          TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		signed_in_at TEXT NOT NULL
	)`,

	// Stable id of this installation, sent with remote writes.
	`CREATE TABLE IF NOT EXISTS device (
		id         TEXT PRIMARY KEY DEFAULT 'local' CHECK(id = 'local'),
		device_id  TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	// Outcome of the most recent sync per identity.
	`CREATE TABLE IF NOT EXISTS sync_status (
		namespace            TEXT PRIMARY KEY,
		outcome              TEXT NOT NULL,
		local_last_modified  INTEGER NOT NULL DEFAULT 0,
		remote_last_modified INTEGER NOT NULL DEFAULT 0,
		message              TEXT NOT NULL DEFAULT '',
		synced_at            TEXT NOT NULL
	)`,

	// Server side of the document service: one envelope per uid.
	`CREATE TABLE IF NOT EXISTS remote_documents (
		uid           TEXT PRIMARY KEY,
		payload       TEXT NOT NULL,
		last_modified INTEGER NOT NULL DEFAULT 0
		              CHECK(last_modified >= 0),
		updated_at    INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_remote_documents_updated ON remote_documents(updated_at)`,

	// Writers identify their device.
	`ALTER TABLE remote_documents ADD COLUMN device_id TEXT NOT NULL DEFAULT ''`,
}
