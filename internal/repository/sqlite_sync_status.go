package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/weekgrid/internal/db"
	"github.com/alexanderramin/weekgrid/internal/domain"
)

type SQLiteSyncStatusRepo struct {
	db db.DBTX
}

func NewSQLiteSyncStatusRepo(conn db.DBTX) *SQLiteSyncStatusRepo {
	return &SQLiteSyncStatusRepo{db: conn}
}

func (r *SQLiteSyncStatusRepo) Get(ctx context.Context, namespace string) (*domain.SyncStatus, error) {
	row := r.db.QueryRowContext(ctx, `SELECT namespace, outcome, local_last_modified,
		remote_last_modified, message, synced_at FROM sync_status WHERE namespace = ?`, namespace)

	var s domain.SyncStatus
	var syncedAt string
	err := row.Scan(&s.Namespace, &s.Outcome, &s.LocalLastModified, &s.RemoteLastModified, &s.Message, &syncedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sync status: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning sync status: %w", err)
	}
	s.SyncedAt = parseTime(syncedAt)
	return &s, nil
}

func (r *SQLiteSyncStatusRepo) Record(ctx context.Context, s *domain.SyncStatus) error {
	query := `INSERT INTO sync_status (namespace, outcome, local_last_modified,
		remote_last_modified, message, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			outcome = excluded.outcome,
			local_last_modified = excluded.local_last_modified,
			remote_last_modified = excluded.remote_last_modified,
			message = excluded.message,
			synced_at = excluded.synced_at`
	_, err := r.db.ExecContext(ctx, query,
		s.Namespace,
		s.Outcome,
		s.LocalLastModified,
		s.RemoteLastModified,
		s.Message,
		formatTime(s.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("recording sync status: %w", err)
	}
	return nil
}
