package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/weekgrid/internal/db"
	"github.com/google/uuid"
)

// SQLiteDeviceRepo implements DeviceRepo. The device id is generated once
// and then reused for the lifetime of the database.
type SQLiteDeviceRepo struct {
	db db.DBTX
}

func NewSQLiteDeviceRepo(conn db.DBTX) *SQLiteDeviceRepo {
	return &SQLiteDeviceRepo{db: conn}
}

func (r *SQLiteDeviceRepo) GetOrCreate(ctx context.Context) (string, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO device (id, device_id, created_at) VALUES ('local', ?, ?)`,
		uuid.New().String(), nowUTC())
	if err != nil {
		return "", fmt.Errorf("creating device id: %w", err)
	}

	var id string
	err = r.db.QueryRowContext(ctx, `SELECT device_id FROM device WHERE id = 'local'`).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("device: %w", ErrNotFound)
		}
		return "", fmt.Errorf("reading device id: %w", err)
	}
	return id, nil
}
