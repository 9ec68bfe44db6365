package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/weekgrid/internal/db"
)

// SQLiteSnapshotRepo implements SnapshotRepo over the snapshot_fields table.
type SQLiteSnapshotRepo struct {
	db db.DBTX
}

func NewSQLiteSnapshotRepo(conn db.DBTX) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: conn}
}

// Load returns every stored field of namespace. An unknown namespace yields
// an empty map and no error.
func (r *SQLiteSnapshotRepo) Load(ctx context.Context, namespace string) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT field, value FROM snapshot_fields WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]json.RawMessage)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scanning snapshot field: %w", err)
		}
		fields[field] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot fields: %w", err)
	}
	return fields, nil
}

// Save upserts each field. Fields not named are left as they are.
func (r *SQLiteSnapshotRepo) Save(ctx context.Context, namespace string, fields map[string]json.RawMessage) error {
	query := `INSERT INTO snapshot_fields (namespace, field, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, field) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at`
	now := nowUTC()
	for field, value := range fields {
		if _, err := r.db.ExecContext(ctx, query, namespace, field, string(value), now); err != nil {
			return fmt.Errorf("saving snapshot field %s: %w", field, err)
		}
	}
	return nil
}

func (r *SQLiteSnapshotRepo) Clear(ctx context.Context, namespace string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshot_fields WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return nil
}

// Namespaces lists the namespaces that hold at least one field, including
// the legacy empty namespace.
func (r *SQLiteSnapshotRepo) Namespaces(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT namespace FROM snapshot_fields ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot namespaces: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("scanning namespace: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}
