package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/weekgrid/internal/db"
	"github.com/alexanderramin/weekgrid/internal/domain"
)

// SQLiteDocumentRepo implements DocumentRepo for the document service.
type SQLiteDocumentRepo struct {
	db db.DBTX
}

func NewSQLiteDocumentRepo(conn db.DBTX) *SQLiteDocumentRepo {
	return &SQLiteDocumentRepo{db: conn}
}

const documentColumns = `uid, payload, last_modified, updated_at, device_id`

func (r *SQLiteDocumentRepo) Get(ctx context.Context, uid string) (*domain.RemoteDocument, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM remote_documents WHERE uid = ?`, uid)
	return r.scanDocument(row)
}

// Put replaces the whole document for doc.UID.
func (r *SQLiteDocumentRepo) Put(ctx context.Context, doc *domain.RemoteDocument) error {
	query := `INSERT INTO remote_documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			payload = excluded.payload,
			last_modified = excluded.last_modified,
			updated_at = excluded.updated_at,
			device_id = excluded.device_id`
	_, err := r.db.ExecContext(ctx, query, doc.UID, doc.Payload, doc.LastModified, doc.UpdatedAt, doc.DeviceID)
	if err != nil {
		return fmt.Errorf("saving remote document: %w", err)
	}
	return nil
}

func (r *SQLiteDocumentRepo) Delete(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM remote_documents WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("deleting remote document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("remote document %s: %w", uid, ErrNotFound)
	}
	return nil
}

// List returns every document, most recently updated first.
func (r *SQLiteDocumentRepo) List(ctx context.Context) ([]*domain.RemoteDocument, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM remote_documents ORDER BY updated_at DESC, uid`)
	if err != nil {
		return nil, fmt.Errorf("listing remote documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.RemoteDocument
	for rows.Next() {
		var d domain.RemoteDocument
		if err := rows.Scan(&d.UID, &d.Payload, &d.LastModified, &d.UpdatedAt, &d.DeviceID); err != nil {
			return nil, fmt.Errorf("scanning remote document: %w", err)
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

func (r *SQLiteDocumentRepo) scanDocument(row *sql.Row) (*domain.RemoteDocument, error) {
	var d domain.RemoteDocument
	err := row.Scan(&d.UID, &d.Payload, &d.LastModified, &d.UpdatedAt, &d.DeviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("remote document: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning remote document: %w", err)
	}
	return &d, nil
}
