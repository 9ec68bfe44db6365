package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/weekgrid/internal/db"
	"github.com/alexanderramin/weekgrid/internal/domain"
)

// SQLiteLoginRepo implements LoginRepo over the single-row login_session
// table.
type SQLiteLoginRepo struct {
	db db.DBTX
}

func NewSQLiteLoginRepo(conn db.DBTX) *SQLiteLoginRepo {
	return &SQLiteLoginRepo{db: conn}
}

func (r *SQLiteLoginRepo) Get(ctx context.Context) (*domain.LoginRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT uid, email, display_name, signed_in_at FROM login_session WHERE id = 'current'`)

	var rec domain.LoginRecord
	var signedIn string
	err := row.Scan(&rec.Identity.ID, &rec.Identity.Email, &rec.Identity.DisplayName, &signedIn)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("login session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning login session: %w", err)
	}
	rec.SignedInAt = parseTime(signedIn)
	return &rec, nil
}

func (r *SQLiteLoginRepo) Put(ctx context.Context, rec *domain.LoginRecord) error {
	query := `INSERT OR REPLACE INTO login_session (id, uid, email, display_name, signed_in_at)
		VALUES ('current', ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.Identity.ID,
		rec.Identity.Email,
		rec.Identity.DisplayName,
		formatTime(rec.SignedInAt),
	)
	if err != nil {
		return fmt.Errorf("saving login session: %w", err)
	}
	return nil
}

func (r *SQLiteLoginRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM login_session`); err != nil {
		return fmt.Errorf("clearing login session: %w", err)
	}
	return nil
}
