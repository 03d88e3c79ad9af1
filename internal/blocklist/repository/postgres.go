package repository

import (
	"context"
	"database/sql"

	"access-portal/internal/blocklist/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a blocklist repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all blocklist entries, newest first, including deactivated ones.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ip, reason, active, created_at FROM blocklist ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		var reason sql.NullString
		if err := rows.Scan(&e.ID, &e.IP, &reason, &e.Active, &e.CreatedAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// IsBlocked reports whether ip matches an active entry.
func (r *PostgresRepository) IsBlocked(ctx context.Context, ip string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blocklist WHERE ip = $1 AND active`, ip).Scan(&n)
	return n > 0, err
}

// Create adds a blocklist entry.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocklist (id, ip, reason, active, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.IP, e.Reason, e.Active, e.CreatedAt)
	return err
}

// Deactivate turns off an entry without deleting it.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blocklist SET active = FALSE WHERE id = $1`, id)
	return err
}
