package repository

import (
	"context"
	"database/sql"
	"errors"

	"access-portal/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the audit log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, actor_id, action, target, ip, metadata, created_at
		 FROM audit_logs WHERE id = $1`, id)
	return scanAuditLog(row)
}

// List returns audit logs newest first, paginated by limit and offset.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, actor_id, action, target, ip, metadata, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create appends one audit log row. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, target, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ActorID, a.Action, a.Target, a.IP, a.Metadata, a.CreatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditLog(row rowScanner) (*domain.AuditLog, error) {
	var a domain.AuditLog
	var actor, meta sql.NullString
	err := row.Scan(&a.ID, &actor, &a.Action, &a.Target, &a.IP, &meta, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if actor.Valid {
		a.ActorID = actor.String
	}
	if meta.Valid {
		a.Metadata = meta.String
	}
	return &a, nil
}
