package repository

import (
	"context"
	"database/sql"
	"errors"

	"access-portal/internal/catalog/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a catalog repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListServices returns the catalog ordered by code.
func (r *PostgresRepository) ListServices(ctx context.Context) ([]*domain.Service, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, name, created_at FROM services ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.Code, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// GetService returns the service for code, or nil if not found.
func (r *PostgresRepository) GetService(ctx context.Context, code string) (*domain.Service, error) {
	var s domain.Service
	err := r.db.QueryRowContext(ctx,
		`SELECT code, name, created_at FROM services WHERE code = $1`, code).
		Scan(&s.Code, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// CreateService adds a catalog entry.
func (r *PostgresRepository) CreateService(ctx context.Context, s *domain.Service) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO services (code, name, created_at) VALUES ($1, $2, $3)`,
		s.Code, s.Name, s.CreatedAt)
	return err
}

// ListGrantedCodes returns the user's entitled service codes alphabetically.
// The order is part of the token contract: claims serialize deterministically.
func (r *PostgresRepository) ListGrantedCodes(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT service_code FROM grants WHERE user_id = $1 ORDER BY service_code`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// Grant entitles a user to a service. Granting twice is a no-op.
func (r *PostgresRepository) Grant(ctx context.Context, g *domain.Grant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO grants (id, user_id, service_code, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, service_code) DO NOTHING`,
		g.ID, g.UserID, g.ServiceCode, g.CreatedAt)
	return err
}

// RevokeGrant removes a user's entitlement to a service. Tokens already
// minted keep their claim list; callers revoke credentials separately.
func (r *PostgresRepository) RevokeGrant(ctx context.Context, userID, serviceCode string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM grants WHERE user_id = $1 AND service_code = $2`, userID, serviceCode)
	return err
}
