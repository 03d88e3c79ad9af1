package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"access-portal/internal/application/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an application repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const applicationColumns = `id, name, email, services, ip, status, note, created_at, decided_at, decided_by`

// GetByID returns the application for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	return scanApplication(row)
}

// List returns applications newest first, optionally filtered by status.
func (r *PostgresRepository) List(ctx context.Context, status domain.Status) ([]*domain.Application, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+applicationColumns+` FROM applications ORDER BY created_at DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+applicationColumns+` FROM applications WHERE status = $1 ORDER BY created_at DESC`, status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists the application. The application must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Application) error {
	decidedAt := sql.NullTime{}
	if a.DecidedAt != nil {
		decidedAt = sql.NullTime{Time: *a.DecidedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, name, email, services, ip, status, note, created_at, decided_at, decided_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Name, a.Email, a.ServicesCSV(), a.IP, a.Status, a.Note, a.CreatedAt,
		decidedAt, a.DecidedBy)
	return err
}

// Decide moves a pending application to its final status in a single atomic
// update. Already-decided applications are left unchanged.
func (r *PostgresRepository) Decide(ctx context.Context, id string, status domain.Status, decidedBy, note string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $2, decided_by = $3, note = $4, decided_at = $5
		 WHERE id = $1 AND status = $6`,
		id, status, decidedBy, note, at, domain.StatusPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*domain.Application, error) {
	var a domain.Application
	var services string
	var note, decidedBy sql.NullString
	var decidedAt sql.NullTime
	err := row.Scan(&a.ID, &a.Name, &a.Email, &services, &a.IP, &a.Status, &note,
		&a.CreatedAt, &decidedAt, &decidedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Services = domain.ParseServicesCSV(services)
	if note.Valid {
		a.Note = note.String
	}
	if decidedBy.Valid {
		a.DecidedBy = decidedBy.String
	}
	if decidedAt.Valid {
		a.DecidedAt = &decidedAt.Time
	}
	return &a, nil
}
