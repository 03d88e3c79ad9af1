package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"access-portal/internal/credential/domain"
)

// Postgres unique_violation; the credentials.token_id unique constraint is
// what guarantees a jti collision can never silently overwrite a row.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const credentialColumns = `id, owner_id, label, token_id, token_digest, issued_at, expires_at, revoked_at, last_seen_ip, last_seen_at`

// GetByID returns the credential for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id)
	return scanCredential(row)
}

// GetByTokenID returns the credential whose token_id (jti) matches, or nil if
// not found. This is the verification lookup; the raw token is never a key.
func (r *PostgresRepository) GetByTokenID(ctx context.Context, tokenID string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE token_id = $1`, tokenID)
	return scanCredential(row)
}

// ListByOwner returns all credentials for the given owner, newest first,
// including revoked and expired ones (they are retained for audit).
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE owner_id = $1 ORDER BY issued_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts the credential as a single atomic write. A token_id collision
// returns ErrDuplicateTokenID and leaves the existing row untouched.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (id, owner_id, label, token_id, token_digest, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.OwnerID, c.Label, c.TokenID, c.TokenDigest, c.IssuedAt, timeToNullTime(c.ExpiresAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateTokenID
		}
		return err
	}
	return nil
}

// Revoke sets revoked_at if and only if it is currently NULL. Already-revoked
// rows are left unchanged, which keeps revocation monotonic and idempotent.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, id, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateLastSeen records the presenting client's IP and time. Best-effort
// bookkeeping; callers ignore the error on the verification path.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id, ip string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET last_seen_ip = $2, last_seen_at = $3 WHERE id = $1`, id, ip, at)
	return err
}

// Rename updates the owner-facing label. All other fields are immutable
// after mint except revoked_at and the last-seen pair.
func (r *PostgresRepository) Rename(ctx context.Context, id, label string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET label = $2 WHERE id = $1`, id, label)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*domain.Credential, error) {
	var c domain.Credential
	var expiresAt, revokedAt, lastSeenAt sql.NullTime
	var lastSeenIP sql.NullString
	err := row.Scan(&c.ID, &c.OwnerID, &c.Label, &c.TokenID, &c.TokenDigest,
		&c.IssuedAt, &expiresAt, &revokedAt, &lastSeenIP, &lastSeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.ExpiresAt = nullTimeToPtr(expiresAt)
	c.RevokedAt = nullTimeToPtr(revokedAt)
	c.LastSeenAt = nullTimeToPtr(lastSeenAt)
	if lastSeenIP.Valid {
		c.LastSeenIP = lastSeenIP.String
	}
	return &c, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
