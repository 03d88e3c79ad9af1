package repository

import (
	"context"
	"errors"
	"time"

	"access-portal/internal/credential/domain"
)

// ErrDuplicateTokenID is returned by Create when the credential's token_id
// collides with an existing row. The row is never overwritten; callers mint
// a fresh jti and retry.
var ErrDuplicateTokenID = errors.New("duplicate token id")

// Repository defines persistence for device credentials. Rows are never
// deleted; revocation is a single-field monotonic update.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	GetByTokenID(ctx context.Context, tokenID string) (*domain.Credential, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Credential, error)
	Create(ctx context.Context, c *domain.Credential) error
	// Revoke sets revoked_at only if currently unset. Returns the number of
	// rows changed (0 when the credential was already revoked or absent).
	Revoke(ctx context.Context, id string, at time.Time) (int64, error)
	UpdateLastSeen(ctx context.Context, id, ip string, at time.Time) error
	Rename(ctx context.Context, id, label string) error
}
