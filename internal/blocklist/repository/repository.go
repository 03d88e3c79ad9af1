package repository

import (
	"context"

	"access-portal/internal/blocklist/domain"
)

// Repository defines persistence for the IP blocklist.
type Repository interface {
	List(ctx context.Context) ([]*domain.Entry, error)
	// IsBlocked reports whether ip matches an active entry.
	IsBlocked(ctx context.Context, ip string) (bool, error)
	Create(ctx context.Context, e *domain.Entry) error
	Deactivate(ctx context.Context, id string) error
}
