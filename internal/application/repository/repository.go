package repository

import (
	"context"
	"time"

	"access-portal/internal/application/domain"
)

// Repository defines persistence for access applications.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	// List returns applications newest first; status "" means all.
	List(ctx context.Context, status domain.Status) ([]*domain.Application, error)
	Create(ctx context.Context, a *domain.Application) error
	// Decide moves a pending application to approved or denied. Returns the
	// number of rows changed (0 when the application was not pending).
	Decide(ctx context.Context, id string, status domain.Status, decidedBy, note string, at time.Time) (int64, error)
}
