package repository

import (
	"context"

	"access-portal/internal/user/domain"
)

// Repository defines persistence for portal accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	SetStatus(ctx context.Context, id string, status domain.UserStatus) error
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}
