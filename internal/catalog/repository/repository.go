package repository

import (
	"context"

	"access-portal/internal/catalog/domain"
)

// Repository defines persistence for the service catalog and user grants.
type Repository interface {
	ListServices(ctx context.Context) ([]*domain.Service, error)
	GetService(ctx context.Context, code string) (*domain.Service, error)
	CreateService(ctx context.Context, s *domain.Service) error
	// ListGrantedCodes returns the user's entitled service codes in
	// deterministic (alphabetical) order, ready for token claims.
	ListGrantedCodes(ctx context.Context, userID string) ([]string, error)
	Grant(ctx context.Context, g *domain.Grant) error
	RevokeGrant(ctx context.Context, userID, serviceCode string) error
}
