package repository

import (
	"context"

	"access-portal/internal/audit/domain"
)

// Repository defines persistence for audit logs. The log is append-only;
// there is deliberately no update or delete.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.AuditLog, error)
	List(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
