// Package rbac resolves the caller's identity and role from request context.
package rbac

import (
	"context"
	"errors"

	"access-portal/internal/server/middleware"
	"access-portal/internal/user/domain"
)

var (
	// ErrUnauthenticated means no authenticated identity is in context.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller's role does not allow the operation.
	ErrForbidden = errors.New("admin role required")
)

// RequireUser ensures the caller is authenticated. Returns the user id.
func RequireUser(ctx context.Context) (userID string, err error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok || userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// RequireAdmin ensures the caller is authenticated and carries the admin
// role. Returns the user id.
func RequireAdmin(ctx context.Context) (userID string, err error) {
	userID, err = RequireUser(ctx)
	if err != nil {
		return "", err
	}
	role, _ := middleware.GetRole(ctx)
	if role != string(domain.RoleAdmin) {
		return "", ErrForbidden
	}
	return userID, nil
}
