package rbac

import (
	"context"
	"errors"
	"testing"

	"access-portal/internal/server/middleware"
)

func TestRequireUser(t *testing.T) {
	ctx := middleware.WithIdentity(context.Background(), "user-1", "user")
	userID, err := RequireUser(ctx)
	if err != nil {
		t.Fatalf("RequireUser: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("user_id = %q", userID)
	}
}

func TestRequireUser_Unauthenticated(t *testing.T) {
	if _, err := RequireUser(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("want ErrUnauthenticated, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	ctx := middleware.WithIdentity(context.Background(), "admin-1", "admin")
	userID, err := RequireAdmin(ctx)
	if err != nil {
		t.Fatalf("RequireAdmin: %v", err)
	}
	if userID != "admin-1" {
		t.Errorf("user_id = %q", userID)
	}
}

func TestRequireAdmin_ForbiddenForUserRole(t *testing.T) {
	ctx := middleware.WithIdentity(context.Background(), "user-1", "user")
	if _, err := RequireAdmin(ctx); !errors.Is(err, ErrForbidden) {
		t.Errorf("want ErrForbidden, got %v", err)
	}
}

func TestRequireAdmin_Unauthenticated(t *testing.T) {
	if _, err := RequireAdmin(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("want ErrUnauthenticated, got %v", err)
	}
}
