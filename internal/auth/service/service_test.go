package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"access-portal/internal/security"
	"access-portal/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) List(ctx context.Context) ([]*domain.User, error) { return nil, nil }

func (r *memUserRepo) Create(ctx context.Context, u *domain.User) error { return nil }

func (r *memUserRepo) SetStatus(ctx context.Context, id string, status domain.UserStatus) error {
	return nil
}

func (r *memUserRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	return 0, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []string
}

func (a *recordingAudit) LogEvent(ctx context.Context, actorID, action, target, metadata string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, action+":"+metadata)
}

func newLoginFixture(t *testing.T) (*Service, *recordingAudit, *security.TokenProvider) {
	t.Helper()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte("correct horse"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	users := &memUserRepo{byEmail: map[string]*domain.User{
		"alice@example.com": {ID: "u1", Email: "alice@example.com", Role: domain.RoleUser,
			PasswordHash: hash, Status: domain.UserStatusActive},
		"gone@example.com": {ID: "u2", Email: "gone@example.com", Role: domain.RoleUser,
			PasswordHash: hash, Status: domain.UserStatusDisabled},
	}}
	tokens := security.NewTokenProvider([]byte("auth-service-test-secret"), time.Hour)
	aud := &recordingAudit{}
	return New(users, hasher, tokens, aud), aud, tokens
}

func TestLogin_IssuesPortalToken(t *testing.T) {
	svc, _, tokens := newLoginFixture(t)
	res, err := svc.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	userID, role, err := tokens.ParsePortal(res.Token)
	if err != nil {
		t.Fatalf("ParsePortal: %v", err)
	}
	if userID != "u1" || role != "user" {
		t.Errorf("claims = %q/%q", userID, role)
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Error("token should not be pre-expired")
	}
}

func TestLogin_RejectionsAreUniform(t *testing.T) {
	svc, aud, _ := newLoginFixture(t)
	ctx := context.Background()

	cases := []struct {
		name, email, password, reason string
	}{
		{"unknown account", "nobody@example.com", "whatever", "unknown account"},
		{"wrong password", "alice@example.com", "wrong", "wrong password"},
		{"disabled account", "gone@example.com", "correct horse", "account disabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrLoginFailed) {
				t.Fatalf("want ErrLoginFailed, got %v", err)
			}
		})
	}

	aud.mu.Lock()
	defer aud.mu.Unlock()
	for i, tc := range cases {
		want := "login_failed:" + tc.reason
		if aud.events[i] != want {
			t.Errorf("audit[%d] = %q, want %q", i, aud.events[i], want)
		}
	}
}

func TestLogin_PortalTokenNotValidAsDevice(t *testing.T) {
	svc, _, tokens := newLoginFixture(t)
	res, err := svc.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := tokens.ParseDevice(res.Token); err == nil {
		t.Error("portal token must not verify as a device credential")
	}
}
