// Package service implements portal login. Login exchanges email and
// password for a short-lived portal token; device credentials are issued
// separately by the credential service.
package service

import (
	"context"
	"errors"
	"time"

	"access-portal/internal/audit"
	"access-portal/internal/security"
	"access-portal/internal/user/domain"
	userrepo "access-portal/internal/user/repository"
)

// ErrLoginFailed is returned for every login rejection. Callers must not
// distinguish unknown accounts from wrong passwords or disabled accounts.
var ErrLoginFailed = errors.New("login failed")

// Service authenticates portal accounts.
type Service struct {
	users    userrepo.Repository
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	auditLog audit.AuditLogger
}

// New returns an auth Service.
func New(users userrepo.Repository, hasher *security.Hasher, tokens *security.TokenProvider, auditLog audit.AuditLogger) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens, auditLog: auditLog}
}

// LoginResult carries the issued portal token and the authenticated account.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login verifies the password and issues a portal token. All failures map
// to ErrLoginFailed; the distinct reason goes to the audit trail only.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.auditReject(ctx, "", email, "unknown account")
		return nil, ErrLoginFailed
	}
	if user.Status != domain.UserStatusActive {
		s.auditReject(ctx, user.ID, email, "account disabled")
		return nil, ErrLoginFailed
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.auditReject(ctx, user.ID, email, "wrong password")
		return nil, ErrLoginFailed
	}

	token, expiresAt, err := s.tokens.IssuePortal(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	if s.auditLog != nil {
		s.auditLog.LogEvent(ctx, user.ID, "login_succeeded", "user:"+user.ID, "")
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) auditReject(ctx context.Context, actorID, email, reason string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogEvent(ctx, actorID, "login_failed", "email:"+email, reason)
}
