// Package service implements the device-credential core: minting signed
// tokens, verifying presented tokens against the credential store, and
// revocation. Authorization policy (who may mint, who may revoke) lives with
// the callers; this package enforces only the credential invariants.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"access-portal/internal/audit"
	"access-portal/internal/credential/domain"
	"access-portal/internal/credential/repository"
	"access-portal/internal/security"
	userdomain "access-portal/internal/user/domain"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	// ErrCredentialRejected is the single opaque outcome for every
	// verification failure. The reason is recorded in the audit trail and
	// never surfaced to the token presenter.
	ErrCredentialRejected = errors.New("credential rejected")
	// ErrCredentialNotFound is returned by Revoke and Rename for an unknown id.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrOwnerNotFound is returned by Mint when the owner does not exist or
	// is not active.
	ErrOwnerNotFound = errors.New("owner not found")
)

// Token lifetime windows. The extended window is a capability the caller must
// gate by role; Mint accepts the flag uncritically (documented trust boundary).
const (
	StandardWindow = 90 * 24 * time.Hour
	ExtendedWindow = 365 * 24 * time.Hour
)

// mintRetries bounds the jti-collision retry loop. With 128 bits of entropy a
// second collision in a row is not a realistic event; the bound exists so a
// broken random source fails loudly instead of spinning.
const mintRetries = 3

// UserRepo is the minimal user repository needed by the credential service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Service mints, verifies, and revokes device credentials.
type Service struct {
	repo     repository.Repository
	userRepo UserRepo
	tokens   *security.TokenProvider
	auditLog audit.AuditLogger
}

// New returns a credential Service. auditLog may be nil; then rejection
// reasons are not recorded.
func New(repo repository.Repository, userRepo UserRepo, tokens *security.TokenProvider, auditLog audit.AuditLogger) *Service {
	return &Service{repo: repo, userRepo: userRepo, tokens: tokens, auditLog: auditLog}
}

// Mint issues a signed device token for ownerID with the given role and
// ordered service entitlements, and registers the credential. The raw token
// is returned exactly once; only its digest is stored. extendedLifetime
// selects the 365-day window over the 90-day default; restricting that to
// privileged roles is the caller's responsibility.
//
// The insert is a single atomic write. If it fails, no token leaves this
// function: an unpersisted mint would be unconditionally unverifiable.
func (s *Service) Mint(ctx context.Context, ownerID, role string, services []string, extendedLifetime bool, label string) (string, *domain.Credential, error) {
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return "", nil, err
	}
	if owner == nil || owner.Status != userdomain.UserStatusActive {
		return "", nil, ErrOwnerNotFound
	}

	window := StandardWindow
	if extendedLifetime {
		window = ExtendedWindow
	}
	if label == "" {
		label = "device"
	}

	var lastErr error
	for attempt := 0; attempt < mintRetries; attempt++ {
		token, jti, issuedAt, expiresAt, err := s.tokens.IssueDevice(ownerID, role, services, window)
		if err != nil {
			return "", nil, err
		}
		cred := &domain.Credential{
			ID:          uuid.New().String(),
			OwnerID:     ownerID,
			Label:       label,
			TokenID:     jti,
			TokenDigest: security.HashToken(token),
			IssuedAt:    issuedAt,
			ExpiresAt:   &expiresAt,
		}
		err = s.repo.Create(ctx, cred)
		if err == nil {
			return token, cred, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTokenID) {
			return "", nil, err
		}
		// jti collision: the minted token is discarded and a fresh
		// identifier is generated. The existing row is never overwritten.
		lastErr = err
	}
	return "", nil, fmt.Errorf("mint: %w", lastErr)
}

// Verify validates a presented device token end to end: signature and
// structure, scope, signed expiry, registered jti, stored digest, and the
// authoritative stored revocation/expiry state. remoteIP is recorded
// best-effort as last-seen metadata; a failure to record it never fails the
// verification.
//
// Every failure collapses to ErrCredentialRejected. The distinct reason is
// written to the audit trail only.
func (s *Service) Verify(ctx context.Context, tokenString, remoteIP string) (*security.DeviceClaims, error) {
	claims, err := s.tokens.ParseDevice(tokenString)
	if err != nil {
		// Signature, structure, scope, and the signed exp claim all fail
		// here. No store round-trip for unauthenticated garbage.
		reason := "invalid signature/structure"
		if errors.Is(err, security.ErrTokenExpired) {
			reason = "expired"
		}
		s.auditReject(ctx, "", reason)
		return nil, ErrCredentialRejected
	}

	cred, err := s.repo.GetByTokenID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		// Valid signature but no registered jti: replay of a pre-rotation
		// or purged token. Worth flagging.
		s.auditReject(ctx, claims.ID, "unknown credential")
		return nil, ErrCredentialRejected
	}
	if !security.TokenHashEqual(tokenString, cred.TokenDigest) {
		// Signature checks out but the digest does not: a second token was
		// signed under this jti. Possible key compromise.
		s.auditReject(ctx, claims.ID, "token substitution")
		return nil, ErrCredentialRejected
	}
	now := time.Now().UTC()
	if !cred.IsActive(now) {
		// Stored state is authoritative over the signed exp claim, so
		// revocation and expiry take effect without re-signing anything.
		reason := "expired"
		if cred.RevokedAt != nil {
			reason = "revoked"
		}
		s.auditReject(ctx, claims.ID, reason)
		return nil, ErrCredentialRejected
	}

	if err := s.repo.UpdateLastSeen(ctx, cred.ID, remoteIP, now); err != nil {
		// Best-effort only; the authorization decision is already made.
		_ = err
	}
	return claims, nil
}

// Revoke marks the credential inactive. Idempotent: revoking an already
// revoked credential succeeds without changing revoked_at. Returns
// ErrCredentialNotFound for an unknown id. Owner/admin authorization and the
// audit record are the caller's responsibility.
func (s *Service) Revoke(ctx context.Context, credentialID string) error {
	cred, err := s.repo.GetByID(ctx, credentialID)
	if err != nil {
		return err
	}
	if cred == nil {
		return ErrCredentialNotFound
	}
	if cred.RevokedAt != nil {
		return nil
	}
	_, err = s.repo.Revoke(ctx, credentialID, time.Now().UTC())
	return err
}

// Get returns the credential for id, or ErrCredentialNotFound.
func (s *Service) Get(ctx context.Context, credentialID string) (*domain.Credential, error) {
	cred, err := s.repo.GetByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrCredentialNotFound
	}
	return cred, nil
}

// ListByOwner returns all of an owner's credentials, including revoked ones.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Credential, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Rename updates a credential's owner-facing label.
func (s *Service) Rename(ctx context.Context, credentialID, label string) error {
	cred, err := s.repo.GetByID(ctx, credentialID)
	if err != nil {
		return err
	}
	if cred == nil {
		return ErrCredentialNotFound
	}
	return s.repo.Rename(ctx, credentialID, label)
}

func (s *Service) auditReject(ctx context.Context, tokenID, reason string) {
	if s.auditLog == nil {
		return
	}
	target := "credential"
	if tokenID != "" {
		target = "credential:" + tokenID
	}
	s.auditLog.LogEvent(ctx, "", "device_verify_failed", target, reason)
}
