package domain

import "time"

// Credential is one issued device token: a durable row per mint, retained
// forever for audit. The raw token is never stored; TokenID (the jti claim)
// is the verification lookup key and TokenDigest detects substitution.
type Credential struct {
	ID          string
	OwnerID     string
	Label       string // mutable by owner
	TokenID     string // jti; globally unique, immutable
	TokenDigest string // SHA-256 hex of the full signed token; set once at mint
	IssuedAt    time.Time
	ExpiresAt   *time.Time // nil means no expiry
	RevokedAt   *time.Time // set at most once, never cleared
	LastSeenIP  string
	LastSeenAt  *time.Time
}

// IsActive reports whether the credential is usable at the given instant:
// not revoked and not past its stored expiry. Pure function of the stored
// fields; never cached.
func (c *Credential) IsActive(now time.Time) bool {
	if c.RevokedAt != nil {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}
