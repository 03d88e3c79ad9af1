package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, has a bad
	// signature, or carries the wrong scope.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a structurally valid, correctly
	// signed token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
)

// Token scope markers. Both token classes are signed with the same secret;
// the scope claim is what keeps them from being interchangeable.
const (
	ScopeDevice = "device"
	ScopePortal = "portal"
)

// DeviceClaims holds JWT claims for a device credential token.
type DeviceClaims struct {
	jwt.RegisteredClaims
	Role     string   `json:"role"`
	Services []string `json:"services"`
	Scope    string   `json:"scope"`
}

// PortalClaims holds JWT claims for a short-lived portal login token.
type PortalClaims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Scope string `json:"scope"`
}

// TokenProvider issues and validates HS256 tokens using a single
// process-wide symmetric secret. Rotating the secret invalidates every
// outstanding token; there is no rotation protocol.
type TokenProvider struct {
	secret    []byte
	portalTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given secret.
// portalTTL is the lifetime of portal login tokens.
func NewTokenProvider(secret []byte, portalTTL time.Duration) *TokenProvider {
	return &TokenProvider{secret: secret, portalTTL: portalTTL}
}

// IssueDevice issues a device credential token for the given owner with the
// given role and ordered service entitlements. ttl is chosen by the caller
// (standard or extended window). Returns the token string, its jti, and the
// issued-at and expiry times embedded in the claims.
func (p *TokenProvider) IssueDevice(ownerID, role string, services []string, ttl time.Duration) (token, jti string, issuedAt, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, time.Time{}, err
	}
	issuedAt = time.Now().UTC()
	expiresAt = issuedAt.Add(ttl)
	claims := DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:     role,
		Services: services,
		Scope:    ScopeDevice,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	return token, jti, issuedAt, expiresAt, err
}

// IssuePortal issues a short-lived portal login token for the given user.
// Portal tokens carry scope "portal" and are rejected by the device verifier.
func (p *TokenProvider) IssuePortal(userID, role string) (token string, expiresAt time.Time, err error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.portalTTL)
	claims := PortalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:  role,
		Scope: ScopePortal,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	return token, expiresAt, err
}

// ParseDevice parses and validates a device credential token: HS256 signature,
// structure, exp claim, and scope "device". Returns the claims or ErrInvalidToken.
// Callers must still check the credential store; a valid signature alone does
// not make a token acceptable.
func (p *TokenProvider) ParseDevice(tokenString string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, p.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Scope != ScopeDevice {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParsePortal parses and validates a portal login token (signature, exp,
// scope "portal"). Returns userID and role, or ErrInvalidToken.
func (p *TokenProvider) ParsePortal(tokenString string) (userID, role string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &PortalClaims{}, p.keyFunc)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*PortalClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}
	if claims.Scope != ScopePortal {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Role, nil
}

func (p *TokenProvider) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return p.secret, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
