package security

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "unit-test-signing-secret-not-for-production"

func newTestProvider() *TokenProvider {
	return NewTokenProvider([]byte(testSecret), 12*time.Hour)
}

func TestTokenProvider_IssueDevice(t *testing.T) {
	p := newTestProvider()
	token, jti, issuedAt, expiresAt, err := p.IssueDevice("42", "user", []string{"media", "nextcloud"}, 90*24*time.Hour)
	if err != nil {
		t.Fatalf("IssueDevice: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("token or jti empty")
	}
	if !expiresAt.After(issuedAt) {
		t.Fatal("expiresAt not after issuedAt")
	}
	wantExp := issuedAt.Add(90 * 24 * time.Hour)
	if !expiresAt.Equal(wantExp) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, wantExp)
	}

	claims, err := p.ParseDevice(token)
	if err != nil {
		t.Fatalf("ParseDevice: %v", err)
	}
	if claims.Subject != "42" || claims.Role != "user" {
		t.Errorf("claims: sub=%q role=%q", claims.Subject, claims.Role)
	}
	if claims.ID != jti {
		t.Errorf("claims jti = %q, want %q", claims.ID, jti)
	}
	if len(claims.Services) != 2 || claims.Services[0] != "media" || claims.Services[1] != "nextcloud" {
		t.Errorf("claims services = %v", claims.Services)
	}
	if claims.Scope != ScopeDevice {
		t.Errorf("claims scope = %q, want %q", claims.Scope, ScopeDevice)
	}
}

func TestTokenProvider_ParseDeviceMalformed(t *testing.T) {
	p := newTestProvider()
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := p.ParseDevice(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseDevice(%q): want ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestTokenProvider_ParseDeviceWrongSecret(t *testing.T) {
	p := newTestProvider()
	other := NewTokenProvider([]byte("a-different-secret-entirely"), 12*time.Hour)
	token, _, _, _, err := other.IssueDevice("42", "user", []string{"media"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueDevice: %v", err)
	}
	if _, err := p.ParseDevice(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParseDevice with wrong secret: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ParseDeviceExpired(t *testing.T) {
	p := newTestProvider()
	token, _, _, _, err := p.IssueDevice("42", "user", nil, -time.Minute)
	if err != nil {
		t.Fatalf("IssueDevice: %v", err)
	}
	if _, err := p.ParseDevice(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ParseDevice expired: want ErrTokenExpired, got %v", err)
	}
}

func TestTokenProvider_ScopeIsNotInterchangeable(t *testing.T) {
	p := newTestProvider()

	portal, _, err := p.IssuePortal("42", "user")
	if err != nil {
		t.Fatalf("IssuePortal: %v", err)
	}
	if _, err := p.ParseDevice(portal); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParseDevice(portal token): want ErrInvalidToken, got %v", err)
	}

	device, _, _, _, err := p.IssueDevice("42", "user", []string{"media"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueDevice: %v", err)
	}
	if _, _, err := p.ParsePortal(device); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParsePortal(device token): want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_IssuePortal(t *testing.T) {
	p := newTestProvider()
	token, expiresAt, err := p.IssuePortal("u1", "admin")
	if err != nil {
		t.Fatalf("IssuePortal: %v", err)
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("portal token expires in the past")
	}
	userID, role, err := p.ParsePortal(token)
	if err != nil {
		t.Fatalf("ParsePortal: %v", err)
	}
	if userID != "u1" || role != "admin" {
		t.Errorf("ParsePortal: got userID=%q role=%q", userID, role)
	}
}

func TestGenerateJTI_Unique(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		jti, err := generateJTI()
		if err != nil {
			t.Fatalf("generateJTI: %v", err)
		}
		if len(jti) != 32 {
			t.Fatalf("jti length = %d, want 32 (16 bytes hex)", len(jti))
		}
		if seen[jti] {
			t.Fatalf("jti collision after %d draws: %q", i, jti)
		}
		seen[jti] = true
	}
}
