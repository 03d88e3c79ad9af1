package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	catalogdomain "access-portal/internal/catalog/domain"
	"access-portal/internal/credential/domain"
	"access-portal/internal/credential/repository"
	"access-portal/internal/credential/service"
	"access-portal/internal/security"
	"access-portal/internal/server/middleware"
	userdomain "access-portal/internal/user/domain"
)

type memCredentialRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Credential
	byTokenID map[string]*domain.Credential
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{byID: map[string]*domain.Credential{}, byTokenID: map[string]*domain.Credential{}}
}

func (r *memCredentialRepo) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memCredentialRepo) GetByTokenID(ctx context.Context, tokenID string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byTokenID[tokenID], nil
}

func (r *memCredentialRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Credential
	for _, c := range r.byID {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCredentialRepo) Create(ctx context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byTokenID[c.TokenID]; exists {
		return repository.ErrDuplicateTokenID
	}
	c2 := *c
	r.byID[c.ID] = &c2
	r.byTokenID[c.TokenID] = &c2
	return nil
}

func (r *memCredentialRepo) Revoke(ctx context.Context, id string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.RevokedAt != nil {
		return 0, nil
	}
	c.RevokedAt = &at
	return 1, nil
}

func (r *memCredentialRepo) UpdateLastSeen(ctx context.Context, id, ip string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.LastSeenIP = ip
		c.LastSeenAt = &at
	}
	return nil
}

func (r *memCredentialRepo) Rename(ctx context.Context, id, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.Label = label
	}
	return nil
}

type memUserRepo struct {
	users map[string]*userdomain.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	return r.users[id], nil
}

type catalogRepo struct {
	grants map[string][]string
}

func (r *catalogRepo) ListServices(ctx context.Context) ([]*catalogdomain.Service, error) {
	return nil, nil
}

func (r *catalogRepo) GetService(ctx context.Context, code string) (*catalogdomain.Service, error) {
	return nil, nil
}

func (r *catalogRepo) CreateService(ctx context.Context, s *catalogdomain.Service) error { return nil }

func (r *catalogRepo) ListGrantedCodes(ctx context.Context, userID string) ([]string, error) {
	return r.grants[userID], nil
}

func (r *catalogRepo) Grant(ctx context.Context, g *catalogdomain.Grant) error { return nil }

func (r *catalogRepo) RevokeGrant(ctx context.Context, userID, serviceCode string) error { return nil }

func newRouter(t *testing.T) (*chi.Mux, *security.TokenProvider) {
	t.Helper()
	tokens := security.NewTokenProvider([]byte("credential-handler-test-secret"), time.Hour)
	users := &memUserRepo{users: map[string]*userdomain.User{
		"u1": {ID: "u1", Email: "a@example.com", Role: userdomain.RoleUser, Status: userdomain.UserStatusActive},
		"u2": {ID: "u2", Email: "b@example.com", Role: userdomain.RoleUser, Status: userdomain.UserStatusActive},
	}}
	svc := service.New(newMemCredentialRepo(), users, tokens, nil)
	h := New(svc, users, &catalogRepo{grants: map[string][]string{"u1": {"media", "minecraft"}}}, nil)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Group(func(pub chi.Router) {
		h.RegisterPublic(pub)
	})
	r.Group(func(auth chi.Router) {
		auth.Use(middleware.Auth(tokens))
		h.Register(auth)
	})
	return r, tokens
}

func doJSON(t *testing.T, r http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, tokens *security.TokenProvider, userID, role string) string {
	t.Helper()
	token, _, err := tokens.IssuePortal(userID, role)
	if err != nil {
		t.Fatalf("IssuePortal: %v", err)
	}
	return token
}

func TestMintAndVerifyOverHTTP(t *testing.T) {
	r, tokens := newRouter(t)
	portal := login(t, tokens, "u1", "user")

	rec := doJSON(t, r, http.MethodPost, "/credentials", portal, map[string]any{"label": "living room"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("mint status = %d, body %s", rec.Code, rec.Body.String())
	}
	var minted struct {
		Token      string `json:"token"`
		Credential struct {
			ID      string `json:"id"`
			Label   string `json:"label"`
			TokenID string `json:"token_id"`
			Active  bool   `json:"active"`
		} `json:"credential"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &minted); err != nil {
		t.Fatalf("decode mint response: %v", err)
	}
	if minted.Token == "" || minted.Credential.Label != "living room" || !minted.Credential.Active {
		t.Fatalf("mint response = %+v", minted)
	}

	rec = doJSON(t, r, http.MethodPost, "/device/verify", "", map[string]string{"token": minted.Token})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rec.Code, rec.Body.String())
	}
	var claims struct {
		Subject  string   `json:"sub"`
		Services []string `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &claims); err != nil {
		t.Fatalf("decode verify response: %v", err)
	}
	if claims.Subject != "u1" || len(claims.Services) != 2 {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyRejectionIsUniform401(t *testing.T) {
	r, tokens := newRouter(t)
	portal := login(t, tokens, "u1", "user")

	for _, token := range []string{"garbage", portal} {
		rec := doJSON(t, r, http.MethodPost, "/device/verify", "", map[string]string{"token": token})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("verify(%q) status = %d, want 401", token[:7], rec.Code)
		}
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Error != "credential rejected" {
			t.Errorf("verify(%q) error = %q, want uniform message", token[:7], body.Error)
		}
	}
}

func TestRevokeOverHTTP(t *testing.T) {
	r, tokens := newRouter(t)
	portal := login(t, tokens, "u1", "user")

	rec := doJSON(t, r, http.MethodPost, "/credentials", portal, map[string]any{"label": "old phone"})
	var minted struct {
		Token      string `json:"token"`
		Credential struct {
			ID string `json:"id"`
		} `json:"credential"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &minted); err != nil {
		t.Fatalf("decode mint response: %v", err)
	}

	if rec := doJSON(t, r, http.MethodDelete, "/credentials/"+minted.Credential.ID, portal, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("revoke status = %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/device/verify", "", map[string]string{"token": minted.Token}); rec.Code != http.StatusUnauthorized {
		t.Errorf("verify after revoke status = %d, want 401", rec.Code)
	}
	// Revoking twice stays 204.
	if rec := doJSON(t, r, http.MethodDelete, "/credentials/"+minted.Credential.ID, portal, nil); rec.Code != http.StatusNoContent {
		t.Errorf("second revoke status = %d", rec.Code)
	}
}

func TestCredentialOwnershipHiddenFromOthers(t *testing.T) {
	r, tokens := newRouter(t)
	owner := login(t, tokens, "u1", "user")
	other := login(t, tokens, "u2", "user")

	rec := doJSON(t, r, http.MethodPost, "/credentials", owner, map[string]any{"label": "mine"})
	var minted struct {
		Credential struct {
			ID string `json:"id"`
		} `json:"credential"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &minted); err != nil {
		t.Fatalf("decode mint response: %v", err)
	}

	if rec := doJSON(t, r, http.MethodDelete, "/credentials/"+minted.Credential.ID, other, nil); rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner revoke status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, "/credentials", other, nil); rec.Code != http.StatusOK {
		t.Errorf("list status = %d", rec.Code)
	}
}

func TestCredentialRoutesRequireAuth(t *testing.T) {
	r, _ := newRouter(t)
	if rec := doJSON(t, r, http.MethodGet, "/credentials", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list status = %d, want 401", rec.Code)
	}
}
