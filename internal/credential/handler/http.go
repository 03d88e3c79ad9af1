// Package handler exposes the device credential endpoints: owner-facing
// mint/list/revoke/rename and the public verification endpoint devices call.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"access-portal/internal/audit"
	catalogrepo "access-portal/internal/catalog/repository"
	"access-portal/internal/credential/domain"
	"access-portal/internal/credential/service"
	"access-portal/internal/platform/httpx"
	"access-portal/internal/platform/rbac"
	"access-portal/internal/server/middleware"
	userdomain "access-portal/internal/user/domain"
)

// Handler serves the credential endpoints.
type Handler struct {
	credentials *service.Service
	users       service.UserRepo
	catalog     catalogrepo.Repository
	auditLog    audit.AuditLogger
}

// New returns a credential Handler.
func New(credentials *service.Service, users service.UserRepo, catalog catalogrepo.Repository, auditLog audit.AuditLogger) *Handler {
	return &Handler{credentials: credentials, users: users, catalog: catalog, auditLog: auditLog}
}

// Register mounts the authenticated credential routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/credentials", h.list)
	r.Post("/credentials", h.mint)
	r.Delete("/credentials/{id}", h.revoke)
	r.Patch("/credentials/{id}", h.rename)
}

// RegisterPublic mounts the unauthenticated device verification route on r.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/device/verify", h.verify)
}

type credentialResponse struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	TokenID    string     `json:"token_id"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastSeenIP string     `json:"last_seen_ip,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	Active     bool       `json:"active"`
}

func toCredentialResponse(c *domain.Credential) credentialResponse {
	return credentialResponse{
		ID:         c.ID,
		Label:      c.Label,
		TokenID:    c.TokenID,
		IssuedAt:   c.IssuedAt,
		ExpiresAt:  c.ExpiresAt,
		RevokedAt:  c.RevokedAt,
		LastSeenIP: c.LastSeenIP,
		LastSeenAt: c.LastSeenAt,
		Active:     c.IsActive(time.Now().UTC()),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := rbac.RequireUser(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}
	creds, err := h.credentials.ListByOwner(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list credentials")
		return
	}
	out := make([]credentialResponse, 0, len(creds))
	for _, c := range creds {
		out = append(out, toCredentialResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"credentials": out})
}

type mintRequest struct {
	Label            string `json:"label"`
	ExtendedLifetime bool   `json:"extended_lifetime"`
}

type mintResponse struct {
	// Token is the full signed device token. This response is the only place
	// it ever appears; it cannot be retrieved again.
	Token      string             `json:"token"`
	Credential credentialResponse `json:"credential"`
}

func (h *Handler) mint(w http.ResponseWriter, r *http.Request) {
	userID, err := rbac.RequireUser(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req mintRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil || user == nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to resolve account")
		return
	}
	// Extended lifetime is an admin capability.
	if req.ExtendedLifetime && user.Role != userdomain.RoleAdmin {
		httpx.WriteError(w, http.StatusForbidden, "extended lifetime requires admin role")
		return
	}
	services, err := h.catalog.ListGrantedCodes(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to resolve entitlements")
		return
	}

	token, cred, err := h.credentials.Mint(r.Context(), userID, string(user.Role), services, req.ExtendedLifetime, req.Label)
	if err != nil {
		if errors.Is(err, service.ErrOwnerNotFound) {
			httpx.WriteError(w, http.StatusForbidden, "account is not active")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "failed to mint credential")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogEvent(r.Context(), userID, "device_issued", "credential:"+cred.TokenID, cred.Label)
	}
	httpx.WriteJSON(w, http.StatusCreated, mintResponse{Token: token, Credential: toCredentialResponse(cred)})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	userID, err := rbac.RequireUser(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}
	cred, ok := h.ownedCredential(w, r, userID)
	if !ok {
		return
	}
	if err := h.credentials.Revoke(r.Context(), cred.ID); err != nil {
		if errors.Is(err, service.ErrCredentialNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "credential not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "failed to revoke credential")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogEvent(r.Context(), userID, "device_revoked", "credential:"+cred.TokenID, "")
	}
	w.WriteHeader(http.StatusNoContent)
}

type renameRequest struct {
	Label string `json:"label"`
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	userID, err := rbac.RequireUser(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req renameRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if req.Label == "" {
		httpx.WriteError(w, http.StatusBadRequest, "label is required")
		return
	}
	cred, ok := h.ownedCredential(w, r, userID)
	if !ok {
		return
	}
	if err := h.credentials.Rename(r.Context(), cred.ID, req.Label); err != nil {
		if errors.Is(err, service.ErrCredentialNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "credential not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "failed to rename credential")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedCredential loads the {id} credential and checks the caller owns it
// (admins may act on any). Writes the error response itself on failure.
func (h *Handler) ownedCredential(w http.ResponseWriter, r *http.Request, userID string) (*domain.Credential, bool) {
	id := chi.URLParam(r, "id")
	cred, err := h.credentials.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCredentialNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "credential not found")
			return nil, false
		}
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load credential")
		return nil, false
	}
	if cred.OwnerID != userID {
		role, _ := middleware.GetRole(r.Context())
		if role != string(userdomain.RoleAdmin) {
			// 404, not 403: do not confirm the credential exists.
			httpx.WriteError(w, http.StatusNotFound, "credential not found")
			return nil, false
		}
	}
	return cred, true
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Subject   string    `json:"sub"`
	Role      string    `json:"role"`
	Services  []string  `json:"services"`
	TokenID   string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
}

// verify is the endpoint downstream services and device agents call with a
// device token. Every rejection is the same 401; reasons live only in the
// audit trail.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	claims, err := h.credentials.Verify(r.Context(), req.Token, middleware.GetClientIP(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrCredentialRejected) {
			httpx.WriteError(w, http.StatusUnauthorized, "credential rejected")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "verification unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, verifyResponse{
		Subject:   claims.Subject,
		Role:      claims.Role,
		Services:  claims.Services,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
