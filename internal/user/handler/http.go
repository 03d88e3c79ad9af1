// Package handler exposes admin account management.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"access-portal/internal/audit"
	"access-portal/internal/platform/httpx"
	"access-portal/internal/platform/rbac"
	"access-portal/internal/user/domain"
	"access-portal/internal/user/repository"
)

// Handler serves account administration routes.
type Handler struct {
	repo     repository.Repository
	auditLog audit.AuditLogger
}

// New returns a user Handler.
func New(repo repository.Repository, auditLog audit.AuditLogger) *Handler {
	return &Handler{repo: repo, auditLog: auditLog}
}

// RegisterAdmin mounts the account routes on r. The router must already
// enforce authentication; admin role is checked per request.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/users", h.list)
	r.Post("/users/{id}/status", h.setStatus)
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := rbac.RequireAdmin(r.Context()); err != nil {
		writeRBACError(w, err)
		return
	}
	users, err := h.repo.List(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID: u.ID, Email: u.Email, Name: u.Name,
			Role: string(u.Role), Status: string(u.Status), CreatedAt: u.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": out})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// setStatus enables or disables an account. Disabling does not touch issued
// device credentials directly; minting checks the owner's status and admins
// revoke outstanding credentials separately.
func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	adminID, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		writeRBACError(w, err)
		return
	}
	var req setStatusRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	status := domain.UserStatus(req.Status)
	if status != domain.UserStatusActive && status != domain.UserStatusDisabled {
		httpx.WriteError(w, http.StatusBadRequest, "status must be active or disabled")
		return
	}
	id := chi.URLParam(r, "id")
	if id == adminID && status == domain.UserStatusDisabled {
		httpx.WriteError(w, http.StatusBadRequest, "cannot disable own account")
		return
	}
	user, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		httpx.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	if err := h.repo.SetStatus(r.Context(), id, status); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogEvent(r.Context(), adminID, "user_status_changed", "user:"+id, string(status))
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRBACError(w http.ResponseWriter, err error) {
	if err == rbac.ErrForbidden {
		httpx.WriteError(w, http.StatusForbidden, err.Error())
		return
	}
	httpx.WriteError(w, http.StatusUnauthorized, err.Error())
}
