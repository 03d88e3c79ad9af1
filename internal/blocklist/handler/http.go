// Package handler exposes the admin IP blocklist endpoints.
package handler

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"access-portal/internal/audit"
	"access-portal/internal/blocklist/domain"
	"access-portal/internal/blocklist/repository"
	"access-portal/internal/platform/httpx"
	"access-portal/internal/platform/rbac"
)

// Handler serves blocklist administration routes.
type Handler struct {
	repo     repository.Repository
	auditLog audit.AuditLogger
}

// New returns a blocklist Handler.
func New(repo repository.Repository, auditLog audit.AuditLogger) *Handler {
	return &Handler{repo: repo, auditLog: auditLog}
}

// RegisterAdmin mounts the blocklist routes on r. The router must already
// enforce authentication; admin role is checked per request.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/blocklist", h.list)
	r.Post("/blocklist", h.create)
	r.Delete("/blocklist/{id}", h.deactivate)
}

type entryResponse struct {
	ID        string    `json:"id"`
	IP        string    `json:"ip"`
	Reason    string    `json:"reason,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := rbac.RequireAdmin(r.Context()); err != nil {
		writeRBACError(w, err)
		return
	}
	entries, err := h.repo.List(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list blocklist")
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{ID: e.ID, IP: e.IP, Reason: e.Reason, Active: e.Active, CreatedAt: e.CreatedAt})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"blocklist": out})
}

type createRequest struct {
	IP     string `json:"ip"`
	Reason string `json:"reason"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	adminID, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		writeRBACError(w, err)
		return
	}
	var req createRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if net.ParseIP(req.IP) == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid ip address")
		return
	}
	entry := &domain.Entry{
		ID:        uuid.New().String(),
		IP:        req.IP,
		Reason:    req.Reason,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.repo.Create(r.Context(), entry); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create blocklist entry")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogEvent(r.Context(), adminID, "blocklist_added", "ip:"+entry.IP, entry.Reason)
	}
	httpx.WriteJSON(w, http.StatusCreated, entryResponse{
		ID: entry.ID, IP: entry.IP, Reason: entry.Reason, Active: entry.Active, CreatedAt: entry.CreatedAt,
	})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	adminID, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		writeRBACError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.repo.Deactivate(r.Context(), id); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to deactivate blocklist entry")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogEvent(r.Context(), adminID, "blocklist_removed", "blocklist:"+id, "")
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
