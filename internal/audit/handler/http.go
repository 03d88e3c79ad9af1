// Package handler exposes the admin audit trail listing.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"access-portal/internal/audit/repository"
	"access-portal/internal/platform/httpx"
	"access-portal/internal/platform/rbac"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handler serves the audit trail routes.
type Handler struct {
	repo repository.Repository
}

// New returns an audit Handler.
func New(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterAdmin mounts the audit routes on r. The router must already
// enforce authentication; admin role is checked per request.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/audit-logs", h.list)
}

type logResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := rbac.RequireAdmin(r.Context()); err != nil {
		if err == rbac.ErrForbidden {
			httpx.WriteError(w, http.StatusForbidden, err.Error())
			return
		}
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}
	limit := queryInt(r, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	logs, err := h.repo.List(r.Context(), int32(limit), int32(offset))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list audit logs")
		return
	}
	out := make([]logResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, logResponse{
			ID: l.ID, ActorID: l.ActorID, Action: l.Action, Target: l.Target,
			IP: l.IP, Metadata: l.Metadata, CreatedAt: l.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"audit_logs": out})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
