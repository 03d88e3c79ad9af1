// Package handler exposes the access application endpoints: the public
// intake form and the admin review queue.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"access-portal/internal/application/domain"
	"access-portal/internal/application/service"
	"access-portal/internal/platform/httpx"
	"access-portal/internal/platform/rbac"
	"access-portal/internal/server/middleware"
)

// Handler serves application intake and review routes.
type Handler struct {
	apps *service.Service
}

// New returns an application Handler.
func New(apps *service.Service) *Handler {
	return &Handler{apps: apps}
}

// RegisterPublic mounts the unauthenticated intake route on r.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/apply", h.submit)
}

// RegisterAdmin mounts the review routes on r. The router must already
// enforce authentication; admin role is checked per request.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/applications", h.list)
	r.Post("/applications/{id}/approve", h.approve)
	r.Post("/applications/{id}/deny", h.deny)
}

type submitRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Services []string `json:"services"`
}

type applicationResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Services  []string   `json:"services"`
	Status    string     `json:"status"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	DecidedBy string     `json:"decided_by,omitempty"`
}

func toApplicationResponse(a *domain.Application) applicationResponse {
	return applicationResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Services:  a.Services,
		Status:    string(a.Status),
		Note:      a.Note,
		CreatedAt: a.CreatedAt,
		DecidedAt: a.DecidedAt,
		DecidedBy: a.DecidedBy,
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	app, err := h.apps.Submit(r.Context(), req.Name, req.Email, req.Services, middleware.GetClientIP(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrApplicationRejected):
			httpx.WriteError(w, http.StatusForbidden, "application rejected")
		case errors.Is(err, service.ErrInvalidApplication), errors.Is(err, service.ErrNoServicesRequested):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "failed to submit application")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := rbac.RequireAdmin(r.Context()); err != nil {
		writeRBACError(w, err)
		return
	}
	status := domain.Status(r.URL.Query().Get("status"))
	apps, err := h.apps.List(r.Context(), status)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list applications")
		return
	}
	out := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"applications": out})
}

type approveResponse struct {
	Application applicationResponse `json:"application"`
	UserID      string              `json:"user_id"`
	// InitialPassword is present only when the approval created the account.
	// It is shown exactly once.
	InitialPassword string `json:"initial_password,omitempty"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	adminID, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		writeRBACError(w, err)
		return
	}
	res, err := h.apps.Approve(r.Context(), chi.URLParam(r, "id"), adminID)
	if err != nil {
		writeDecisionError(w, err, "failed to approve application")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, approveResponse{
		Application:     toApplicationResponse(res.Application),
		UserID:          res.User.ID,
		InitialPassword: res.InitialPassword,
	})
}

type denyRequest struct {
	Note string `json:"note"`
}

func (h *Handler) deny(w http.ResponseWriter, r *http.Request) {
	adminID, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		writeRBACError(w, err)
		return
	}
	var req denyRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if err := h.apps.Deny(r.Context(), chi.URLParam(r, "id"), adminID, req.Note); err != nil {
		writeDecisionError(w, err, "failed to deny application")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeDecisionError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		httpx.WriteError(w, http.StatusNotFound, "application not found")
	case errors.Is(err, service.ErrApplicationDecided):
		httpx.WriteError(w, http.StatusConflict, "application already decided")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, fallback)
	}
}

func writeRBACError(w http.ResponseWriter, err error) {
	if errors.Is(err, rbac.ErrForbidden) {
		httpx.WriteError(w, http.StatusForbidden, err.Error())
		return
	}
	httpx.WriteError(w, http.StatusUnauthorized, err.Error())
}
