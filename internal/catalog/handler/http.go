// Package handler exposes the service catalog: a public listing for the
// application form and admin management of services and grants.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"access-portal/internal/audit"
	"access-portal/internal/catalog/domain"
	"access-portal/internal/catalog/repository"
	"access-portal/internal/platform/httpx"
	"access-portal/internal/platform/rbac"
)

// Handler serves catalog routes.
type Handler struct {
	repo     repository.Repository
	auditLog audit.AuditLogger
}

// New returns a catalog Handler.
func New(repo repository.Repository, auditLog audit.AuditLogger) *Handler {
	return &Handler{repo: repo, auditLog: auditLog}
}

// RegisterPublic mounts the service listing on r.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/services", h.listServices)
}

// RegisterAdmin mounts catalog management on r. The router must already
// enforce authentication; admin role is checked per request.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/services", h.createService)
	r.Post("/users/{id}/grants", h.grant)
	r.Delete("/users/{id}/grants/{code}", h.revokeGrant)
}

type serviceResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.ListServices(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, serviceResponse{Code: s.Code, Name: s.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": out})
}

type createServiceRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	adminID, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		writeRBACError(w, err)
		return
	}
	var req createServiceRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	req.Code = strings.ToLower(strings.TrimSpace(req.Code))
	if req.Code == "" || req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "code and name are required")
		return
	}
	svc := &domain.Service{Code: req.Code, Name: req.Name, CreatedAt: time.Now().UTC()}
	if err := h.repo.CreateService(r.Context(), svc); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create service")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogEvent(r.Context(), adminID, "service_created", "service:"+svc.Code, svc.Name)
	}
	httpx.WriteJSON(w, http.StatusCreated, serviceResponse{Code: svc.Code, Name: svc.Name})
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	adminID, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		writeRBACError(w, err)
		return
	}
	var req createServiceRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "code is required")
		return
	}
	svc, err := h.repo.GetService(r.Context(), code)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to resolve service")
		return
	}
	if svc == nil {
		httpx.WriteError(w, http.StatusNotFound, "unknown service")
		return
	}
	userID := chi.URLParam(r, "id")
	g := &domain.Grant{ID: uuid.New().String(), UserID: userID, ServiceCode: code, CreatedAt: time.Now().UTC()}
	if err := h.repo.Grant(r.Context(), g); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to grant service")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogEvent(r.Context(), adminID, "grant_added", "user:"+userID, code)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeGrant(w http.ResponseWriter, r *http.Request) {
	adminID, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		writeRBACError(w, err)
		return
	}
	userID := chi.URLParam(r, "id")
	code := chi.URLParam(r, "code")
	if err := h.repo.RevokeGrant(r.Context(), userID, code); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to revoke grant")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogEvent(r.Context(), adminID, "grant_removed", "user:"+userID, code)
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
