// Package handler exposes the portal login endpoint.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"access-portal/internal/auth/service"
	"access-portal/internal/platform/httpx"
)

// Handler serves authentication routes.
type Handler struct {
	auth *service.Service
}

// New returns an auth Handler.
func New(auth *service.Service) *Handler {
	return &Handler{auth: auth}
}

// Register mounts the public auth routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.login)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginFailed) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "login unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		UserID:    res.User.ID,
		Role:      string(res.User.Role),
	})
}
