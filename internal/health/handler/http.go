// Package handler serves liveness and readiness probes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"access-portal/internal/platform/httpx"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker reports whether the intake policy compiles and evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler serves the health routes.
type Handler struct {
	db     Pinger
	policy PolicyChecker
}

// New returns a health Handler. Either dependency may be nil and is then
// skipped in readiness.
func New(db Pinger, policy PolicyChecker) *Handler {
	return &Handler{db: db, policy: policy}
}

// Register mounts the health routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.live)
	r.Get("/readyz", h.ready)
}

func (h *Handler) live(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready checks the database and the intake policy engine. Probe failures
// answer 503 so the load balancer stops routing, but the process stays up.
func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = "unreachable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.policy != nil {
		if err := h.policy.HealthCheck(ctx); err != nil {
			checks["intake_policy"] = "failing"
			healthy = false
		} else {
			checks["intake_policy"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, status, map[string]any{"checks": checks})
}
