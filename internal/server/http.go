// Package server assembles the chi router: middleware chain, public routes,
// and the authenticated portal and admin APIs.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applicationhandler "access-portal/internal/application/handler"
	audithandler "access-portal/internal/audit/handler"
	authhandler "access-portal/internal/auth/handler"
	blocklisthandler "access-portal/internal/blocklist/handler"
	cataloghandler "access-portal/internal/catalog/handler"
	credentialhandler "access-portal/internal/credential/handler"
	healthhandler "access-portal/internal/health/handler"
	"access-portal/internal/security"
	"access-portal/internal/server/middleware"
	userhandler "access-portal/internal/user/handler"
)

// Deps holds the handlers and shared pieces the router mounts.
type Deps struct {
	Tokens *security.TokenProvider

	Auth        *authhandler.Handler
	Credentials *credentialhandler.Handler
	Application *applicationhandler.Handler
	Catalog     *cataloghandler.Handler
	Users       *userhandler.Handler
	Blocklist   *blocklisthandler.Handler
	Audit       *audithandler.Handler
	Health      *healthhandler.Handler

	// PrometheusRegisterer defaults to the global registerer when nil.
	PrometheusRegisterer prometheus.Registerer

	// RateLimitMax/RateLimitWindow bound login and intake requests per IP.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// NewRouter builds the full route tree.
//
// Layout:
//   - /healthz, /readyz, /metrics: unauthenticated operational endpoints
//   - /v1/auth/login, /v1/apply, /v1/services, /v1/device/verify: public API
//   - /v1/* (rest): Bearer portal token required; admin role checked per handler
func NewRouter(d Deps) http.Handler {
	reg := d.PrometheusRegisterer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	metrics := middleware.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Tracing)
	r.Use(metrics.Handler)
	r.Use(middleware.Logging)

	if d.Health != nil {
		d.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	limiter := middleware.NewRateLimiter(d.RateLimitMax, d.RateLimitWindow)

	r.Route("/v1", func(v1 chi.Router) {
		// Public, rate limited: login and application intake.
		v1.Group(func(pub chi.Router) {
			pub.Use(limiter.Handler)
			if d.Auth != nil {
				d.Auth.Register(pub)
			}
			if d.Application != nil {
				d.Application.RegisterPublic(pub)
			}
		})

		// Public, not rate limited: catalog listing and device verification.
		// Devices verify on every connection; throttling them would turn the
		// portal into an availability bottleneck for downstream services.
		if d.Catalog != nil {
			d.Catalog.RegisterPublic(v1)
		}
		if d.Credentials != nil {
			d.Credentials.RegisterPublic(v1)
		}

		// Authenticated portal and admin API.
		v1.Group(func(auth chi.Router) {
			auth.Use(middleware.Auth(d.Tokens))
			if d.Credentials != nil {
				d.Credentials.Register(auth)
			}
			if d.Application != nil {
				d.Application.RegisterAdmin(auth)
			}
			if d.Catalog != nil {
				d.Catalog.RegisterAdmin(auth)
			}
			if d.Users != nil {
				d.Users.RegisterAdmin(auth)
			}
			if d.Blocklist != nil {
				d.Blocklist.RegisterAdmin(auth)
			}
			if d.Audit != nil {
				d.Audit.RegisterAdmin(auth)
			}
		})
	})

	return r
}
