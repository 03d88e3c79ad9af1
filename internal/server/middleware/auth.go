package middleware

import (
	"net/http"
	"strings"

	"access-portal/internal/platform/httpx"
	"access-portal/internal/security"
)

const bearerPrefix = "bearer "

// Auth returns middleware that validates the Bearer portal token and sets
// user_id and role in context. Requests without a valid token get a uniform
// 401; device credentials are not accepted here.
func Auth(tokens *security.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			userID, role, err := tokens.ParsePortal(token)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), userID, role)))
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
