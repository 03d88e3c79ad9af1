package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestID propagates an incoming X-Request-ID or assigns a fresh one, sets
// it on the response, and stores it in context for logging and error bodies.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" || len(rid) > 128 {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), rid)))
	})
}
