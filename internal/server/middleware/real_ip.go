package middleware

import (
	"net"
	"net/http"
	"strings"
)

// RealIP resolves the client IP from X-Forwarded-For or X-Real-IP, falling
// back to the connection's remote address, and stores it in context.
// Trusting these headers assumes the service sits behind a proxy that sets
// them; do not expose the listener directly otherwise.
func RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), clientIP(r))))
	})
}

func clientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		// first hop is the original client
		if i := strings.Index(v, ","); i > 0 {
			v = v[:i]
		}
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		return v
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
