package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"access-portal/internal/platform/httpx"
)

// RateLimiter is a fixed-window in-process limiter keyed by client IP.
// Window counters live in a go-cache store and expire on their own.
type RateLimiter struct {
	mu     sync.Mutex
	store  *gocache.Cache
	max    int
	window time.Duration
}

// NewRateLimiter returns a limiter allowing max requests per window per key.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  gocache.New(window, 2*window),
		max:    max,
		window: window,
	}
}

// Allow records a hit for key and reports whether it stays within the window
// budget, plus the hits remaining in the current window.
func (l *RateLimiter) Allow(key string) (allowed bool, remaining int) {
	winStart := time.Now().UTC().Truncate(l.window)
	cacheKey := fmt.Sprintf("%s:%d", key, winStart.Unix())

	l.mu.Lock()
	defer l.mu.Unlock()
	hits := 1
	if v, ok := l.store.Get(cacheKey); ok {
		hits = v.(int) + 1
	}
	l.store.Set(cacheKey, hits, l.window)

	remaining = l.max - hits
	if remaining < 0 {
		remaining = 0
	}
	return hits <= l.max, remaining
}

// Handler limits requests by client IP, answering 429 when the window budget
// is spent. Apply it to abuse-prone endpoints (login, public intake) rather
// than the whole router.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining := l.Allow(GetClientIP(r.Context()))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			httpx.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
