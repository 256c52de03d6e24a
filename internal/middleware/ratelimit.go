// internal/middleware/ratelimit.go
package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	httpserver "studiodesk/internal/http"
)

// Limiter is satisfied by ratelimit.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// RateLimit applies a fixed window per client IP and route. The limiter
// failing open is deliberate: Redis being down should not lock everyone out.
func RateLimit(rl Limiter, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ip, _, err := net.SplitHostPort(req.RemoteAddr)
			if err != nil {
				ip = req.RemoteAddr
			}
			ok, _, err := rl.Allow(req.Context(), ip+":"+req.URL.Path, limit, window)
			if err == nil && !ok {
				httpserver.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
