// Package middleware throttles unauthenticated endpoints by client IP.
// It exists to slow credential stuffing on login and signup; authenticated
// routes are already gated by session validation.
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medichain/internal/ratelimit/models"
	"medichain/pkg/platform/httputil"
)

// Store decides whether an attempt under a key is within the limit.
type Store interface {
	Allow(ctx context.Context, key string, limit int, span time.Duration) (*models.Result, error)
}

// Limit builds a middleware allowing limit requests per span per client IP.
// Store failures fail open: availability over strictness for a throttle.
func Limit(store Store, limit int, span time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)

			result, err := store.Allow(ctx, ip, limit, span)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := result.RetryAfter(time.Now())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
					Error:      "rate_limit_exceeded",
					Message:    "Too many requests from this IP address. Please try again later.",
					RetryAfter: retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers proxy headers so limits key on the original client, not
// the load balancer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
