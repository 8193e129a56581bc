// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kleptokart/kleptokart/pkg/cache"
	"github.com/kleptokart/kleptokart/pkg/ctx"
	"github.com/kleptokart/kleptokart/pkg/logger"
	"github.com/kleptokart/kleptokart/pkg/metrics"
	"github.com/kleptokart/kleptokart/pkg/response"
)

// RateLimit allows each client IP max requests per window. Counting happens
// in counter, so a Redis-backed counter shares the budget across replicas.
// A counter error lets the request through. max <= 0 disables the limiter.
//
//	r.Use(middleware.RateLimit(cache.NewMemoryCounter(), 200, time.Minute))
func RateLimit(counter cache.Counter, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n, err := counter.Incr(r.Context(), "rate:"+ctx.ClientIP(r), window)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if n > int64(max) {
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
