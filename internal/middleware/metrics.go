package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tableadmin/internal/observability"
)

// MetricsMiddleware records request counts and latency per chi route
// pattern, keeping label cardinality bounded.
func MetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			metrics.HTTPRequestsTotal.
				WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).
				Inc()
			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, route).
				Observe(time.Since(start).Seconds())
		})
	}
}
