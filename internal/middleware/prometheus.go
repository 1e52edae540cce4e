package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/hci-lending/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Prometheus records request duration and count for each request, labelled with the chi route
// pattern when one matched so /loans/7/return and /loans/8/return share a series.
// Wrap the handler chain with this after recovery and request ID.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		statusW := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(statusW, r)
		if r.URL.Path == "/metrics" {
			return
		}
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		if path == "" {
			path = "/"
		}
		metrics.RecordRequest(r.Method, path, statusW.status, time.Since(start).Seconds())
	})
}
