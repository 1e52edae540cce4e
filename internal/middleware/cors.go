package middleware

import (
	"net/http"
	"strings"
)

// DefaultCORSAllowedMethods is the set of methods the lending API serves.
var DefaultCORSAllowedMethods = []string{"GET", "POST", "OPTIONS"}

// DefaultCORSAllowedHeaders includes Idempotency-Key so browser clients can deduplicate submissions.
var DefaultCORSAllowedHeaders = []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader}

// CORS sets CORS response headers for allowed origins and answers OPTIONS preflight.
// With no origins configured it is a no-op.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}
	methods := strings.Join(DefaultCORSAllowedMethods, ", ")
	headers := strings.Join(DefaultCORSAllowedHeaders, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || originSet[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
