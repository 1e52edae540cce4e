package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes caps transition request bodies. They carry ids and short notes only.
const DefaultMaxBodyBytes = 64 << 10

// MaxBytes limits the request body size. Requests that declare a larger Content-Length are
// refused with 413 up front; chunked bodies are cut off by http.MaxBytesReader and fail to decode.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "body_too_large")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
