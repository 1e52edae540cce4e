package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/crucial707/hci-lending/internal/idempotency"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// IdempotencyHeader is the request header carrying the client-chosen key.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// Idempotency rejects a repeated POST carrying an Idempotency-Key the same actor already used
// within ttl with 409 duplicate_request. Requests without the header pass through. A reservation
// is released when the handler answers 5xx or a 4xx other than 409, so the device can retry with
// a corrected body or after re-checking state.
// Must run after JWTMiddleware.
func Idempotency(store idempotency.Store, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := r.Header.Get(IdempotencyHeader)
			if r.Method != http.MethodPost || k == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(k) > maxIdempotencyKeyLen {
				writeError(w, http.StatusBadRequest, "Idempotency-Key too long", "invalid_request")
				return
			}
			actor := "anonymous"
			if a, ok := ActorFromContext(r.Context()); ok {
				actor = strconv.Itoa(a.ID)
			}
			key := actor + ":" + r.URL.Path + ":" + k

			ok, err := store.Reserve(r.Context(), key, ttl)
			if err != nil {
				// Fail open: the conditional state write still prevents double transitions.
				slog.Warn("idempotency store unavailable",
					"request_id", chimw.GetReqID(r.Context()), "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				writeError(w, http.StatusConflict, "duplicate request: this Idempotency-Key was already used", "duplicate_request")
				return
			}

			wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			if releasable(wrap.status) {
				if err := store.Release(r.Context(), key); err != nil {
					slog.Warn("idempotency release failed", "error", err)
				}
			}
		})
	}
}

// releasable reports whether a response leaves the key free for a corrected retry. Success and
// 409 mean the request reached a decision and the key stays used.
func releasable(status int) bool {
	if status == http.StatusConflict {
		return false
	}
	return status >= http.StatusBadRequest
}
