package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recoverer recovers from panics, logs the stack with request ID and actor, and returns a 500
// JSON body with the internal error code.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			attrs := []any{
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()),
			}
			if a, ok := ActorFromContext(r.Context()); ok {
				attrs = append(attrs, "actor_id", a.ID)
			}
			slog.Error("panic recovered", attrs...)
			writeError(w, http.StatusInternalServerError, "internal server error", "internal")
		}()
		next.ServeHTTP(w, r)
	})
}
