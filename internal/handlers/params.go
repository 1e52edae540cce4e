package handlers

import (
	"net/http"
	"strconv"

	"github.com/crucial707/hci-lending/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// pathID parses a positive integer URL parameter. On failure it writes a 400 and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		JSONError(w, "invalid "+name, "invalid_request", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// page reads limit and offset. The repos clamp the values.
func page(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		JSONError(w, "invalid limit", "invalid_request", http.StatusBadRequest)
		return 0, 0, false
	}
	offset, err = queryInt(r, "offset")
	if err != nil {
		JSONError(w, "invalid offset", "invalid_request", http.StatusBadRequest)
		return 0, 0, false
	}
	return limit, offset, true
}

// actorID returns the authenticated actor. Routes behind JWTMiddleware always have one.
func actorID(w http.ResponseWriter, r *http.Request) (int, bool) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		JSONError(w, "unauthorized", "unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return a.ID, true
}
