package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/hci-lending/internal/apperr"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// ErrorResponse is the body of every failed request. Code names the failed precondition.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSONError sends a JSON error response.
func JSONError(w http.ResponseWriter, message, code string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// JSONValidationError sends a 400 with field-level details.
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_request", Fields: fields})
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidFormat, apperr.KindInvalidInput:
		return http.StatusUnprocessableEntity
	case apperr.KindStateConflict:
		return http.StatusConflict
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WriteError translates err into a response. Classified errors keep their message and code;
// anything else is logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		slog.Error("request failed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		JSONError(w, ErrMessageInternal, apperr.ErrInternal.Code, http.StatusInternalServerError)
		return
	}
	if ae.Kind == apperr.KindUnavailable {
		slog.Warn("store unavailable", "request_id", chimw.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
	}
	JSONError(w, ae.Message, ae.Code, statusFor(ae.Kind))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var validate = validator.New()

// decodeAndValidate reads a JSON body into dst and runs its validate tags. On failure it has
// already written the response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			JSONError(w, "request body too large", "body_too_large", http.StatusRequestEntityTooLarge)
			return false
		}
		JSONError(w, "invalid JSON", "invalid_request", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			JSONValidationError(w, "validation failed", fields)
			return false
		}
		JSONError(w, err.Error(), "invalid_request", http.StatusBadRequest)
		return false
	}
	return true
}
