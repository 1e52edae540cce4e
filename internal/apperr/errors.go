// Package apperr defines the error taxonomy shared by the lending engine, the scan intake
// controller and the HTTP layer. Every failure names the precondition that failed so the
// operator can pick a different asset or retry explicitly.
package apperr

import (
	"errors"
	"fmt"
)

// Kind groups errors by how the caller should react to them.
type Kind string

const (
	// KindNotFound means a referenced asset, loan, maintenance record or borrower is absent.
	KindNotFound Kind = "not_found"
	// KindInvalidFormat means a scanned payload failed the identifier pattern.
	KindInvalidFormat Kind = "invalid_format"
	// KindInvalidInput means a request value is outside its allowed set. No asset state was consulted.
	KindInvalidInput Kind = "invalid_input"
	// KindStateConflict means a precondition did not hold or a race was lost. Not retried automatically.
	KindStateConflict Kind = "state_conflict"
	// KindInconsistent means the asset state diverged from its records. Fatal, needs an operator.
	KindInconsistent Kind = "asset_state_inconsistent"
	// KindUnavailable means the store could not be reached in time. Re-fetch state before retrying.
	KindUnavailable Kind = "unavailable"
	// KindInternal covers everything the taxonomy does not classify.
	KindInternal Kind = "internal"
)

// Error is a classified failure. Two errors are the same (errors.Is) when their codes match,
// so a copy carrying a more specific message still matches its sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of e whose message is replaced by the formatted text.
func (e *Error) WithDetail(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy of e that records cause as the underlying error.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrAssetNotFound       = newError(KindNotFound, "asset_not_found", "asset not found")
	ErrBorrowerNotFound    = newError(KindNotFound, "borrower_not_found", "borrower not found")
	ErrLoanNotFound        = newError(KindNotFound, "loan_not_found", "loan not found")
	ErrMaintenanceNotFound = newError(KindNotFound, "maintenance_not_found", "maintenance record not found")

	ErrInvalidFormat = newError(KindInvalidFormat, "invalid_format", "invalid identifier format")

	ErrInvalidMaintenanceType = newError(KindInvalidInput, "invalid_maintenance_type", "maintenance type must be preventive or corrective")

	ErrAssetNotAvailable    = newError(KindStateConflict, "asset_not_available", "asset is not available")
	ErrLoanNotActive        = newError(KindStateConflict, "loan_not_active", "loan already returned")
	ErrMaintenanceNotActive = newError(KindStateConflict, "maintenance_not_active", "maintenance already completed")

	ErrAssetStateInconsistent = newError(KindInconsistent, "asset_state_inconsistent", "asset state is inconsistent with its records")

	ErrUnavailable = newError(KindUnavailable, "unavailable", "store unavailable, re-fetch the asset state before retrying")

	ErrInternal = newError(KindInternal, "internal", "internal error")
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeOf returns the code of the first *Error in err's chain, or "internal".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal.Code
}

// Message returns the user-facing message for err. Unclassified errors get a generic message
// so internal details never leak to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}
