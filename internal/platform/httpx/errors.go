package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Stable error codes for non-authorization failures.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeValidation    = "VALIDATION_ERROR"
	CodeForbidden     = "FORBIDDEN"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
)

// RespondError maps domain errors to failure envelopes. Unknown errors are
// reported without their message.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, CodeConflict, err.Error(), nil)
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, CodeForbidden, err.Error(), nil)
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, CodeUnauthorized, err.Error(), nil)
	default:
		Fail(w, http.StatusInternalServerError, CodeInternalError, "internal error", nil)
	}
}
