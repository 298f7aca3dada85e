package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/matcher-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrResumeNotFound):
		return "Resume not found"

	case errors.Is(err, store.ErrJobNotFound):
		return "Job description not found"

	case errors.Is(err, store.ErrCandidateNotFound):
		return "Candidate not found"

	case errors.Is(err, store.ErrMatchResultNotFound):
		return "Match result not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}
