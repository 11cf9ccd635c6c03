package http

import (
	"context"
	"errors"
	"net/http"

	"budget/internal/core"
)

// statusFor maps domain error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown to the user. Domain errors carry their own
// wording; anything else is hidden behind a generic message and logged.
func userMessage(err error) string {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		return domainErr.Error()
	}
	return "Something went wrong. Please try again."
}
