package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"salesstats/internal/analytics"
	"salesstats/internal/service"
	"salesstats/internal/source"
)

// Error codes returned in APIError.ErrorCode.
const (
	CodeInvalidOption   = "INVALID_OPTION"
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeNotLoaded       = "NOT_LOADED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
)

// APIError represents an API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, msg string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: msg}
}

// toAPIError maps domain errors onto HTTP responses.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, analytics.ErrUnknownOption):
		return newAPIError(http.StatusBadRequest, CodeInvalidOption, err.Error())
	case errors.Is(err, source.ErrDataUnavailable):
		return newAPIError(http.StatusServiceUnavailable, CodeDataUnavailable, err.Error())
	case errors.Is(err, service.ErrNotLoaded):
		return newAPIError(http.StatusServiceUnavailable, CodeNotLoaded, err.Error())
	}
	return newAPIError(http.StatusInternalServerError, CodeInternal, "internal error")
}
