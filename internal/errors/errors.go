// Package errors defines the structured API error responses shared by
// the HTTP transport layer.
package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined errors for common scenarios.
var (
	ErrViewNotFound   = New(http.StatusNotFound, "VIEW_NOT_FOUND", "Unknown dashboard view")
	ErrIPNotFound     = New(http.StatusNotFound, "IP_NOT_FOUND", "Unknown IP")
	ErrRateLimited    = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// SourceError wraps a fetch/credential failure. Fatal for the whole
// view; data-shape errors, by contrast, never reach this package and
// render inline in an empty payload.
func SourceError(err error) *APIError {
	return NewWithDetails(http.StatusBadGateway, "SOURCE_UNAVAILABLE",
		"Data source unavailable", err.Error())
}

// InvalidParameter creates a parameter validation error naming the
// offending query parameter.
func InvalidParameter(name, reason string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER",
		fmt.Sprintf("Invalid parameter %q", name), reason)
}
