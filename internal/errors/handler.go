package errors

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorHandler renders errors as structured JSON responses and logs
// server-side failures.
type ErrorHandler struct {
	logger      *slog.Logger
	exposeError bool
}

// NewErrorHandler creates an error handler. exposeError includes
// internal error details in 5xx responses; keep it off outside
// development.
func NewErrorHandler(logger *slog.Logger, exposeError bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{logger: logger, exposeError: exposeError}
}

// HandleError writes an error response. Non-APIError values become a
// generic 500.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = ErrInternalServer
		if h.exposeError {
			apiErr = NewWithDetails(http.StatusInternalServerError,
				"INTERNAL_SERVER_ERROR", "Internal server error", err.Error())
		}
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error_code", apiErr.ErrorCode),
			slog.String("error", err.Error()))
	}

	if renderErr := render.Render(w, r, apiErr); renderErr != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
