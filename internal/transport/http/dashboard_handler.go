// Package http exposes the dashboard views over a chi-routed JSON API.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ipdash/internal/errors"
	"ipdash/internal/services"
	"ipdash/pkg/contracts/domain"
)

// DashboardHandler serves the per-view JSON endpoints.
type DashboardHandler struct {
	service      *services.DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates the handler.
func NewDashboardHandler(service *services.DashboardService, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// RegisterRoutes registers the view routes.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/views", func(r chi.Router) {
		r.Get("/", h.ListViews)
		r.Get("/{view}", h.GetView)
	})
}

// ListViews returns the registered view identifiers.
func (h *DashboardHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"views": h.service.Views()})
}

// GetView renders one dashboard view.
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := services.ViewRequest{
		View:      domain.ViewID(chi.URLParam(r, "view")),
		IP:        r.URL.Query().Get("ip"),
		CompareIP: r.URL.Query().Get("compare_ip"),
		Metric:    domain.Metric(r.URL.Query().Get("metric")),
	}
	if raw := r.URL.Query().Get("cutoff"); raw != "" {
		cutoff, err := strconv.ParseFloat(raw, 64)
		if err != nil || cutoff <= 0 {
			h.errorHandler.HandleError(w, r,
				apierrors.InvalidParameter("cutoff", "must be a positive number"))
			return
		}
		req.Cutoff = cutoff
	}

	payload, err := h.service.Render(ctx, req)
	if err != nil {
		h.handleRenderError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "view rendered",
		slog.String("view", string(req.View)),
		slog.Int("kpis", len(payload.KPIs)),
		slog.Int("grids", len(payload.Grids)),
		slog.Int("series", len(payload.Series)))
	render.JSON(w, r, payload)
}

// handleRenderError maps service errors onto API errors.
func (h *DashboardHandler) handleRenderError(w http.ResponseWriter, r *http.Request, err error) {
	var sourceErr *services.SourceError
	switch {
	case errors.Is(err, services.ErrUnknownView):
		h.errorHandler.HandleError(w, r, apierrors.ErrViewNotFound)
	case errors.Is(err, services.ErrUnknownIP):
		h.errorHandler.HandleError(w, r, apierrors.ErrIPNotFound)
	case errors.Is(err, services.ErrMissingIP):
		h.errorHandler.HandleError(w, r,
			apierrors.InvalidParameter("ip", "required for this view"))
	case errors.As(err, &sourceErr):
		h.logger.ErrorContext(r.Context(), "source fetch failed",
			slog.String("error", sourceErr.Error()))
		h.errorHandler.HandleError(w, r, apierrors.SourceError(sourceErr.Err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
