package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ipdash/internal/config"
	apierrors "ipdash/internal/errors"
	"ipdash/internal/services"
	"ipdash/pkg/contracts"
)

// NewRouter assembles the HTTP surface: the view API, health, and
// Prometheus metrics.
func NewRouter(service *services.DashboardService, cfg config.ServerConfig, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimit(cfg.RateLimit, errorHandler))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{
			"status":  "ok",
			"version": contracts.Version,
		})
	})
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, contracts.GetVersionInfo())
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		NewDashboardHandler(service, logger).RegisterRoutes(api)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleError(w, r, apierrors.New(http.StatusNotFound, "NOT_FOUND", "Route not found"))
	})
	return r
}
