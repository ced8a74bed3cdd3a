// Package services orchestrates the render pipeline: fetch the raw
// table, normalize it, and build one view payload per dashboard page.
// Each render is a synchronous pass over the full pipeline; all
// aggregation state is local to the call and discarded afterward.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"ipdash/internal/analytics"
	"ipdash/internal/config"
	"ipdash/internal/dataset"
	"ipdash/internal/datasource"
	"ipdash/internal/metrics"
	"ipdash/pkg/contracts/domain"
)

// Sentinel errors the transport layer maps to status codes.
var (
	ErrUnknownView = errors.New("unknown view")
	ErrUnknownIP   = errors.New("unknown ip")
	ErrMissingIP   = errors.New("view requires an ip parameter")
)

// SourceError wraps a raw-table fetch failure; fatal for the whole
// view.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string { return "source fetch failed: " + e.Err.Error() }
func (e *SourceError) Unwrap() error { return e.Err }

// ViewRequest carries the per-request selection state. Routing and
// filter state is explicit here instead of living in ambient globals.
type ViewRequest struct {
	View      domain.ViewID
	IP        string
	CompareIP string
	Metric    domain.Metric
	Cutoff    float64
}

// viewBuilder renders one view from the normalized table.
type viewBuilder func(ctx context.Context, req ViewRequest, rows []domain.Event) (domain.ViewPayload, error)

// DashboardService renders dashboard views from a spreadsheet-backed
// source.
type DashboardService struct {
	source   datasource.Source
	columns  dataset.ColumnMap
	cfg      config.AnalyticsConfig
	logger   *slog.Logger
	builders map[domain.ViewID]viewBuilder
}

// NewDashboardService wires the service. The builder registry is the
// single dispatch point from view identifier to handler; unknown views
// fail fast.
func NewDashboardService(source datasource.Source, columns dataset.ColumnMap, cfg config.AnalyticsConfig, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Cutoffs) == 0 {
		cfg.Cutoffs = analytics.DefaultCutoffs
	}
	if cfg.DefaultCutoff <= 0 {
		cfg.DefaultCutoff = 8
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	s := &DashboardService{
		source:  source,
		columns: columns,
		cfg:     cfg,
		logger:  logger,
	}
	s.builders = map[domain.ViewID]viewBuilder{
		domain.ViewOverview:        s.buildOverview,
		domain.ViewIPDetail:        s.buildIPDetail,
		domain.ViewHeatmap:         s.buildHeatmap,
		domain.ViewComparison:      s.buildComparison,
		domain.ViewEpisodes:        s.buildEpisodes,
		domain.ViewGrowthBroadcast: s.buildGrowthBroadcast,
		domain.ViewGrowthDigital:   s.buildGrowthDigital,
	}
	return s
}

// Views lists the registered view identifiers, sorted.
func (s *DashboardService) Views() []domain.ViewID {
	out := make([]domain.ViewID, 0, len(s.builders))
	for id := range s.builders {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Render runs the full normalize-aggregate-grade pipeline for one view.
// Data-shape errors do not raise past this boundary: they produce an
// empty payload carrying an inline message.
func (s *DashboardService) Render(ctx context.Context, req ViewRequest) (domain.ViewPayload, error) {
	builder, ok := s.builders[req.View]
	if !ok {
		return domain.ViewPayload{}, fmt.Errorf("%w: %q", ErrUnknownView, req.View)
	}
	start := time.Now()
	defer func() {
		metrics.ViewRenderDuration.WithLabelValues(string(req.View)).Observe(time.Since(start).Seconds())
	}()

	table, err := s.source.Fetch(ctx)
	if err != nil {
		return domain.ViewPayload{}, &SourceError{Err: err}
	}

	rows, err := dataset.Normalize(table, s.columns)
	if err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			s.logger.WarnContext(ctx, "data-shape error, returning empty view",
				slog.String("view", string(req.View)),
				slog.String("error", err.Error()))
			return domain.ViewPayload{View: req.View, Message: err.Error()}, nil
		}
		return domain.ViewPayload{}, err
	}

	if req.Cutoff <= 0 {
		req.Cutoff = s.cfg.DefaultCutoff
	}
	payload, err := builder(ctx, req, rows)
	if err != nil {
		return domain.ViewPayload{}, err
	}
	payload.View = req.View
	return payload, nil
}

// requireIP validates the ip parameter against the table.
func requireIP(rows []domain.Event, ip string) error {
	if ip == "" {
		return ErrMissingIP
	}
	for _, known := range analytics.IPs(rows) {
		if known == ip {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownIP, ip)
}

// metricOrDefault falls back to the target rating, the lead metric of
// the dashboard.
func metricOrDefault(m domain.Metric) domain.Metric {
	if m == "" {
		return domain.MetricTargetRating
	}
	return m
}
