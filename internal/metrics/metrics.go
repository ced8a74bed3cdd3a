// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceFetches counts raw-table fetches against the upstream
	// source, by result.
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipdash_source_fetches_total",
		Help: "Raw table fetches against the upstream data source.",
	}, []string{"source", "result"})

	// CacheRequests counts cache lookups by outcome (hit, miss,
	// expired).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipdash_cache_requests_total",
		Help: "Read-through cache lookups by outcome.",
	}, []string{"source", "outcome"})

	// ViewRenderDuration observes the full normalize-aggregate-grade
	// pipeline per view.
	ViewRenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ipdash_view_render_seconds",
		Help:    "Duration of a full view render pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})
)
