package datasource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ipdash/internal/metrics"
	"ipdash/pkg/contracts/domain"
)

// Cache is a time-bounded read-through cache in front of a Source.
// Renders within the freshness window reuse the previously fetched
// table; expiry triggers a synchronous re-fetch on next access, with
// concurrent expirations collapsed into a single upstream call.
type Cache struct {
	source Source
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	table     domain.RawTable
	fetchedAt time.Time
}

// NewCache wraps a source with the given freshness window.
func NewCache(source Source, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source: source,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the cache's clock. Test hook.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// ID implements Source, delegating to the wrapped source.
func (c *Cache) ID() string {
	return c.source.ID()
}

// Fetch implements Source. A fresh cached table is returned without
// touching the upstream source.
func (c *Cache) Fetch(ctx context.Context) (domain.RawTable, error) {
	c.mu.RLock()
	table, fetchedAt := c.table, c.fetchedAt
	c.mu.RUnlock()

	if !fetchedAt.IsZero() && c.now().Sub(fetchedAt) < c.ttl {
		metrics.CacheRequests.WithLabelValues(c.ID(), "hit").Inc()
		return table, nil
	}
	outcome := "miss"
	if !fetchedAt.IsZero() {
		outcome = "expired"
	}
	metrics.CacheRequests.WithLabelValues(c.ID(), outcome).Inc()

	result, err, _ := c.group.Do(c.ID(), func() (any, error) {
		// Another caller may have refreshed while we waited on the
		// flight group.
		c.mu.RLock()
		table, fetchedAt := c.table, c.fetchedAt
		c.mu.RUnlock()
		if !fetchedAt.IsZero() && c.now().Sub(fetchedAt) < c.ttl {
			return table, nil
		}

		fetched, err := c.source.Fetch(ctx)
		if err != nil {
			metrics.SourceFetches.WithLabelValues(c.ID(), "error").Inc()
			return nil, err
		}
		metrics.SourceFetches.WithLabelValues(c.ID(), "ok").Inc()

		c.mu.Lock()
		c.table = fetched
		c.fetchedAt = c.now()
		c.mu.Unlock()

		c.logger.DebugContext(ctx, "refreshed source table",
			slog.String("source", c.ID()),
			slog.Int("rows", len(fetched.Rows)))
		return fetched, nil
	})
	if err != nil {
		return domain.RawTable{}, err
	}
	return result.(domain.RawTable), nil
}

// Invalidate drops the cached table so the next Fetch hits the source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.table = domain.RawTable{}
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
