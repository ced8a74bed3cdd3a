package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipdash/internal/config"
	"ipdash/internal/dataset"
	"ipdash/pkg/contracts/domain"
)

type stubSource struct {
	table domain.RawTable
	err   error
}

func (s stubSource) ID() string { return "stub" }

func (s stubSource) Fetch(ctx context.Context) (domain.RawTable, error) {
	return s.table, s.err
}

var fixtureHeader = []string{
	"ip", "slot", "metric", "media", "demographic",
	"episode", "week", "week_start", "air_start", "value",
}

// fixtureTable carries two broadcast IPs sharing a slot and air year,
// one off-slot IP, plus digital weekly rows and a demographic slice.
func fixtureTable() domain.RawTable {
	return domain.RawTable{
		Header: fixtureHeader,
		Rows: [][]string{
			{"Show A", "Mon 21:00", "target-rating", "TV", "", "EP 1", "", "", "2025. 01. 06", "4.0"},
			{"Show A", "Mon 21:00", "target-rating", "TV", "", "EP 2", "", "", "2025. 01. 06", "6.0"},
			{"Show B", "Mon 21:00", "target-rating", "TV", "", "EP 1", "", "", "2025. 01. 06", "2.0"},
			{"Show B", "Mon 21:00", "target-rating", "TV", "", "EP 2", "", "", "2025. 01. 06", "2.0"},
			{"Show C", "Tue 22:00", "target-rating", "TV", "", "EP 1", "", "", "2024. 01. 08", "3.0"},
			{"Show A", "Mon 21:00", "view-count", "Streaming-Live", "", "EP 1", "", "", "2025. 01. 06", "100"},
			{"Show A", "Mon 21:00", "view-count", "Streaming-VOD", "", "EP 1", "", "", "2025. 01. 06", "50"},
			{"Show A", "Mon 21:00", "mention-count", "", "", "", "W1", "2025. 01. 06", "2025. 01. 06", "10"},
			{"Show A", "Mon 21:00", "mention-count", "", "", "", "W2", "2025. 01. 13", "2025. 01. 06", "20"},
			{"Show A", "Mon 21:00", "target-rating", "TV", "F2034", "EP 1", "", "", "2025. 01. 06", "5.0"},
			{"Show B", "Mon 21:00", "target-rating", "TV", "F2034", "EP 1", "", "", "2025. 01. 06", "3.0"},
		},
	}
}

func newTestService(t *testing.T, source stubSource) *DashboardService {
	t.Helper()
	return NewDashboardService(source, dataset.DefaultColumns(), config.AnalyticsConfig{
		Cutoffs:       []float64{2, 4, 6, 8},
		DefaultCutoff: 8,
		TopN:          5,
	}, nil)
}

func TestRender(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown view fails fast", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		_, err := s.Render(ctx, ViewRequest{View: "no-such-view"})
		assert.ErrorIs(t, err, ErrUnknownView)
	})

	t.Run("source failure wraps as SourceError", func(t *testing.T) {
		s := newTestService(t, stubSource{err: errors.New("api quota exceeded")})
		_, err := s.Render(ctx, ViewRequest{View: domain.ViewOverview})
		var sourceErr *SourceError
		require.ErrorAs(t, err, &sourceErr)
	})

	t.Run("schema error becomes an inline message", func(t *testing.T) {
		table := domain.RawTable{Header: []string{"ip", "metric"}}
		s := newTestService(t, stubSource{table: table})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewOverview})
		require.NoError(t, err, "data-shape problems never raise past the render boundary")
		assert.Equal(t, domain.ViewOverview, payload.View)
		assert.NotEmpty(t, payload.Message)
		assert.Empty(t, payload.Grids)
	})

	t.Run("overview payload shape", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewOverview})
		require.NoError(t, err)

		assert.Equal(t, domain.ViewOverview, payload.View)
		assert.Len(t, payload.KPIs, len(domain.DefaultPolicies))

		require.Len(t, payload.Grids, 1)
		grid := payload.Grids[0]
		assert.Equal(t, "ip-summary", grid.Name)
		assert.Equal(t, []string{"Show A", "Show B", "Show C"}, grid.RowKeys)
		assert.Len(t, grid.Columns, len(domain.DefaultPolicies)+1)
		assert.Equal(t, "overall", grid.Columns[len(grid.Columns)-1])

		require.Len(t, payload.Series, 1)
		require.NotEmpty(t, payload.Series[0].Points)
		assert.Equal(t, "Show A", payload.Series[0].Points[0].X, "ranked best first")
	})

	t.Run("overview mean target rating", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewOverview})
		require.NoError(t, err)
		// Per-IP episode means: A (4+5)/2 then... A EP1 has two rows (4.0
		// and the F2034 5.0) averaging 4.5, EP2 6.0 → 5.25. B EP1 (2+3)/2
		// = 2.5, EP2 2.0 → 2.25. C 3.0. Cross-IP mean 3.5.
		kpi := payload.KPIs[0]
		assert.Equal(t, "mean target-rating", kpi.Name)
		require.True(t, kpi.Valid)
		assert.InDelta(t, 3.5, kpi.Value, 1e-9)
	})

	t.Run("ip detail requires a known ip", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})

		_, err := s.Render(ctx, ViewRequest{View: domain.ViewIPDetail})
		assert.ErrorIs(t, err, ErrMissingIP)

		_, err = s.Render(ctx, ViewRequest{View: domain.ViewIPDetail, IP: "Show Z"})
		assert.ErrorIs(t, err, ErrUnknownIP)
	})

	t.Run("ip detail series", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewIPDetail, IP: "Show A"})
		require.NoError(t, err)

		names := map[string]bool{}
		for _, series := range payload.Series {
			names[series.Name] = true
		}
		assert.True(t, names["target-rating by episode"])
		assert.True(t, names["mention-count by week"])
	})

	t.Run("comparison against explicit ip", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{
			View:      domain.ViewComparison,
			IP:        "Show A",
			CompareIP: "Show B",
		})
		require.NoError(t, err)
		assert.Empty(t, payload.Warnings)
		require.NotEmpty(t, payload.KPIs)

		// target-rating: A 5.25 vs B 2.25 → (5.25-2.25)/2.25*100.
		var found bool
		for _, k := range payload.KPIs {
			if k.Name == "target-rating vs Show B" {
				found = true
				require.True(t, k.Valid)
				assert.InDelta(t, (5.25-2.25)/2.25*100, k.Value, 1e-9)
			}
		}
		assert.True(t, found)
	})

	t.Run("comparison group derives slot and air year", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewComparison, IP: "Show A"})
		require.NoError(t, err)
		// Show B shares slot and air year; Show C matches neither.
		assert.Empty(t, payload.Warnings)

		var found bool
		for _, k := range payload.KPIs {
			if k.Name == "target-rating vs comparison group" {
				found = true
				require.True(t, k.Valid)
				assert.InDelta(t, (5.25-2.25)/2.25*100, k.Value, 1e-9)
			}
		}
		assert.True(t, found)
	})

	t.Run("comparison warns on dropped criteria", func(t *testing.T) {
		table := domain.RawTable{
			Header: fixtureHeader,
			Rows: [][]string{
				{"Solo", "", "target-rating", "TV", "", "EP 1", "", "", "", "4.0"},
				{"Other", "", "target-rating", "TV", "", "EP 1", "", "", "", "2.0"},
			},
		}
		s := newTestService(t, stubSource{table: table})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewComparison, IP: "Solo"})
		require.NoError(t, err)
		assert.Len(t, payload.Warnings, 2)
	})

	t.Run("episodes grid unions episode columns", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewEpisodes})
		require.NoError(t, err)

		require.Len(t, payload.Grids, 1)
		grid := payload.Grids[0]
		assert.Equal(t, []string{"EP 1", "EP 2"}, grid.Columns)
		require.Len(t, grid.Rows, 3)
		// Show C has no EP 2 data.
		assert.False(t, grid.Rows[2][1].Valid)
	})

	t.Run("heatmap per demographic", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewHeatmap})
		require.NoError(t, err)

		require.Len(t, payload.Grids, 2)
		assert.Equal(t, "demographic-ratings", payload.Grids[0].Name)
		assert.Equal(t, "demographic-index", payload.Grids[1].Name)
		assert.Equal(t, []string{"F2034"}, payload.Grids[0].RowKeys)
		assert.Len(t, payload.KPIs, 2)
	})

	t.Run("growth broadcast renders grades and sweep", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewGrowthBroadcast})
		require.NoError(t, err)

		require.Len(t, payload.Grids, 1)
		grid := payload.Grids[0]
		assert.Equal(t, "grades", grid.Name)
		assert.Equal(t, "overall", grid.Columns[len(grid.Columns)-1])
		assert.NotEmpty(t, payload.Series, "sweep series per IP with episode data")
	})

	t.Run("growth digital falls back to weekly series", func(t *testing.T) {
		s := newTestService(t, stubSource{table: fixtureTable()})
		payload, err := s.Render(ctx, ViewRequest{View: domain.ViewGrowthDigital})
		require.NoError(t, err)

		require.Len(t, payload.Series, 1)
		assert.Equal(t, "Show A mention-count weekly", payload.Series[0].Name)
		require.Len(t, payload.Series[0].Points, 2)
		assert.Equal(t, "W1", payload.Series[0].Points[0].X)
	})
}

func TestViews(t *testing.T) {
	s := newTestService(t, stubSource{})
	views := s.Views()
	assert.Equal(t, []domain.ViewID{
		domain.ViewComparison,
		domain.ViewEpisodes,
		domain.ViewGrowthBroadcast,
		domain.ViewGrowthDigital,
		domain.ViewHeatmap,
		domain.ViewIPDetail,
		domain.ViewOverview,
	}, views)
}

func TestRequireIP(t *testing.T) {
	rows := []domain.Event{{IP: "Show A"}}
	assert.NoError(t, requireIP(rows, "Show A"))
	assert.ErrorIs(t, requireIP(rows, ""), ErrMissingIP)
	assert.ErrorIs(t, requireIP(rows, "Show B"), ErrUnknownIP)
}

func TestMetricOrDefault(t *testing.T) {
	assert.Equal(t, domain.MetricTargetRating, metricOrDefault(""))
	assert.Equal(t, domain.MetricViewCount, metricOrDefault(domain.MetricViewCount))
}
