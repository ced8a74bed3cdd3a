package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipdash/internal/analytics"
)

func TestIndexKPI(t *testing.T) {
	t.Run("signed percentage", func(t *testing.T) {
		got := indexKPI("x", analytics.Some(-12.34))
		assert.Equal(t, "-12.3%", got.Formatted)

		got = indexKPI("x", analytics.Some(7.0))
		assert.Equal(t, "+7.0%", got.Formatted)
	})

	t.Run("sentinel renders infinity", func(t *testing.T) {
		got := indexKPI("x", analytics.Some(analytics.Sentinel))
		assert.Equal(t, "∞", got.Formatted)
	})

	t.Run("missing renders placeholder", func(t *testing.T) {
		got := indexKPI("x", analytics.None)
		assert.False(t, got.Valid)
		assert.Equal(t, analytics.NoData, got.Formatted)
	})
}

func TestIndexCell(t *testing.T) {
	sentinel := indexCell(analytics.Some(analytics.Sentinel))
	assert.True(t, sentinel.Sentinel)
	assert.Equal(t, "∞", sentinel.Formatted)

	plain := indexCell(analytics.Some(25.0))
	assert.False(t, plain.Sentinel)
	assert.Equal(t, "+25.0%", plain.Formatted)
}

func TestGradeCell(t *testing.T) {
	cell := gradeCell("A+1", analytics.Some(0.3))
	assert.True(t, cell.Valid)
	assert.Equal(t, "A+1", cell.Formatted)
	assert.Equal(t, 0.3, cell.Value)

	empty := gradeCell("", analytics.None)
	assert.False(t, empty.Valid)
	assert.Equal(t, analytics.NoData, empty.Formatted)
}

func TestEpisodeSeriesChart(t *testing.T) {
	chart := episodeSeriesChart("ratings", map[float64]float64{2: 6, 1: 4})
	require.Len(t, chart.Points, 2)
	assert.Equal(t, "EP 1", chart.Points[0].X)
	assert.Equal(t, 4.0, chart.Points[0].Y)
	assert.Equal(t, "EP 2", chart.Points[1].X)
}

func TestIndexSeriesChart(t *testing.T) {
	base := map[float64]float64{1: 50, 2: 5, 3: 7}
	comp := map[float64]float64{1: 100, 2: 0}
	chart := indexSeriesChart("index", base, comp)

	// Episode 3 has no comparison value and is dropped.
	require.Len(t, chart.Points, 2)
	assert.Equal(t, "EP 1", chart.Points[0].X)
	assert.InDelta(t, -50.0, chart.Points[0].Y, 1e-9)
	assert.True(t, chart.Points[0].Valid)

	// Division by a zero base yields the sentinel point.
	assert.False(t, chart.Points[1].Valid)
	assert.Equal(t, "∞", chart.Points[1].Label)
}

func TestGradeOrdinal(t *testing.T) {
	assert.Equal(t, 5.0, gradeOrdinal(analytics.GradeS))
	assert.Equal(t, 1.0, gradeOrdinal(analytics.GradeD))
	assert.Equal(t, 0.0, gradeOrdinal(analytics.GradeNone))
}
