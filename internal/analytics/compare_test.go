package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipdash/pkg/contracts/domain"
)

func TestIndex(t *testing.T) {
	tests := []struct {
		name string
		base float64
		comp float64
		want float64
	}{
		{"base below comparison", 50, 100, -50},
		{"base above comparison", 150, 100, 50},
		{"equal operands", 100, 100, 0},
		{"zero base against zero comparison", 0, 0, 0},
		{"nonzero base against zero comparison", 5, 0, Sentinel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Index(tt.base, tt.comp), 1e-9)
		})
	}
}

func TestIndexScalar(t *testing.T) {
	assert.Equal(t, Some(-50.0), IndexScalar(Some(50), Some(100)))
	assert.False(t, IndexScalar(None, Some(100)).Valid)
	assert.False(t, IndexScalar(Some(50), None).Valid)
}

func TestIndexSeries(t *testing.T) {
	base := map[string]float64{"EP 1": 50, "EP 2": 100, "EP 3": 10}
	comp := map[string]float64{"EP 1": 100, "EP 2": 100}
	got := IndexSeries(base, comp)
	require.Len(t, got, 2, "keys on one side only are dropped")
	assert.InDelta(t, -50.0, got["EP 1"], 1e-9)
	assert.InDelta(t, 0.0, got["EP 2"], 1e-9)
}

func TestIndexRange(t *testing.T) {
	t.Run("sentinels excluded from bounds", func(t *testing.T) {
		min, max, ok := IndexRange([]float64{-50, Sentinel, 30})
		require.True(t, ok)
		assert.InDelta(t, -50.0, min, 1e-9)
		assert.InDelta(t, 30.0, max, 1e-9)
	})

	t.Run("only sentinels leaves nothing", func(t *testing.T) {
		_, _, ok := IndexRange([]float64{Sentinel, Sentinel})
		assert.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, ok := IndexRange(nil)
		assert.False(t, ok)
	})
}

func TestBuildGroupCriteria(t *testing.T) {
	air := func(year int) time.Time {
		return time.Date(year, 4, 1, 0, 0, 0, 0, time.UTC)
	}

	t.Run("mode of slot and air year", func(t *testing.T) {
		rows := []domain.Event{
			{IP: "X", Slot: "Mon 21:00", AirStart: air(2024)},
			{IP: "X", Slot: "Mon 21:00", AirStart: air(2024)},
			{IP: "X", Slot: "Tue 22:00", AirStart: air(2023)},
			{IP: "Y", Slot: "Sun 20:00", AirStart: air(2020)},
		}
		c := BuildGroupCriteria(rows, "X")
		require.True(t, c.SlotValid)
		assert.Equal(t, "Mon 21:00", c.Slot)
		require.True(t, c.AirYearValid)
		assert.Equal(t, 2024, c.AirYear)
		assert.Empty(t, c.Warnings)
	})

	t.Run("missing columns drop criteria with warnings", func(t *testing.T) {
		rows := []domain.Event{{IP: "X"}, {IP: "X"}}
		c := BuildGroupCriteria(rows, "X")
		assert.False(t, c.SlotValid)
		assert.False(t, c.AirYearValid)
		require.Len(t, c.Warnings, 2)
		assert.Contains(t, c.Warnings[0], "slot")
		assert.Contains(t, c.Warnings[1], "air year")
	})

	t.Run("tie breaks deterministically", func(t *testing.T) {
		rows := []domain.Event{
			{IP: "X", Slot: "B"},
			{IP: "X", Slot: "A"},
		}
		c := BuildGroupCriteria(rows, "X")
		assert.Equal(t, "A", c.Slot)
	})
}

func TestFilterGroup(t *testing.T) {
	air := func(year int) time.Time {
		return time.Date(year, 4, 1, 0, 0, 0, 0, time.UTC)
	}
	rows := []domain.Event{
		{IP: "X", Slot: "Mon", AirStart: air(2024)},
		{IP: "Y", Slot: "Mon", AirStart: air(2024)},
		{IP: "Z", Slot: "Tue", AirStart: air(2024)},
		{IP: "W", Slot: "Mon", AirStart: air(2023)},
	}

	t.Run("both criteria active", func(t *testing.T) {
		c := GroupCriteria{Slot: "Mon", SlotValid: true, AirYear: 2024, AirYearValid: true}
		got := FilterGroup(rows, "X", c)
		require.Len(t, got, 1)
		assert.Equal(t, "Y", got[0].IP)
	})

	t.Run("dropped criterion widens the group", func(t *testing.T) {
		c := GroupCriteria{Slot: "Mon", SlotValid: true}
		got := FilterGroup(rows, "X", c)
		require.Len(t, got, 2)
		assert.Equal(t, "Y", got[0].IP)
		assert.Equal(t, "W", got[1].IP)
	})

	t.Run("base IP always excluded", func(t *testing.T) {
		got := FilterGroup(rows, "X", GroupCriteria{})
		for _, r := range got {
			assert.NotEqual(t, "X", r.IP)
		}
	})
}
