package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalars(values ...float64) []Scalar {
	out := make([]Scalar, len(values))
	for i, v := range values {
		out[i] = Some(v)
	}
	return out
}

func TestPercentileRank(t *testing.T) {
	t.Run("descending without ties", func(t *testing.T) {
		got := PercentileRank(scalars(10, 30, 20))
		require.Len(t, got, 3)
		// 30 ranks first: 1/3. 20 second: 2/3. 10 last: 3/3.
		assert.InDelta(t, 1.0, got[0].Value, 1e-9)
		assert.InDelta(t, 1.0/3.0, got[1].Value, 1e-9)
		assert.InDelta(t, 2.0/3.0, got[2].Value, 1e-9)
	})

	t.Run("ties averaged over positions", func(t *testing.T) {
		got := PercentileRank(scalars(10, 30, 30))
		// The two 30s occupy positions 1 and 2: average 1.5, fraction 0.5.
		assert.InDelta(t, 0.5, got[1].Value, 1e-9)
		assert.InDelta(t, 0.5, got[2].Value, 1e-9)
		assert.InDelta(t, 1.0, got[0].Value, 1e-9)
	})

	t.Run("missing inputs stay missing and shrink n", func(t *testing.T) {
		got := PercentileRank([]Scalar{Some(10), None, Some(20)})
		assert.False(t, got[1].Valid)
		// Only two ranked values: 20 → 1/2, 10 → 2/2.
		assert.InDelta(t, 1.0, got[0].Value, 1e-9)
		assert.InDelta(t, 0.5, got[2].Value, 1e-9)
	})

	t.Run("all missing", func(t *testing.T) {
		got := PercentileRank([]Scalar{None, None})
		assert.False(t, got[0].Valid)
		assert.False(t, got[1].Valid)
	})

	t.Run("single value ranks 1.0", func(t *testing.T) {
		got := PercentileRank(scalars(42))
		require.True(t, got[0].Valid)
		assert.InDelta(t, 1.0, got[0].Value, 1e-9)
	})
}

func TestQuintileGrades(t *testing.T) {
	t.Run("five distinct values hit every grade", func(t *testing.T) {
		got := QuintileGrades(scalars(50, 40, 30, 20, 10))
		assert.Equal(t, []Grade{GradeS, GradeA, GradeB, GradeC, GradeD}, got)
	})

	t.Run("ten distinct values fill quintiles evenly", func(t *testing.T) {
		values := scalars(100, 90, 80, 70, 60, 50, 40, 30, 20, 10)
		got := QuintileGrades(values)
		want := []Grade{GradeS, GradeS, GradeA, GradeA, GradeB, GradeB, GradeC, GradeC, GradeD, GradeD}
		assert.Equal(t, want, got)
	})

	t.Run("missing value stays ungraded", func(t *testing.T) {
		got := QuintileGrades([]Scalar{Some(10), None})
		assert.Equal(t, GradeNone, got[1])
		assert.Equal(t, GradeD, got[0], "lone ranked value gets fraction 1/1 and the last bin")
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, QuintileGrades(nil))
	})
}

func TestQuintileTrendSteps(t *testing.T) {
	got := QuintileTrendSteps(scalars(2.0, 1.0, 0.0, -1.0, -2.0))
	want := []TrendStep{
		{Step: 2, Valid: true},
		{Step: 1, Valid: true},
		{Step: 0, Valid: true},
		{Step: -1, Valid: true},
		{Step: -2, Valid: true},
	}
	assert.Equal(t, want, got)

	missing := QuintileTrendSteps([]Scalar{Some(1), None})
	assert.False(t, missing[1].Valid)
}

func TestInvert(t *testing.T) {
	got := Invert([]Scalar{Some(3), None, Some(-2)})
	assert.Equal(t, Some(-3.0), got[0])
	assert.False(t, got[1].Valid)
	assert.Equal(t, Some(2.0), got[2])
}
