// Package analytics implements the metric-aggregation core of the IP
// performance dashboard: group-and-reduce aggregators over the
// normalized event table, cross-IP percentile ranking with quintile
// letter grades, OLS trend slopes with an episode-cutoff sweep, and the
// comparison index builder.
//
// Every function in this package is pure and total over its input
// domain: degenerate input (empty table, single point, all-zero column)
// yields a missing Scalar or an empty result, never a panic and never a
// fabricated zero.
package analytics

import (
	"fmt"
)

// Scalar is a float64 with an explicit presence flag. Aggregates over
// zero surviving rows are Scalars with Valid=false; downstream
// consumers render a placeholder instead of defaulting to 0.
type Scalar struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Some wraps a present value.
func Some(v float64) Scalar {
	return Scalar{Value: v, Valid: true}
}

// None is the missing scalar.
var None = Scalar{}

// Format renders the scalar with the given precision, or the no-data
// placeholder when missing.
func (s Scalar) Format(decimals int) string {
	if !s.Valid {
		return NoData
	}
	return fmt.Sprintf("%.*f", decimals, s.Value)
}

// NoData is the display placeholder for missing aggregates.
const NoData = "no data"

// Grade is the absolute quintile letter grade, best to worst.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	// GradeNone marks a missing grade; it is never substituted with a
	// default letter.
	GradeNone Grade = ""
)

// gradeScale lists grades best-first, matching the quintile bins
// [0,.2],(.2,.4],(.4,.6],(.6,.8],(.8,1].
var gradeScale = [5]Grade{GradeS, GradeA, GradeB, GradeC, GradeD}

// TrendStep is the trend direction grade on the -2..+2 scale. Valid is
// false when the underlying slope could not be computed.
type TrendStep struct {
	Step  int  `json:"step"`
	Valid bool `json:"valid"`
}

// trendScale lists trend steps best-first, bucketed the same way as
// letter grades (steepest positive slope lands in the first bin).
var trendScale = [5]int{2, 1, 0, -1, -2}

// Label renders the step with an explicit sign ("+2", "0", "-1"), or
// empty when missing.
func (t TrendStep) Label() string {
	if !t.Valid {
		return ""
	}
	if t.Step > 0 {
		return fmt.Sprintf("+%d", t.Step)
	}
	return fmt.Sprintf("%d", t.Step)
}

// CompositeLabel joins an absolute grade and a trend step into the
// two-axis display label ("A+1"). A missing absolute grade yields an
// empty label; a missing trend yields the bare letter.
func CompositeLabel(g Grade, t TrendStep) string {
	if g == GradeNone {
		return ""
	}
	return string(g) + t.Label()
}
