package services

import (
	"fmt"
	"sort"

	"ipdash/internal/analytics"
	"ipdash/pkg/contracts/domain"
)

// kpi builds a KPI card value. Missing scalars render the no-data
// placeholder, never 0.
func kpi(name string, v analytics.Scalar, decimals int) domain.KPI {
	return domain.KPI{
		Name:      name,
		Value:     v.Value,
		Valid:     v.Valid,
		Formatted: v.Format(decimals),
	}
}

// indexKPI formats a comparison index: a signed percentage, or the
// infinity marker for the sentinel.
func indexKPI(name string, v analytics.Scalar) domain.KPI {
	out := domain.KPI{Name: name, Value: v.Value, Valid: v.Valid}
	switch {
	case !v.Valid:
		out.Formatted = analytics.NoData
	case analytics.IsSentinel(v.Value):
		out.Formatted = "∞"
	default:
		out.Formatted = fmt.Sprintf("%+.1f%%", v.Value)
	}
	return out
}

func valueCell(v analytics.Scalar, decimals int) domain.GridCell {
	return domain.GridCell{
		Value:     v.Value,
		Valid:     v.Valid,
		Formatted: v.Format(decimals),
	}
}

// gradeCell carries a composite grade label; Value holds the backing
// percentile for sorting.
func gradeCell(label string, percentile analytics.Scalar) domain.GridCell {
	cell := domain.GridCell{
		Value:     percentile.Value,
		Valid:     label != "",
		Formatted: label,
	}
	if label == "" {
		cell.Formatted = analytics.NoData
	}
	return cell
}

// indexCell marks sentinel indices so they render as infinity and stay
// out of range computations.
func indexCell(v analytics.Scalar) domain.GridCell {
	cell := domain.GridCell{Value: v.Value, Valid: v.Valid}
	switch {
	case !v.Valid:
		cell.Formatted = analytics.NoData
	case analytics.IsSentinel(v.Value):
		cell.Sentinel = true
		cell.Formatted = "∞"
	default:
		cell.Formatted = fmt.Sprintf("%+.1f%%", v.Value)
	}
	return cell
}

func episodeLabel(ep float64) string {
	return fmt.Sprintf("EP %g", ep)
}

// episodeSeriesChart orders an episode→value map into a chart series.
func episodeSeriesChart(name string, series map[float64]float64) domain.Series {
	episodes := make([]float64, 0, len(series))
	for ep := range series {
		episodes = append(episodes, ep)
	}
	sort.Float64s(episodes)

	chart := domain.Series{Name: name}
	for _, ep := range episodes {
		chart.Points = append(chart.Points, domain.SeriesPoint{
			X:     episodeLabel(ep),
			Y:     series[ep],
			Valid: true,
		})
	}
	return chart
}

// indexSeriesChart joins base and comparison episode series and charts
// the percentage index per shared episode, with sentinel points marked
// by the infinity label and Valid=false so they escape axis ranges.
func indexSeriesChart(name string, base, comp map[float64]float64) domain.Series {
	baseKeyed := make(map[string]float64, len(base))
	order := map[string]float64{}
	for ep, v := range base {
		label := episodeLabel(ep)
		baseKeyed[label] = v
		order[label] = ep
	}
	compKeyed := make(map[string]float64, len(comp))
	for ep, v := range comp {
		compKeyed[episodeLabel(ep)] = v
	}

	indexed := analytics.IndexSeries(baseKeyed, compKeyed)
	labels := make([]string, 0, len(indexed))
	for label := range indexed {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return order[labels[i]] < order[labels[j]] })

	chart := domain.Series{Name: name}
	for _, label := range labels {
		v := indexed[label]
		point := domain.SeriesPoint{X: label, Y: v, Valid: true}
		if analytics.IsSentinel(v) {
			point.Valid = false
			point.Label = "∞"
		}
		chart.Points = append(chart.Points, point)
	}
	return chart
}

// gradeOrdinal maps letter grades onto a numeric axis for the sweep
// chart, best highest.
func gradeOrdinal(g analytics.Grade) float64 {
	switch g {
	case analytics.GradeS:
		return 5
	case analytics.GradeA:
		return 4
	case analytics.GradeB:
		return 3
	case analytics.GradeC:
		return 2
	case analytics.GradeD:
		return 1
	default:
		return 0
	}
}
