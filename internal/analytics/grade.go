package analytics

import (
	"ipdash/pkg/contracts/domain"
)

// DefaultCutoffs is the candidate episode-cutoff list for the grading
// sweep.
var DefaultCutoffs = []float64{2, 4, 6, 8, 10, 12, 14, 16}

// MetricGrade is one IP's grading result for a single metric at a
// given episode cutoff.
type MetricGrade struct {
	IP         string    `json:"ip"`
	Value      Scalar    `json:"value"`
	Percentile Scalar    `json:"percentile"`
	Absolute   Grade     `json:"absolute"`
	Slope      Scalar    `json:"slope"`
	Trend      TrendStep `json:"trend"`
	Label      string    `json:"label"`
}

// restrictCutoff drops episode-numbered rows above the cutoff. Rows
// without an episode number pass through; they never join per-episode
// groups anyway.
func restrictCutoff(rows []domain.Event, cutoff float64) []domain.Event {
	out := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		if r.HasEpisode() && r.Episode.Number > cutoff {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GradeMetric grades every IP in the table on one metric: per-IP
// aggregate under the metric's policy reduction, descending percentile
// rank, quintile letter grade, OLS trend slope, quintile trend step,
// and the concatenated composite label. Results align with IPs(rows).
func GradeMetric(rows []domain.Event, metric domain.Metric, media []domain.Media, cutoff float64) []MetricGrade {
	ips := IPs(rows)
	policy := domain.PolicyFor(metric)

	working := rows
	if policy.Broadcast && cutoff > 0 {
		working = restrictCutoff(rows, cutoff)
	}
	perIP := PerIPAggregate(working, policy, media)

	values := make([]Scalar, len(ips))
	for i, ip := range ips {
		if v, ok := perIP[ip]; ok {
			values[i] = Some(v)
		}
	}

	slopes := make([]Scalar, len(ips))
	for i, ip := range ips {
		if policy.Broadcast {
			slopes[i] = TrendSlope(EpisodeSeries(rows, ip, metric, media), cutoff)
		} else {
			slopes[i] = SlopeOfPoints(WeekSeries(rows, ip, metric))
		}
	}

	rankValues, rankSlopes := values, slopes
	if policy.Invert {
		rankValues = Invert(values)
		rankSlopes = Invert(slopes)
	}

	percentiles := PercentileRank(rankValues)
	absolute := QuintileGrades(rankValues)
	trend := QuintileTrendSteps(rankSlopes)

	out := make([]MetricGrade, len(ips))
	for i, ip := range ips {
		out[i] = MetricGrade{
			IP:         ip,
			Value:      values[i],
			Percentile: percentiles[i],
			Absolute:   absolute[i],
			Slope:      slopes[i],
			Trend:      trend[i],
			Label:      CompositeLabel(absolute[i], trend[i]),
		}
	}
	return out
}

// OverallGrade is an IP's combined grade across all tracked metrics:
// the quintile grade of its mean percentile rank, not a grade of
// grades.
type OverallGrade struct {
	IP             string `json:"ip"`
	MeanPercentile Scalar `json:"mean_percentile"`
	Grade          Grade  `json:"grade"`
}

// GradeOverall averages each IP's percentile ranks across the given
// per-metric gradings, then quintile-grades the combined percentiles.
// IPs with no valid percentile on any metric stay ungraded.
func GradeOverall(ips []string, perMetric ...[]MetricGrade) []OverallGrade {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, grades := range perMetric {
		for _, g := range grades {
			if g.Percentile.Valid {
				sums[g.IP] += g.Percentile.Value
				counts[g.IP]++
			}
		}
	}

	means := make([]Scalar, len(ips))
	for i, ip := range ips {
		if counts[ip] > 0 {
			means[i] = Some(sums[ip] / float64(counts[ip]))
		}
	}

	// A small mean percentile is a good one, so invert before the
	// descending quintile grading.
	grades := QuintileGrades(Invert(means))

	out := make([]OverallGrade, len(ips))
	for i, ip := range ips {
		out[i] = OverallGrade{IP: ip, MeanPercentile: means[i], Grade: grades[i]}
	}
	return out
}

// SweepPoint is one step of the grade-evolution sequence.
type SweepPoint struct {
	Cutoff   float64   `json:"cutoff"`
	Absolute Grade     `json:"absolute"`
	Trend    TrendStep `json:"trend"`
	Label    string    `json:"label"`
}

// GradeSweep re-runs the grading pipeline once per candidate cutoff,
// truncated to cutoffs at or below the IP's maximum observed episode
// with valid data, and returns the IP's grade at each cutoff.
func GradeSweep(rows []domain.Event, ip string, metric domain.Metric, media []domain.Media, cutoffs []float64) []SweepPoint {
	maxEp := MaxEpisode(rows, ip, metric, media)
	if !maxEp.Valid {
		return nil
	}
	out := make([]SweepPoint, 0, len(cutoffs))
	for _, cutoff := range cutoffs {
		if cutoff > maxEp.Value {
			continue
		}
		for _, g := range GradeMetric(rows, metric, media, cutoff) {
			if g.IP != ip {
				continue
			}
			out = append(out, SweepPoint{
				Cutoff:   cutoff,
				Absolute: g.Absolute,
				Trend:    g.Trend,
				Label:    g.Label,
			})
			break
		}
	}
	return out
}
