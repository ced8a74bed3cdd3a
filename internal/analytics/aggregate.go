package analytics

import (
	"sort"

	"ipdash/pkg/contracts/domain"
)

// episodeKey identifies an (IP, episode) group.
type episodeKey struct {
	ip      string
	episode float64
}

// FilterIP returns the rows belonging to one IP.
func FilterIP(rows []domain.Event, ip string) []domain.Event {
	out := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		if r.IP == ip {
			out = append(out, r)
		}
	}
	return out
}

// filterRows applies the common pre-reduction pipeline: metric match,
// optional media set, and the zero filter. A non-positive value in this
// domain signals missing data, not a true zero measurement, so such
// rows are excluded rather than averaged in.
func filterRows(rows []domain.Event, metric domain.Metric, media []domain.Media) []domain.Event {
	mediaSet := map[domain.Media]bool{}
	for _, m := range media {
		mediaSet[m] = true
	}
	out := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		if r.Metric != metric {
			continue
		}
		if len(mediaSet) > 0 && !mediaSet[r.Media] {
			continue
		}
		if r.Value <= 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// filterEpisodes drops rows whose episode label carried no digits;
// they cannot participate in per-episode grouping.
func filterEpisodes(rows []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		if r.HasEpisode() {
			out = append(out, r)
		}
	}
	return out
}

// perEpisodeReduce groups rows by (IP, episode) and reduces each group
// with a sum or a mean.
func perEpisodeReduce(rows []domain.Event, sum bool) map[episodeKey]float64 {
	totals := map[episodeKey]float64{}
	counts := map[episodeKey]int{}
	for _, r := range rows {
		k := episodeKey{ip: r.IP, episode: r.Episode.Number}
		totals[k] += r.Value
		counts[k]++
	}
	out := make(map[episodeKey]float64, len(totals))
	for k, total := range totals {
		if sum {
			out[k] = total
		} else {
			out[k] = total / float64(counts[k])
		}
	}
	return out
}

// meanPerIP collapses per-episode values into one value per IP by
// averaging across episodes.
func meanPerIP(episodes map[episodeKey]float64) map[string]float64 {
	totals := map[string]float64{}
	counts := map[string]int{}
	for k, v := range episodes {
		totals[k.ip] += v
		counts[k.ip]++
	}
	out := make(map[string]float64, len(totals))
	for ip, total := range totals {
		out[ip] = total / float64(counts[ip])
	}
	return out
}

// meanOfMap averages map values, missing on an empty map.
func meanOfMap(perIP map[string]float64) Scalar {
	if len(perIP) == 0 {
		return None
	}
	total := 0.0
	for _, v := range perIP {
		total += v
	}
	return Some(total / float64(len(perIP)))
}

// PerIPEpisodeMeans computes, for each IP, the mean of its per-episode
// means for one metric, optionally restricted to a media set.
func PerIPEpisodeMeans(rows []domain.Event, metric domain.Metric, media []domain.Media) map[string]float64 {
	filtered := filterEpisodes(filterRows(rows, metric, media))
	return meanPerIP(perEpisodeReduce(filtered, false))
}

// PerIPEpisodeSums computes, for each IP, the mean of its per-episode
// sums: the total audience reached across sub-channels in an episode,
// averaged across episodes.
func PerIPEpisodeSums(rows []domain.Event, metric domain.Metric, media []domain.Media) map[string]float64 {
	filtered := filterEpisodes(filterRows(rows, metric, media))
	return meanPerIP(perEpisodeReduce(filtered, true))
}

// PerIPSums computes each IP's cumulative total for one metric with no
// episode grouping.
func PerIPSums(rows []domain.Event, metric domain.Metric) map[string]float64 {
	filtered := filterRows(rows, metric, nil)
	out := map[string]float64{}
	for _, r := range filtered {
		out[r.IP] += r.Value
	}
	return out
}

// MeanOfEpisodeMeans returns the cross-IP mean of per-IP episode-mean
// aggregates. Missing when no rows survive filtering at any stage.
func MeanOfEpisodeMeans(rows []domain.Event, metric domain.Metric, media []domain.Media) Scalar {
	return meanOfMap(PerIPEpisodeMeans(rows, metric, media))
}

// MeanOfEpisodeSums returns the cross-IP mean of per-IP episode-sum
// aggregates.
func MeanOfEpisodeSums(rows []domain.Event, metric domain.Metric, media []domain.Media) Scalar {
	return meanOfMap(PerIPEpisodeSums(rows, metric, media))
}

// MeanOfIPSums returns the cross-IP mean of cumulative per-IP totals.
func MeanOfIPSums(rows []domain.Event, metric domain.Metric) Scalar {
	return meanOfMap(PerIPSums(rows, metric))
}

// PerIPAggregate dispatches to the reduction named by the metric's
// policy and returns the per-IP aggregate map.
func PerIPAggregate(rows []domain.Event, policy domain.MetricPolicy, media []domain.Media) map[string]float64 {
	switch policy.Reduction {
	case domain.ReduceEpisodeSum:
		return PerIPEpisodeSums(rows, policy.Metric, media)
	case domain.ReduceIPSum:
		return PerIPSums(rows, policy.Metric)
	default:
		return PerIPEpisodeMeans(rows, policy.Metric, media)
	}
}

// Aggregate returns the cross-IP mean aggregate for a metric under its
// policy reduction.
func Aggregate(rows []domain.Event, policy domain.MetricPolicy, media []domain.Media) Scalar {
	return meanOfMap(PerIPAggregate(rows, policy, media))
}

// EpisodeSeries builds one IP's per-episode reduced series for a metric,
// using the inner reduction the metric's policy prescribes (mean for
// ratings, sum for volumetric counts). Keys are episode numbers.
func EpisodeSeries(rows []domain.Event, ip string, metric domain.Metric, media []domain.Media) map[float64]float64 {
	policy := domain.PolicyFor(metric)
	filtered := filterEpisodes(filterRows(FilterIP(rows, ip), metric, media))
	reduced := perEpisodeReduce(filtered, policy.Reduction == domain.ReduceEpisodeSum)
	out := make(map[float64]float64, len(reduced))
	for k, v := range reduced {
		out[k.episode] = v
	}
	return out
}

// WeekSeries builds one IP's per-week series for a metric, ordered by
// week start date, summing within each week. Digital metrics with no
// episode structure trend over this series instead. Rows whose week
// start failed to parse carry a zero time and cannot be ordered, so
// they stay out of the series the same way digit-less episode labels
// stay out of episode groupings.
func WeekSeries(rows []domain.Event, ip string, metric domain.Metric) []SeriesPoint {
	filtered := filterRows(FilterIP(rows, ip), metric, nil)
	type week struct {
		label string
		start int64
	}
	totals := map[week]float64{}
	for _, r := range filtered {
		if r.WeekLabel == "" || r.WeekStart.IsZero() {
			continue
		}
		totals[week{label: r.WeekLabel, start: r.WeekStart.Unix()}] += r.Value
	}
	points := make([]SeriesPoint, 0, len(totals))
	for w, v := range totals {
		points = append(points, SeriesPoint{Key: w.label, Order: float64(w.start), Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Order != points[j].Order {
			return points[i].Order < points[j].Order
		}
		return points[i].Key < points[j].Key
	})
	// Re-index so trend slopes run over a uniform week ordinal rather
	// than epoch seconds.
	for i := range points {
		points[i].Order = float64(i + 1)
	}
	return points
}

// SeriesPoint is an ordered (key, value) pair produced by WeekSeries.
type SeriesPoint struct {
	Key   string
	Order float64
	Value float64
}

// MeanEpisodeSeries builds the group-average per-episode series over
// every IP in the table: rows reduce per (IP, episode) under the
// metric's policy, then average across IPs within each episode. Used as
// the comparison subject when comparing one IP against a group.
func MeanEpisodeSeries(rows []domain.Event, metric domain.Metric, media []domain.Media) map[float64]float64 {
	policy := domain.PolicyFor(metric)
	filtered := filterEpisodes(filterRows(rows, metric, media))
	reduced := perEpisodeReduce(filtered, policy.Reduction == domain.ReduceEpisodeSum)

	totals := map[float64]float64{}
	counts := map[float64]int{}
	for k, v := range reduced {
		totals[k.episode] += v
		counts[k.episode]++
	}
	out := make(map[float64]float64, len(totals))
	for ep, total := range totals {
		out[ep] = total / float64(counts[ep])
	}
	return out
}

// MaxEpisode returns the highest episode number with valid data for an
// IP and metric, missing when the IP has no valid episode rows.
func MaxEpisode(rows []domain.Event, ip string, metric domain.Metric, media []domain.Media) Scalar {
	filtered := filterEpisodes(filterRows(FilterIP(rows, ip), metric, media))
	if len(filtered) == 0 {
		return None
	}
	max := filtered[0].Episode.Number
	for _, r := range filtered[1:] {
		if r.Episode.Number > max {
			max = r.Episode.Number
		}
	}
	return Some(max)
}

// IPs lists the distinct IP names in the table, sorted.
func IPs(rows []domain.Event) []string {
	seen := map[string]bool{}
	for _, r := range rows {
		if r.IP != "" {
			seen[r.IP] = true
		}
	}
	out := make([]string, 0, len(seen))
	for ip := range seen {
		out = append(out, ip)
	}
	sort.Strings(out)
	return out
}

// Demographics lists the distinct demographic buckets, sorted.
func Demographics(rows []domain.Event) []string {
	seen := map[string]bool{}
	for _, r := range rows {
		if r.Demographic != "" {
			seen[r.Demographic] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
