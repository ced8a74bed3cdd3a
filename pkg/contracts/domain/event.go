package domain

import (
	"time"
)

// Metric identifies a tracked performance metric.
type Metric string

const (
	MetricTargetRating    Metric = "target-rating"
	MetricHouseholdRating Metric = "household-rating"
	MetricViewCount       Metric = "view-count"
	MetricMentionCount    Metric = "mention-count"
	MetricBuzzRank        Metric = "buzz-rank"
)

// Media identifies the distribution channel a measurement was taken on.
type Media string

const (
	MediaTV             Media = "TV"
	MediaStreamingLive  Media = "Streaming-Live"
	MediaStreamingQuick Media = "Streaming-Quick"
	MediaStreamingVOD   Media = "Streaming-VOD"
)

// Reduction selects how raw rows collapse into a per-IP aggregate.
type Reduction int

const (
	// ReduceEpisodeMean averages within each (IP, episode) group, then
	// averages the per-episode means per IP. Used for ratings.
	ReduceEpisodeMean Reduction = iota
	// ReduceEpisodeSum sums within each (IP, episode) group (total
	// audience across sub-channels), then averages per IP.
	ReduceEpisodeSum
	// ReduceIPSum sums all rows per IP with no episode grouping.
	// Used for cumulative digital totals.
	ReduceIPSum
)

// String returns the reduction name used in logs and payload metadata.
func (r Reduction) String() string {
	switch r {
	case ReduceEpisodeMean:
		return "episode-mean"
	case ReduceEpisodeSum:
		return "episode-sum"
	case ReduceIPSum:
		return "ip-sum"
	default:
		return "unknown"
	}
}

// MetricPolicy describes how a metric is aggregated and ranked.
type MetricPolicy struct {
	Metric    Metric    `json:"metric"`
	Reduction Reduction `json:"reduction"`
	// Invert marks rank-valued metrics where a smaller raw value is
	// better (buzz-rank position 1 beats position 20).
	Invert bool `json:"invert"`
	// Broadcast metrics are grouped by episode; digital metrics follow
	// weekly or cumulative series.
	Broadcast bool `json:"broadcast"`
}

// DefaultPolicies is the conventional reduction assignment per metric.
var DefaultPolicies = []MetricPolicy{
	{Metric: MetricTargetRating, Reduction: ReduceEpisodeMean, Broadcast: true},
	{Metric: MetricHouseholdRating, Reduction: ReduceEpisodeMean, Broadcast: true},
	{Metric: MetricViewCount, Reduction: ReduceEpisodeSum, Broadcast: true},
	{Metric: MetricMentionCount, Reduction: ReduceIPSum},
	{Metric: MetricBuzzRank, Reduction: ReduceIPSum, Invert: true},
}

// PolicyFor returns the policy for a metric, falling back to a plain
// episode-mean policy for metrics outside the default table.
func PolicyFor(metric Metric) MetricPolicy {
	for _, p := range DefaultPolicies {
		if p.Metric == metric {
			return p
		}
	}
	return MetricPolicy{Metric: metric, Reduction: ReduceEpisodeMean, Broadcast: true}
}

// EpisodeNumber is an episode index derived from a free-text label.
// Valid is false when the label carried no digits; such rows are
// excluded from every per-episode grouping.
type EpisodeNumber struct {
	Number float64 `json:"number"`
	Valid  bool    `json:"valid"`
}

// Event is one row of the normalized long-format table: a single
// measurement for an IP on one media channel, optionally scoped to an
// episode, a week, and a demographic slice.
type Event struct {
	IP           string        `json:"ip"`
	Slot         string        `json:"slot"`
	Metric       Metric        `json:"metric"`
	Media        Media         `json:"media"`
	Demographic  string        `json:"demographic,omitempty"`
	EpisodeLabel string        `json:"episode_label,omitempty"`
	Episode      EpisodeNumber `json:"episode"`
	WeekLabel    string        `json:"week_label,omitempty"`
	WeekStart    time.Time     `json:"week_start,omitempty"`
	AirStart     time.Time     `json:"air_start,omitempty"`
	// Value is the cleaned numeric measurement. Unparseable cells are
	// coerced to 0 at load time; aggregation treats non-positive values
	// as missing, so a load-time 0 never skews a mean.
	Value float64 `json:"value"`
}

// HasEpisode reports whether the event can participate in per-episode
// grouping.
func (e Event) HasEpisode() bool {
	return e.Episode.Valid
}

// AirYear returns the four-digit year of the first air date, or 0 when
// the date is missing.
func (e Event) AirYear() int {
	if e.AirStart.IsZero() {
		return 0
	}
	return e.AirStart.Year()
}
