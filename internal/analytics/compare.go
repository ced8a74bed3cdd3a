package analytics

import (
	"fmt"
	"sort"

	"ipdash/pkg/contracts/domain"
)

// Sentinel marks a comparison index whose denominator was zero while
// the base was not: an "infinite" increase. Downstream range and
// color-scale computations must exclude it; renderers show an explicit
// infinity marker instead of a percentage.
const Sentinel = 999.0

// IsSentinel reports whether an index value is the infinity sentinel.
func IsSentinel(v float64) bool {
	return v == Sentinel
}

// Index computes the normalized percentage delta of base against comp.
func Index(base, comp float64) float64 {
	switch {
	case comp != 0:
		return (base - comp) / comp * 100
	case base == 0:
		return 0
	default:
		return Sentinel
	}
}

// IndexScalar lifts Index over missing values: the index of a missing
// operand is missing.
func IndexScalar(base, comp Scalar) Scalar {
	if !base.Valid || !comp.Valid {
		return None
	}
	return Some(Index(base.Value, comp.Value))
}

// IndexSeries joins two series on their shared keys and computes the
// index per key. Keys present on only one side are dropped.
func IndexSeries(base, comp map[string]float64) map[string]float64 {
	out := map[string]float64{}
	for key, b := range base {
		if c, ok := comp[key]; ok {
			out[key] = Index(b, c)
		}
	}
	return out
}

// IndexRange returns the min and max over index values with sentinels
// excluded, for color-scale bounds. ok is false when nothing remains.
func IndexRange(values []float64) (min, max float64, ok bool) {
	for _, v := range values {
		if IsSentinel(v) {
			continue
		}
		if !ok {
			min, max, ok = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, ok
}

// GroupCriteria defines a comparison group by the mode values of the
// base IP's categorical columns. A criterion whose source column is
// entirely missing for the base IP is dropped, with the reason recorded
// in Warnings.
type GroupCriteria struct {
	Slot         string   `json:"slot,omitempty"`
	SlotValid    bool     `json:"slot_valid"`
	AirYear      int      `json:"air_year,omitempty"`
	AirYearValid bool     `json:"air_year_valid"`
	Warnings     []string `json:"warnings,omitempty"`
}

// BuildGroupCriteria derives the comparison-group filters from the base
// IP's own rows: same programming slot and same air year, each taken as
// the most frequent value within the base subject.
func BuildGroupCriteria(rows []domain.Event, baseIP string) GroupCriteria {
	base := FilterIP(rows, baseIP)
	var c GroupCriteria

	slotCounts := map[string]int{}
	yearCounts := map[int]int{}
	for _, r := range base {
		if r.Slot != "" {
			slotCounts[r.Slot]++
		}
		if y := r.AirYear(); y > 0 {
			yearCounts[y]++
		}
	}

	if slot, ok := modeString(slotCounts); ok {
		c.Slot, c.SlotValid = slot, true
	} else {
		c.Warnings = append(c.Warnings,
			fmt.Sprintf("programming slot unavailable for %q; criterion dropped", baseIP))
	}
	if year, ok := modeInt(yearCounts); ok {
		c.AirYear, c.AirYearValid = year, true
	} else {
		c.Warnings = append(c.Warnings,
			fmt.Sprintf("air year unavailable for %q; criterion dropped", baseIP))
	}
	return c
}

// FilterGroup returns the rows of every other IP matching the present
// criteria: the comparison group's raw table.
func FilterGroup(rows []domain.Event, baseIP string, c GroupCriteria) []domain.Event {
	out := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		if r.IP == baseIP {
			continue
		}
		if c.SlotValid && r.Slot != c.Slot {
			continue
		}
		if c.AirYearValid && r.AirYear() != c.AirYear {
			continue
		}
		out = append(out, r)
	}
	return out
}

// modeString returns the most frequent key, breaking ties toward the
// lexicographically smallest so the result is deterministic.
func modeString(counts map[string]int) (string, bool) {
	if len(counts) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}

func modeInt(counts map[int]int) (int, bool) {
	if len(counts) == 0 {
		return 0, false
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}
