package analytics

import (
	"sort"
)

// PercentileRank ranks a cross-IP value vector in descending order with
// ties averaged, returning fractions in (0,1]. The highest value gets
// the smallest fraction (1/n when untied). Missing inputs stay missing.
func PercentileRank(values []Scalar) []Scalar {
	type entry struct {
		index int
		value float64
	}
	valid := make([]entry, 0, len(values))
	for i, v := range values {
		if v.Valid {
			valid = append(valid, entry{index: i, value: v.Value})
		}
	}
	out := make([]Scalar, len(values))
	n := len(valid)
	if n == 0 {
		return out
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].value > valid[j].value })

	// Average the 1-based positions within each tie group, then divide
	// by the count of ranked values.
	for i := 0; i < n; {
		j := i
		for j < n && valid[j].value == valid[i].value {
			j++
		}
		sum := 0.0
		for k := i; k < j; k++ {
			sum += float64(k + 1)
		}
		avg := sum / float64(j-i)
		for k := i; k < j; k++ {
			out[valid[k].index] = Some(avg / float64(n))
		}
		i = j
	}
	return out
}

// quintileBucket maps a rank fraction in (0,1] to a bin index 0..4 for
// the bins [0,.2],(.2,.4],(.4,.6],(.6,.8],(.8,1].
func quintileBucket(p float64) int {
	switch {
	case p <= 0.2:
		return 0
	case p <= 0.4:
		return 1
	case p <= 0.6:
		return 2
	case p <= 0.8:
		return 3
	default:
		return 4
	}
}

// QuintileGrades buckets a raw value vector into the five letter grades
// by descending percentile rank: the best 20% of values map to S.
// Missing values produce GradeNone, never a default letter.
func QuintileGrades(values []Scalar) []Grade {
	ranks := PercentileRank(values)
	grades := make([]Grade, len(values))
	for i, p := range ranks {
		if !p.Valid {
			grades[i] = GradeNone
			continue
		}
		grades[i] = gradeScale[quintileBucket(p.Value)]
	}
	return grades
}

// QuintileTrendSteps buckets a slope vector into the -2..+2 trend scale
// the same way: the steepest-rising 20% map to +2.
func QuintileTrendSteps(slopes []Scalar) []TrendStep {
	ranks := PercentileRank(slopes)
	steps := make([]TrendStep, len(slopes))
	for i, p := range ranks {
		if !p.Valid {
			continue
		}
		steps[i] = TrendStep{Step: trendScale[quintileBucket(p.Value)], Valid: true}
	}
	return steps
}

// Invert flips the sign of present values. Rank-valued metrics where a
// smaller number is better (buzz rank) are inverted before percentile
// ranking so the ranking's descending convention still holds.
func Invert(values []Scalar) []Scalar {
	out := make([]Scalar, len(values))
	for i, v := range values {
		if v.Valid {
			out[i] = Some(-v.Value)
		}
	}
	return out
}
