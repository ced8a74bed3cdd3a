package analytics

// TrendSlope fits a first-degree polynomial by ordinary least squares
// over an episode→value series restricted to episodes at or below the
// cutoff, and returns the slope. A cutoff of 0 or below disables the
// restriction. Fewer than 2 distinct episode points yield a missing
// slope.
func TrendSlope(series map[float64]float64, cutoff float64) Scalar {
	xs := make([]float64, 0, len(series))
	ys := make([]float64, 0, len(series))
	for episode, value := range series {
		if cutoff > 0 && episode > cutoff {
			continue
		}
		xs = append(xs, episode)
		ys = append(ys, value)
	}
	return olsSlope(xs, ys)
}

// SlopeOfPoints fits the OLS slope over ordered series points, using
// each point's ordinal position as the x value. Used for weekly digital
// series where no episode numbering exists.
func SlopeOfPoints(points []SeriesPoint) Scalar {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Order
		ys[i] = p.Value
	}
	return olsSlope(xs, ys)
}

func olsSlope(xs, ys []float64) Scalar {
	n := len(xs)
	if n < 2 {
		return None
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		num += dx * (ys[i] - meanY)
		den += dx * dx
	}
	// All x values identical: no distinct episode points, slope
	// undefined.
	if den == 0 {
		return None
	}
	return Some(num / den)
}
