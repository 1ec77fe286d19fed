package domain

import (
	"math"
	"sort"
)

// iqrFence is the standard Tukey fence multiplier.
const iqrFence = 1.5

// FilterOutliers removes interquartile-range outliers from a sample. Values
// outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR] are dropped, preserving the input
// order of the survivors. If fewer than half of the values would survive,
// the input is returned unchanged. Pure function of the input multiset.
func FilterOutliers(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := quantileSorted(sorted, 0.25)
	q3 := quantileSorted(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - iqrFence*iqr
	upper := q3 + iqrFence*iqr

	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lower && v <= upper {
			filtered = append(filtered, v)
		}
	}

	// Retention guard: keep the original sample when the fences would
	// discard half or more of it.
	if 2*len(filtered) < len(values) {
		return values
	}
	return filtered
}

// quantileSorted returns the p-quantile of an ascending sample using linear
// interpolation between the two nearest ranks (position (n-1)*p).
func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := float64(n-1) * p
	l := int(math.Floor(pos))
	u := int(math.Ceil(pos))
	if l == u {
		return sorted[l]
	}
	frac := pos - float64(l)
	return sorted[l]*(1-frac) + sorted[u]*frac
}
