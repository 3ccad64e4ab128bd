package clustering

import (
	"math"

	dstats "sprawlstats/domain/stats"
)

// DistanceFunc measures two equal-length feature vectors
type DistanceFunc func(a, b []float64) float64

// Distance resolves a metric name. Unknown metrics fall back to euclidean.
func Distance(metric dstats.DistanceMetric) DistanceFunc {
	switch metric {
	case dstats.MetricManhattan:
		return Manhattan
	case dstats.MetricCosine:
		return Cosine
	default:
		return Euclidean
	}
}

// Euclidean is the L2 distance
func Euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Manhattan is the L1 distance
func Manhattan(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// Cosine is 1 - cosine similarity; it is 1 when either vector has zero magnitude
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
