package descriptive

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	dstats "sprawlstats/domain/stats"
)

// Correlate dispatches to the coefficient named by method. Unknown methods fall
// back to Pearson.
func Correlate(method dstats.CorrelationMethod, x, y []float64) float64 {
	switch method {
	case dstats.MethodSpearman:
		return Spearman(x, y)
	case dstats.MethodKendall:
		return KendallTau(x, y)
	default:
		return Pearson(x, y)
	}
}

// Pearson returns the product-moment correlation of x and y, or 0 when the
// series differ in length, have fewer than two points, or either is constant.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if isConstant(x) || isConstant(y) {
		return 0
	}
	r, err := stats.Correlation(x, y)
	if err != nil || math.IsNaN(r) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// Spearman is Pearson applied to average ranks
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	return Pearson(Ranks(x), Ranks(y))
}

// Ranks assigns 1-based ranks, averaging ranks across ties
func Ranks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// KendallTau computes τ = (C - D) / (n(n-1)/2). Pairs are ordered by x (ties
// broken by y) and discordant pairs are counted as inversions of y with a
// merge sort, so the cost is O(n log n).
func KendallTau(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if x[idx[a]] != x[idx[b]] {
			return x[idx[a]] < x[idx[b]]
		}
		return y[idx[a]] < y[idx[b]]
	})

	ys := make([]float64, n)
	for i, k := range idx {
		ys[i] = y[k]
	}

	discordant := countInversions(ys, make([]float64, n))
	total := float64(n) * float64(n-1) / 2
	concordant := total - float64(discordant)
	return (concordant - float64(discordant)) / total
}

// countInversions sorts a in place and returns the number of pairs i < j with
// a[i] > a[j]
func countInversions(a, buf []float64) int64 {
	if len(a) < 2 {
		return 0
	}
	mid := len(a) / 2
	inv := countInversions(a[:mid], buf[:mid]) + countInversions(a[mid:], buf[mid:])

	i, j, k := 0, mid, 0
	for i < mid && j < len(a) {
		if a[i] <= a[j] {
			buf[k] = a[i]
			i++
		} else {
			buf[k] = a[j]
			inv += int64(mid - i)
			j++
		}
		k++
	}
	k += copy(buf[k:], a[i:mid])
	copy(buf[k:], a[j:])
	copy(a, buf[:len(a)])
	return inv
}
