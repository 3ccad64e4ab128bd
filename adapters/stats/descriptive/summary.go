// Package descriptive holds the numeric kernels shared by every analysis:
// summaries, histograms, least-squares trends, correlation coefficients and
// two-sample tests.
package descriptive

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"sprawlstats/domain/core"
	dstats "sprawlstats/domain/stats"
)

// Describe computes the descriptive summary of values. Variance is the
// population variance; median and quartiles select sorted[floor(n*q)].
func Describe(values []float64) (dstats.Summary, error) {
	n := len(values)
	if n == 0 {
		return dstats.Summary{}, core.NewInsufficientDataError(1, 0, "numeric values")
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, err := stats.Mean(sorted)
	if err != nil {
		return dstats.Summary{}, err
	}
	variance, err := stats.PopulationVariance(sorted)
	if err != nil {
		return dstats.Summary{}, err
	}

	s := dstats.Summary{
		Count:    n,
		Min:      sorted[0],
		Max:      sorted[n-1],
		Mean:     mean,
		Median:   sorted[n/2],
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Q1:       sorted[n/4],
		Q3:       sorted[(3*n)/4],
	}
	s.IQR = s.Q3 - s.Q1
	s.Range = s.Max - s.Min
	return s, nil
}

// OutlierCount counts values outside [Q1 - 1.5·IQR, Q3 + 1.5·IQR]
func OutlierCount(values []float64, s dstats.Summary) int {
	lower := s.Q1 - 1.5*s.IQR
	upper := s.Q3 + 1.5*s.IQR
	count := 0
	for _, v := range values {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

// Standardize returns z-scores of values along with the population mean and
// standard deviation used. A zero deviation maps every value to 0.
func Standardize(values []float64) (z []float64, mean, std float64) {
	z = make([]float64, len(values))
	if len(values) == 0 {
		return z, 0, 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return z, mean, 0
	}
	for i, v := range values {
		z[i] = (v - mean) / std
	}
	return z, mean, std
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
