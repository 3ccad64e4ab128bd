package descriptive

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"sprawlstats/domain/core"
	dstats "sprawlstats/domain/stats"
)

// SignificanceLevel is the p-value cutoff used to flag group differences
const SignificanceLevel = 0.05

// WelchTTest runs an unequal-variance two-sample t-test. Both groups need at
// least two values. When both variances are zero the statistic is 0 and the
// p-value is 1 for equal means, 0 otherwise.
func WelchTTest(a, b []float64) (dstats.WelchTest, error) {
	if len(a) < 2 || len(b) < 2 {
		return dstats.WelchTest{}, core.NewInsufficientDataError(2, min(len(a), len(b)), "values per group")
	}

	na, nb := float64(len(a)), float64(len(b))
	meanA, _ := stats.Mean(a)
	meanB, _ := stats.Mean(b)
	varA, _ := stats.SampleVariance(a)
	varB, _ := stats.SampleVariance(b)

	sa, sb := varA/na, varB/nb
	se2 := sa + sb
	if se2 == 0 {
		p := 1.0
		if meanA != meanB {
			p = 0
		}
		return dstats.WelchTest{T: 0, DF: na + nb - 2, PValue: p}, nil
	}

	t := (meanA - meanB) / math.Sqrt(se2)
	df := se2 * se2 / (sa*sa/(na-1) + sb*sb/(nb-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	return dstats.WelchTest{T: t, DF: df, PValue: math.Max(0, math.Min(1, p))}, nil
}

// CohenD is the standardized mean difference using the pooled sample
// deviation. It is 0 when the pooled deviation is 0.
func CohenD(a, b []float64) float64 {
	if len(a) < 2 || len(b) < 2 {
		return 0
	}
	na, nb := float64(len(a)), float64(len(b))
	meanA, _ := stats.Mean(a)
	meanB, _ := stats.Mean(b)
	varA, _ := stats.SampleVariance(a)
	varB, _ := stats.SampleVariance(b)

	pooled := math.Sqrt(((na-1)*varA + (nb-1)*varB) / (na + nb - 2))
	if pooled == 0 {
		return 0
	}
	return (meanA - meanB) / pooled
}
