package descriptive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/domain/core"
	dstats "sprawlstats/domain/stats"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{4, 1, 3, 2, 5})
	require.NoError(t, err)

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 3.0, s.Median)
	assert.InDelta(t, 2.0, s.Variance, 1e-12)
	assert.InDelta(t, math.Sqrt2, s.StdDev, 1e-12)
	assert.Equal(t, 2.0, s.Q1)
	assert.Equal(t, 4.0, s.Q3)
	assert.Equal(t, 2.0, s.IQR)
	assert.Equal(t, 4.0, s.Range)

	// even count selects the upper middle
	s, err = Describe([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Median)

	_, err = Describe(nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestOutlierCount(t *testing.T) {
	values := []float64{10, 11, 12, 13, 14, 15, 100}
	s, err := Describe(values)
	require.NoError(t, err)
	assert.Equal(t, 1, OutlierCount(values, s))
}

func TestStandardize(t *testing.T) {
	z, mean, std := Standardize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, mean)
	assert.InDelta(t, 2.0, std, 1e-12)
	assert.InDelta(t, -1.5, z[0], 1e-12)
	assert.InDelta(t, 2.0, z[7], 1e-12)

	z, _, std = Standardize([]float64{3, 3, 3})
	assert.Zero(t, std)
	assert.Equal(t, []float64{0, 0, 0}, z)
}

func TestLinearTrend(t *testing.T) {
	points := []dstats.Point{{X: 0, Y: 1}, {X: 1, Y: 3}, {X: 2, Y: 5}, {X: 3, Y: 7}}
	tr := LinearTrend(points)
	assert.InDelta(t, 2.0, tr.Slope, 1e-12)
	assert.InDelta(t, 1.0, tr.Intercept, 1e-12)
	assert.InDelta(t, 9.0, tr.At(4), 1e-12)
	assert.Equal(t, "increasing", TrendDirection(tr.Slope))

	// epoch-millisecond x values
	base := 1.7e12
	points = []dstats.Point{{X: base, Y: 10}, {X: base + 1000, Y: 8}, {X: base + 2000, Y: 6}}
	tr = LinearTrend(points)
	assert.InDelta(t, -0.002, tr.Slope, 1e-12)
	assert.Equal(t, "decreasing", TrendDirection(tr.Slope))
}

func TestLinearTrendDegenerate(t *testing.T) {
	tr := LinearTrend([]dstats.Point{{X: 5, Y: 1}, {X: 5, Y: 3}})
	assert.Equal(t, 0.0, tr.Slope)
	assert.Equal(t, 2.0, tr.Intercept)
	assert.Equal(t, "stable", TrendDirection(tr.Slope))
	assert.Equal(t, "stable", TrendDirection(5e-10))

	assert.Equal(t, dstats.Trend{}, LinearTrend(nil))
}

func TestMovingAverage(t *testing.T) {
	points := []dstats.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 10}}
	ma := MovingAverage(points, 2)
	assert.Equal(t, []dstats.Point{{X: 2, Y: 1.5}, {X: 3, Y: 2.5}, {X: 4, Y: 6.5}}, ma)

	assert.Nil(t, MovingAverage(points, 1))
	assert.Nil(t, MovingAverage(points, 5))
}

func TestHistogram(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	bins := Histogram(values, 5, false)
	require.Len(t, bins, 5)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, len(values), total, "max must land in the last bin")
	assert.Equal(t, 0.0, bins[0].Start)
	assert.Equal(t, 10.0, bins[4].End)
	assert.Equal(t, 3, bins[4].Count)

	norm := Histogram(values, 5, true)
	assert.Equal(t, 1.0, norm[4].Value)
	assert.InDelta(t, 2.0/3.0, norm[0].Value, 1e-12)
}

func TestHistogramDegenerate(t *testing.T) {
	bins := Histogram([]float64{4, 4, 4}, 10, false)
	require.Len(t, bins, 1)
	assert.Equal(t, 3, bins[0].Count)
	assert.Equal(t, 4.0, bins[0].Start)
	assert.Equal(t, 4.0, bins[0].End)

	assert.Empty(t, Histogram(nil, 10, false))
	assert.Empty(t, Histogram([]float64{1}, 0, false))
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Pearson(x, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, Pearson(x, []float64{5, 4, 3, 2, 1}), 1e-12)
	assert.Equal(t, 0.0, Pearson(x, []float64{0.1, 0.1, 0.1, 0.1, 0.1}))
	assert.Equal(t, 0.0, Pearson(x, []float64{1, 2}))
	assert.Equal(t, 0.0, Pearson([]float64{1}, []float64{1}))
}

func TestRanksAverageTies(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, Ranks([]float64{10, 20, 20, 30}))
	assert.Equal(t, []float64{3, 1, 2}, Ranks([]float64{9, 1, 5}))
}

func TestSpearmanMonotonic(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{1, 4, 9, 16, 25, 1000}
	assert.InDelta(t, 1.0, Spearman(x, y), 1e-12)
	assert.Less(t, Pearson(x, y), 1.0)
}

func TestKendallTau(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, KendallTau(x, []float64{3, 5, 7, 20, 21}), 1e-12)
	assert.InDelta(t, -1.0, KendallTau(x, []float64{5, 4, 3, 2, 1}), 1e-12)

	// one swapped neighbour out of ten pairs: (9 - 1) / 10
	assert.InDelta(t, 0.8, KendallTau(x, []float64{1, 3, 2, 4, 5}), 1e-12)
	assert.Equal(t, 0.0, KendallTau([]float64{1}, []float64{1}))
}

func TestCorrelateDispatch(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{1, 8, 27, 64}
	assert.Equal(t, Pearson(x, y), Correlate(dstats.MethodPearson, x, y))
	assert.Equal(t, Spearman(x, y), Correlate(dstats.MethodSpearman, x, y))
	assert.Equal(t, KendallTau(x, y), Correlate(dstats.MethodKendall, x, y))
}

func TestWelchTTest(t *testing.T) {
	a := []float64{20.1, 19.8, 20.5, 20.0, 19.9, 20.3}
	b := []float64{25.2, 24.8, 25.9, 25.1, 24.7, 25.5}
	res, err := WelchTTest(a, b)
	require.NoError(t, err)
	assert.Less(t, res.T, 0.0)
	assert.Less(t, res.PValue, SignificanceLevel)
	assert.Greater(t, res.DF, 0.0)

	same, err := WelchTTest(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, same.T, 1e-12)
	assert.InDelta(t, 1.0, same.PValue, 1e-9)

	flat, err := WelchTTest([]float64{1, 1}, []float64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, flat.PValue)

	_, err = WelchTTest([]float64{1}, b)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestCohenD(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{3, 4, 5}
	assert.InDelta(t, -2.0, CohenD(a, b), 1e-12)
	assert.Equal(t, 0.0, CohenD([]float64{1, 1}, []float64{1, 1}))
}
