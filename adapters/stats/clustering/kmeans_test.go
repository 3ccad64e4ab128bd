package clustering

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/domain/core"
	dstats "sprawlstats/domain/stats"
)

func blobs() [][]float64 {
	return [][]float64{
		{0, 0}, {0.5, 0.2}, {0.1, 0.6}, {0.4, 0.4},
		{10, 10}, {10.3, 9.8}, {9.7, 10.4}, {10.1, 10.2},
	}
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	data := blobs()
	res, err := KMeans(data, Config{K: 2, Metric: dstats.MetricEuclidean, MaxIterations: 50, Rand: rand.New(rand.NewPCG(1, 1))})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	for i := 1; i < 4; i++ {
		assert.Equal(t, res.Assignments[0], res.Assignments[i])
	}
	for i := 5; i < 8; i++ {
		assert.Equal(t, res.Assignments[4], res.Assignments[i])
	}
	assert.NotEqual(t, res.Assignments[0], res.Assignments[4])
	assert.Less(t, res.Inertia, 2.0)
}

func TestKMeansOneClusterPerPoint(t *testing.T) {
	data := [][]float64{{1, 2}, {3, 4}, {5, 0}, {-2, 7}, {8, 8}}
	for seed := uint64(0); seed < 5; seed++ {
		res, err := KMeans(data, Config{K: len(data), Metric: dstats.MetricEuclidean, Rand: rand.New(rand.NewPCG(seed, 99))})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, res.Inertia, 1e-12)
	}
}

func TestKMeansRejectsTooFewPoints(t *testing.T) {
	_, err := KMeans([][]float64{{1}, {2}}, Config{K: 3})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = KMeans([][]float64{{1}}, Config{K: 0})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestKMeansDuplicatePoints(t *testing.T) {
	data := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	res, err := KMeans(data, Config{K: 2, Rand: rand.New(rand.NewPCG(5, 5))})
	require.NoError(t, err)
	assert.Len(t, res.Centroids, 2)
	assert.InDelta(t, 0.0, res.Inertia, 1e-12)
}

func TestDistances(t *testing.T) {
	a := []float64{0, 3}
	b := []float64{4, 0}
	assert.Equal(t, 5.0, Euclidean(a, b))
	assert.Equal(t, 7.0, Manhattan(a, b))
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-12)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 1}, []float64{2, 2}), 1e-12)
	assert.Equal(t, 1.0, Cosine([]float64{0, 0}, b))

	assert.Equal(t, 7.0, Distance(dstats.MetricManhattan)(a, b))
	assert.Equal(t, 5.0, Distance("unknown")(a, b))
}

func TestNormalize(t *testing.T) {
	out := Normalize([][]float64{{1, 5}, {3, 5}})
	assert.Equal(t, [][]float64{{-1, 0}, {1, 0}}, out)
}

func TestSummarize(t *testing.T) {
	data := blobs()
	res, err := KMeans(data, Config{K: 2, Rand: rand.New(rand.NewPCG(2, 3))})
	require.NoError(t, err)

	summaries, err := Summarize(data, res, []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	total := 0
	for _, s := range summaries {
		total += s.Count
		fx := s.Features["x"]
		assert.LessOrEqual(t, fx.Min, fx.Mean)
		assert.LessOrEqual(t, fx.Mean, fx.Max)
	}
	assert.Equal(t, len(data), total)

	_, err = Summarize(data, res, []string{"x"})
	assert.Error(t, err)
}
