package prediction

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = []float64{float64(i)}
		y[i] = 2*float64(i) + 3
	}
	return x, y
}

func TestFitLinearRecoversLine(t *testing.T) {
	x, y := line(8)
	m, err := FitLinear(x, y)
	require.NoError(t, err)

	assert.False(t, m.Singular)
	assert.InDelta(t, 3.0, m.Intercept, 1e-9)
	require.Len(t, m.Coefficients, 1)
	assert.InDelta(t, 2.0, m.Coefficients[0], 1e-9)

	metrics, pairs := Evaluate(m, x, y)
	assert.InDelta(t, 1.0, metrics.R2, 1e-9)
	assert.InDelta(t, 0.0, metrics.RMSE, 1e-9)
	assert.Len(t, pairs, 8)
	assert.InDeltaSlice(t, []float64{2}, m.Importance(), 1e-9)
}

func TestFitLinearCollinearFlagsSingular(t *testing.T) {
	x := [][]float64{{1, 2}, {2, 4}, {3, 6}, {4, 8}}
	y := []float64{1, 2, 3, 4}
	m, err := FitLinear(x, y)
	require.NoError(t, err)
	assert.True(t, m.Singular)
}

func TestFitLinearRejectsEmpty(t *testing.T) {
	_, err := FitLinear(nil, nil)
	assert.Error(t, err)
}

func TestHiddenSize(t *testing.T) {
	assert.Equal(t, 5, HiddenSize(1))
	assert.Equal(t, 8, HiddenSize(4))
	assert.Equal(t, 20, HiddenSize(30))
}

func TestFitNeuralLearnsLinearSignal(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	n := 200
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := rng.Float64()*10 - 5
		x[i] = []float64{a}
		y[i] = 3*a + 1
	}

	net, err := FitNeural(x, y, NeuralConfig{Epochs: 500, Rand: rand.New(rand.NewPCG(1, 2))})
	require.NoError(t, err)
	assert.Equal(t, 5, net.Hidden)
	assert.Less(t, net.FinalLoss, 0.3)

	metrics, _ := Evaluate(net, x, y)
	assert.Greater(t, metrics.R2, 0.7)

	imp := net.Importance()
	require.Len(t, imp, 1)
	assert.InDelta(t, 1.0, imp[0], 1e-9)
}

func TestFitNeuralConstantTarget(t *testing.T) {
	x, _ := line(12)
	y := make([]float64, 12)
	for i := range y {
		y[i] = 4
	}
	net, err := FitNeural(x, y, NeuralConfig{Epochs: 10, Rand: rand.New(rand.NewPCG(3, 3))})
	require.NoError(t, err)
	p := net.Predict([]float64{5})
	assert.False(t, math.IsNaN(p))
	assert.False(t, math.IsInf(p, 0))
}

func TestSplitIndex(t *testing.T) {
	assert.Equal(t, 8, SplitIndex(10, 0.2))
	assert.Equal(t, 9, SplitIndex(10, 0.01))
	assert.Equal(t, 1, SplitIndex(3, 0.99))
	assert.Equal(t, 1, SplitIndex(1, 0.2))
}

func TestEvaluateConstantActuals(t *testing.T) {
	m := &LinearModel{Intercept: 5}
	metrics, _ := Evaluate(m, [][]float64{{1}, {2}}, []float64{5, 5})
	assert.Equal(t, 1.0, metrics.R2)

	metrics, _ = Evaluate(m, [][]float64{{1}, {2}}, []float64{4, 4})
	assert.Equal(t, 0.0, metrics.R2)
	assert.Equal(t, 1.0, metrics.MAE)
}

func TestLagFeatures(t *testing.T) {
	x, y := LagFeatures([]float64{1, 2, 3, 4, 5}, 2)
	assert.Equal(t, [][]float64{{1, 2}, {2, 3}, {3, 4}}, x)
	assert.Equal(t, []float64{3, 4, 5}, y)

	x, y = LagFeatures([]float64{1, 2}, 2)
	assert.Nil(t, x)
	assert.Nil(t, y)
}

func TestForecastSlidesWindow(t *testing.T) {
	// next = previous + 1 on a lag-2 window
	m := &LinearModel{Intercept: 1, Coefficients: []float64{0, 1}}
	fc := Forecast(m, []float64{4, 5}, 3, 0.5)
	require.Len(t, fc, 3)
	assert.Equal(t, 6.0, fc[0].Value)
	assert.Equal(t, 7.0, fc[1].Value)
	assert.Equal(t, 8.0, fc[2].Value)
	assert.Equal(t, 7.0, fc[2].Lower)
	assert.Equal(t, 9.0, fc[2].Upper)
	assert.Equal(t, 3, fc[2].Step)

	assert.Nil(t, Forecast(m, []float64{1}, 0, 1))
}

func TestNamedImportance(t *testing.T) {
	m := &LinearModel{Coefficients: []float64{-2, 0.5}}
	assert.Equal(t, map[string]float64{"a": 2, "b": 0.5}, NamedImportance(m, []string{"a", "b"}))
}
