// Package prediction fits regression models and produces autoregressive
// forecasts.
package prediction

import (
	"math"

	dstats "sprawlstats/domain/stats"
)

// Model predicts a target from a feature vector
type Model interface {
	Predict(features []float64) float64
	// Importance returns one non-negative weight per input feature
	Importance() []float64
}

// SplitIndex returns the number of leading samples used for training. At least
// one sample is held out and at least one is kept for training.
func SplitIndex(n int, testSize float64) int {
	if n < 2 {
		return n
	}
	test := int(math.Round(float64(n) * testSize))
	if test < 1 {
		test = 1
	}
	if test > n-1 {
		test = n - 1
	}
	return n - test
}

// Evaluate scores m on (x, y)
func Evaluate(m Model, x [][]float64, y []float64) (dstats.RegressionMetrics, []dstats.PredictionPair) {
	pairs := make([]dstats.PredictionPair, len(y))
	if len(y) == 0 {
		return dstats.RegressionMetrics{}, pairs
	}

	var meanY float64
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(len(y))

	var ssRes, ssTot, absErr float64
	for i := range y {
		pred := m.Predict(x[i])
		pairs[i] = dstats.PredictionPair{Actual: y[i], Predicted: pred}
		resid := y[i] - pred
		ssRes += resid * resid
		absErr += math.Abs(resid)
		ssTot += (y[i] - meanY) * (y[i] - meanY)
	}

	n := float64(len(y))
	mse := ssRes / n
	metrics := dstats.RegressionMetrics{
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		MAE:  absErr / n,
	}
	switch {
	case ssTot > 0:
		metrics.R2 = 1 - ssRes/ssTot
	case ssRes == 0:
		metrics.R2 = 1
	}
	return metrics, pairs
}

// Forecast extends the series autoregressively: each prediction is appended
// to the feature window and the oldest feature is dropped. Bands are
// value ± 2·rmse.
func Forecast(m Model, window []float64, steps int, rmse float64) []dstats.ForecastPoint {
	if steps <= 0 || len(window) == 0 {
		return nil
	}
	current := make([]float64, len(window))
	copy(current, window)

	out := make([]dstats.ForecastPoint, 0, steps)
	for step := 1; step <= steps; step++ {
		v := m.Predict(current)
		out = append(out, dstats.ForecastPoint{
			Step:  step,
			Value: v,
			Lower: v - 2*rmse,
			Upper: v + 2*rmse,
		})
		copy(current, current[1:])
		current[len(current)-1] = v
	}
	return out
}

// LagFeatures turns a series into rows of the previous lags values, oldest
// first, with the following value as the target
func LagFeatures(series []float64, lags int) (x [][]float64, y []float64) {
	if lags <= 0 || len(series) <= lags {
		return nil, nil
	}
	for i := lags; i < len(series); i++ {
		row := make([]float64, lags)
		copy(row, series[i-lags:i])
		x = append(x, row)
		y = append(y, series[i])
	}
	return x, y
}

// NamedImportance pairs importance weights with feature names
func NamedImportance(m Model, names []string) map[string]float64 {
	weights := m.Importance()
	out := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(weights) {
			out[name] = weights[i]
		}
	}
	return out
}
