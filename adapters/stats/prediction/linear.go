package prediction

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"sprawlstats/adapters/stats/linalg"
	"sprawlstats/domain/core"
)

// LinearModel is an ordinary least-squares fit with a bias term
type LinearModel struct {
	Intercept    float64
	Coefficients []float64
	// Singular is set when XᵀX could not be inverted and identity was used
	Singular bool
}

// FitLinear solves the normal equations for x with a leading bias column
func FitLinear(x [][]float64, y []float64) (*LinearModel, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, core.NewInsufficientDataError(1, len(x), "training samples")
	}
	width := len(x[0])

	design := mat.NewDense(len(x), width+1, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	beta, singular, err := linalg.SolveNormalEquations(design, y)
	if err != nil {
		return nil, err
	}
	return &LinearModel{
		Intercept:    beta[0],
		Coefficients: beta[1:],
		Singular:     singular,
	}, nil
}

// Predict implements Model
func (m *LinearModel) Predict(features []float64) float64 {
	out := m.Intercept
	for i, c := range m.Coefficients {
		if i < len(features) {
			out += c * features[i]
		}
	}
	return out
}

// Importance is the absolute value of each coefficient
func (m *LinearModel) Importance() []float64 {
	out := make([]float64, len(m.Coefficients))
	for i, c := range m.Coefficients {
		out[i] = math.Abs(c)
	}
	return out
}
