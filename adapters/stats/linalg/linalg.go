// Package linalg provides the small dense-matrix routines used by regression.
package linalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PivotThreshold is the smallest pivot magnitude accepted during inversion
const PivotThreshold = 1e-10

// Transpose returns a copy of aᵀ
func Transpose(a mat.Matrix) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(c, r, nil)
	out.Copy(a.T())
	return out
}

// Multiply returns a·b, or an error when the inner dimensions disagree
func Multiply(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return nil, fmt.Errorf("dimension mismatch: %dx%d times %dx%d", ar, ac, br, bc)
	}
	out := mat.NewDense(ar, bc, nil)
	out.Mul(a, b)
	return out, nil
}

// Invert computes a⁻¹ by Gauss-Jordan elimination with partial pivoting.
// When a is not square or a pivot falls below PivotThreshold the identity is
// returned with singular set; callers decide how to surface the fallback.
func Invert(a mat.Matrix) (inv *mat.Dense, singular bool) {
	n, c := a.Dims()
	if n != c || n == 0 {
		return Identity(n), true
	}

	// augmented [a | I]
	aug := mat.NewDense(n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, a.At(i, j))
		}
		aug.Set(i, n+i, 1)
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(aug.At(r, col)) > math.Abs(aug.At(pivot, col)) {
				pivot = r
			}
		}
		if math.Abs(aug.At(pivot, col)) < PivotThreshold {
			return Identity(n), true
		}
		if pivot != col {
			swapRows(aug, pivot, col)
		}

		p := aug.At(col, col)
		row := aug.RawRowView(col)
		for j := range row {
			row[j] /= p
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := aug.At(r, col)
			if f == 0 {
				continue
			}
			target := aug.RawRowView(r)
			for j := range target {
				target[j] -= f * row[j]
			}
		}
	}

	inv = mat.NewDense(n, n, nil)
	inv.Copy(aug.Slice(0, n, n, 2*n))
	return inv, false
}

// Identity returns the n×n identity matrix
func Identity(n int) *mat.Dense {
	if n == 0 {
		return &mat.Dense{}
	}
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// SolveNormalEquations fits β = (XᵀX)⁻¹Xᵀy. singular reports that XᵀX could
// not be inverted and the identity was used in its place.
func SolveNormalEquations(x *mat.Dense, y []float64) (beta []float64, singular bool, err error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, false, fmt.Errorf("design matrix has %d rows, target has %d", rows, len(y))
	}

	xt := Transpose(x)
	xtx, err := Multiply(xt, x)
	if err != nil {
		return nil, false, err
	}
	inv, singular := Invert(xtx)

	xty, err := Multiply(xt, mat.NewDense(rows, 1, y))
	if err != nil {
		return nil, false, err
	}
	solved, err := Multiply(inv, xty)
	if err != nil {
		return nil, false, err
	}

	beta = make([]float64, cols)
	for i := range beta {
		beta[i] = solved.At(i, 0)
	}
	return beta, singular, nil
}

func swapRows(m *mat.Dense, i, j int) {
	a, b := m.RawRowView(i), m.RawRowView(j)
	for k := range a {
		a[k], b[k] = b[k], a[k]
	}
}
