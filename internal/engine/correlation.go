package engine

import (
	"fmt"
	"math"
	"sort"

	"sprawlstats/adapters/stats/accessor"
	"sprawlstats/adapters/stats/descriptive"
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	dstats "sprawlstats/domain/stats"
)

// minCorrelationPairs is the number of paired values a coefficient needs
const minCorrelationPairs = 3

func runCorrelation(p *analysis.CorrelationParams, r *run) (report, error) {
	threshold := p.EffectiveThreshold(r.opts)
	funcs := make([]accessor.Func, len(p.Fields))
	for i, f := range p.Fields {
		funcs[i] = accessor.Compile(f)
	}

	n := len(p.Fields)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}

	out := &analysis.CorrelationData{
		Method:       p.Method,
		Threshold:    threshold,
		Fields:       p.Fields,
		Matrix:       matrix,
		Correlations: []dstats.Correlation{},
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			x, y := paired(r, funcs[i], funcs[j])
			if len(x) < minCorrelationPairs {
				continue
			}
			out.PairsEvaluated++
			c := descriptive.Correlate(p.Method, x, y)
			matrix[i][j], matrix[j][i] = c, c
			if math.Abs(c) < threshold {
				continue
			}
			out.Correlations = append(out.Correlations, dstats.Correlation{
				FieldX:      p.Fields[i],
				FieldY:      p.Fields[j],
				Method:      p.Method,
				Coefficient: c,
				Strength:    dstats.ClassifyStrength(c),
				Direction:   dstats.Direction(c),
				SampleSize:  len(x),
			})
		}
	}
	if out.PairsEvaluated == 0 {
		return report{}, core.NewInsufficientDataError(minCorrelationPairs, 0, "paired values for any field pair")
	}
	sort.SliceStable(out.Correlations, func(a, b int) bool {
		return math.Abs(out.Correlations[a].Coefficient) > math.Abs(out.Correlations[b].Coefficient)
	})
	r.data.Correlation = out

	summary := fmt.Sprintf("%d of %d field pairs reached |r| ≥ %.2g (%s)", len(out.Correlations), out.PairsEvaluated, threshold, p.Method)
	var insights []string
	for _, c := range out.Correlations {
		if c.Strength == dstats.StrengthStrong {
			insights = append(insights, fmt.Sprintf("strong %s correlation between %s and %s (r=%.3f)", c.Direction, c.FieldX, c.FieldY, c.Coefficient))
		}
	}
	if len(out.Correlations) == 0 {
		insights = append(insights, "no field pair crossed the reporting threshold")
	}
	return report{summary: summary, insights: insights}, nil
}

// paired extracts the values of two fields from points where both are present
func paired(r *run, fx, fy accessor.Func) (x, y []float64) {
	for i := range r.points {
		a, okA := number(fx, &r.points[i])
		b, okB := number(fy, &r.points[i])
		if okA && okB {
			x = append(x, a)
			y = append(y, b)
		}
	}
	return x, y
}
