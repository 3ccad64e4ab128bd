package engine

import (
	"fmt"
	"sort"

	"sprawlstats/adapters/stats/accessor"
	"sprawlstats/adapters/stats/prediction"
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
)

// minPredictionPoints is the smallest dataset a model is fitted on
const minPredictionPoints = 10

const singularInsight = "normal equations were singular; identity fallback used"

func runPrediction(p *analysis.PredictionParams, r *run) (report, error) {
	if len(r.points) < minPredictionPoints {
		return report{}, core.NewInsufficientDataError(minPredictionPoints, len(r.points), "dataset points for prediction")
	}

	points := r.points
	if p.DateField != "" {
		points = chronological(points, p.DateField)
	}

	var (
		x      [][]float64
		y      []float64
		names  []string
		window []float64
	)
	if len(p.Features) > 0 {
		x, y = featureRows(points, p.TargetField, p.Features)
		names = p.Features
		if len(x) > 0 {
			window = x[len(x)-1]
		}
	} else {
		series := numbers(points, p.TargetField)
		x, y = prediction.LagFeatures(series, p.Lags)
		names = lagNames(p.Lags)
		if len(series) >= p.Lags {
			window = series[len(series)-p.Lags:]
		}
	}
	if len(x) < 2 {
		return report{}, core.NewInsufficientDataError(2, len(x), fmt.Sprintf("complete samples for %s", p.TargetField))
	}

	split := prediction.SplitIndex(len(x), p.TestSize)
	trainX, trainY := x[:split], y[:split]
	testX, testY := x[split:], y[split:]

	out := &analysis.PredictionData{
		Method:      p.Method,
		TargetField: p.TargetField,
		Features:    names,
		TrainSize:   len(trainX),
		TestSize:    len(testX),
	}
	var insights []string

	var model prediction.Model
	switch p.Method {
	case analysis.PredictionNeural:
		nn, err := prediction.FitNeural(trainX, trainY, prediction.NeuralConfig{Epochs: p.Epochs})
		if err != nil {
			return report{}, err
		}
		out.HiddenSize = nn.Hidden
		out.Epochs = nn.Epochs
		out.FinalLoss = nn.FinalLoss
		model = nn
	default:
		lm, err := prediction.FitLinear(trainX, trainY)
		if err != nil {
			return report{}, err
		}
		out.Intercept = lm.Intercept
		out.Coefficients = lm.Coefficients
		out.SingularFallback = lm.Singular
		if lm.Singular {
			insights = append(insights, singularInsight)
		}
		model = lm
	}

	metrics, pairs := prediction.Evaluate(model, testX, testY)
	out.Metrics = metrics
	out.FeatureImportance = prediction.NamedImportance(model, names)
	out.Forecast = prediction.Forecast(model, window, *p.ForecastSteps, metrics.RMSE)
	if r.opts.IncludeDetails {
		out.TestPredictions = pairs
	}
	r.data.Prediction = out

	summary := fmt.Sprintf("%s model for %s: R² %.3f, RMSE %.4g on %d held-out samples",
		p.Method, p.TargetField, metrics.R2, metrics.RMSE, len(testX))
	if top, ok := strongestFeature(out.FeatureImportance); ok {
		insights = append(insights, fmt.Sprintf("%s carries the most weight in the model", top))
	}
	if metrics.R2 < 0 {
		insights = append(insights, "the model predicts worse than the held-out mean")
	}
	if n := len(out.Forecast); n > 0 {
		last := out.Forecast[n-1]
		insights = append(insights, fmt.Sprintf("forecast reaches %.4g after %d steps (±%.4g)", last.Value, n, last.Upper-last.Value))
	}
	return report{summary: summary, insights: insights}, nil
}

// chronological orders points by a numeric date field, dropping points that
// lack it
func chronological(points []observation.Observation, field string) []observation.Observation {
	f := accessor.Compile(field)
	type dated struct {
		at float64
		p  observation.Observation
	}
	rows := make([]dated, 0, len(points))
	for i := range points {
		if at, ok := number(f, &points[i]); ok {
			rows = append(rows, dated{at: at, p: points[i]})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at < rows[j].at })
	out := make([]observation.Observation, len(rows))
	for i := range rows {
		out[i] = rows[i].p
	}
	return out
}

// featureRows builds one row per point that has the target and every feature
func featureRows(points []observation.Observation, target string, features []string) ([][]float64, []float64) {
	tf := accessor.Compile(target)
	funcs := make([]accessor.Func, len(features))
	for i, f := range features {
		funcs[i] = accessor.Compile(f)
	}

	var x [][]float64
	var y []float64
	for i := range points {
		t, ok := number(tf, &points[i])
		if !ok {
			continue
		}
		row := make([]float64, len(funcs))
		complete := true
		for j, f := range funcs {
			if row[j], ok = number(f, &points[i]); !ok {
				complete = false
				break
			}
		}
		if complete {
			x = append(x, row)
			y = append(y, t)
		}
	}
	return x, y
}

// lagNames labels lag columns, oldest first
func lagNames(lags int) []string {
	names := make([]string, lags)
	for j := range names {
		names[j] = fmt.Sprintf("lag_%d", lags-j)
	}
	return names
}

func strongestFeature(importance map[string]float64) (string, bool) {
	best, found := "", false
	for _, name := range sortedKeys(importance) {
		if !found || importance[name] > importance[best] {
			best, found = name, true
		}
	}
	return best, found
}
