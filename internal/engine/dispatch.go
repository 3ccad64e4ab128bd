package engine

import (
	"fmt"
	"math"
	"runtime/debug"
	"sort"
	"time"

	"sprawlstats/adapters/stats/accessor"
	"sprawlstats/adapters/stats/sampling"
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
	"sprawlstats/internal/errors"
)

// outcome is what a kernel run produced. err carries kernel failures so the
// same shape can travel back from a worker.
type outcome struct {
	data     *analysis.ResultData
	summary  string
	insights []string
	err      error
}

// run is the per-call view handed to each kernel
type run struct {
	points []observation.Observation
	opts   analysis.Resolved
	data   *analysis.ResultData
}

// report is what a kernel returns besides its data section
type report struct {
	summary  string
	insights []string
}

// execute samples the dataset when required and runs the kernel for typ
func execute(typ analysis.Type, params analysis.Parameters, ds *observation.Dataset, opts analysis.Resolved, mode string) (out *outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = &outcome{err: errors.InternalError(fmt.Sprintf("%s kernel panicked: %v\n%s", typ, r, debug.Stack()))}
		}
	}()

	points := ds.Points
	data := &analysis.ResultData{AnalysisType: typ}
	var insights []string
	if opts.SampleData && opts.SampleSize < len(points) {
		points = sampling.Stratified(points, opts.SampleSize, nil)
		data.Sampling = &analysis.SamplingInfo{OriginalSize: ds.Len(), SampleSize: len(points)}
		insights = append(insights, fmt.Sprintf("analysis ran on a stratified sample of %d of %d points", len(points), ds.Len()))
	}

	r := &run{points: points, opts: opts, data: data}
	rep, err := dispatch(params, r)
	if err != nil {
		return &outcome{err: err}
	}

	data.Execution = analysis.ExecutionInfo{
		Mode:       mode,
		DurationMs: elapsedMs(start),
		PointCount: len(points),
	}
	return &outcome{
		data:     data,
		summary:  rep.summary,
		insights: append(insights, rep.insights...),
	}
}

func dispatch(params analysis.Parameters, r *run) (report, error) {
	switch p := params.(type) {
	case *analysis.TrendParams:
		return runTrend(p, r)
	case *analysis.CorrelationParams:
		return runCorrelation(p, r)
	case *analysis.DistributionParams:
		return runDistribution(p, r)
	case *analysis.ClusteringParams:
		return runClustering(p, r)
	case *analysis.PredictionParams:
		return runPrediction(p, r)
	case *analysis.ComparisonParams:
		return runComparison(p, r)
	case *analysis.ResourceMappingParams:
		return runResourceMapping(p, r)
	case *analysis.SectorAnalysisParams:
		return runSectorAnalysis(p, r)
	}
	return report{}, fmt.Errorf("%w: parameters %T", core.ErrUnsupportedType, params)
}

func fieldValue(p *observation.Observation, path string) observation.Value {
	return accessor.Compile(path)(p)
}

// number reads a finite numeric field
func number(f accessor.Func, p *observation.Observation) (float64, bool) {
	v, ok := f.Float(p)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// numbers collects every finite value of field, in point order
func numbers(points []observation.Observation, field string) []float64 {
	f := accessor.Compile(field)
	out := make([]float64, 0, len(points))
	for i := range points {
		if v, ok := number(f, &points[i]); ok {
			out = append(out, v)
		}
	}
	return out
}

// groupNumbers buckets the finite values of field by the text of groupBy.
// Points without a group label are left out.
func groupNumbers(points []observation.Observation, field, groupBy string) map[string][]float64 {
	vf, gf := accessor.Compile(field), accessor.Compile(groupBy)
	out := make(map[string][]float64)
	for i := range points {
		g, ok := gf.Text(&points[i])
		if !ok || g == "" {
			continue
		}
		if v, ok := number(vf, &points[i]); ok {
			out[g] = append(out[g], v)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
