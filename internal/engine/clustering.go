package engine

import (
	"fmt"

	"sprawlstats/adapters/stats/accessor"
	"sprawlstats/adapters/stats/clustering"
	"sprawlstats/domain/analysis"
)

func runClustering(p *analysis.ClusteringParams, r *run) (report, error) {
	funcs := make([]accessor.Func, len(p.Features))
	for i, f := range p.Features {
		funcs[i] = accessor.Compile(f)
	}

	rows := make([][]float64, 0, len(r.points))
	ids := make([]string, 0, len(r.points))
	skipped := 0
	for i := range r.points {
		row := make([]float64, len(funcs))
		complete := true
		for j, f := range funcs {
			v, ok := number(f, &r.points[i])
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if !complete {
			skipped++
			continue
		}
		rows = append(rows, row)
		ids = append(ids, r.points[i].ID)
	}

	if r.opts.Normalize {
		rows = clustering.Normalize(rows)
	}
	res, err := clustering.KMeans(rows, clustering.Config{
		K:             p.K,
		Metric:        p.DistanceMetric,
		MaxIterations: p.MaxIterations,
	})
	if err != nil {
		return report{}, err
	}
	clusters, err := clustering.Summarize(rows, res, p.Features)
	if err != nil {
		return report{}, err
	}

	out := &analysis.ClusteringData{
		Features:      p.Features,
		K:             p.K,
		Metric:        p.DistanceMetric,
		Normalized:    r.opts.Normalize,
		Inertia:       res.Inertia,
		Iterations:    res.Iterations,
		Converged:     res.Converged,
		Clusters:      clusters,
		SkippedPoints: skipped,
	}
	if r.opts.IncludeDetails {
		out.Assignments = make([]analysis.ClusterAssignment, len(ids))
		for i, id := range ids {
			out.Assignments[i] = analysis.ClusterAssignment{PointID: id, Cluster: res.Assignments[i]}
		}
	}
	r.data.Clustering = out

	summary := fmt.Sprintf("%d points grouped into %d clusters (inertia %.4g, %d iterations)", len(rows), p.K, res.Inertia, res.Iterations)
	var insights []string
	largest := 0
	for i, c := range clusters {
		if c.Count > clusters[largest].Count {
			largest = i
		}
	}
	if len(clusters) > 0 {
		insights = append(insights, fmt.Sprintf("cluster %d is the largest with %d points", largest, clusters[largest].Count))
	}
	if skipped > 0 {
		insights = append(insights, fmt.Sprintf("%d points were skipped for missing features", skipped))
	}
	if !res.Converged {
		insights = append(insights, fmt.Sprintf("k-means stopped at the %d iteration limit before converging", p.MaxIterations))
	}
	return report{summary: summary, insights: insights}, nil
}
