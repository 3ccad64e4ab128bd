// Package clustering implements k-means with k-means++ seeding.
package clustering

import (
	"fmt"
	"math"
	"math/rand/v2"

	"sprawlstats/adapters/stats/descriptive"
	"sprawlstats/domain/core"
	dstats "sprawlstats/domain/stats"
)

// Config controls a k-means run
type Config struct {
	K             int
	Metric        dstats.DistanceMetric
	MaxIterations int
	// Rand seeds centroid selection; nil uses a randomly seeded source
	Rand *rand.Rand
}

// Result is the outcome of a k-means run
type Result struct {
	Assignments []int
	Centroids   [][]float64
	Inertia     float64
	Iterations  int
	Converged   bool
}

// KMeans clusters data (one row per point, one column per feature). It stops
// when assignments no longer change or MaxIterations is reached. Inertia is
// the sum of squared metric distances to the assigned centroid.
func KMeans(data [][]float64, cfg Config) (*Result, error) {
	if cfg.K <= 0 {
		return nil, core.NewParameterError("k", "must be positive")
	}
	if len(data) < cfg.K {
		return nil, core.NewInsufficientDataError(cfg.K, len(data), "valid points for k clusters")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 100
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	dist := Distance(cfg.Metric)

	centroids := seed(data, cfg.K, dist, rng)
	assignments := make([]int, len(data))
	for i := range assignments {
		assignments[i] = -1
	}

	res := &Result{}
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		res.Iterations = iter + 1
		if !assign(data, centroids, assignments, dist) {
			res.Converged = true
			break
		}
		update(data, centroids, assignments, rng)
	}

	for i, c := range assignments {
		d := dist(data[i], centroids[c])
		res.Inertia += d * d
	}
	res.Assignments = assignments
	res.Centroids = centroids
	return res, nil
}

// seed picks k initial centroids with k-means++: the first uniformly, the
// rest with probability proportional to squared distance to the nearest
// centroid chosen so far
func seed(data [][]float64, k int, dist DistanceFunc, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(data[rng.IntN(len(data))]))

	nearest := make([]float64, len(data))
	for i := range nearest {
		nearest[i] = math.Inf(1)
	}

	for len(centroids) < k {
		latest := centroids[len(centroids)-1]
		var total float64
		for i, p := range data {
			d := dist(p, latest)
			if d2 := d * d; d2 < nearest[i] {
				nearest[i] = d2
			}
			total += nearest[i]
		}

		if total == 0 {
			centroids = append(centroids, clone(data[rng.IntN(len(data))]))
			continue
		}

		target := rng.Float64() * total
		chosen := len(data) - 1
		for i, w := range nearest {
			target -= w
			if target < 0 {
				chosen = i
				break
			}
		}
		centroids = append(centroids, clone(data[chosen]))
	}
	return centroids
}

// assign moves every point to its nearest centroid, keeping the first on ties.
// It reports whether any assignment changed.
func assign(data [][]float64, centroids [][]float64, assignments []int, dist DistanceFunc) bool {
	changed := false
	for i, p := range data {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := dist(p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		if assignments[i] != best {
			assignments[i] = best
			changed = true
		}
	}
	return changed
}

// update recomputes centroids as member means; empty clusters are reseeded to
// a random data point
func update(data [][]float64, centroids [][]float64, assignments []int, rng *rand.Rand) {
	dims := len(data[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, c := range assignments {
		counts[c]++
		for j, v := range data[i] {
			sums[c][j] += v
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			centroids[c] = clone(data[rng.IntN(len(data))])
			continue
		}
		for j := range sums[c] {
			centroids[c][j] = sums[c][j] / float64(counts[c])
		}
	}
}

// Normalize z-scores each feature column. A constant column becomes all zeros.
func Normalize(data [][]float64) [][]float64 {
	if len(data) == 0 {
		return data
	}
	dims := len(data[0])
	out := make([][]float64, len(data))
	for i := range out {
		out[i] = make([]float64, dims)
	}
	column := make([]float64, len(data))
	for j := 0; j < dims; j++ {
		for i, row := range data {
			column[i] = row[j]
		}
		z, _, _ := descriptive.Standardize(column)
		for i := range out {
			out[i][j] = z[i]
		}
	}
	return out
}

// Summarize builds per-cluster counts, centroids and per-feature mean/min/max
func Summarize(data [][]float64, res *Result, features []string) ([]dstats.ClusterSummary, error) {
	if len(features) == 0 || (len(data) > 0 && len(data[0]) != len(features)) {
		return nil, fmt.Errorf("feature names do not match data width")
	}

	k := len(res.Centroids)
	members := make([][]int, k)
	for i, c := range res.Assignments {
		members[c] = append(members[c], i)
	}

	out := make([]dstats.ClusterSummary, k)
	for c := 0; c < k; c++ {
		summary := dstats.ClusterSummary{
			Index:    c,
			Count:    len(members[c]),
			Centroid: clone(res.Centroids[c]),
			Features: make(map[string]dstats.FeatureStats, len(features)),
		}
		for j, name := range features {
			if len(members[c]) == 0 {
				continue
			}
			fs := dstats.FeatureStats{Min: math.Inf(1), Max: math.Inf(-1)}
			for _, i := range members[c] {
				v := data[i][j]
				fs.Mean += v
				fs.Min = math.Min(fs.Min, v)
				fs.Max = math.Max(fs.Max, v)
			}
			fs.Mean /= float64(len(members[c]))
			summary.Features[name] = fs
		}
		out[c] = summary
	}
	return out, nil
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
