// Package sampling reduces large datasets by stratified random sampling on
// observation kind.
package sampling

import (
	"math/rand/v2"
	"sort"

	"sprawlstats/domain/observation"
)

// Stratified draws targetSize observations, keeping each kind's share of the
// dataset. Quotas are floor(targetSize * count / n); leftover slots are handed
// out round-robin across kinds in first-seen order. Selected observations keep
// their original relative order.
//
// A nil rng uses a randomly seeded source.
func Stratified(points []observation.Observation, targetSize int, rng *rand.Rand) []observation.Observation {
	n := len(points)
	if targetSize >= n {
		out := make([]observation.Observation, n)
		copy(out, points)
		return out
	}
	if targetSize <= 0 {
		return []observation.Observation{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var order []observation.Kind
	strata := make(map[observation.Kind][]int)
	for i := range points {
		k := points[i].Kind
		if _, seen := strata[k]; !seen {
			order = append(order, k)
		}
		strata[k] = append(strata[k], i)
	}

	quotas := make(map[observation.Kind]int, len(order))
	allocated := 0
	for _, k := range order {
		q := targetSize * len(strata[k]) / n
		quotas[k] = q
		allocated += q
	}

	for remaining := targetSize - allocated; remaining > 0; {
		progressed := false
		for _, k := range order {
			if remaining == 0 {
				break
			}
			if quotas[k] < len(strata[k]) {
				quotas[k]++
				remaining--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	selected := make([]int, 0, targetSize)
	for _, k := range order {
		selected = append(selected, pick(strata[k], quotas[k], rng)...)
	}
	sort.Ints(selected)

	out := make([]observation.Observation, len(selected))
	for i, idx := range selected {
		out[i] = points[idx]
	}
	return out
}

// pick returns m indices chosen uniformly without replacement using a partial
// Fisher-Yates shuffle
func pick(indices []int, m int, rng *rand.Rand) []int {
	if m >= len(indices) {
		return indices
	}
	pool := make([]int, len(indices))
	copy(pool, indices)
	for i := 0; i < m; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:m]
}
