package observation

import (
	"sprawlstats/domain/core"
)

// Source describes which collection stream produced a dataset
type Source string

const (
	SourceSectors   Source = "sectors"
	SourceAnomalies Source = "anomalies"
	SourceResources Source = "resources"
	SourceMixed     Source = "mixed"
)

// Dataset is an ordered collection of observations. UpdatedAt is the cache
// invalidation signal: every mutation of Points must go through a method that
// bumps it.
type Dataset struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedAt core.Millis   `json:"createdAt"`
	UpdatedAt core.Millis   `json:"updatedAt"`
	Source    Source        `json:"source"`
	Points    []Observation `json:"points"`
}

// NewDataset creates an empty dataset with a fresh id
func NewDataset(name string, source Source) *Dataset {
	now := core.NowMillis()
	return &Dataset{
		ID:        core.NewID().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Source:    source,
	}
}

// Len returns the number of observations
func (d *Dataset) Len() int {
	return len(d.Points)
}

// Append adds observations and bumps UpdatedAt
func (d *Dataset) Append(points ...Observation) {
	if len(points) == 0 {
		return
	}
	d.Points = append(d.Points, points...)
	d.Touch()
}

// Replace swaps the observation at index i and bumps UpdatedAt
func (d *Dataset) Replace(i int, point Observation) bool {
	if i < 0 || i >= len(d.Points) {
		return false
	}
	d.Points[i] = point
	d.Touch()
	return true
}

// Touch advances UpdatedAt. It is strictly monotonic so two mutations inside the
// same millisecond still produce distinct cache keys.
func (d *Dataset) Touch() {
	now := core.NowMillis()
	if now <= d.UpdatedAt {
		now = d.UpdatedAt + 1
	}
	d.UpdatedAt = now
}

// WithPoints returns a shallow copy carrying a different point slice. The copy
// keeps the original identity and timestamps.
func (d *Dataset) WithPoints(points []Observation) *Dataset {
	cp := *d
	cp.Points = points
	return &cp
}

// CountByKind tallies observations per kind
func (d *Dataset) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for i := range d.Points {
		counts[d.Points[i].Kind]++
	}
	return counts
}
