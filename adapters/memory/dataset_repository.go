package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
	"sprawlstats/ports"
)

// DatasetRepository is an in-memory dataset registry. Stored datasets are
// treated as immutable snapshots: AppendPoints swaps in a new value so
// readers holding the previous pointer keep a consistent view.
type DatasetRepository struct {
	mu       sync.RWMutex
	datasets map[string]*observation.Dataset
}

var _ ports.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates an empty repository
func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{datasets: make(map[string]*observation.Dataset)}
}

// Put registers or replaces a dataset
func (r *DatasetRepository) Put(ctx context.Context, ds *observation.Dataset) error {
	if ds == nil || ds.ID == "" {
		return core.NewParameterError("dataset", "must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[ds.ID] = ds
	return nil
}

// GetDataset implements ports.DatasetSource
func (r *DatasetRepository) GetDataset(ctx context.Context, id string) (*observation.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	return ds, nil
}

// AppendPoints adds observations and bumps UpdatedAt, which invalidates any
// cached result for the dataset
func (r *DatasetRepository) AppendPoints(ctx context.Context, id string, points ...observation.Observation) (*observation.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ds, ok := r.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	merged := make([]observation.Observation, 0, len(ds.Points)+len(points))
	merged = append(merged, ds.Points...)
	next := ds.WithPoints(merged)
	next.Append(points...)
	r.datasets[id] = next
	return next, nil
}

// List returns every dataset ordered by creation time
func (r *DatasetRepository) List(ctx context.Context) ([]*observation.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*observation.Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a dataset
func (r *DatasetRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	delete(r.datasets, id)
	return nil
}
