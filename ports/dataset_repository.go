package ports

import (
	"context"

	"sprawlstats/domain/observation"
)

// DatasetRepository registers datasets handed over by the collection component
type DatasetRepository interface {
	DatasetSource

	// Put registers or replaces a dataset by id
	Put(ctx context.Context, ds *observation.Dataset) error

	// AppendPoints appends observations and bumps the dataset's UpdatedAt
	AppendPoints(ctx context.Context, id string, points ...observation.Observation) (*observation.Dataset, error)

	// List returns every registered dataset, oldest first
	List(ctx context.Context) ([]*observation.Dataset, error)

	Delete(ctx context.Context, id string) error
}
