package ports

import (
	"context"

	"sprawlstats/domain/observation"
)

// DatasetSource resolves datasets by id for accessors that receive only an id
type DatasetSource interface {
	GetDataset(ctx context.Context, id string) (*observation.Dataset, error)
}
