package ports

import (
	"context"

	"sprawlstats/domain/analysis"
)

// ResultStore is the append-only history of analysis results
type ResultStore interface {
	// Save records a finalized result. Saving the same id twice is a no-op.
	Save(ctx context.Context, result *analysis.Result) error

	// GetByID returns a result or core.ErrResultNotFound
	GetByID(ctx context.Context, id string) (*analysis.Result, error)

	// ListByConfigID returns every result produced for a config, oldest first
	ListByConfigID(ctx context.Context, configID string) ([]*analysis.Result, error)
}
