// Package memory holds process-local implementations of the storage ports.
package memory

import (
	"context"
	"sync"

	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/ports"
)

// ResultStore keeps finalized results in memory, indexed by id and by config
type ResultStore struct {
	mu       sync.RWMutex
	results  map[string]*analysis.Result
	byConfig map[string][]string
}

var _ ports.ResultStore = (*ResultStore)(nil)

// NewResultStore creates an empty store
func NewResultStore() *ResultStore {
	return &ResultStore{
		results:  make(map[string]*analysis.Result),
		byConfig: make(map[string][]string),
	}
}

// Save appends result to the history. Results are never replaced.
func (s *ResultStore) Save(ctx context.Context, result *analysis.Result) error {
	if result == nil {
		return core.NewParameterError("result", "must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[result.ID]; exists {
		return nil
	}
	s.results[result.ID] = result
	s.byConfig[result.ConfigID] = append(s.byConfig[result.ConfigID], result.ID)
	return nil
}

// GetByID implements ports.ResultStore
func (s *ResultStore) GetByID(ctx context.Context, id string) (*analysis.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[id]
	if !ok {
		return nil, core.ErrResultNotFound
	}
	return r, nil
}

// ListByConfigID implements ports.ResultStore
func (s *ResultStore) ListByConfigID(ctx context.Context, configID string) ([]*analysis.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byConfig[configID]
	out := make([]*analysis.Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.results[id])
	}
	return out, nil
}

// Len reports how many results are stored
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
