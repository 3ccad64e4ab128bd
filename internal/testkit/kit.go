package testkit

import (
	"context"
	"fmt"
	"math/rand/v2"

	"sprawlstats/adapters/memory"
	"sprawlstats/domain/observation"
)

// TestKit bundles in-memory stores and fixture builders for tests and demos
type TestKit struct {
	Results  *memory.ResultStore
	Datasets *memory.DatasetRepository
}

// NewTestKit creates a kit with empty stores
func NewTestKit() *TestKit {
	return &TestKit{
		Results:  memory.NewResultStore(),
		Datasets: memory.NewDatasetRepository(),
	}
}

// SeedDataset generates a dataset from config and registers it
func (t *TestKit) SeedDataset(ctx context.Context, name string, config ExplorationGeneratorConfig) (*observation.Dataset, error) {
	ds := NewExplorationGenerator(config).Generate(name)
	if err := t.Datasets.Put(ctx, ds); err != nil {
		return nil, fmt.Errorf("register dataset %s: %w", name, err)
	}
	return ds, nil
}

// Register stores an already-built dataset
func (t *TestKit) Register(ctx context.Context, ds *observation.Dataset) error {
	return t.Datasets.Put(ctx, ds)
}

// SeededStream returns a deterministic generator for a named stream so
// separate fixtures built from one seed do not share draws
func SeededStream(name string, seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(hashString(name))))
}

// hashString is djb2 over the runes of s
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}

// Resource builds a resource observation at (x, y)
func Resource(id, typ string, x, y, amount float64) observation.Observation {
	return observation.Observation{
		ID:          id,
		Kind:        observation.KindResource,
		Name:        typ,
		Coordinates: observation.Coordinates{X: x, Y: y},
		Properties: observation.Properties{
			"resourceType": observation.String(typ),
			"amount":       observation.Number(amount),
		},
	}
}

// Sector builds a sector observation at (x, y)
func Sector(id, name string, x, y float64) observation.Observation {
	return observation.Observation{
		ID:          id,
		Kind:        observation.KindSector,
		Name:        name,
		Coordinates: observation.Coordinates{X: x, Y: y},
		Properties:  observation.Properties{},
	}
}

// Anomaly builds an anomaly observation at (x, y) with the given energy
func Anomaly(id string, x, y, energy float64) observation.Observation {
	return observation.Observation{
		ID:          id,
		Kind:        observation.KindAnomaly,
		Coordinates: observation.Coordinates{X: x, Y: y},
		Properties: observation.Properties{
			"energy": observation.Number(energy),
		},
	}
}
