package testkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/domain/observation"
)

func TestExplorationGenerator_Counts(t *testing.T) {
	config := DefaultExplorationConfig()
	config.SectorCount = 5
	config.AnomalyCount = 7
	config.ResourceCount = 11

	ds := NewExplorationGenerator(config).Generate("counts")
	require.Equal(t, 23, ds.Len())

	counts := ds.CountByKind()
	assert.Equal(t, 5, counts[observation.KindSector])
	assert.Equal(t, 7, counts[observation.KindAnomaly])
	assert.Equal(t, 11, counts[observation.KindResource])

	for i := 1; i < ds.Len(); i++ {
		assert.LessOrEqual(t, ds.Points[i-1].Timestamp, ds.Points[i].Timestamp)
	}
}

func TestExplorationGenerator_Deterministic(t *testing.T) {
	config := DefaultExplorationConfig()
	a := NewExplorationGenerator(config).Generate("a")
	b := NewExplorationGenerator(config).Generate("b")

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Points {
		assert.Equal(t, a.Points[i].ID, b.Points[i].ID)
		assert.Equal(t, a.Points[i].Coordinates, b.Points[i].Coordinates)
		assert.Equal(t, a.Points[i].Properties["amount"], b.Points[i].Properties["amount"])
	}
}

func TestExplorationGenerator_ResourceFields(t *testing.T) {
	ds := NewExplorationGenerator(DefaultExplorationConfig()).Generate("fields")
	for _, p := range ds.Points {
		if p.Kind != observation.KindResource {
			continue
		}
		typ, ok := p.Properties["resourceType"].Text()
		require.True(t, ok)
		assert.Contains(t, []string{"minerals", "gas", "crystals"}, typ)

		amount, ok := p.Properties["amount"].Float()
		require.True(t, ok)
		assert.GreaterOrEqual(t, amount, 10.0)
		assert.LessOrEqual(t, amount, 100.0)

		value, ok := p.Properties["estimatedValue"].Float()
		require.True(t, ok)
		assert.Greater(t, value, 0.0)
	}
}

func TestTestKit_SeedDataset(t *testing.T) {
	ctx := context.Background()
	kit := NewTestKit()

	ds, err := kit.SeedDataset(ctx, "seeded", DefaultExplorationConfig())
	require.NoError(t, err)

	got, err := kit.Datasets.GetDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), got.Len())
}

func TestLinearSeries(t *testing.T) {
	ds := LinearSeries(5, 2, 3)
	require.Equal(t, 5, ds.Len())
	y, ok := ds.Points[4].Properties["y"].Float()
	require.True(t, ok)
	assert.Equal(t, 11.0, y)
}

func TestSeededStream(t *testing.T) {
	a := SeededStream("kmeans", 7)
	b := SeededStream("kmeans", 7)
	c := SeededStream("neural", 7)

	va, vb, vc := a.Float64(), b.Float64(), c.Float64()
	assert.Equal(t, va, vb)
	assert.NotEqual(t, va, vc)
}
