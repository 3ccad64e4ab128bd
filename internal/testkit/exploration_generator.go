package testkit

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
)

// ExplorationGeneratorConfig configures the synthetic exploration dataset
type ExplorationGeneratorConfig struct {
	SectorCount   int       `json:"sector_count"`
	AnomalyCount  int       `json:"anomaly_count"`
	ResourceCount int       `json:"resource_count"`
	ResourceTypes []string  `json:"resource_types"`
	WorldSize     float64   `json:"world_size"`
	StartTime     time.Time `json:"start_time"`
	Span          time.Duration `json:"span"`
	// EnergyDrift is the per-hour increase of anomaly energy
	EnergyDrift float64 `json:"energy_drift"`
	Seed        uint64  `json:"seed"`
}

// DefaultExplorationConfig returns a small mixed dataset configuration
func DefaultExplorationConfig() ExplorationGeneratorConfig {
	return ExplorationGeneratorConfig{
		SectorCount:   20,
		AnomalyCount:  60,
		ResourceCount: 120,
		ResourceTypes: []string{"minerals", "gas", "crystals"},
		WorldSize:     1000,
		StartTime:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Span:          72 * time.Hour,
		EnergyDrift:   0.5,
		Seed:          42,
	}
}

// resource base prices, per unit of amount at quality 1
var basePrice = map[string]float64{
	"minerals": 2,
	"gas":      3,
	"crystals": 8,
}

var factions = []string{"unaligned", "guild", "consortium"}

// ExplorationGenerator produces sectors, anomalies and resources with known
// relationships: resource value tracks amount·quality·price, anomaly energy
// drifts upward over time, and sector population grows with development.
type ExplorationGenerator struct {
	config ExplorationGeneratorConfig
	rng    *rand.Rand
}

// NewExplorationGenerator creates a generator seeded from config.Seed
func NewExplorationGenerator(config ExplorationGeneratorConfig) *ExplorationGenerator {
	return &ExplorationGenerator{
		config: config,
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
	}
}

// Generate builds a mixed dataset ordered by timestamp
func (g *ExplorationGenerator) Generate(name string) *observation.Dataset {
	points := make([]observation.Observation, 0, g.config.SectorCount+g.config.AnomalyCount+g.config.ResourceCount)
	for i := 0; i < g.config.SectorCount; i++ {
		points = append(points, g.sector(i))
	}
	for i := 0; i < g.config.AnomalyCount; i++ {
		points = append(points, g.anomaly(i))
	}
	for i := 0; i < g.config.ResourceCount; i++ {
		points = append(points, g.resource(i))
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })

	ds := observation.NewDataset(name, observation.SourceMixed)
	ds.Append(points...)
	return ds
}

func (g *ExplorationGenerator) sector(i int) observation.Observation {
	development := g.rng.Float64()
	population := math.Round(1000 + 9000*development + g.rng.NormFloat64()*300)
	return observation.Observation{
		ID:          fmt.Sprintf("sector_%03d", i+1),
		Kind:        observation.KindSector,
		Name:        fmt.Sprintf("Sector %d", i+1),
		Timestamp:   g.timestamp(),
		Coordinates: g.position(),
		Properties: observation.Properties{
			"population":  observation.Number(math.Max(0, population)),
			"development": observation.Number(development),
			"faction":     observation.String(factions[g.rng.IntN(len(factions))]),
			"scanned":     observation.Bool(g.rng.Float64() < 0.7),
		},
	}
}

func (g *ExplorationGenerator) anomaly(i int) observation.Observation {
	ts := g.timestamp()
	hours := float64(ts-int64(core.ToMillis(g.config.StartTime))) / float64(time.Hour.Milliseconds())
	energy := 50 + g.config.EnergyDrift*hours + g.rng.NormFloat64()*5

	severity := "low"
	switch {
	case energy > 80:
		severity = "high"
	case energy > 60:
		severity = "medium"
	}
	return observation.Observation{
		ID:          fmt.Sprintf("anomaly_%03d", i+1),
		Kind:        observation.KindAnomaly,
		Name:        fmt.Sprintf("Anomaly %d", i+1),
		Timestamp:   ts,
		Coordinates: g.position(),
		Properties: observation.Properties{
			"energy":    observation.Number(energy),
			"stability": observation.Number(g.rng.Float64()),
			"severity":  observation.String(severity),
		},
		Metadata: observation.Properties{
			"detector": observation.String("long-range"),
		},
	}
}

func (g *ExplorationGenerator) resource(i int) observation.Observation {
	typ := g.config.ResourceTypes[g.rng.IntN(len(g.config.ResourceTypes))]
	amount := math.Round(10 + g.rng.Float64()*90)
	quality := 0.2 + 0.8*g.rng.Float64()
	price, ok := basePrice[typ]
	if !ok {
		price = 1
	}
	value := amount * quality * price * (1 + g.rng.NormFloat64()*0.02)

	return observation.Observation{
		ID:          fmt.Sprintf("resource_%03d", i+1),
		Kind:        observation.KindResource,
		Name:        fmt.Sprintf("%s deposit %d", typ, i+1),
		Timestamp:   g.timestamp(),
		Coordinates: g.position(),
		Properties: observation.Properties{
			"resourceType":   observation.String(typ),
			"amount":         observation.Number(amount),
			"quality":        observation.Number(quality),
			"accessibility":  observation.Number(g.rng.Float64()),
			"estimatedValue": observation.Number(value),
		},
	}
}

func (g *ExplorationGenerator) timestamp() int64 {
	offset := time.Duration(g.rng.Int64N(int64(g.config.Span) + 1))
	return int64(core.ToMillis(g.config.StartTime.Add(offset)))
}

func (g *ExplorationGenerator) position() observation.Coordinates {
	return observation.Coordinates{
		X: math.Round(g.rng.Float64()*g.config.WorldSize*10) / 10,
		Y: math.Round(g.rng.Float64()*g.config.WorldSize*10) / 10,
	}
}

// LinearSeries builds n resource observations whose amount is slope·i+intercept,
// one per minute from the generator start time
func LinearSeries(n int, slope, intercept float64) *observation.Dataset {
	start := DefaultExplorationConfig().StartTime
	ds := observation.NewDataset("linear", observation.SourceResources)
	for i := 0; i < n; i++ {
		x := float64(i)
		ds.Append(observation.Observation{
			ID:          fmt.Sprintf("p%03d", i),
			Kind:        observation.KindResource,
			Timestamp:   int64(core.ToMillis(start.Add(time.Duration(i) * time.Minute))),
			Coordinates: observation.Coordinates{X: x, Y: x},
			Properties: observation.Properties{
				"x":            observation.Number(x),
				"y":            observation.Number(slope*x + intercept),
				"resourceType": observation.String("minerals"),
				"amount":       observation.Number(slope*x + intercept),
			},
		})
	}
	return ds
}
