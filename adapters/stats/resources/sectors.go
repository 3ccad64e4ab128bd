package resources

import (
	"math"
	"sort"

	"sprawlstats/domain/observation"
	dstats "sprawlstats/domain/stats"
)

// Site is a sector center
type Site struct {
	ID, Name string
	X, Y     float64
}

// Neighbor is a non-sector observation that may fall inside a sector radius.
// Fields holds the requested numeric fields that were present.
type Neighbor struct {
	Kind   observation.Kind
	X, Y   float64
	Amount float64
	Value  float64
	Fields map[string]float64
}

// ProfileSectors counts the anomalies and resources within radius of each
// site, sums the nearby resource amount and value, and averages the requested
// fields over nearby observations. Profiles are ranked by nearby resource
// value, highest first, then by sector id.
func ProfileSectors(sites []Site, neighbors []Neighbor, radius float64, fields []string) []dstats.SectorProfile {
	out := make([]dstats.SectorProfile, 0, len(sites))
	for _, site := range sites {
		profile := dstats.SectorProfile{SectorID: site.ID, Name: site.Name, X: site.X, Y: site.Y}
		sums := make(map[string]float64, len(fields))
		counts := make(map[string]int, len(fields))

		for _, n := range neighbors {
			if math.Hypot(n.X-site.X, n.Y-site.Y) > radius {
				continue
			}
			switch n.Kind {
			case observation.KindAnomaly:
				profile.AnomalyCount++
			case observation.KindResource:
				profile.ResourceCount++
				profile.ResourceAmount += n.Amount
				profile.ResourceValue += n.Value
			}
			for _, f := range fields {
				if v, ok := n.Fields[f]; ok {
					sums[f] += v
					counts[f]++
				}
			}
		}

		if len(counts) > 0 {
			profile.FieldMeans = make(map[string]float64, len(counts))
			for f, c := range counts {
				profile.FieldMeans[f] = sums[f] / float64(c)
			}
		}
		out = append(out, profile)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ResourceValue != out[j].ResourceValue {
			return out[i].ResourceValue > out[j].ResourceValue
		}
		return out[i].SectorID < out[j].SectorID
	})
	return out
}
