package engine

import (
	"fmt"
	"math"

	"sprawlstats/adapters/stats/accessor"
	"sprawlstats/adapters/stats/resources"
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
)

func runResourceMapping(p *analysis.ResourceMappingParams, r *run) (report, error) {
	var (
		typeF   = accessor.Compile(p.TypeField)
		amountF = accessor.Compile(p.AmountField)
		qualF   = accessor.Compile(p.QualityField)
		accessF = accessor.Compile(p.AccessibilityField)
		valueF  = accessor.Compile(p.ValueField)
	)

	deposits := make([]resources.Deposit, 0, len(r.points))
	for i := range r.points {
		pt := &r.points[i]
		if pt.Kind != observation.KindResource {
			continue
		}
		typ, _ := typeF.Text(pt)
		deposits = append(deposits, resources.Deposit{
			Type:          typ,
			X:             pt.Coordinates.X,
			Y:             pt.Coordinates.Y,
			Amount:        orZero(amountF, pt),
			Quality:       orNaN(qualF, pt),
			Accessibility: orNaN(accessF, pt),
			Value:         orZero(valueF, pt),
		})
	}

	grid := resources.MapGrid(deposits, p.RegionSize, p.ResourceTypes)
	r.data.ResourceMap = &analysis.ResourceMapData{
		RegionSize:    p.RegionSize,
		Cells:         grid.Cells,
		Density:       grid.Density,
		TotalsByType:  grid.TotalsByType,
		TotalAmount:   grid.TotalAmount,
		ResourceTypes: grid.Types,
		MappedPoints:  grid.Mapped,
	}
	if r.data.ResourceMap.ResourceTypes == nil {
		r.data.ResourceMap.ResourceTypes = []string{}
	}

	if grid.Mapped == 0 {
		return report{
			summary:  "no resource observations matched the mapping criteria",
			insights: []string{fmt.Sprintf("%d resource observations were considered", len(deposits))},
		}, nil
	}

	summary := fmt.Sprintf("mapped %d resource deposits into %d cells of size %.4g (total amount %.4g)",
		grid.Mapped, len(grid.Cells), p.RegionSize, grid.TotalAmount)
	var insights []string
	if top, ok := strongestFeature(grid.Density); ok {
		insights = append(insights, fmt.Sprintf("%s makes up %.0f%% of all mapped resources", top, grid.Density[top]*100))
	}
	richest := 0
	for i, c := range grid.Cells {
		if c.TotalResourceCount > grid.Cells[richest].TotalResourceCount {
			richest = i
		}
	}
	cell := grid.Cells[richest]
	insights = append(insights, fmt.Sprintf("richest cell at (%.4g, %.4g) holds %.4g, dominated by %s",
		cell.X, cell.Y, cell.TotalResourceCount, cell.DominantResource))
	return report{summary: summary, insights: insights}, nil
}

func runSectorAnalysis(p *analysis.SectorAnalysisParams, r *run) (report, error) {
	amountF := accessor.Compile("amount")
	valueF := accessor.Compile("estimatedValue")
	fieldFuncs := make(map[string]accessor.Func, len(p.Fields))
	for _, f := range p.Fields {
		fieldFuncs[f] = accessor.Compile(f)
	}

	kindCounts := make(map[string]int)
	var sites []resources.Site
	var neighbors []resources.Neighbor
	for i := range r.points {
		pt := &r.points[i]
		kindCounts[string(pt.Kind)]++
		if pt.Kind == observation.KindSector {
			sites = append(sites, resources.Site{ID: pt.ID, Name: pt.Name, X: pt.Coordinates.X, Y: pt.Coordinates.Y})
			continue
		}
		n := resources.Neighbor{
			Kind:   pt.Kind,
			X:      pt.Coordinates.X,
			Y:      pt.Coordinates.Y,
			Amount: orZero(amountF, pt),
			Value:  orZero(valueF, pt),
		}
		if len(fieldFuncs) > 0 {
			n.Fields = make(map[string]float64, len(fieldFuncs))
			for name, f := range fieldFuncs {
				if v, ok := number(f, pt); ok {
					n.Fields[name] = v
				}
			}
		}
		neighbors = append(neighbors, n)
	}
	if len(sites) == 0 {
		return report{}, core.NewInsufficientDataError(1, 0, "sector observations")
	}

	profiles := resources.ProfileSectors(sites, neighbors, p.Radius, p.Fields)
	out := &analysis.SectorAnalysisData{
		Radius:      p.Radius,
		SectorCount: len(sites),
		KindCounts:  kindCounts,
	}
	for _, prof := range profiles {
		out.TotalNearbyValue += prof.ResourceValue
	}
	if p.Limit > 0 && len(profiles) > p.Limit {
		profiles = profiles[:p.Limit]
	}
	out.Sectors = profiles
	r.data.Sectors = out

	summary := fmt.Sprintf("profiled %d sectors within radius %.4g", len(sites), p.Radius)
	var insights []string
	if best := profiles[0]; best.ResourceValue > 0 {
		insights = append(insights, fmt.Sprintf("sector %s has the most valuable surroundings (%.4g from %d resources)",
			displayName(best.Name, best.SectorID), best.ResourceValue, best.ResourceCount))
	} else {
		insights = append(insights, "no resources lie within range of any sector")
	}
	isolated := 0
	for _, prof := range profiles {
		if prof.AnomalyCount == 0 && prof.ResourceCount == 0 {
			isolated++
		}
	}
	if isolated > 0 {
		insights = append(insights, fmt.Sprintf("%d of the listed sectors have nothing within range", isolated))
	}
	return report{summary: summary, insights: insights}, nil
}

func orZero(f accessor.Func, p *observation.Observation) float64 {
	v, _ := number(f, p)
	return v
}

func orNaN(f accessor.Func, p *observation.Observation) float64 {
	if v, ok := number(f, p); ok {
		return v
	}
	return math.NaN()
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
