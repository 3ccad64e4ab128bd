// Package resources aggregates resource deposits onto a square grid and
// profiles the neighbourhood of each sector.
package resources

import (
	"math"
	"sort"
	"strings"

	dstats "sprawlstats/domain/stats"
)

// Deposit is one resource observation reduced to the values the grid needs.
// Quality and Accessibility are NaN when the observation did not report them.
type Deposit struct {
	Type          string
	X, Y          float64
	Amount        float64
	Quality       float64
	Accessibility float64
	Value         float64
}

// Grid is the aggregated resource map
type Grid struct {
	Cells        []dstats.ResourceCell
	Density      map[string]float64
	TotalsByType map[string]float64
	TotalAmount  float64
	Types        []string
	Mapped       int
}

type cellKey struct{ x, y float64 }

type stack struct {
	amount, value         float64
	qualitySum, accessSum float64
	qualityN, accessN     int
	count                 int
}

// CellOrigin floors a coordinate to the origin of its grid cell
func CellOrigin(v, regionSize float64) float64 {
	return math.Floor(v/regionSize) * regionSize
}

// MapGrid partitions deposits into regionSize squares. Within a cell deposits
// of the same type merge: amount and value sum, quality and accessibility are
// the mean of every reported value. The dominant type has the largest summed
// amount. Density is each type's share of the grand total. When types is
// non-empty only those types (case-insensitive) are mapped.
func MapGrid(deposits []Deposit, regionSize float64, types []string) Grid {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[strings.ToLower(t)] = true
	}

	cells := make(map[cellKey]map[string]*stack)
	totals := make(map[string]float64)
	grid := Grid{Density: make(map[string]float64)}

	for _, d := range deposits {
		if d.Type == "" {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(d.Type)] {
			continue
		}
		key := cellKey{CellOrigin(d.X, regionSize), CellOrigin(d.Y, regionSize)}
		byType, ok := cells[key]
		if !ok {
			byType = make(map[string]*stack)
			cells[key] = byType
		}
		s, ok := byType[d.Type]
		if !ok {
			s = &stack{}
			byType[d.Type] = s
		}
		s.merge(d)
		totals[d.Type] += d.Amount
		grid.TotalAmount += d.Amount
		grid.Mapped++
	}

	grid.Cells = make([]dstats.ResourceCell, 0, len(cells))
	for key, byType := range cells {
		grid.Cells = append(grid.Cells, buildCell(key, byType))
	}
	sort.Slice(grid.Cells, func(i, j int) bool {
		if grid.Cells[i].X != grid.Cells[j].X {
			return grid.Cells[i].X < grid.Cells[j].X
		}
		return grid.Cells[i].Y < grid.Cells[j].Y
	})

	grid.TotalsByType = totals
	for t, amount := range totals {
		grid.Types = append(grid.Types, t)
		if grid.TotalAmount != 0 {
			grid.Density[t] = amount / grid.TotalAmount
		} else {
			grid.Density[t] = 0
		}
	}
	sort.Strings(grid.Types)
	return grid
}

func (s *stack) merge(d Deposit) {
	s.amount += d.Amount
	s.value += d.Value
	s.count++
	if !math.IsNaN(d.Quality) {
		s.qualitySum += d.Quality
		s.qualityN++
	}
	if !math.IsNaN(d.Accessibility) {
		s.accessSum += d.Accessibility
		s.accessN++
	}
}

func buildCell(key cellKey, byType map[string]*stack) dstats.ResourceCell {
	cell := dstats.ResourceCell{X: key.x, Y: key.y}
	for t, s := range byType {
		cell.Resources = append(cell.Resources, dstats.ResourceStack{
			Type:           t,
			Amount:         s.amount,
			Quality:        mean(s.qualitySum, s.qualityN),
			Accessibility:  mean(s.accessSum, s.accessN),
			EstimatedValue: s.value,
			Count:          s.count,
		})
		cell.TotalResourceCount += s.amount
	}
	sort.Slice(cell.Resources, func(i, j int) bool {
		a, b := cell.Resources[i], cell.Resources[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Type < b.Type
	})
	if len(cell.Resources) > 0 {
		dominant := cell.Resources[0]
		cell.DominantResource = dominant.Type
		if cell.TotalResourceCount != 0 {
			cell.DominantPercentage = dominant.Amount / cell.TotalResourceCount
		}
	}
	return cell
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
