package engine

import (
	"fmt"
	"sort"

	"sprawlstats/adapters/stats/accessor"
	"sprawlstats/adapters/stats/descriptive"
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	dstats "sprawlstats/domain/stats"
)

func runTrend(p *analysis.TrendParams, r *run) (report, error) {
	xf, yf := accessor.Compile(p.XField), accessor.Compile(p.YField)
	var gf accessor.Func
	if p.GroupBy != "" {
		gf = accessor.Compile(p.GroupBy)
	}

	series := make([]dstats.Point, 0, len(r.points))
	groups := make(map[string][]dstats.Point)
	for i := range r.points {
		x, okX := number(xf, &r.points[i])
		y, okY := number(yf, &r.points[i])
		if !okX || !okY {
			continue
		}
		pt := dstats.Point{X: x, Y: y}
		series = append(series, pt)
		if gf != nil {
			if g, ok := gf.Text(&r.points[i]); ok && g != "" {
				groups[g] = append(groups[g], pt)
			}
		}
	}
	if len(series) < 2 {
		return report{}, core.NewInsufficientDataError(2, len(series), fmt.Sprintf("points with numeric %s and %s", p.XField, p.YField))
	}
	sortByX(series)

	trend := descriptive.LinearTrend(series)
	out := &analysis.TrendData{
		XField:     p.XField,
		YField:     p.YField,
		Trend:      trend,
		Direction:  descriptive.TrendDirection(trend.Slope),
		PointCount: len(series),
		Start:      series[0],
		End:        series[len(series)-1],
	}
	if p.WindowSize > 1 {
		out.MovingAverage = descriptive.MovingAverage(series, p.WindowSize)
	}

	var insights []string
	if len(groups) > 0 {
		out.Groups = make(map[string]analysis.GroupTrend, len(groups))
		for _, name := range sortedKeys(groups) {
			pts := groups[name]
			sortByX(pts)
			gt := descriptive.LinearTrend(pts)
			dir := descriptive.TrendDirection(gt.Slope)
			out.Groups[name] = analysis.GroupTrend{Trend: gt, Direction: dir, PointCount: len(pts)}
			if len(pts) >= 2 && dir != out.Direction {
				insights = append(insights, fmt.Sprintf("group %s is %s while the overall trend is %s", name, dir, out.Direction))
			}
		}
	}
	r.data.Trend = out

	change := out.End.Y - out.Start.Y
	summary := fmt.Sprintf("%s is %s against %s (slope %.4g over %d points)", p.YField, out.Direction, p.XField, trend.Slope, len(series))
	insights = append([]string{fmt.Sprintf("%s changed by %.4g between the first and last point", p.YField, change)}, insights...)
	return report{summary: summary, insights: insights}, nil
}

func sortByX(points []dstats.Point) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })
}
