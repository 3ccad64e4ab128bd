package engine

import (
	"fmt"
	"math"

	"sprawlstats/adapters/stats/descriptive"
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	dstats "sprawlstats/domain/stats"
)

func runComparison(p *analysis.ComparisonParams, r *run) (report, error) {
	grouped := groupNumbers(r.points, p.Field, p.GroupBy)
	if len(p.Groups) > 0 {
		wanted := make(map[string]bool, len(p.Groups))
		for _, g := range p.Groups {
			wanted[g] = true
		}
		for name := range grouped {
			if !wanted[name] {
				delete(grouped, name)
			}
		}
	}
	for name, values := range grouped {
		if len(values) < 2 {
			delete(grouped, name)
		}
	}
	if len(grouped) < 2 {
		return report{}, core.NewInsufficientDataError(2, len(grouped), fmt.Sprintf("%s groups with at least 2 values of %s", p.GroupBy, p.Field))
	}

	names := sortedKeys(grouped)
	out := &analysis.ComparisonData{
		Field:   p.Field,
		GroupBy: p.GroupBy,
		Groups:  make(map[string]dstats.Summary, len(names)),
	}
	for _, name := range names {
		s, err := descriptive.Describe(grouped[name])
		if err != nil {
			return report{}, err
		}
		out.Groups[name] = s
	}

	var insights []string
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := grouped[names[i]], grouped[names[j]]
			test, err := descriptive.WelchTTest(a, b)
			if err != nil {
				return report{}, err
			}
			cmp := analysis.GroupComparison{
				GroupA:         names[i],
				GroupB:         names[j],
				MeanDifference: out.Groups[names[i]].Mean - out.Groups[names[j]].Mean,
				CohenD:         descriptive.CohenD(a, b),
				Test:           test,
				Significant:    test.PValue < descriptive.SignificanceLevel,
			}
			out.Comparisons = append(out.Comparisons, cmp)
			if cmp.Significant {
				insights = append(insights, fmt.Sprintf("%s differs significantly between %s and %s (p=%.3g, d=%.2f)",
					p.Field, cmp.GroupA, cmp.GroupB, test.PValue, cmp.CohenD))
			}
		}
	}
	r.data.Comparison = out

	significant := len(insights)
	summary := fmt.Sprintf("compared %s across %d %s groups: %d of %d pairs differ at p<%.2g",
		p.Field, len(names), p.GroupBy, significant, len(out.Comparisons), descriptive.SignificanceLevel)
	if significant == 0 {
		insights = append(insights, fmt.Sprintf("no %s group differs significantly in %s", p.GroupBy, p.Field))
	}
	if hi, lo := extremes(out.Groups); hi != lo {
		insights = append(insights, fmt.Sprintf("%s has the highest mean %s and %s the lowest", hi, p.Field, lo))
	}
	return report{summary: summary, insights: insights}, nil
}

func extremes(groups map[string]dstats.Summary) (hi, lo string) {
	best, worst := math.Inf(-1), math.Inf(1)
	for _, name := range sortedKeys(groups) {
		m := groups[name].Mean
		if m > best {
			best, hi = m, name
		}
		if m < worst {
			worst, lo = m, name
		}
	}
	return hi, lo
}
