package engine

import (
	"fmt"

	"sprawlstats/adapters/stats/descriptive"
	"sprawlstats/domain/analysis"
	dstats "sprawlstats/domain/stats"
)

func runDistribution(p *analysis.DistributionParams, r *run) (report, error) {
	values := numbers(r.points, p.Field)
	summary, err := descriptive.Describe(values)
	if err != nil {
		return report{}, fmt.Errorf("field %s: %w", p.Field, err)
	}

	out := &analysis.DistributionData{
		Field:        p.Field,
		Summary:      summary,
		Histogram:    descriptive.Histogram(values, p.Bins, r.opts.Normalize),
		Normalized:   r.opts.Normalize,
		OutlierCount: descriptive.OutlierCount(values, summary),
	}
	if p.GroupBy != "" {
		grouped := groupNumbers(r.points, p.Field, p.GroupBy)
		out.Groups = make(map[string]dstats.Summary, len(grouped))
		for _, name := range sortedKeys(grouped) {
			if s, err := descriptive.Describe(grouped[name]); err == nil {
				out.Groups[name] = s
			}
		}
	}
	r.data.Distribution = out

	text := fmt.Sprintf("%s: mean %.4g, median %.4g, range [%.4g, %.4g] over %d values",
		p.Field, summary.Mean, summary.Median, summary.Min, summary.Max, summary.Count)
	var insights []string
	if out.OutlierCount > 0 {
		insights = append(insights, fmt.Sprintf("%d values fall outside the 1.5·IQR fences", out.OutlierCount))
	}
	if summary.StdDev == 0 {
		insights = append(insights, fmt.Sprintf("%s is constant", p.Field))
	} else if skew := (summary.Mean - summary.Median) / summary.StdDev; skew > 0.2 {
		insights = append(insights, fmt.Sprintf("%s is right-skewed (mean above median)", p.Field))
	} else if skew < -0.2 {
		insights = append(insights, fmt.Sprintf("%s is left-skewed (mean below median)", p.Field))
	}
	return report{summary: text, insights: insights}, nil
}
