package descriptive

import (
	"math"

	dstats "sprawlstats/domain/stats"
)

// Histogram buckets values into equal-width bins over [min, max]. The last bin
// is closed on the right so max is always counted. When every value is equal a
// single bin holds them all. With normalize set each bin's Value is its count
// divided by the largest count.
func Histogram(values []float64, bins int, normalize bool) []dstats.HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return []dstats.HistogramBin{}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if hi == lo {
		bin := dstats.HistogramBin{Start: lo, End: hi, Count: len(values), Value: float64(len(values))}
		if normalize {
			bin.Value = 1
		}
		return []dstats.HistogramBin{bin}
	}

	width := (hi - lo) / float64(bins)
	out := make([]dstats.HistogramBin, bins)
	for i := range out {
		out[i].Start = lo + float64(i)*width
		out[i].End = lo + float64(i+1)*width
	}
	out[bins-1].End = hi

	for _, v := range values {
		idx := int(math.Floor((v - lo) / width))
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[idx].Count++
	}

	maxCount := 0
	for _, b := range out {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	for i := range out {
		out[i].Value = float64(out[i].Count)
		if normalize && maxCount > 0 {
			out[i].Value /= float64(maxCount)
		}
	}
	return out
}
