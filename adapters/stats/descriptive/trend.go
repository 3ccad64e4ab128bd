package descriptive

import (
	"math"

	dstats "sprawlstats/domain/stats"
)

// degenerateEpsilon guards the least-squares denominator
const degenerateEpsilon = 1e-10

// LinearTrend fits y = slope·x + intercept by ordinary least squares. When all
// x are (numerically) equal the slope is 0 and the intercept is mean(y).
func LinearTrend(points []dstats.Point) dstats.Trend {
	n := float64(len(points))
	if n == 0 {
		return dstats.Trend{}
	}

	var meanX, meanY float64
	for _, p := range points {
		meanX += p.X
		meanY += p.Y
	}
	meanX /= n
	meanY /= n

	// centred sums keep large timestamps from cancelling out
	var sxy, sxx float64
	for _, p := range points {
		dx := p.X - meanX
		sxy += dx * (p.Y - meanY)
		sxx += dx * dx
	}
	if math.Abs(sxx) < degenerateEpsilon {
		return dstats.Trend{Slope: 0, Intercept: meanY}
	}

	slope := sxy / sxx
	return dstats.Trend{Slope: slope, Intercept: meanY - slope*meanX}
}

// stableSlope is the magnitude under which a trend counts as stable
const stableSlope = 1e-9

// TrendDirection labels a slope as increasing, decreasing or stable
func TrendDirection(slope float64) string {
	switch {
	case slope >= stableSlope:
		return "increasing"
	case slope <= -stableSlope:
		return "decreasing"
	default:
		return "stable"
	}
}

// MovingAverage smooths y over a trailing window. Windows smaller than 2 or
// larger than the series return nil.
func MovingAverage(points []dstats.Point, window int) []dstats.Point {
	if window < 2 || window > len(points) {
		return nil
	}
	out := make([]dstats.Point, 0, len(points)-window+1)
	var sum float64
	for i, p := range points {
		sum += p.Y
		if i >= window {
			sum -= points[i-window].Y
		}
		if i >= window-1 {
			out = append(out, dstats.Point{X: p.X, Y: sum / float64(window)})
		}
	}
	return out
}
