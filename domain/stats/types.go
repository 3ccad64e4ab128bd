package stats

import (
	"math"
)

// ============================================================================
// DESCRIPTIVE PRIMITIVES
// ============================================================================

// Point is an (x, y) sample used by trend fitting
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trend is a fitted least-squares line
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at x
func (t Trend) At(x float64) float64 {
	return t.Slope*x + t.Intercept
}

// Summary holds descriptive statistics. Median and quartiles use floor-index
// selection on the sorted values.
type Summary struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"stdDev"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	IQR      float64 `json:"iqr"`
	Range    float64 `json:"range"`
}

// HistogramBin is one equal-width bucket. Value equals Count unless the
// histogram was normalized, in which case it is Count / max(Count).
type HistogramBin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// ============================================================================
// CORRELATION
// ============================================================================

// CorrelationMethod selects the coefficient
type CorrelationMethod string

const (
	MethodPearson  CorrelationMethod = "pearson"
	MethodSpearman CorrelationMethod = "spearman"
	MethodKendall  CorrelationMethod = "kendall"
)

// Strength buckets |r|
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// ClassifyStrength buckets a coefficient: |r| < 0.3 weak, < 0.7 moderate, else strong
func ClassifyStrength(r float64) Strength {
	a := math.Abs(r)
	switch {
	case a < 0.3:
		return StrengthWeak
	case a < 0.7:
		return StrengthModerate
	default:
		return StrengthStrong
	}
}

// Direction returns "positive", "negative" or "none"
func Direction(r float64) string {
	switch {
	case r > 0:
		return "positive"
	case r < 0:
		return "negative"
	default:
		return "none"
	}
}

// Correlation is a reported relationship between two fields
type Correlation struct {
	FieldX      string            `json:"fieldX"`
	FieldY      string            `json:"fieldY"`
	Method      CorrelationMethod `json:"method"`
	Coefficient float64           `json:"coefficient"`
	Strength    Strength          `json:"strength"`
	Direction   string            `json:"direction"`
	SampleSize  int               `json:"sampleSize"`
}

// WelchTest is the outcome of an unequal-variance two-sample t-test
type WelchTest struct {
	T      float64 `json:"t"`
	DF     float64 `json:"df"`
	PValue float64 `json:"pValue"`
}

// ============================================================================
// CLUSTERING
// ============================================================================

// DistanceMetric selects the k-means distance function
type DistanceMetric string

const (
	MetricEuclidean DistanceMetric = "euclidean"
	MetricManhattan DistanceMetric = "manhattan"
	MetricCosine    DistanceMetric = "cosine"
)

// FeatureStats summarizes one feature inside a cluster
type FeatureStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ClusterSummary describes a single cluster
type ClusterSummary struct {
	Index    int                     `json:"index"`
	Count    int                     `json:"count"`
	Centroid []float64               `json:"centroid"`
	Features map[string]FeatureStats `json:"features"`
}

// ============================================================================
// PREDICTION
// ============================================================================

// RegressionMetrics are computed on the held-out split
type RegressionMetrics struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// PredictionPair is an actual/predicted pair from the test split
type PredictionPair struct {
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// ForecastPoint is one autoregressive forecast step with a ±2·RMSE band
type ForecastPoint struct {
	Step  int     `json:"step"`
	Value float64 `json:"value"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ============================================================================
// RESOURCE MAPPING
// ============================================================================

// ResourceStack is the merged amount of one resource type inside a grid cell
type ResourceStack struct {
	Type           string  `json:"type"`
	Amount         float64 `json:"amount"`
	Quality        float64 `json:"quality"`
	Accessibility  float64 `json:"accessibility"`
	EstimatedValue float64 `json:"estimatedValue"`
	Count          int     `json:"count"`
}

// ResourceCell is one square of the resource grid, keyed by its origin
type ResourceCell struct {
	X                  float64         `json:"x"`
	Y                  float64         `json:"y"`
	Resources          []ResourceStack `json:"resources"`
	TotalResourceCount float64         `json:"totalResourceCount"`
	DominantResource   string          `json:"dominantResource"`
	DominantPercentage float64         `json:"dominantPercentage"`
}

// SectorProfile aggregates what surrounds a sector observation
type SectorProfile struct {
	SectorID       string             `json:"sectorId"`
	Name           string             `json:"name"`
	X              float64            `json:"x"`
	Y              float64            `json:"y"`
	AnomalyCount   int                `json:"anomalyCount"`
	ResourceCount  int                `json:"resourceCount"`
	ResourceAmount float64            `json:"resourceAmount"`
	ResourceValue  float64            `json:"resourceValue"`
	FieldMeans     map[string]float64 `json:"fieldMeans,omitempty"`
}
