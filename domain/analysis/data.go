package analysis

import (
	"sprawlstats/domain/stats"
)

// Execution modes recorded on every result
const (
	ModeInline   = "inline"
	ModeWorker   = "worker"
	ModeFallback = "fallback"
)

// ResultData is the typed payload of a completed result. Exactly one of the
// analysis sections is set, matching the config's analysis type.
type ResultData struct {
	AnalysisType Type          `json:"analysisType"`
	Execution    ExecutionInfo `json:"execution"`
	Sampling     *SamplingInfo `json:"sampling,omitempty"`

	Trend        *TrendData          `json:"trend,omitempty"`
	Correlation  *CorrelationData    `json:"correlation,omitempty"`
	Distribution *DistributionData   `json:"distribution,omitempty"`
	Clustering   *ClusteringData     `json:"clustering,omitempty"`
	Prediction   *PredictionData     `json:"prediction,omitempty"`
	Comparison   *ComparisonData     `json:"comparison,omitempty"`
	ResourceMap  *ResourceMapData    `json:"resourceMap,omitempty"`
	Sectors      *SectorAnalysisData `json:"sectors,omitempty"`
}

// ExecutionInfo records where and how long the kernel ran
type ExecutionInfo struct {
	Mode       string `json:"mode"`
	DurationMs int64  `json:"durationMs"`
	PointCount int    `json:"pointCount"`
}

// SamplingInfo is present when the dataset was reduced before analysis
type SamplingInfo struct {
	OriginalSize int `json:"originalSize"`
	SampleSize   int `json:"sampleSize"`
}

// TrendData is the trend analysis output
type TrendData struct {
	XField        string                `json:"xField"`
	YField        string                `json:"yField"`
	Trend         stats.Trend           `json:"trend"`
	Direction     string                `json:"direction"`
	PointCount    int                   `json:"pointCount"`
	Start         stats.Point           `json:"start"`
	End           stats.Point           `json:"end"`
	Groups        map[string]GroupTrend `json:"groups,omitempty"`
	MovingAverage []stats.Point         `json:"movingAverage,omitempty"`
}

// GroupTrend is a trend fitted on one group
type GroupTrend struct {
	Trend      stats.Trend `json:"trend"`
	Direction  string      `json:"direction"`
	PointCount int         `json:"pointCount"`
}

// CorrelationData is the correlation analysis output
type CorrelationData struct {
	Method         stats.CorrelationMethod `json:"method"`
	Threshold      float64                 `json:"threshold"`
	Fields         []string                `json:"fields"`
	Matrix         [][]float64             `json:"matrix"`
	Correlations   []stats.Correlation     `json:"correlations"`
	PairsEvaluated int                     `json:"pairsEvaluated"`
}

// DistributionData is the distribution analysis output
type DistributionData struct {
	Field        string                   `json:"field"`
	Summary      stats.Summary            `json:"summary"`
	Histogram    []stats.HistogramBin     `json:"histogram"`
	Normalized   bool                     `json:"normalized"`
	OutlierCount int                      `json:"outlierCount"`
	Groups       map[string]stats.Summary `json:"groups,omitempty"`
}

// ClusterAssignment maps one observation to its cluster
type ClusterAssignment struct {
	PointID string `json:"pointId"`
	Cluster int    `json:"cluster"`
}

// ClusteringData is the clustering analysis output
type ClusteringData struct {
	Features      []string               `json:"features"`
	K             int                    `json:"k"`
	Metric        stats.DistanceMetric   `json:"metric"`
	Normalized    bool                   `json:"normalized"`
	Inertia       float64                `json:"inertia"`
	Iterations    int                    `json:"iterations"`
	Converged     bool                   `json:"converged"`
	Clusters      []stats.ClusterSummary `json:"clusters"`
	SkippedPoints int                    `json:"skippedPoints"`
	Assignments   []ClusterAssignment    `json:"assignments,omitempty"`
}

// PredictionData is the prediction analysis output
type PredictionData struct {
	Method            string                  `json:"method"`
	TargetField       string                  `json:"targetField"`
	Features          []string                `json:"features"`
	TrainSize         int                     `json:"trainSize"`
	TestSize          int                     `json:"testSize"`
	Metrics           stats.RegressionMetrics `json:"metrics"`
	Intercept         float64                 `json:"intercept,omitempty"`
	Coefficients      []float64               `json:"coefficients,omitempty"`
	HiddenSize        int                     `json:"hiddenSize,omitempty"`
	Epochs            int                     `json:"epochs,omitempty"`
	FinalLoss         float64                 `json:"finalLoss,omitempty"`
	SingularFallback  bool                    `json:"singularFallback,omitempty"`
	FeatureImportance map[string]float64      `json:"featureImportance,omitempty"`
	Forecast          []stats.ForecastPoint   `json:"forecast,omitempty"`
	TestPredictions   []stats.PredictionPair  `json:"testPredictions,omitempty"`
}

// GroupComparison contrasts two groups
type GroupComparison struct {
	GroupA         string          `json:"groupA"`
	GroupB         string          `json:"groupB"`
	MeanDifference float64         `json:"meanDifference"`
	CohenD         float64         `json:"cohenD"`
	Test           stats.WelchTest `json:"test"`
	Significant    bool            `json:"significant"`
}

// ComparisonData is the comparison analysis output
type ComparisonData struct {
	Field       string                   `json:"field"`
	GroupBy     string                   `json:"groupBy"`
	Groups      map[string]stats.Summary `json:"groups"`
	Comparisons []GroupComparison        `json:"comparisons"`
}

// ResourceMapData is the resource mapping output
type ResourceMapData struct {
	RegionSize    float64              `json:"regionSize"`
	Cells         []stats.ResourceCell `json:"cells"`
	Density       map[string]float64   `json:"density"`
	TotalsByType  map[string]float64   `json:"totalsByType"`
	TotalAmount   float64              `json:"totalAmount"`
	ResourceTypes []string             `json:"resourceTypes"`
	MappedPoints  int                  `json:"mappedPoints"`
}

// SectorAnalysisData is the sector analysis output
type SectorAnalysisData struct {
	Radius           float64               `json:"radius"`
	SectorCount      int                   `json:"sectorCount"`
	KindCounts       map[string]int        `json:"kindCounts"`
	Sectors          []stats.SectorProfile `json:"sectors"`
	TotalNearbyValue float64               `json:"totalNearbyValue"`
}
