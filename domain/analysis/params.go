package analysis

import (
	"fmt"

	"sprawlstats/domain/core"
	"sprawlstats/domain/stats"
)

// Engine-wide parameter defaults
const (
	DefaultTrendXField       = "timestamp"
	DefaultBins              = 10
	DefaultClusterCount      = 3
	DefaultMaxIterations     = 100
	DefaultTestSize          = 0.2
	DefaultEpochs            = 100
	DefaultLags              = 3
	DefaultForecastSteps     = 5
	DefaultComparisonGroupBy = "kind"
	DefaultSectorLimit       = 10
	DefaultThreshold         = 0.5
)

// Prediction methods
const (
	PredictionLinear = "linear"
	PredictionNeural = "neural"
)

// Parameters is implemented by every typed parameter struct
type Parameters interface {
	applyDefaults(d Defaults)
	check() error
}

// ParseParameters decodes, defaults and validates the parameters for cfg.AnalysisType
func ParseParameters(cfg *Config, d Defaults) (Parameters, error) {
	var p Parameters
	switch cfg.AnalysisType {
	case TypeTrend:
		p = &TrendParams{}
	case TypeCorrelation:
		p = &CorrelationParams{}
	case TypeDistribution:
		p = &DistributionParams{}
	case TypeClustering:
		p = &ClusteringParams{}
	case TypePrediction:
		p = &PredictionParams{}
	case TypeComparison:
		p = &ComparisonParams{}
	case TypeResourceMapping:
		p = &ResourceMappingParams{}
	case TypeSectorAnalysis:
		p = &SectorAnalysisParams{}
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedType, cfg.AnalysisType)
	}
	if err := cfg.DecodeParameters(p); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidParameter, err)
	}
	if err := validateStruct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidParameter, err)
	}
	p.applyDefaults(d)
	if err := p.check(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidParameter, err)
	}
	return p, nil
}

// TrendParams fits yField against xField
type TrendParams struct {
	XField     string `json:"xField"`
	YField     string `json:"yField" validate:"required"`
	GroupBy    string `json:"groupBy,omitempty"`
	WindowSize int    `json:"windowSize,omitempty" validate:"gte=0"`
}

func (p *TrendParams) applyDefaults(Defaults) {
	if p.XField == "" {
		p.XField = DefaultTrendXField
	}
}

func (p *TrendParams) check() error { return nil }

// CorrelationParams correlates every pair of fields
type CorrelationParams struct {
	Fields    []string                `json:"fields" validate:"required,min=2,dive,required"`
	Method    stats.CorrelationMethod `json:"method,omitempty" validate:"omitempty,oneof=pearson spearman kendall"`
	Threshold *float64                `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

func (p *CorrelationParams) applyDefaults(Defaults) {
	if p.Method == "" {
		p.Method = stats.MethodPearson
	}
}

func (p *CorrelationParams) check() error { return nil }

// EffectiveThreshold resolves the reporting threshold. An explicit
// confidenceThreshold option wins over the parameter.
func (p *CorrelationParams) EffectiveThreshold(opts Resolved) float64 {
	if opts.ThresholdSet {
		return opts.ConfidenceThreshold
	}
	if p.Threshold != nil {
		return *p.Threshold
	}
	return DefaultThreshold
}

// DistributionParams bins a single numeric field
type DistributionParams struct {
	Field   string `json:"field" validate:"required"`
	Bins    int    `json:"bins,omitempty" validate:"gte=0,lte=1000"`
	GroupBy string `json:"groupBy,omitempty"`
}

func (p *DistributionParams) applyDefaults(Defaults) {
	if p.Bins == 0 {
		p.Bins = DefaultBins
	}
}

func (p *DistributionParams) check() error { return nil }

// ClusteringParams configures k-means
type ClusteringParams struct {
	Features       []string             `json:"features" validate:"required,min=1,dive,required"`
	K              int                  `json:"k,omitempty" validate:"gte=0"`
	DistanceMetric stats.DistanceMetric `json:"distanceMetric,omitempty" validate:"omitempty,oneof=euclidean manhattan cosine"`
	MaxIterations  int                  `json:"maxIterations,omitempty" validate:"gte=0"`
}

func (p *ClusteringParams) applyDefaults(Defaults) {
	if p.K == 0 {
		p.K = DefaultClusterCount
	}
	if p.DistanceMetric == "" {
		p.DistanceMetric = stats.MetricEuclidean
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = DefaultMaxIterations
	}
}

func (p *ClusteringParams) check() error { return nil }

// PredictionParams configures model fitting and forecasting. Without explicit
// features the model regresses the target on its own lagged values.
type PredictionParams struct {
	TargetField   string   `json:"targetField" validate:"required"`
	Features      []string `json:"features,omitempty" validate:"omitempty,dive,required"`
	Method        string   `json:"method,omitempty" validate:"omitempty,oneof=linear neural"`
	TestSize      float64  `json:"testSize,omitempty" validate:"gte=0,lt=1"`
	DateField     string   `json:"dateField,omitempty"`
	Epochs        int      `json:"epochs,omitempty" validate:"gte=0,lte=100000"`
	Lags          int      `json:"lags,omitempty" validate:"gte=0,lte=64"`
	ForecastSteps *int     `json:"forecastSteps,omitempty" validate:"omitempty,gte=0,lte=1000"`
}

func (p *PredictionParams) applyDefaults(Defaults) {
	if p.Method == "" {
		p.Method = PredictionLinear
	}
	if p.TestSize == 0 {
		p.TestSize = DefaultTestSize
	}
	if p.Epochs == 0 {
		p.Epochs = DefaultEpochs
	}
	if p.Lags == 0 {
		p.Lags = DefaultLags
	}
	if p.ForecastSteps == nil {
		steps := DefaultForecastSteps
		p.ForecastSteps = &steps
	}
}

func (p *PredictionParams) check() error { return nil }

// ComparisonParams compares a numeric field across groups
type ComparisonParams struct {
	Field   string   `json:"field" validate:"required"`
	GroupBy string   `json:"groupBy,omitempty"`
	Groups  []string `json:"groups,omitempty"`
}

func (p *ComparisonParams) applyDefaults(Defaults) {
	if p.GroupBy == "" {
		p.GroupBy = DefaultComparisonGroupBy
	}
}

func (p *ComparisonParams) check() error {
	if len(p.Groups) == 1 {
		return fmt.Errorf("groups must name at least 2 entries when set")
	}
	return nil
}

// ResourceMappingParams configures grid aggregation
type ResourceMappingParams struct {
	RegionSize         float64  `json:"regionSize,omitempty" validate:"gte=0"`
	ResourceTypes      []string `json:"resourceTypes,omitempty"`
	TypeField          string   `json:"typeField,omitempty"`
	AmountField        string   `json:"amountField,omitempty"`
	QualityField       string   `json:"qualityField,omitempty"`
	AccessibilityField string   `json:"accessibilityField,omitempty"`
	ValueField         string   `json:"valueField,omitempty"`
}

func (p *ResourceMappingParams) applyDefaults(d Defaults) {
	if p.RegionSize == 0 {
		p.RegionSize = d.RegionSize
	}
	if p.TypeField == "" {
		p.TypeField = "resourceType"
	}
	if p.AmountField == "" {
		p.AmountField = "amount"
	}
	if p.QualityField == "" {
		p.QualityField = "quality"
	}
	if p.AccessibilityField == "" {
		p.AccessibilityField = "accessibility"
	}
	if p.ValueField == "" {
		p.ValueField = "estimatedValue"
	}
}

func (p *ResourceMappingParams) check() error {
	if p.RegionSize <= 0 {
		return fmt.Errorf("regionSize must be positive")
	}
	return nil
}

// SectorAnalysisParams configures the per-sector neighbourhood scan
type SectorAnalysisParams struct {
	Radius float64  `json:"radius,omitempty" validate:"gte=0"`
	Fields []string `json:"fields,omitempty"`
	Limit  int      `json:"limit,omitempty" validate:"gte=0"`
}

func (p *SectorAnalysisParams) applyDefaults(d Defaults) {
	if p.Radius == 0 {
		p.Radius = d.SectorRadius
	}
	if p.Limit == 0 {
		p.Limit = DefaultSectorLimit
	}
}

func (p *SectorAnalysisParams) check() error {
	if p.Radius <= 0 {
		return fmt.Errorf("radius must be positive")
	}
	return nil
}
