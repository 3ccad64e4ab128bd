package analysis

import (
	"encoding/json"
	"fmt"
)

// Type selects which kernel an analysis runs
type Type string

const (
	TypeTrend           Type = "trend"
	TypeCorrelation     Type = "correlation"
	TypeDistribution    Type = "distribution"
	TypeClustering      Type = "clustering"
	TypePrediction      Type = "prediction"
	TypeComparison      Type = "comparison"
	TypeResourceMapping Type = "resourceMapping"
	TypeSectorAnalysis  Type = "sectorAnalysis"
)

// Types lists every supported analysis type
var Types = []Type{
	TypeTrend,
	TypeCorrelation,
	TypeDistribution,
	TypeClustering,
	TypePrediction,
	TypeComparison,
	TypeResourceMapping,
	TypeSectorAnalysis,
}

// IsAggregate reports whether the analysis sums over every observation, in
// which case sampling is never enabled by default.
func (t Type) IsAggregate() bool {
	return t == TypeResourceMapping || t == TypeSectorAnalysis
}

// Config is an immutable description of one analysis run
type Config struct {
	ID           string                 `json:"id" validate:"required"`
	AnalysisType Type                   `json:"analysisType" validate:"required,oneof=trend correlation distribution clustering prediction comparison resourceMapping sectorAnalysis"`
	DatasetID    string                 `json:"datasetId" validate:"required"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
}

// Validate checks the envelope fields
func (c *Config) Validate() error {
	return validateStruct(c)
}

// DecodeParameters copies the open parameter map into a typed struct
func (c *Config) DecodeParameters(dst interface{}) error {
	if len(c.Parameters) == 0 {
		return nil
	}
	raw, err := json.Marshal(c.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s parameters: %w", c.AnalysisType, err)
	}
	return nil
}
