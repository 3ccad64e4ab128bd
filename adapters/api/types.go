package api

import (
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
)

// RunAnalysisRequest is the body of POST /api/analyses
type RunAnalysisRequest struct {
	Config  analysis.Config   `json:"config"`
	Options *analysis.Options `json:"options,omitempty"`
}

// FilterRequest is the body of POST /api/datasets/{id}/filter
type FilterRequest struct {
	Filters []observation.Filter `json:"filters"`
}

// FilterResponse returns the matching observations
type FilterResponse struct {
	DatasetID string                    `json:"datasetId"`
	Count     int                       `json:"count"`
	Points    []observation.Observation `json:"points"`
}

// AppendRequest is the body of POST /api/datasets/{id}/points
type AppendRequest struct {
	Points []observation.Observation `json:"points"`
}

// DatasetSummary describes a registered dataset without its points
type DatasetSummary struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Source    observation.Source       `json:"source"`
	CreatedAt core.Millis              `json:"createdAt"`
	UpdatedAt core.Millis              `json:"updatedAt"`
	Points    int                      `json:"points"`
	Kinds     map[observation.Kind]int `json:"kinds"`
}

// ErrorResponse is written for every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func summarize(ds *observation.Dataset) DatasetSummary {
	return DatasetSummary{
		ID:        ds.ID,
		Name:      ds.Name,
		Source:    ds.Source,
		CreatedAt: ds.CreatedAt,
		UpdatedAt: ds.UpdatedAt,
		Points:    ds.Len(),
		Kinds:     ds.CountByKind(),
	}
}
