package analysis

import (
	"encoding/json"
	"time"
)

// Option defaults that do not come from engine configuration
const (
	DetailsThreshold = 1000
)

// Defaults carries engine configuration consulted when resolving options and
// parameters
type Defaults struct {
	MaxSamples      int
	WorkerThreshold int
	RegionSize      float64
	SectorRadius    float64
}

// Options are caller-supplied algorithm options. Every field is optional;
// unset fields are computed from the dataset size by Resolve.
type Options struct {
	TimeoutMs           *int64   `json:"timeoutMs,omitempty" validate:"omitempty,gte=0"`
	MaxSamples          *int     `json:"maxSamples,omitempty" validate:"omitempty,gt=0"`
	Normalize           *bool    `json:"normalize,omitempty"`
	IncludeDetails      *bool    `json:"includeDetails,omitempty"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	UseWorker           *bool    `json:"useWorker,omitempty"`
	SampleData          *bool    `json:"sampleData,omitempty"`
	SampleSize          *int     `json:"sampleSize,omitempty" validate:"omitempty,gt=0"`
}

// Validate checks option ranges
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	return validateStruct(o)
}

// CacheKey serializes the options exactly as supplied
func (o *Options) CacheKey() string {
	if o == nil {
		return "null"
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return "invalid"
	}
	return string(raw)
}

// Resolved is the fully-defaulted option set for one run
type Resolved struct {
	Timeout             time.Duration
	MaxSamples          int
	Normalize           bool
	IncludeDetails      bool
	ConfidenceThreshold float64
	ThresholdSet        bool
	UseWorker           bool
	SampleData          bool
	SampleSize          int
}

// Resolve fills unset options from the dataset size n and the analysis type
func (o *Options) Resolve(n int, typ Type, d Defaults) Resolved {
	if o == nil {
		o = &Options{}
	}
	r := Resolved{
		MaxSamples:          d.MaxSamples,
		IncludeDetails:      n <= DetailsThreshold,
		ConfidenceThreshold: DefaultThreshold,
		UseWorker:           d.WorkerThreshold > 0 && n > d.WorkerThreshold,
	}
	if o.TimeoutMs != nil {
		r.Timeout = time.Duration(*o.TimeoutMs) * time.Millisecond
	}
	if o.MaxSamples != nil {
		r.MaxSamples = *o.MaxSamples
	}
	if o.Normalize != nil {
		r.Normalize = *o.Normalize
	}
	if o.IncludeDetails != nil {
		r.IncludeDetails = *o.IncludeDetails
	}
	if o.ConfidenceThreshold != nil {
		r.ConfidenceThreshold = *o.ConfidenceThreshold
		r.ThresholdSet = true
	}
	if o.UseWorker != nil {
		r.UseWorker = *o.UseWorker
	}

	r.SampleSize = r.MaxSamples
	if o.SampleSize != nil {
		r.SampleSize = *o.SampleSize
	}
	if o.SampleData != nil {
		r.SampleData = *o.SampleData
	} else {
		r.SampleData = !typ.IsAggregate() && r.MaxSamples > 0 && n > r.MaxSamples
	}
	if r.SampleData && (r.SampleSize <= 0 || r.SampleSize >= n) {
		r.SampleData = false
	}
	return r
}
