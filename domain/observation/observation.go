package observation

// Kind is the category of a discovered observation
type Kind string

const (
	KindSector   Kind = "sector"
	KindAnomaly  Kind = "anomaly"
	KindResource Kind = "resource"
)

// Kinds lists every observation kind in a stable order
var Kinds = []Kind{KindSector, KindAnomaly, KindResource}

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	switch k {
	case KindSector, KindAnomaly, KindResource:
		return true
	}
	return false
}

// Coordinates is a position on the exploration plane
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Observation is a single discovered data point. Observations are produced by the
// collection component and never mutated by the engine.
type Observation struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	Name        string      `json:"name"`
	Timestamp   int64       `json:"timestamp"`
	Coordinates Coordinates `json:"coordinates"`
	Properties  Properties  `json:"properties"`
	Metadata    Properties  `json:"metadata,omitempty"`
}

// Property returns properties[key], falling back to metadata[key]
func (o *Observation) Property(key string) Value {
	if v, ok := o.Properties[key]; ok && v.IsDefined() {
		return v
	}
	return o.Metadata[key]
}
