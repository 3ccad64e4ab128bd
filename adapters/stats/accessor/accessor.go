// Package accessor resolves dotted field paths against observations.
//
// A path is compiled once into a Func and memoized, so the per-point cost of
// reading "properties.size" or "coordinates.x" inside a kernel loop is a map
// lookup at most.
package accessor

import (
	"strings"
	"sync"

	"sprawlstats/domain/observation"
)

// Func reads one value out of an observation. Missing paths yield an
// undefined Value, never a panic.
type Func func(o *observation.Observation) observation.Value

// Float reads the value as a finite number
func (f Func) Float(o *observation.Observation) (float64, bool) {
	return f(o).Float()
}

// Text reads the value as a string
func (f Func) Text(o *observation.Observation) (string, bool) {
	return f(o).Text()
}

// Accessor memoizes compiled paths. The zero value is not usable; call New.
type Accessor struct {
	compiled sync.Map // path -> Func
}

// New creates an empty accessor cache
func New() *Accessor {
	return &Accessor{}
}

// Default is the process-wide accessor used by the kernels
var Default = New()

// Compile returns the memoized accessor for path from Default
func Compile(path string) Func {
	return Default.Compile(path)
}

// Compile returns the accessor for path, building it on first use
func (a *Accessor) Compile(path string) Func {
	if f, ok := a.compiled.Load(path); ok {
		return f.(Func)
	}
	actual, _ := a.compiled.LoadOrStore(path, build(path))
	return actual.(Func)
}

// Size reports how many distinct paths have been compiled
func (a *Accessor) Size() int {
	n := 0
	a.compiled.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func build(path string) Func {
	segments := strings.Split(path, ".")
	head := segments[0]

	if len(segments) == 1 {
		if direct, ok := directField(head); ok {
			return direct
		}
		return func(o *observation.Observation) observation.Value {
			return o.Property(head)
		}
	}

	if head == "coordinates" && len(segments) == 2 {
		switch segments[1] {
		case "x":
			return func(o *observation.Observation) observation.Value {
				return observation.Number(o.Coordinates.X)
			}
		case "y":
			return func(o *observation.Observation) observation.Value {
				return observation.Number(o.Coordinates.Y)
			}
		}
	}

	if direct, ok := directField(head); ok {
		rest := segments[1:]
		return func(o *observation.Observation) observation.Value {
			return walk(direct(o), rest)
		}
	}

	return func(o *observation.Observation) observation.Value {
		if v := walk(observation.Map(o.Properties), segments); v.IsDefined() {
			return v
		}
		return walk(observation.Map(o.Metadata), segments)
	}
}

func walk(v observation.Value, segments []string) observation.Value {
	for _, seg := range segments {
		v = v.Get(seg)
		if !v.IsDefined() {
			return v
		}
	}
	return v
}

func directField(name string) (Func, bool) {
	switch name {
	case "id":
		return func(o *observation.Observation) observation.Value {
			return observation.String(o.ID)
		}, true
	case "kind", "type":
		return func(o *observation.Observation) observation.Value {
			return observation.String(string(o.Kind))
		}, true
	case "name":
		return func(o *observation.Observation) observation.Value {
			return observation.String(o.Name)
		}, true
	case "timestamp":
		return func(o *observation.Observation) observation.Value {
			return observation.Int(o.Timestamp)
		}, true
	case "coordinates":
		return func(o *observation.Observation) observation.Value {
			return observation.Map(observation.Properties{
				"x": observation.Number(o.Coordinates.X),
				"y": observation.Number(o.Coordinates.Y),
			})
		}, true
	case "properties":
		return func(o *observation.Observation) observation.Value {
			return observation.Map(o.Properties)
		}, true
	case "metadata":
		return func(o *observation.Observation) observation.Value {
			return observation.Map(o.Metadata)
		}, true
	}
	return nil, false
}
