package observation

import (
	"fmt"
	"strings"
)

// Operator is a filter comparison
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpBetween     Operator = "between"
)

// Filter selects observations whose Field satisfies Operator against Value.
// Between is inclusive and uses Value as the lower and To as the upper bound.
type Filter struct {
	Field    string   `json:"field" validate:"required"`
	Operator Operator `json:"operator" validate:"required,oneof=equals notEquals greaterThan lessThan contains notContains between"`
	Value    Value    `json:"value"`
	To       Value    `json:"to"`
}

// Validate checks operator-specific operand requirements
func (f Filter) Validate() error {
	switch f.Operator {
	case OpEquals, OpNotEquals, OpContains, OpNotContains:
	case OpGreaterThan, OpLessThan:
		if !f.Value.IsDefined() {
			return fmt.Errorf("filter %s: %s requires a value", f.Field, f.Operator)
		}
	case OpBetween:
		if _, ok := f.Value.Float(); !ok {
			return fmt.Errorf("filter %s: between requires a numeric lower bound", f.Field)
		}
		if _, ok := f.To.Float(); !ok {
			return fmt.Errorf("filter %s: between requires a numeric upper bound", f.Field)
		}
	default:
		return fmt.Errorf("filter %s: unknown operator %q", f.Field, f.Operator)
	}
	return nil
}

// Matches evaluates the filter against an extracted value. An undefined value
// matches only the negated operators.
func (f Filter) Matches(v Value) bool {
	switch f.Operator {
	case OpEquals:
		return equalValues(v, f.Value)
	case OpNotEquals:
		return !equalValues(v, f.Value)
	case OpGreaterThan:
		c, ok := compareValues(v, f.Value)
		return ok && c > 0
	case OpLessThan:
		c, ok := compareValues(v, f.Value)
		return ok && c < 0
	case OpContains:
		return containsValue(v, f.Value)
	case OpNotContains:
		return !containsValue(v, f.Value)
	case OpBetween:
		x, ok := v.Float()
		lo, okLo := f.Value.Float()
		hi, okHi := f.To.Float()
		return ok && okLo && okHi && x >= lo && x <= hi
	}
	return false
}

func equalValues(a, b Value) bool {
	if !a.IsDefined() || !b.IsDefined() {
		return !a.IsDefined() && !b.IsDefined()
	}
	if a.Type() != b.Type() {
		return false
	}
	if a.Type() == ValueNumber {
		return a.num == b.num
	}
	return a.String() == b.String()
}

func compareValues(a, b Value) (int, bool) {
	if x, ok := a.Float(); ok {
		y, ok := b.Float()
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	if a.Type() == ValueString && b.Type() == ValueString {
		return strings.Compare(a.str, b.str), true
	}
	return 0, false
}

// containsValue is case-insensitive for strings; lists match on any element.
func containsValue(haystack, needle Value) bool {
	want, ok := needle.Text()
	if !ok {
		return false
	}
	want = strings.ToLower(want)
	if items, ok := haystack.Strings(); ok {
		for _, item := range items {
			if strings.ToLower(item) == want {
				return true
			}
		}
		return false
	}
	if s, ok := haystack.Text(); ok {
		return strings.Contains(strings.ToLower(s), want)
	}
	return false
}
