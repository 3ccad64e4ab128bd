package observation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueType tags the variant held by a Value
type ValueType uint8

const (
	ValueNone ValueType = iota
	ValueNumber
	ValueString
	ValueBool
	ValueList
	ValueMap
)

func (t ValueType) String() string {
	switch t {
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueBool:
		return "bool"
	case ValueList:
		return "list"
	case ValueMap:
		return "map"
	default:
		return "none"
	}
}

// Properties is an open, string-keyed map of property values
type Properties map[string]Value

// Value is a property value: a scalar, a list of strings, or a nested map.
// The zero Value is undefined.
type Value struct {
	typ    ValueType
	num    float64
	str    string
	flag   bool
	list   []string
	fields Properties
}

// Constructors
func Number(f float64) Value      { return Value{typ: ValueNumber, num: f} }
func String(s string) Value       { return Value{typ: ValueString, str: s} }
func Bool(b bool) Value           { return Value{typ: ValueBool, flag: b} }
func List(items ...string) Value  { return Value{typ: ValueList, list: items} }
func Map(fields Properties) Value { return Value{typ: ValueMap, fields: fields} }
func Int(i int64) Value           { return Number(float64(i)) }

// Type returns the variant tag
func (v Value) Type() ValueType { return v.typ }

// IsDefined reports whether v holds anything
func (v Value) IsDefined() bool { return v.typ != ValueNone }

// Float returns the numeric value. Only numbers convert.
func (v Value) Float() (float64, bool) {
	if v.typ != ValueNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns a string form for scalars
func (v Value) Text() (string, bool) {
	switch v.typ {
	case ValueString:
		return v.str, true
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	case ValueBool:
		return strconv.FormatBool(v.flag), true
	}
	return "", false
}

// Strings returns the list items
func (v Value) Strings() ([]string, bool) {
	if v.typ != ValueList {
		return nil, false
	}
	return v.list, true
}

// Fields returns the nested map
func (v Value) Fields() (Properties, bool) {
	if v.typ != ValueMap {
		return nil, false
	}
	return v.fields, true
}

// Get looks up a key in a nested map value
func (v Value) Get(key string) Value {
	if v.typ != ValueMap {
		return Value{}
	}
	return v.fields[key]
}

// String implements fmt.Stringer
func (v Value) String() string {
	switch v.typ {
	case ValueList:
		return "[" + strings.Join(v.list, ",") + "]"
	case ValueMap:
		keys := make([]string, 0, len(v.fields))
		for k := range v.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.fields[k].String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	case ValueNone:
		return "<undefined>"
	}
	s, _ := v.Text()
	return s
}

// MarshalJSON encodes the active variant
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueString:
		return json.Marshal(v.str)
	case ValueBool:
		return json.Marshal(v.flag)
	case ValueList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case ValueMap:
		if v.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.fields)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes any JSON value into the matching variant
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// FromAny converts a decoded JSON-like value. Lists of non-strings are
// stringified element-wise.
func FromAny(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case []string:
		return List(t...), nil
	case []interface{}:
		items := make([]string, len(t))
		for i, item := range t {
			if s, ok := item.(string); ok {
				items[i] = s
				continue
			}
			elem, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = elem.String()
		}
		return List(items...), nil
	case map[string]interface{}:
		fields := make(Properties, len(t))
		for k, item := range t {
			elem, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("field %s: %w", k, err)
			}
			fields[k] = elem
		}
		return Map(fields), nil
	case Properties:
		return Map(t), nil
	}
	return Value{}, fmt.Errorf("unsupported property value of type %T", raw)
}
