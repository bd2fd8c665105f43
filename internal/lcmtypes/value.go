package lcmtypes

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
)

// Kind discriminates the closed set of shapes a decoded LCM value can
// take. Go has no tagged union, so Value carries one populated field
// per Kind instead of modeling this with an interface hierarchy.
type Kind int

const (
	KindScalar Kind = iota
	KindBytes
	KindList
	KindStruct
)

// Field is one named member of a Struct value. Structs carry Fields as
// an ordered slice, not a map, so JSON emission reproduces the type's
// declared field order instead of Go's alphabetical map-key order.
type Field struct {
	Name  string
	Value Value
}

// Value is a decoded LCM value tree: a scalar, a raw byte sequence, a
// homogeneous list, or a struct of named fields. Exactly one of the
// Kind-specific fields is meaningful for a given Kind.
type Value struct {
	Kind   Kind
	Scalar any // bool, a signed integer (int8..int64), float32/float64, or string
	Bytes  []byte
	List   []Value
	Fields []Field
}

// NewScalar wraps a primitive in a Value.
func NewScalar(v any) Value { return Value{Kind: KindScalar, Scalar: v} }

// NewBytes wraps a byte sequence in a Value.
func NewBytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// NewList wraps a homogeneous sequence of values.
func NewList(vs []Value) Value { return Value{Kind: KindList, List: vs} }

// NewStruct wraps an ordered set of named fields.
func NewStruct(fields []Field) Value { return Value{Kind: KindStruct, Fields: fields} }

// Field looks up a named field on a struct Value. ok is false if v is
// not a struct or has no field with that name.
func (v Value) Field(name string) (Value, bool) {
	if v.Kind != KindStruct {
		return Value{}, false
	}
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Int64 extracts an integer scalar, converting from any of the signed
// integer widths decode may have produced.
func (v Value) Int64() (int64, bool) {
	if v.Kind != KindScalar {
		return 0, false
	}
	switch n := v.Scalar.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	default:
		return 0, false
	}
}

// Float64 extracts a floating-point scalar.
func (v Value) Float64() (float64, bool) {
	if v.Kind != KindScalar {
		return 0, false
	}
	switch n := v.Scalar.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// MarshalJSON folds a Value tree into JSON following the field-value
// encoding rules: sub-structs recurse, lists become arrays, byte
// sequences become lowercase hex strings, NaN becomes null, and every
// other scalar follows the standard encoding/json rules.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindScalar:
		if f, ok := v.Scalar.(float64); ok && math.IsNaN(f) {
			return []byte("null"), nil
		}
		if f, ok := v.Scalar.(float32); ok && math.IsNaN(float64(f)) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Scalar)
	case KindBytes:
		return json.Marshal(hex.EncodeToString(v.Bytes))
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range v.List {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := elem.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindStruct:
		return marshalOrderedObject(v.Fields)
	default:
		return nil, fmt.Errorf("lcmtypes: value has unknown kind %d", v.Kind)
	}
}

// marshalOrderedObject writes fields as a JSON object in declaration
// order. encoding/json has no facility for ordered maps, so the object
// is assembled by hand.
func marshalOrderedObject(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
