// SPDX-License-Identifier: MIT

package codec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Velocidex/ordereddict"

	"github.com/aaronlindsay879/savecodec/schema"
)

// Record is the in-memory value of one composite type: one slot per field,
// in declaration order.
//
// Slot values follow the field shape:
//   - Primitive: the exact Go type (uint8 .. uint64, int8 .. int64,
//     float32, float64, bool)
//   - Composite: *Record
//   - Conditional: nil when absent, otherwise the inner value
//   - Repeated: []any of the inner value
type Record struct {
	typ    *schema.CompositeType
	values []any
}

func newRecord(t *schema.CompositeType) *Record {
	return &Record{typ: t, values: make([]any, len(t.Fields))}
}

// Type returns the composite type the record instantiates.
func (r *Record) Type() *schema.CompositeType { return r.typ }

// TypeName returns the composite type's name.
func (r *Record) TypeName() string { return r.typ.Name }

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.values) }

// Value returns the i'th field value.
func (r *Record) Value(i int) any { return r.values[i] }

// Get returns the value of the field with the given id.
func (r *Record) Get(id string) (any, bool) {
	i, ok := r.typ.FieldIndex(id)
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Set replaces the value of a field after checking it against the field's
// shape.
func (r *Record) Set(id string, v any) error {
	i, ok := r.typ.FieldIndex(id)
	if !ok {
		return fmt.Errorf("%s has no field %q", r.typ.Name, id)
	}
	f := &r.typ.Fields[i]
	if err := checkShape(f, f.Shape, v); err != nil {
		return fmt.Errorf("%s.%s: %w", r.typ.Name, id, err)
	}
	r.values[i] = v
	return nil
}

// checkShape reports whether v is a valid in-memory value for shape s.
func checkShape(f *schema.Field, s schema.Shape, v any) error {
	switch s.Kind {
	case schema.ShapePrimitive:
		if !isPrimitive(f.Type.Primitive, v) {
			return &errValue{f.Type.Primitive, v}
		}
	case schema.ShapeComposite:
		rec, ok := v.(*Record)
		if !ok || rec == nil {
			return fmt.Errorf("%v (%T) is not a %s record", v, v, f.Type.Name)
		}
		if rec.typ.Name != f.Type.Name {
			return fmt.Errorf("record of type %s, want %s", rec.typ.Name, f.Type.Name)
		}
	case schema.ShapeConditional:
		if v == nil {
			return nil
		}
		return checkShape(f, *s.Inner, v)
	case schema.ShapeRepeated:
		list, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%v (%T) is not a list", v, v)
		}
		for i, e := range list {
			if err := checkShape(f, *s.Inner, e); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func isPrimitive(p schema.Primitive, v any) bool {
	switch v.(type) {
	case uint8:
		return p == schema.U8
	case uint16:
		return p == schema.U16
	case uint32:
		return p == schema.U32
	case uint64:
		return p == schema.U64
	case int8:
		return p == schema.I8
	case int16:
		return p == schema.I16
	case int32:
		return p == schema.I32
	case int64:
		return p == schema.I64
	case float32:
		return p == schema.F32
	case float64:
		return p == schema.F64
	case bool:
		return p == schema.Bool
	}
	return false
}

// Equal reports whether two records have the same type and equal values.
// Floats compare by bit pattern so NaN payloads survive a round trip check.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.typ.Name != o.typ.Name || len(r.values) != len(o.values) {
		return false
	}
	for i := range r.values {
		if !valueEqual(r.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case float32:
		y, ok := b.(float32)
		return ok && math.Float32bits(x) == math.Float32bits(y)
	case float64:
		y, ok := b.(float64)
		return ok && math.Float64bits(x) == math.Float64bits(y)
	}
	return a == b
}

// Dict converts the record into an ordered dictionary keyed by field id.
// Nested records become nested dictionaries. NaN and infinite floats become
// the strings "NaN", "+Inf" and "-Inf" since JSON has no numbers for them.
func (r *Record) Dict() *ordereddict.Dict {
	d := ordereddict.NewDict()
	for i := range r.typ.Fields {
		d.Set(r.typ.Fields[i].ID, plain(r.values[i]))
	}
	return d
}

func plain(v any) any {
	switch x := v.(type) {
	case *Record:
		return x.Dict()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case float32:
		if nonFinite(float64(x)) {
			return formatNonFinite(float64(x))
		}
	case float64:
		if nonFinite(x) {
			return formatNonFinite(x)
		}
	}
	return v
}

func nonFinite(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}

func formatNonFinite(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// MarshalJSON encodes the record as a JSON object preserving field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.Dict().MarshalJSON()
}

func (r *Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%s{%v}", r.typ.Name, r.values)
	}
	return r.typ.Name + string(b)
}
