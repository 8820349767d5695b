// SPDX-License-Identifier: MIT

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/aaronlindsay879/savecodec/schema"
)

// RecordFromJSON builds a root record from a JSON object in the layout
// produced by Record.MarshalJSON.
func (c *Codec) RecordFromJSON(data []byte) (*Record, error) {
	return c.root.RecordFromJSON(data)
}

// RecordFromJSON builds a record of the type from a JSON object. Keys must
// match field ids; a conditional field that is missing or null is absent.
func (t *TypeCodec) RecordFromJSON(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing %s JSON: %w", t.typ.Name, err)
	}
	return t.codec.recordFromValue(t.typ, v, t.typ.Name)
}

func (c *Codec) recordFromValue(t *schema.CompositeType, v any, path string) (*Record, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected object for %s, got %T", path, t.Name, v)
	}
	for key := range obj {
		if _, ok := t.FieldIndex(key); !ok {
			return nil, fmt.Errorf("%s: unknown field %q", path, key)
		}
	}

	rec := newRecord(t)
	for i := range t.Fields {
		f := &t.Fields[i]
		raw, present := obj[f.ID]
		fpath := path + "." + f.ID
		if !present && f.Shape.Kind != schema.ShapeConditional {
			return nil, fmt.Errorf("%s: missing", fpath)
		}
		val, err := c.valueFromJSON(f, f.Shape, raw, fpath)
		if err != nil {
			return nil, err
		}
		rec.values[i] = val
	}
	return rec, nil
}

func (c *Codec) valueFromJSON(f *schema.Field, s schema.Shape, raw any, path string) (any, error) {
	switch s.Kind {
	case schema.ShapePrimitive:
		return primitiveFromJSON(f.Type.Primitive, raw, path)
	case schema.ShapeComposite:
		return c.recordFromValue(c.types[f.Type.Name].typ, raw, path)
	case schema.ShapeConditional:
		if raw == nil {
			return nil, nil
		}
		return c.valueFromJSON(f, *s.Inner, raw, path)
	case schema.ShapeRepeated:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected array, got %T", path, raw)
		}
		list := make([]any, len(items))
		for i, item := range items {
			v, err := c.valueFromJSON(f, *s.Inner, item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	}
	return nil, fmt.Errorf("%s: unknown shape %s", path, s)
}

func primitiveFromJSON(p schema.Primitive, raw any, path string) (any, error) {
	if p == schema.Bool {
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: expected bool, got %T", path, raw)
		}
		return b, nil
	}
	if str, ok := raw.(string); ok && (p == schema.F32 || p == schema.F64) {
		return nonFiniteFromJSON(p, str, path)
	}
	num, ok := raw.(json.Number)
	if !ok {
		return nil, fmt.Errorf("%s: expected number for %s, got %T", path, p, raw)
	}
	s := num.String()
	bits := p.Width() * 8

	var (
		v   any
		err error
	)
	switch p {
	case schema.U8, schema.U16, schema.U32, schema.U64:
		var n uint64
		n, err = strconv.ParseUint(s, 10, bits)
		switch p {
		case schema.U8:
			v = uint8(n)
		case schema.U16:
			v = uint16(n)
		case schema.U32:
			v = uint32(n)
		default:
			v = n
		}
	case schema.I8, schema.I16, schema.I32, schema.I64:
		var n int64
		n, err = strconv.ParseInt(s, 10, bits)
		switch p {
		case schema.I8:
			v = int8(n)
		case schema.I16:
			v = int16(n)
		case schema.I32:
			v = int32(n)
		default:
			v = n
		}
	case schema.F32:
		var x float64
		x, err = strconv.ParseFloat(s, 32)
		v = float32(x)
	case schema.F64:
		v, err = strconv.ParseFloat(s, 64)
	default:
		return nil, fmt.Errorf("%s: unsupported primitive %s", path, p)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", path, p, err)
	}
	return v, nil
}

// Canonical quiet NaNs, so a NaN read from a save survives a trip through
// JSON unchanged.
const (
	quietNaN32 = 0x7fc00000
	quietNaN64 = 0x7ff8000000000000
)

// nonFiniteFromJSON accepts the string forms Record.Dict uses for floats JSON
// cannot hold.
func nonFiniteFromJSON(p schema.Primitive, s, path string) (any, error) {
	switch s {
	case "NaN":
		if p == schema.F32 {
			return math.Float32frombits(quietNaN32), nil
		}
		return math.Float64frombits(quietNaN64), nil
	case "+Inf", "Inf", "-Inf":
		x := math.Inf(1)
		if s == "-Inf" {
			x = math.Inf(-1)
		}
		if p == schema.F32 {
			return float32(x), nil
		}
		return x, nil
	}
	return nil, fmt.Errorf("%s: expected number for %s, got string %q", path, p, s)
}
