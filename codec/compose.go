// SPDX-License-Identifier: MIT

package codec

import (
	"errors"
	"fmt"
	"math"

	"github.com/aaronlindsay879/savecodec/schema"
)

// readStmt decodes one field value from the stream.
type readStmt func(d *decoder, fr *frame) (any, error)

// writeStmt encodes one field value to the sink.
type writeStmt func(e *encoder, fr *frame, v any) error

// frame is the expression scope of one record being decoded or encoded:
// every field already processed plus the shared context under _root.
type frame struct {
	vars map[string]any
	root *Context
}

func newFrame(n int, root *Context) *frame {
	fr := &frame{vars: make(map[string]any, n+1)}
	fr.setRoot(root)
	return fr
}

func (fr *frame) setRoot(root *Context) {
	fr.root = root
	if root != nil {
		fr.vars[schema.RootVar] = root.vars
	}
}

// maxPrealloc bounds the capacity reserved up front for a repeated field so a
// corrupt count cannot force a huge allocation before any element is read.
const maxPrealloc = 4096

// maxEmptyElements bounds a repetition whose elements consume no input.
// Beyond it the count is treated as unusable rather than looping on nothing.
const maxEmptyElements = 1 << 16

// composeRead wraps base with the field's condition, then its repetition,
// so a field carrying both is Repeated(Conditional(base)).
func composeRead(f *schema.Field, base readStmt, width int) readStmt {
	stmt := base
	if f.Condition != nil {
		stmt = conditionalRead(f.Condition, stmt, width)
	}
	if f.Repetition != nil {
		stmt = repeatedRead(f.Repetition, stmt)
	}
	return stmt
}

// composeWrite mirrors composeRead.
func composeWrite(f *schema.Field, base writeStmt, width int, lenient bool) writeStmt {
	stmt := base
	if f.Condition != nil {
		stmt = conditionalWrite(f.Condition, stmt, width)
	}
	if f.Repetition != nil {
		stmt = repeatedWrite(f.Repetition, stmt, lenient)
	}
	return stmt
}

func conditionalRead(c *schema.Condition, inner readStmt, width int) readStmt {
	return func(d *decoder, fr *frame) (any, error) {
		off := d.r.pos()
		present, err := c.Expression.EvalBool(fr.vars)
		if err != nil {
			return nil, &DecodeError{Kind: ExpressionFailed, Offset: off, Err: err}
		}
		if present {
			return inner(d, fr)
		}
		if c.AdvanceIfFalse {
			if err := d.r.skip(width); err != nil {
				return nil, &DecodeError{Kind: Truncated, Offset: off, Err: err}
			}
		}
		return nil, nil
	}
}

func repeatedRead(r *schema.Repetition, elem readStmt) readStmt {
	return func(d *decoder, fr *frame) (any, error) {
		n, err := r.Expression.EvalCount(fr.vars)
		if err != nil {
			return nil, &DecodeError{Kind: ExpressionFailed, Offset: d.r.pos(), Err: err}
		}
		list := make([]any, 0, min(n, maxPrealloc))
		for i := 0; i < n; i++ {
			off := d.r.pos()
			v, err := elem(d, fr)
			if err != nil {
				return nil, withPath(err, "", fmt.Sprintf("[%d]", i))
			}
			if n > maxEmptyElements && d.r.pos() == off {
				return nil, &DecodeError{
					Kind:   ExpressionFailed,
					Offset: off,
					Err:    fmt.Errorf("%s(%s) = %d repeats an element that consumes no input", r.Kind, r.Expression, n),
				}
			}
			list = append(list, v)
		}
		return list, nil
	}
}

// conditionalWrite takes presence from the stored value. The condition is
// not evaluated on encode.
func conditionalWrite(c *schema.Condition, inner writeStmt, width int) writeStmt {
	return func(e *encoder, fr *frame, v any) error {
		if v != nil {
			return inner(e, fr, v)
		}
		if c.AdvanceIfFalse {
			if err := e.w.zeros(width); err != nil {
				return &EncodeError{Kind: SinkFailure, Err: err}
			}
		}
		return nil
	}
}

func repeatedWrite(r *schema.Repetition, elem writeStmt, lenient bool) writeStmt {
	return func(e *encoder, fr *frame, v any) error {
		list, ok := v.([]any)
		if !ok {
			return &EncodeError{Kind: InvalidValue, Err: fmt.Errorf("%v (%T) is not a list", v, v)}
		}
		if !lenient {
			n, err := r.Expression.EvalCount(fr.vars)
			if err != nil {
				return &EncodeError{Kind: EncodeExpressionFailed, Err: err}
			}
			if n != len(list) {
				return &EncodeError{
					Kind: CountMismatch,
					Err:  fmt.Errorf("%s(%s) evaluates to %d but the list holds %d elements", r.Kind, r.Expression, n, len(list)),
				}
			}
		}
		for i, x := range list {
			if err := elem(e, fr, x); err != nil {
				return withPath(err, "", fmt.Sprintf("[%d]", i))
			}
		}
		return nil
	}
}

// primitiveRead reads one scalar in the schema byte order.
func primitiveRead(p schema.Primitive) readStmt {
	return func(d *decoder, _ *frame) (any, error) {
		off := d.r.pos()
		v, err := d.r.read(p)
		if err != nil {
			return nil, &DecodeError{Kind: Truncated, Offset: off, Err: err}
		}
		return v, nil
	}
}

func primitiveWrite(p schema.Primitive) writeStmt {
	return func(e *encoder, _ *frame, v any) error {
		err := e.w.put(p, v)
		if err == nil {
			return nil
		}
		var ev *errValue
		if errors.As(err, &ev) {
			return &EncodeError{Kind: InvalidValue, Err: err}
		}
		return &EncodeError{Kind: SinkFailure, Err: err}
	}
}

// compositeRead delegates to the referenced type, threading the root context.
func compositeRead(target *TypeCodec) readStmt {
	return func(d *decoder, fr *frame) (any, error) {
		rec, err := target.decode(d, fr.root)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
}

func compositeWrite(target *TypeCodec) writeStmt {
	return func(e *encoder, fr *frame, v any) error {
		rec, ok := v.(*Record)
		if !ok || rec == nil {
			return &EncodeError{
				Kind: InvalidValue,
				Err:  fmt.Errorf("%v (%T) is not a %s record", v, v, target.typ.Name),
			}
		}
		return target.encode(e, rec, fr.root)
	}
}

// exprValue converts a field value into the form expressions see: integers
// widen to int64 (uint64 beyond its range stays unsigned), f32 widens to
// double, records become maps keyed by field id.
func exprValue(v any) any {
	switch x := v.(type) {
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return x
		}
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case *Record:
		m := make(map[string]any, len(x.values))
		for i := range x.typ.Fields {
			m[x.typ.Fields[i].ID] = exprValue(x.values[i])
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = exprValue(e)
		}
		return out
	}
	return v
}
