// SPDX-License-Identifier: MIT

// Package codec compiles a schema into paired decode and encode procedures.
//
// Every composite type, the root included, gets a TypeCodec holding one read
// and one write statement per field. Statements are closures composed once
// at compile time; a pass only walks them in order.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aaronlindsay879/savecodec/schema"
)

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger used for debug tracing of decode and encode
// passes. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLenientCounts makes encode trust the length of each repeated field's
// list instead of checking it against the count expression.
func WithLenientCounts() Option {
	return func(c *Codec) {
		c.lenient = true
	}
}

// Codec is a compiled schema. It is immutable and safe for concurrent use.
type Codec struct {
	schema   *schema.Schema
	root     *TypeCodec
	types    map[string]*TypeCodec
	boundary int
	log      *slog.Logger
	lenient  bool
}

// TypeCodec decodes and encodes one composite type.
type TypeCodec struct {
	codec  *Codec
	typ    *schema.CompositeType
	isRoot bool
	reads  []readStmt
	writes []writeStmt
}

// New compiles s.
func New(s *schema.Schema, opts ...Option) (*Codec, error) {
	if s == nil || s.Root == nil {
		return nil, fmt.Errorf("codec: nil schema")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{
		schema:   s,
		types:    make(map[string]*TypeCodec, len(s.Types)+1),
		boundary: schema.ContextBoundary(s.Items),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Allocate every TypeCodec before compiling so composite statements can
	// point at types declared later, or at their own type.
	for _, name := range s.TypeOrder {
		c.types[name] = &TypeCodec{codec: c, typ: s.Types[name]}
	}
	c.root = &TypeCodec{codec: c, typ: s.Root, isRoot: true}
	c.types[s.Root.Name] = c.root

	for _, name := range s.TypeOrder {
		if err := c.types[name].compile(); err != nil {
			return nil, err
		}
	}
	if err := c.root.compile(); err != nil {
		return nil, err
	}
	return c, nil
}

func (t *TypeCodec) compile() error {
	s := t.codec.schema
	t.reads = make([]readStmt, len(t.typ.Fields))
	t.writes = make([]writeStmt, len(t.typ.Fields))
	for i := range t.typ.Fields {
		f := &t.typ.Fields[i]

		var (
			read  readStmt
			write writeStmt
		)
		if f.Type.IsPrimitive() {
			read, write = primitiveRead(f.Type.Primitive), primitiveWrite(f.Type.Primitive)
		} else {
			target, ok := s.Types[f.Type.Name]
			if !ok {
				return fmt.Errorf("codec: %s.%s: undeclared type %q", t.typ.Name, f.ID, f.Type.Name)
			}
			tc := t.codec.types[target.Name]
			read, write = compositeRead(tc), compositeWrite(tc)
		}

		width := 0
		if f.Condition != nil && f.Condition.AdvanceIfFalse {
			w, ok := s.FixedWidth(f.Type)
			if !ok {
				return fmt.Errorf("codec: %s.%s: type %q has no fixed width", t.typ.Name, f.ID, f.Type.Name)
			}
			width = w
		}

		t.reads[i] = composeRead(f, read, width)
		t.writes[i] = composeWrite(f, write, width, t.codec.lenient)
	}
	return nil
}

// Schema returns the compiled schema.
func (c *Codec) Schema() *schema.Schema { return c.schema }

// Root returns the codec of the root record.
func (c *Codec) Root() *TypeCodec { return c.root }

// Type returns the codec of a composite type, including the root.
func (c *Codec) Type(name string) (*TypeCodec, bool) {
	t, ok := c.types[name]
	return t, ok
}

// ContextBoundary returns the number of root fields forming the context.
func (c *Codec) ContextBoundary() int { return c.boundary }

// Decode decodes a root record from data. Bytes past the record are ignored.
func (c *Codec) Decode(data []byte) (*Record, error) {
	rec, _, err := c.DecodePrefix(data)
	return rec, err
}

// DecodePrefix decodes a root record from the start of data and reports how
// many bytes it occupied.
func (c *Codec) DecodePrefix(data []byte) (*Record, int, error) {
	r := bytes.NewReader(data)
	rec, err := c.root.Decode(r, nil)
	if err != nil {
		return nil, 0, err
	}
	return rec, len(data) - r.Len(), nil
}

// DecodeFrom decodes a root record from r.
func (c *Codec) DecodeFrom(r io.ReadSeeker) (*Record, error) {
	return c.root.Decode(r, nil)
}

// Encode encodes a root record.
func (c *Codec) Encode(rec *Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.root.Encode(&buf, rec, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo encodes a root record to w.
func (c *Codec) EncodeTo(w io.Writer, rec *Record) error {
	return c.root.Encode(w, rec, nil)
}

// ContextOf builds the shared context from a root record's leading fields.
// It is the context a nested type sees when rec is encoded.
func (c *Codec) ContextOf(rec *Record) (*Context, error) {
	if rec == nil || rec.typ.Name != c.root.typ.Name {
		return nil, fmt.Errorf("codec: ContextOf needs a %s record", c.root.typ.Name)
	}
	return newContext(rec, c.boundary), nil
}

// NewRecord returns a record of the named type with every field set to its
// zero value: 0 or false for primitives, an empty record for composites,
// absent for conditionals and an empty list for repeated fields.
func (c *Codec) NewRecord(typeName string) (*Record, error) {
	t, ok := c.types[typeName]
	if !ok {
		return nil, fmt.Errorf("codec: unknown type %q", typeName)
	}
	return c.zeroRecord(t.typ, map[string]bool{})
}

func (c *Codec) zeroRecord(t *schema.CompositeType, visiting map[string]bool) (*Record, error) {
	if visiting[t.Name] {
		return nil, fmt.Errorf("codec: type %s contains itself unconditionally", t.Name)
	}
	visiting[t.Name] = true
	defer delete(visiting, t.Name)

	rec := newRecord(t)
	for i := range t.Fields {
		f := &t.Fields[i]
		switch f.Shape.Kind {
		case schema.ShapePrimitive:
			rec.values[i] = zeroPrimitive(f.Type.Primitive)
		case schema.ShapeComposite:
			sub, err := c.zeroRecord(c.types[f.Type.Name].typ, visiting)
			if err != nil {
				return nil, err
			}
			rec.values[i] = sub
		case schema.ShapeConditional:
			rec.values[i] = nil
		case schema.ShapeRepeated:
			rec.values[i] = []any{}
		}
	}
	return rec, nil
}

func zeroPrimitive(p schema.Primitive) any {
	switch p {
	case schema.U8:
		return uint8(0)
	case schema.U16:
		return uint16(0)
	case schema.U32:
		return uint32(0)
	case schema.U64:
		return uint64(0)
	case schema.I8:
		return int8(0)
	case schema.I16:
		return int16(0)
	case schema.I32:
		return int32(0)
	case schema.I64:
		return int64(0)
	case schema.F32:
		return float32(0)
	case schema.F64:
		return float64(0)
	case schema.Bool:
		return false
	}
	return nil
}

// Name returns the type name.
func (t *TypeCodec) Name() string { return t.typ.Name }

// Type returns the composite type.
func (t *TypeCodec) Type() *schema.CompositeType { return t.typ }

type decoder struct {
	r     *reader
	log   *slog.Logger
	debug bool
}

type encoder struct {
	w     *writer
	log   *slog.Logger
	debug bool
}

func (c *Codec) debugEnabled() bool {
	return c.log.Enabled(context.Background(), slog.LevelDebug)
}

// Decode reads one record of the type from r. root is the shared context
// visible to expressions as _root; the schema root ignores it and builds its
// own from its leading fields.
func (t *TypeCodec) Decode(r io.ReadSeeker, root *Context) (*Record, error) {
	c := t.codec
	d := &decoder{r: newReader(r, c.schema.Endianness), log: c.log, debug: c.debugEnabled()}
	start := d.r.pos()
	rec, err := t.decode(d, root)
	if err != nil {
		return nil, err
	}
	if d.debug {
		d.log.Debug("decoded record", "type", t.typ.Name, "bytes", d.r.pos()-start)
	}
	return rec, nil
}

func (t *TypeCodec) decode(d *decoder, root *Context) (*Record, error) {
	if t.isRoot {
		root = nil
	}
	rec := newRecord(t.typ)
	fr := newFrame(len(t.typ.Fields), root)
	for i := range t.typ.Fields {
		if t.isRoot && i == t.codec.boundary {
			fr.setRoot(newContext(rec, i))
		}
		f := &t.typ.Fields[i]
		off := d.r.pos()
		v, err := t.reads[i](d, fr)
		if err != nil {
			return nil, withPath(err, t.typ.Name, f.ID)
		}
		rec.values[i] = v
		fr.vars[f.ID] = exprValue(v)
		if d.debug {
			d.log.Debug("decoded field", "type", t.typ.Name, "field", f.ID, "offset", off, "present", v != nil)
		}
	}
	return rec, nil
}

// Encode writes rec to w. root plays the same role as in Decode.
func (t *TypeCodec) Encode(w io.Writer, rec *Record, root *Context) error {
	c := t.codec
	e := &encoder{w: newWriter(w, c.schema.Endianness), log: c.log, debug: c.debugEnabled()}
	if err := t.encode(e, rec, root); err != nil {
		return err
	}
	if e.debug {
		e.log.Debug("encoded record", "type", t.typ.Name, "bytes", e.w.n)
	}
	return nil
}

func (t *TypeCodec) encode(e *encoder, rec *Record, root *Context) error {
	if rec == nil || rec.typ.Name != t.typ.Name || len(rec.values) != len(t.typ.Fields) {
		got := "nil"
		if rec != nil {
			got = rec.typ.Name
		}
		return &EncodeError{
			Kind: InvalidValue,
			Type: t.typ.Name,
			Err:  fmt.Errorf("got %s record, want %s", got, t.typ.Name),
		}
	}
	if t.isRoot {
		root = nil
	}
	fr := newFrame(len(t.typ.Fields), root)
	for i := range t.typ.Fields {
		if t.isRoot && i == t.codec.boundary {
			fr.setRoot(newContext(rec, i))
		}
		f := &t.typ.Fields[i]
		v := rec.values[i]
		if err := t.writes[i](e, fr, v); err != nil {
			return withPath(err, t.typ.Name, f.ID)
		}
		fr.vars[f.ID] = exprValue(v)
		if e.debug {
			e.log.Debug("encoded field", "type", t.typ.Name, "field", f.ID, "end", e.w.n)
		}
	}
	return nil
}
