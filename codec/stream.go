// SPDX-License-Identifier: MIT

package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"

	"github.com/aaronlindsay879/savecodec/schema"
)

// reader pulls primitives off a seekable byte source.
type reader struct {
	s     *kaitai.Stream
	order binary.ByteOrder
}

func newReader(r io.ReadSeeker, e schema.Endianness) *reader {
	return &reader{s: kaitai.NewStream(r), order: e.ByteOrder()}
}

func (r *reader) pos() int64 {
	p, err := r.s.Pos()
	if err != nil {
		return -1
	}
	return p
}

// read decodes one primitive. The full width is read before anything is
// interpreted, so a short source fails with io.ErrUnexpectedEOF or io.EOF
// instead of yielding a partial value.
func (r *reader) read(p schema.Primitive) (any, error) {
	w := p.Width()
	if w == 0 {
		return nil, fmt.Errorf("unknown primitive %v", p)
	}
	b, err := r.s.ReadBytes(w)
	if err != nil {
		return nil, err
	}
	switch p {
	case schema.U8:
		return b[0], nil
	case schema.I8:
		return int8(b[0]), nil
	case schema.Bool:
		return b[0] != 0, nil
	case schema.U16:
		return r.order.Uint16(b), nil
	case schema.I16:
		return int16(r.order.Uint16(b)), nil
	case schema.U32:
		return r.order.Uint32(b), nil
	case schema.I32:
		return int32(r.order.Uint32(b)), nil
	case schema.U64:
		return r.order.Uint64(b), nil
	case schema.I64:
		return int64(r.order.Uint64(b)), nil
	case schema.F32:
		return math.Float32frombits(r.order.Uint32(b)), nil
	case schema.F64:
		return math.Float64frombits(r.order.Uint64(b)), nil
	}
	return nil, fmt.Errorf("unknown primitive %v", p)
}

// skip consumes n bytes without interpreting them.
func (r *reader) skip(n int) error {
	_, err := r.s.ReadBytes(n)
	return err
}

// writer appends primitives to a byte sink.
type writer struct {
	w       io.Writer
	order   binary.ByteOrder
	n       int64
	scratch [8]byte
}

func newWriter(w io.Writer, e schema.Endianness) *writer {
	return &writer{w: w, order: e.ByteOrder()}
}

// errValue marks a value that cannot be represented by the target primitive.
type errValue struct {
	want schema.Primitive
	got  any
}

func (e *errValue) Error() string {
	return fmt.Sprintf("%v (%T) is not a %s", e.got, e.got, e.want)
}

func (w *writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return err
}

// put encodes v as primitive p. A value of the wrong Go type yields
// *errValue; any other error comes from the sink.
func (w *writer) put(p schema.Primitive, v any) error {
	b := w.scratch[:p.Width()]
	switch p {
	case schema.U8:
		x, ok := v.(uint8)
		if !ok {
			return &errValue{p, v}
		}
		b[0] = x
	case schema.I8:
		x, ok := v.(int8)
		if !ok {
			return &errValue{p, v}
		}
		b[0] = uint8(x)
	case schema.Bool:
		x, ok := v.(bool)
		if !ok {
			return &errValue{p, v}
		}
		b[0] = 0
		if x {
			b[0] = 1
		}
	case schema.U16:
		x, ok := v.(uint16)
		if !ok {
			return &errValue{p, v}
		}
		w.order.PutUint16(b, x)
	case schema.I16:
		x, ok := v.(int16)
		if !ok {
			return &errValue{p, v}
		}
		w.order.PutUint16(b, uint16(x))
	case schema.U32:
		x, ok := v.(uint32)
		if !ok {
			return &errValue{p, v}
		}
		w.order.PutUint32(b, x)
	case schema.I32:
		x, ok := v.(int32)
		if !ok {
			return &errValue{p, v}
		}
		w.order.PutUint32(b, uint32(x))
	case schema.U64:
		x, ok := v.(uint64)
		if !ok {
			return &errValue{p, v}
		}
		w.order.PutUint64(b, x)
	case schema.I64:
		x, ok := v.(int64)
		if !ok {
			return &errValue{p, v}
		}
		w.order.PutUint64(b, uint64(x))
	case schema.F32:
		x, ok := v.(float32)
		if !ok {
			return &errValue{p, v}
		}
		w.order.PutUint32(b, math.Float32bits(x))
	case schema.F64:
		x, ok := v.(float64)
		if !ok {
			return &errValue{p, v}
		}
		w.order.PutUint64(b, math.Float64bits(x))
	default:
		return &errValue{p, v}
	}
	return w.write(b)
}

var zeroBlock [64]byte

// zeros writes n zero bytes.
func (w *writer) zeros(n int) error {
	for n > 0 {
		k := min(n, len(zeroBlock))
		if err := w.write(zeroBlock[:k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}
