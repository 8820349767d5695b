// SPDX-License-Identifier: MIT

package schema

import (
	"encoding/binary"
	"testing"

	"github.com/go-quicktest/qt"
)

func prim(id string, p Primitive) Field {
	return Field{ID: id, Type: TypeRef{Primitive: p, Name: p.String()}}
}

func TestPrimitiveWidth(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"u8", 1}, {"i8", 1}, {"bool", 1},
		{"u16", 2}, {"s16", 2},
		{"u32", 4}, {"i32", 4}, {"f32", 4},
		{"u64", 8}, {"i64", 8}, {"f64", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := LookupPrimitive(tt.name)
			if !ok {
				t.Fatalf("LookupPrimitive(%q) not found", tt.name)
			}
			if got := p.Width(); got != tt.want {
				t.Errorf("Width() = %d, want %d", got, tt.want)
			}
		})
	}

	if _, ok := LookupPrimitive("u24"); ok {
		t.Error("LookupPrimitive(u24) should not resolve")
	}
}

func TestEndiannessByteOrder(t *testing.T) {
	qt.Assert(t, qt.Equals[binary.ByteOrder](Little.ByteOrder(), binary.LittleEndian))
	qt.Assert(t, qt.Equals[binary.ByteOrder](Big.ByteOrder(), binary.BigEndian))
	qt.Assert(t, qt.Equals(Big.String(), "be"))
}

func TestContextBoundary(t *testing.T) {
	cond := &Condition{Expression: MustCompileExpr("true")}
	rep := &Repetition{Kind: Count, Expression: MustCompileExpr("1")}

	conditional := prim("c", U8)
	conditional.Condition = cond
	repeated := prim("r", U8)
	repeated.Repetition = rep
	composite := Field{ID: "t", Type: TypeRef{Name: "T"}}

	tests := []struct {
		name  string
		items []Field
		want  int
	}{
		{"empty", nil, 0},
		{"all primitive", []Field{prim("a", U16), prim("b", U8)}, 2},
		{"stops at conditional", []Field{prim("a", U16), conditional, prim("b", U8)}, 1},
		{"stops at repeated primitive", []Field{prim("a", U16), prim("b", U8), repeated}, 2},
		{"stops at composite", []Field{prim("a", U8), composite, prim("b", U8)}, 1},
		{"leading composite", []Field{composite, prim("a", U8)}, 0},
		{"leading conditional", []Field{conditional}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.Assert(t, qt.Equals(ContextBoundary(tt.items), tt.want))
		})
	}
}

func TestFixedWidth(t *testing.T) {
	doc := `
types:
  Pair:
    - {id: a, type: u16}
    - {id: b, type: f64}
  Padded:
    - {id: p, type: Pair}
    - {id: flag, type: bool, if: 'p.a > 0', advance_if_false: true}
  Sparse:
    - {id: a, type: u8, if: 'true'}
  List:
    - {id: n, type: u8}
    - {id: xs, type: u8, repeat: Count(n)}
  Node:
    - {id: v, type: u8}
    - {id: next, type: Node, if: 'v > 0'}
items: []
`
	s, err := Parse([]byte(doc))
	qt.Assert(t, qt.IsNil(err))

	tests := []struct {
		name  string
		want  int
		fixed bool
	}{
		{"u32", 4, true},
		{"Pair", 10, true},
		{"Padded", 11, true},
		{"Sparse", 0, false},
		{"List", 0, false},
		{"Node", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := TypeRef{Name: tt.name}
			if p, ok := LookupPrimitive(tt.name); ok {
				ref.Primitive = p
			}
			got, ok := s.FixedWidth(ref)
			qt.Assert(t, qt.Equals(ok, tt.fixed))
			qt.Assert(t, qt.Equals(got, tt.want))
		})
	}
}

func TestNewCompositeTypeIndex(t *testing.T) {
	ct := NewCompositeType("T", []Field{prim("a", U8), prim("b", U16)})
	i, ok := ct.FieldIndex("b")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(i, 1))
	_, ok = ct.FieldIndex("c")
	qt.Assert(t, qt.IsFalse(ok))
}

func TestFieldString(t *testing.T) {
	f := prim("flag", Bool)
	f.Condition = &Condition{Expression: MustCompileExpr("count > 0"), AdvanceIfFalse: true}
	qt.Assert(t, qt.Equals(f.String(), "flag: bool if (count > 0) advance_if_false"))

	g := prim("items", U32)
	g.Repetition = &Repetition{Kind: Count, Expression: MustCompileExpr("count")}
	qt.Assert(t, qt.Equals(g.String(), "items: u32 repeat Count(count)"))
}

func TestSchemaTypeLookup(t *testing.T) {
	s, err := Parse([]byte(saveSchema))
	qt.Assert(t, qt.IsNil(err))

	root, ok := s.Type("save")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(root, s.Root))

	player, ok := s.Type("Player")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(player.Fields, 2))

	_, ok = s.Type("Nope")
	qt.Assert(t, qt.IsFalse(ok))
}
