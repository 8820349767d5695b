// SPDX-License-Identifier: MIT

package schema

import (
	"errors"
	"testing"

	"github.com/go-quicktest/qt"
)

const saveSchema = `
meta:
  endian: le
  id: save

types:
  Player:
    - id: hp
      type: u16
    - id: alive
      type: bool
  Slot:
    - id: item
      type: u32
    - id: bonus
      type: u8
      if: _root.version > 1
      advance_if_false: true

items:
  - id: version
    type: u16
  - id: count
    type: u8
  - id: flag
    type: Option<bool>
    if: count > 0
    advance_if_false: true
  - id: items
    type: Vec<u32>
    repeat: Count(count)
  - id: player
    type: Player
  - id: slots
    type: "[]Slot"
    repeat: Count(2)
`

func TestParseSaveSchema(t *testing.T) {
	s, err := Parse([]byte(saveSchema))
	qt.Assert(t, qt.IsNil(err))

	qt.Assert(t, qt.Equals(s.Endianness, Little))
	qt.Assert(t, qt.Equals(s.Root.Name, "save"))
	qt.Assert(t, qt.DeepEquals(s.TypeOrder, []string{"Player", "Slot"}))

	var ids []string
	for _, f := range s.Items {
		ids = append(ids, f.ID)
	}
	qt.Assert(t, qt.DeepEquals(ids, []string{"version", "count", "flag", "items", "player", "slots"}))

	flag := s.Items[2]
	qt.Assert(t, qt.Equals(flag.Type.Primitive, Bool))
	qt.Assert(t, qt.IsTrue(flag.Condition.AdvanceIfFalse))
	qt.Assert(t, qt.Equals(flag.Condition.Expression.String(), "count > 0"))
	qt.Assert(t, qt.Equals(flag.Shape.String(), "Conditional(Primitive)"))

	items := s.Items[3]
	qt.Assert(t, qt.Equals(items.Repetition.Kind, Count))
	qt.Assert(t, qt.Equals(items.Repetition.Expression.String(), "count"))
	qt.Assert(t, qt.Equals(items.Shape.String(), "Repeated(Primitive)"))

	qt.Assert(t, qt.Equals(s.Items[4].Shape.String(), "Composite"))
	qt.Assert(t, qt.Equals(s.Items[5].Shape.String(), "Repeated(Composite)"))

	qt.Assert(t, qt.Equals(ContextBoundary(s.Items), 2))
	qt.Assert(t, qt.HasLen(s.ContextFields(), 2))
}

func TestParseMeta(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Endianness
	}{
		{"missing meta", "items: []", Little},
		{"le", "meta: {endian: le}\nitems: []", Little},
		{"be", "meta: {endian: be}\nitems: []", Big},
		{"other", "meta: {endian: other}\nitems: []", Little},
		{"null meta", "meta:\nitems: []", Little},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if s.Endianness != tt.want {
				t.Errorf("Endianness = %v, want %v", s.Endianness, tt.want)
			}
			if s.Root.Name != DefaultRootName {
				t.Errorf("Root.Name = %q, want %q", s.Root.Name, DefaultRootName)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"not a mapping", "- a\n- b", ""},
		{"missing items", "meta: {endian: be}", "items"},
		{"items not a sequence", "items: {a: 1}", "items"},
		{"missing id", "items:\n  - type: u8", "items[0]"},
		{"missing type", "items:\n  - id: a", "items[0]"},
		{"bad identifier", "items:\n  - id: 1abc\n    type: u8", "items[0].id"},
		{"reserved identifier", "items:\n  - id: _root\n    type: u8", "items[0].id"},
		{"duplicate id", "items:\n  - {id: a, type: u8}\n  - {id: a, type: u16}", "items[1].id"},
		{"undeclared type", "items:\n  - {id: a, type: Missing}", "items[0].type"},
		{"unparsable if", "items:\n  - {id: a, type: u8, if: 'a >'}", "items[0].if"},
		{"empty if", "items:\n  - {id: a, type: u8, if: ''}", "items[0].if"},
		{"unknown repeat kind", "items:\n  - {id: a, type: u8, repeat: Until(x)}", "items[0].repeat"},
		{"unparsable repeat", "items:\n  - {id: a, type: u8, repeat: Count}", "items[0].repeat"},
		{"unparsable count", "items:\n  - {id: a, type: u8, repeat: 'Count(1 +)'}", "items[0].repeat"},
		{"advance not bool", "items:\n  - {id: a, type: u8, if: 'true', advance_if_false: maybe}", "items[0].advance_if_false"},
		{"array marker without repeat", "items:\n  - {id: a, type: '[]u8'}", "items[0].type"},
		{"nullable marker without if", "items:\n  - {id: a, type: 'Option<u8>'}", "items[0].type"},
		{"nullable outside array", "items:\n  - {id: a, type: '?[]u8', if: 'true', repeat: 'Count(1)'}", "items[0].type"},
		{"types not a mapping", "types: [a]\nitems: []", "types"},
		{"type shadows primitive", "types:\n  u8: []\nitems: []", "types.u8"},
		{"root name clash", "meta: {id: T}\ntypes:\n  T: []\nitems: []", "meta.id"},
		{
			"advance on variable width",
			"types:\n  V:\n    - {id: n, type: u8}\n    - {id: xs, type: u8, repeat: Count(n)}\nitems:\n  - {id: v, type: V, if: 'true', advance_if_false: true}",
			"items[0].advance_if_false",
		},
		{
			"undeclared nested",
			"types:\n  A:\n    - {id: b, type: B}\nitems: []",
			"types.A[0].type",
		},
		{
			"self containing type",
			"types:\n  A:\n    - {id: n, type: u8}\n    - {id: a, type: A}\nitems: []",
			"types.A",
		},
		{
			"mutually containing types",
			"types:\n  A:\n    - {id: b, type: B}\n  B:\n    - {id: a, type: A}\nitems:\n  - {id: a, type: A}",
			"types.A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.doc))
			qt.Assert(t, qt.IsNil(s))
			qt.Assert(t, qt.ErrorIs(err, ErrMalformed))

			var serr *Error
			qt.Assert(t, qt.IsTrue(errors.As(err, &serr)))
			qt.Check(t, qt.Equals(serr.Path, tt.path))
		})
	}
}

func TestParseRecursiveTypeBehindCondition(t *testing.T) {
	s, err := Parse([]byte(`
types:
  Node:
    - {id: more, type: u8}
    - {id: next, type: Node, if: 'more != 0'}
  Tree:
    - {id: n, type: u8}
    - {id: kids, type: Tree, repeat: Count(n)}
items:
  - {id: head, type: Node}
  - {id: tree, type: Tree}
`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(s.TypeOrder, 2))
}

func TestParseTypeMarkers(t *testing.T) {
	tests := []struct {
		name  string
		field string
		shape string
	}{
		{"bare", "{id: a, type: u8}", "Primitive"},
		{"slice marker", "{id: a, type: '[]u8', repeat: Count(1)}", "Repeated(Primitive)"},
		{"vec marker", "{id: a, type: 'Vec<u8>', repeat: Count(1)}", "Repeated(Primitive)"},
		{"question marker", "{id: a, type: '?u8', if: 'true'}", "Conditional(Primitive)"},
		{"option marker", "{id: a, type: 'Option<u8>', if: 'true'}", "Conditional(Primitive)"},
		{"bare with both", "{id: a, type: u8, if: 'true', repeat: Count(1)}", "Repeated(Conditional(Primitive))"},
		{"nested markers", "{id: a, type: 'Vec<Option<u8>>', if: 'true', repeat: Count(1)}", "Repeated(Conditional(Primitive))"},
		{"alias", "{id: a, type: s16}", "Primitive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte("items:\n  - " + tt.field))
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Equals(s.Items[0].Shape.String(), tt.shape))
		})
	}
}

func TestParseJSON(t *testing.T) {
	doc := `{"meta": {"endian": "be"}, "items": [{"id": "a", "type": "u32"}, {"id": "b", "type": "f64", "if": "a == 1u"}]}`
	s, err := Parse([]byte(doc))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(s.Endianness, Big))
	qt.Assert(t, qt.HasLen(s.Items, 2))
	qt.Assert(t, qt.Equals(s.Items[1].Type.Primitive, F64))
}

func TestParseDeferredIdentifiers(t *testing.T) {
	// Unknown identifiers are not a parse failure.
	s, err := Parse([]byte("items:\n  - {id: a, type: u8, if: 'nowhere > 1'}"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Not(qt.IsNil(s)))
}
