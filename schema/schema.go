// SPDX-License-Identifier: MIT

// Package schema provides the declarative model of a binary record layout.
// A schema is parsed once from a YAML/JSON document and is immutable afterwards;
// the codec package compiles it into decode/encode procedures.
package schema

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
)

// DefaultRootName names the root record when the document's meta section
// does not provide an id.
const DefaultRootName = "root"

// RootVar is the name under which the shared context is visible to
// condition and count expressions.
const RootVar = "_root"

// Endianness is the byte order applied to every multi-byte primitive.
type Endianness int

const (
	Little Endianness = iota
	Big
)

// ByteOrder returns the encoding/binary order for e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endianness) String() string {
	if e == Big {
		return "be"
	}
	return "le"
}

// Primitive is one of the fixed scalar kinds.
type Primitive int

const (
	NotPrimitive Primitive = iota
	U8
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F32
	F64
	Bool
)

var primitiveNames = [...]string{
	NotPrimitive: "",
	U8:           "u8",
	U16:          "u16",
	U32:          "u32",
	U64:          "u64",
	I8:           "i8",
	I16:          "i16",
	I32:          "i32",
	I64:          "i64",
	F32:          "f32",
	F64:          "f64",
	Bool:         "bool",
}

// primitiveAliases maps accepted type names, including the s8..s64
// shorthand, onto primitives.
var primitiveAliases = map[string]Primitive{
	"u8":   U8,
	"u16":  U16,
	"u32":  U32,
	"u64":  U64,
	"i8":   I8,
	"i16":  I16,
	"i32":  I32,
	"i64":  I64,
	"s8":   I8,
	"s16":  I16,
	"s32":  I32,
	"s64":  I64,
	"f32":  F32,
	"f64":  F64,
	"bool": Bool,
}

// LookupPrimitive resolves a type name to a primitive.
func LookupPrimitive(name string) (Primitive, bool) {
	p, ok := primitiveAliases[name]
	return p, ok
}

func (p Primitive) String() string {
	if p < 0 || int(p) >= len(primitiveNames) {
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
	return primitiveNames[p]
}

// Width returns the encoded size of p in bytes.
func (p Primitive) Width() int {
	switch p {
	case U8, I8, Bool:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	default:
		return 0
	}
}

// TypeRef is a field's declared data type: a primitive or the name of a
// composite type.
type TypeRef struct {
	Primitive Primitive
	Name      string
}

// IsPrimitive reports whether the reference names a primitive.
func (t TypeRef) IsPrimitive() bool {
	return t.Primitive != NotPrimitive
}

func (t TypeRef) String() string {
	return t.Name
}

// ShapeKind tags the variants of Shape.
type ShapeKind int

const (
	ShapePrimitive ShapeKind = iota
	ShapeComposite
	ShapeConditional
	ShapeRepeated
)

// Shape is the resolved structure of a field's value:
// Primitive | Composite | Conditional(Shape) | Repeated(Shape).
// It is computed once while parsing.
type Shape struct {
	Kind  ShapeKind
	Inner *Shape
}

func (s Shape) String() string {
	switch s.Kind {
	case ShapePrimitive:
		return "Primitive"
	case ShapeComposite:
		return "Composite"
	case ShapeConditional:
		return "Conditional(" + s.Inner.String() + ")"
	case ShapeRepeated:
		return "Repeated(" + s.Inner.String() + ")"
	}
	return "Shape(?)"
}

// Condition gates the presence of a field on the wire.
type Condition struct {
	Expression *Expr
	// AdvanceIfFalse reserves the field's full width even when absent.
	AdvanceIfFalse bool
}

// RepetitionKind enumerates the supported repetition forms.
type RepetitionKind int

const (
	// Count repeats the element a number of times given by an expression.
	Count RepetitionKind = iota
)

func (k RepetitionKind) String() string {
	if k == Count {
		return "Count"
	}
	return fmt.Sprintf("RepetitionKind(%d)", int(k))
}

// Repetition makes a field a homogeneous array.
type Repetition struct {
	Kind       RepetitionKind
	Expression *Expr
}

// Field is one ordered record slot.
type Field struct {
	ID         string
	Type       TypeRef
	Condition  *Condition
	Repetition *Repetition
	Shape      Shape
}

// IsContextual reports whether the field may belong to the shared context:
// unconditional, not repeated and primitive.
func (f *Field) IsContextual() bool {
	return f.Condition == nil && f.Repetition == nil && f.Type.IsPrimitive()
}

func (f *Field) String() string {
	var b strings.Builder
	b.WriteString(f.ID)
	b.WriteString(": ")
	b.WriteString(f.Type.Name)
	if f.Condition != nil {
		fmt.Fprintf(&b, " if (%s)", f.Condition.Expression)
		if f.Condition.AdvanceIfFalse {
			b.WriteString(" advance_if_false")
		}
	}
	if f.Repetition != nil {
		fmt.Fprintf(&b, " repeat %s(%s)", f.Repetition.Kind, f.Repetition.Expression)
	}
	return b.String()
}

func shapeOf(f *Field) Shape {
	s := Shape{Kind: ShapePrimitive}
	if !f.Type.IsPrimitive() {
		s.Kind = ShapeComposite
	}
	if f.Condition != nil {
		inner := s
		s = Shape{Kind: ShapeConditional, Inner: &inner}
	}
	if f.Repetition != nil {
		inner := s
		s = Shape{Kind: ShapeRepeated, Inner: &inner}
	}
	return s
}

// CompositeType is a named, reusable record layout.
type CompositeType struct {
	Name   string
	Fields []Field

	index map[string]int
}

// NewCompositeType builds a composite type, resolving each field's shape.
func NewCompositeType(name string, fields []Field) *CompositeType {
	t := &CompositeType{
		Name:   name,
		Fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i := range t.Fields {
		t.Fields[i].Shape = shapeOf(&t.Fields[i])
		t.index[t.Fields[i].ID] = i
	}
	return t
}

// FieldIndex returns the position of the field with the given id.
func (t *CompositeType) FieldIndex(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Schema is a parsed layout: byte order, named composite types and the
// root record.
type Schema struct {
	Endianness Endianness
	Types      map[string]*CompositeType
	// TypeOrder lists type names in declaration order.
	TypeOrder []string
	Root      *CompositeType
	Items     []Field
}

// New assembles and validates a schema from its parts.
func New(endian Endianness, rootName string, types []*CompositeType, items []Field) (*Schema, error) {
	if rootName == "" {
		rootName = DefaultRootName
	}
	s := &Schema{
		Endianness: endian,
		Types:      make(map[string]*CompositeType, len(types)),
	}
	for _, t := range types {
		if _, dup := s.Types[t.Name]; dup {
			return nil, malformed("types."+t.Name, "duplicate type name")
		}
		s.Types[t.Name] = t
		s.TypeOrder = append(s.TypeOrder, t.Name)
	}
	if _, clash := s.Types[rootName]; clash {
		return nil, malformed("meta.id", "root name %q clashes with a declared type", rootName)
	}
	s.Root = NewCompositeType(rootName, items)
	s.Items = s.Root.Fields
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Type looks up a composite type by name, including the root.
func (s *Schema) Type(name string) (*CompositeType, bool) {
	if t, ok := s.Types[name]; ok {
		return t, true
	}
	if s.Root != nil && s.Root.Name == name {
		return s.Root, true
	}
	return nil, false
}

// Validate checks references between types and the fixed width of every
// advance_if_false field.
func (s *Schema) Validate() error {
	check := func(path string, t *CompositeType) error {
		for i := range t.Fields {
			f := &t.Fields[i]
			fpath := fmt.Sprintf("%s[%d]", path, i)
			if !f.Type.IsPrimitive() {
				if _, ok := s.Types[f.Type.Name]; !ok {
					return malformed(fpath+".type", "undeclared type %q", f.Type.Name)
				}
			}
			if f.Condition != nil && f.Condition.AdvanceIfFalse {
				if _, ok := s.FixedWidth(f.Type); !ok {
					return malformed(fpath+".advance_if_false", "type %q has no fixed width", f.Type.Name)
				}
			}
		}
		return nil
	}
	for _, name := range s.TypeOrder {
		if err := check("types."+name, s.Types[name]); err != nil {
			return err
		}
	}
	if err := check("items", s.Root); err != nil {
		return err
	}
	for _, name := range s.TypeOrder {
		if chain := s.selfContaining(name, []string{name}); chain != nil {
			return malformed("types."+name, "type contains itself unconditionally: %s", strings.Join(chain, " -> "))
		}
	}
	return nil
}

// selfContaining follows unconditional, non-repeated composite fields from
// the last type in chain and returns the chain once it comes back to
// chain[0]. Such a type has no finite encoding.
func (s *Schema) selfContaining(start string, chain []string) []string {
	t := s.Types[chain[len(chain)-1]]
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Type.IsPrimitive() || f.Condition != nil || f.Repetition != nil {
			continue
		}
		next := f.Type.Name
		if next == start {
			return append(chain, next)
		}
		if slices.Contains(chain, next) {
			continue
		}
		if found := s.selfContaining(start, append(chain, next)); found != nil {
			return found
		}
	}
	return nil
}

// ContextBoundary returns k such that items[0:k] is the maximal prefix of
// unconditional, non-repeated, primitive fields.
func ContextBoundary(items []Field) int {
	for i := range items {
		if !items[i].IsContextual() {
			return i
		}
	}
	return len(items)
}

// ContextFields returns the root fields that form the shared context.
func (s *Schema) ContextFields() []Field {
	return s.Items[:ContextBoundary(s.Items)]
}

// FixedWidth returns the encoded size of t when every instance occupies the
// same number of bytes.
func (s *Schema) FixedWidth(t TypeRef) (int, bool) {
	return s.fixedWidth(t, map[string]bool{})
}

func (s *Schema) fixedWidth(t TypeRef, visiting map[string]bool) (int, bool) {
	if t.IsPrimitive() {
		return t.Primitive.Width(), true
	}
	ct, ok := s.Types[t.Name]
	if !ok || visiting[t.Name] {
		return 0, false
	}
	visiting[t.Name] = true
	defer delete(visiting, t.Name)

	total := 0
	for i := range ct.Fields {
		f := &ct.Fields[i]
		if f.Repetition != nil {
			return 0, false
		}
		if f.Condition != nil && !f.Condition.AdvanceIfFalse {
			return 0, false
		}
		w, ok := s.fixedWidth(f.Type, visiting)
		if !ok {
			return 0, false
		}
		total += w
	}
	return total, true
}
