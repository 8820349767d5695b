// SPDX-License-Identifier: MIT

package schema

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	identPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	repeatPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*$`)
)

// ParseFile reads and parses a schema document from path.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return Parse(data)
}

// Parse parses a schema from a YAML or JSON document.
//
// The document has three top-level keys: meta (optional, endian: be|le),
// types (optional mapping of name to field list) and items (the root field
// list). Field order is preserved exactly.
func Parse(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed("", "failed to parse document: %v", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, malformed("", "empty document")
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, malformed("", "document must be a mapping")
	}

	endian := Little
	rootName := DefaultRootName
	if meta := mappingValue(root, "meta"); meta != nil {
		var err error
		if endian, rootName, err = parseMeta(meta); err != nil {
			return nil, err
		}
	}

	var types []*CompositeType
	if typesNode := mappingValue(root, "types"); typesNode != nil && !isNull(typesNode) {
		var err error
		if types, err = parseTypes(typesNode); err != nil {
			return nil, err
		}
	}

	itemsNode := mappingValue(root, "items")
	if itemsNode == nil {
		return nil, malformed("items", "missing required key")
	}
	items, err := parseFields("items", itemsNode)
	if err != nil {
		return nil, err
	}

	return New(endian, rootName, types, items)
}

// parseMeta reads the byte order, defaulting to little endian for anything
// other than "be", and the optional root record name.
func parseMeta(node *yaml.Node) (Endianness, string, error) {
	if isNull(node) {
		return Little, DefaultRootName, nil
	}
	if node.Kind != yaml.MappingNode {
		return Little, "", malformed("meta", "must be a mapping")
	}
	endian := Little
	if e := mappingValue(node, "endian"); e != nil && e.Kind == yaml.ScalarNode && e.Value == "be" {
		endian = Big
	}
	name := DefaultRootName
	if id := mappingValue(node, "id"); id != nil {
		if id.Kind != yaml.ScalarNode || !identPattern.MatchString(id.Value) {
			return Little, "", malformed("meta.id", "invalid identifier")
		}
		name = id.Value
	}
	return endian, name, nil
}

func parseTypes(node *yaml.Node) ([]*CompositeType, error) {
	if node.Kind != yaml.MappingNode {
		return nil, malformed("types", "must be a mapping of type name to fields")
	}
	var types []*CompositeType
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		name := key.Value
		path := "types." + name
		if key.Kind != yaml.ScalarNode || !identPattern.MatchString(name) {
			return nil, malformed(path, "invalid type name")
		}
		if _, ok := LookupPrimitive(name); ok {
			return nil, malformed(path, "type name shadows primitive %q", name)
		}
		fields, err := parseFields(path, value)
		if err != nil {
			return nil, err
		}
		types = append(types, NewCompositeType(name, fields))
	}
	return types, nil
}

func parseFields(path string, node *yaml.Node) ([]Field, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, malformed(path, "must be a sequence of field descriptors")
	}
	fields := make([]Field, 0, len(node.Content))
	seen := make(map[string]bool, len(node.Content))
	for i, fn := range node.Content {
		fpath := fmt.Sprintf("%s[%d]", path, i)
		f, err := parseField(fpath, fn)
		if err != nil {
			return nil, err
		}
		if seen[f.ID] {
			return nil, malformed(fpath+".id", "duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
		fields = append(fields, f)
	}
	return fields, nil
}

func parseField(path string, node *yaml.Node) (Field, error) {
	var f Field
	if node.Kind != yaml.MappingNode {
		return f, malformed(path, "field descriptor must be a mapping")
	}

	id, err := requiredScalar(path, node, "id")
	if err != nil {
		return f, err
	}
	if !identPattern.MatchString(id) || id == RootVar {
		return f, malformed(path+".id", "invalid identifier %q", id)
	}
	f.ID = id

	typeName, err := requiredScalar(path, node, "type")
	if err != nil {
		return f, err
	}
	base, markers, err := splitTypeMarkers(typeName)
	if err != nil {
		return f, malformed(path+".type", "%v", err)
	}
	if !identPattern.MatchString(base) {
		return f, malformed(path+".type", "invalid type name %q", base)
	}
	if p, ok := LookupPrimitive(base); ok {
		f.Type = TypeRef{Primitive: p, Name: p.String()}
	} else {
		f.Type = TypeRef{Name: base}
	}

	if n := mappingValue(node, "if"); n != nil {
		expr, err := parseExpr(path+".if", n)
		if err != nil {
			return f, err
		}
		f.Condition = &Condition{Expression: expr}
		if adv := mappingValue(node, "advance_if_false"); adv != nil {
			var b bool
			if adv.Kind != yaml.ScalarNode || adv.Decode(&b) != nil {
				return f, malformed(path+".advance_if_false", "must be a boolean")
			}
			f.Condition.AdvanceIfFalse = b
		}
	}

	if n := mappingValue(node, "repeat"); n != nil {
		rep, err := parseRepetition(path+".repeat", n)
		if err != nil {
			return f, err
		}
		f.Repetition = rep
	}

	if err := checkMarkers(markers, &f); err != nil {
		return f, malformed(path+".type", "%v", err)
	}
	return f, nil
}

func parseExpr(path string, node *yaml.Node) (*Expr, error) {
	if node.Kind != yaml.ScalarNode || strings.TrimSpace(node.Value) == "" {
		return nil, malformed(path, "expression must be a non-empty string")
	}
	expr, err := CompileExpr(node.Value)
	if err != nil {
		return nil, malformed(path, "unparsable expression %q: %v", node.Value, err)
	}
	return expr, nil
}

// parseRepetition parses "Count(<expr>)".
func parseRepetition(path string, node *yaml.Node) (*Repetition, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, malformed(path, "must be a string like Count(<expr>)")
	}
	m := repeatPattern.FindStringSubmatch(node.Value)
	if m == nil {
		return nil, malformed(path, "unparsable repetition %q", node.Value)
	}
	if m[1] != Count.String() {
		return nil, malformed(path, "unknown repetition kind %q", m[1])
	}
	if strings.TrimSpace(m[2]) == "" {
		return nil, malformed(path, "empty count expression")
	}
	expr, err := CompileExpr(m[2])
	if err != nil {
		return nil, malformed(path, "unparsable count expression %q: %v", m[2], err)
	}
	return &Repetition{Kind: Count, Expression: expr}, nil
}

type typeMarker int

const (
	arrayMarker typeMarker = iota
	nullableMarker
)

// splitTypeMarkers strips the outer array ([]T, Vec<T>) and nullable
// (?T, Option<T>) markers from a type string, outermost first.
func splitTypeMarkers(s string) (string, []typeMarker, error) {
	var markers []typeMarker
	s = strings.TrimSpace(s)
	for {
		switch {
		case strings.HasPrefix(s, "[]"):
			markers = append(markers, arrayMarker)
			s = strings.TrimSpace(s[2:])
		case strings.HasPrefix(s, "?"):
			markers = append(markers, nullableMarker)
			s = strings.TrimSpace(s[1:])
		case strings.HasPrefix(s, "Vec<") && strings.HasSuffix(s, ">"):
			markers = append(markers, arrayMarker)
			s = strings.TrimSpace(s[len("Vec<") : len(s)-1])
		case strings.HasPrefix(s, "Option<") && strings.HasSuffix(s, ">"):
			markers = append(markers, nullableMarker)
			s = strings.TrimSpace(s[len("Option<") : len(s)-1])
		default:
			if len(markers) > 2 {
				return "", nil, fmt.Errorf("too many type markers")
			}
			return s, markers, nil
		}
	}
}

// checkMarkers verifies that any marker is backed by the matching key and
// that an array marker wraps a nullable one, never the reverse.
func checkMarkers(markers []typeMarker, f *Field) error {
	for i, m := range markers {
		switch m {
		case arrayMarker:
			if f.Repetition == nil {
				return fmt.Errorf("array type requires repeat")
			}
			if i > 0 {
				return fmt.Errorf("array marker must be outermost")
			}
		case nullableMarker:
			if f.Condition == nil {
				return fmt.Errorf("nullable type requires if")
			}
			if i > 0 && markers[i-1] == nullableMarker {
				return fmt.Errorf("duplicate nullable marker")
			}
		}
	}
	return nil
}

func requiredScalar(path string, node *yaml.Node, key string) (string, error) {
	v := mappingValue(node, key)
	if v == nil {
		return "", malformed(path, "missing required key %q", key)
	}
	if v.Kind != yaml.ScalarNode || v.Value == "" {
		return "", malformed(path+"."+key, "must be a non-empty string")
	}
	return v.Value, nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
