// SPDX-License-Identifier: MIT

package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Compact format parsing

var compactTokenPattern = regexp.MustCompile(`^(\d*)([a-zA-Z?])(?::(\S+))?$`)

var compactCodes = map[byte]Primitive{
	'b': I8,
	'B': U8,
	'h': I16,
	'H': U16,
	'i': I32,
	'I': U32,
	'l': I32,
	'L': U32,
	'q': I64,
	'Q': U64,
	'f': F32,
	'd': F64,
	'?': Bool,
}

var compactOrders = map[byte]Endianness{
	'>': Big,
	'<': Little,
	'!': Big,
}

// ParseCompact parses a Python struct-like format string into a root-only
// schema, e.g. "<H:version B:count 3I:ids". A repeat prefix greater than one
// makes the field an array with a literal count. Unnamed fields are called
// field_<n>. Without a byte order prefix the schema is big endian.
func ParseCompact(format string) (*Schema, error) {
	endian := Big
	format = strings.TrimSpace(format)
	if len(format) > 0 {
		if e, ok := compactOrders[format[0]]; ok {
			endian = e
			format = format[1:]
		}
	}

	var items []Field
	for i, tok := range strings.Fields(format) {
		path := fmt.Sprintf("format[%d]", i)
		m := compactTokenPattern.FindStringSubmatch(tok)
		if m == nil {
			return nil, malformed(path, "invalid token %q", tok)
		}
		countStr, code, name := m[1], m[2][0], m[3]

		p, ok := compactCodes[code]
		if !ok {
			return nil, malformed(path, "unknown format character: %c", code)
		}
		if name == "" {
			name = fmt.Sprintf("field_%d", i)
		} else if !identPattern.MatchString(name) || name == RootVar {
			return nil, malformed(path, "invalid identifier %q", name)
		}
		f := Field{ID: name, Type: TypeRef{Primitive: p, Name: p.String()}}

		if countStr != "" {
			count, err := strconv.Atoi(countStr)
			if err != nil {
				return nil, malformed(path, "invalid count %q", countStr)
			}
			if count != 1 {
				f.Repetition = &Repetition{Kind: Count, Expression: MustCompileExpr(strconv.Itoa(count))}
			}
		}
		items = append(items, f)
	}
	if len(items) == 0 {
		return nil, malformed("format", "no fields")
	}

	seen := make(map[string]bool, len(items))
	for i, f := range items {
		if seen[f.ID] {
			return nil, malformed(fmt.Sprintf("format[%d]", i), "duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
	}

	return New(endian, DefaultRootName, nil, items)
}
