// SPDX-License-Identifier: MIT

package schema

import (
	"testing"
)

func TestParseCompact(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		endian  Endianness
		ids     []string
		shapes  []string
		wantErr bool
	}{
		{
			name:   "simple uint8",
			format: ">B:value",
			endian: Big,
			ids:    []string{"value"},
			shapes: []string{"Primitive"},
		},
		{
			name:   "multiple fields",
			format: "<H:version B:count ?:flag",
			endian: Little,
			ids:    []string{"version", "count", "flag"},
			shapes: []string{"Primitive", "Primitive", "Primitive"},
		},
		{
			name:   "default big endian",
			format: "h:a",
			endian: Big,
			ids:    []string{"a"},
			shapes: []string{"Primitive"},
		},
		{
			name:   "repeat count",
			format: "<B:n 3I:ids",
			endian: Little,
			ids:    []string{"n", "ids"},
			shapes: []string{"Primitive", "Repeated(Primitive)"},
		},
		{
			name:   "unnamed",
			format: "<B H",
			endian: Little,
			ids:    []string{"field_0", "field_1"},
			shapes: []string{"Primitive", "Primitive"},
		},
		{
			name:    "unknown character",
			format:  "<Z:oops",
			wantErr: true,
		},
		{
			name:    "garbage token",
			format:  "<B:a ::",
			wantErr: true,
		},
		{
			name:    "duplicate names",
			format:  "<B:a H:a",
			wantErr: true,
		},
		{
			name:    "reserved name",
			format:  "<B:_root",
			wantErr: true,
		},
		{
			name:    "name starts with digit",
			format:  "<B:1st",
			wantErr: true,
		},
		{
			name:    "name with punctuation",
			format:  "<B:hit-points",
			wantErr: true,
		},
		{
			name:   "underscore name",
			format: "<B:_pad",
			endian: Little,
			ids:    []string{"_pad"},
			shapes: []string{"Primitive"},
		},
		{
			name:    "empty",
			format:  "<",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseCompact(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCompact(%q) expected error", tt.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCompact(%q) error: %v", tt.format, err)
			}
			if s.Endianness != tt.endian {
				t.Errorf("Endianness = %v, want %v", s.Endianness, tt.endian)
			}
			if len(s.Items) != len(tt.ids) {
				t.Fatalf("got %d items, want %d", len(s.Items), len(tt.ids))
			}
			for i, f := range s.Items {
				if f.ID != tt.ids[i] {
					t.Errorf("item %d id = %q, want %q", i, f.ID, tt.ids[i])
				}
				if f.Shape.String() != tt.shapes[i] {
					t.Errorf("item %d shape = %s, want %s", i, f.Shape, tt.shapes[i])
				}
			}
		})
	}
}
