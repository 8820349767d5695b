// SPDX-License-Identifier: MIT

package schema

import (
	"errors"
	"fmt"
)

// ErrMalformed matches every schema validation failure.
var ErrMalformed = errors.New("malformed schema")

// Error describes a structurally invalid schema document.
type Error struct {
	// Path locates the offending node, e.g. "types.Player[2].repeat".
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed schema: %s", e.Message)
	}
	return fmt.Sprintf("malformed schema at %s: %s", e.Path, e.Message)
}

// Is makes errors.Is(err, ErrMalformed) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(path, format string, args ...any) *Error {
	return &Error{Path: path, Message: fmt.Sprintf(format, args...)}
}
