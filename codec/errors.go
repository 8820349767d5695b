// SPDX-License-Identifier: MIT

package codec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTruncated matches decode failures caused by an exhausted stream.
	ErrTruncated = errors.New("truncated input")
	// ErrExpressionEvaluation matches condition or count evaluation failures.
	ErrExpressionEvaluation = errors.New("expression evaluation failed")
	// ErrSinkFailure matches encode failures raised by the destination writer.
	ErrSinkFailure = errors.New("sink failure")
	// ErrInvalidValue matches in-memory values that do not fit the field shape.
	ErrInvalidValue = errors.New("invalid value")
	// ErrCountMismatch matches collections whose length disagrees with the
	// count expression.
	ErrCountMismatch = errors.New("repetition count mismatch")
)

// DecodeErrorKind classifies decode failures.
type DecodeErrorKind int

const (
	Truncated DecodeErrorKind = iota + 1
	ExpressionFailed
)

func (k DecodeErrorKind) String() string {
	switch k {
	case Truncated:
		return "truncated"
	case ExpressionFailed:
		return "expression evaluation failed"
	}
	return fmt.Sprintf("DecodeErrorKind(%d)", int(k))
}

// DecodeError aborts a decode pass.
type DecodeError struct {
	Kind DecodeErrorKind
	// Type is the composite type whose field failed.
	Type string
	// Field is the field path from the record passed to Decode,
	// e.g. "players[2].hp".
	Field string
	// Offset is the stream position at which the failing read started.
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s.%s at offset %d: %s: %v", e.Type, e.Field, e.Offset, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	switch e.Kind {
	case Truncated:
		return target == ErrTruncated
	case ExpressionFailed:
		return target == ErrExpressionEvaluation
	}
	return false
}

// EncodeErrorKind classifies encode failures.
type EncodeErrorKind int

const (
	SinkFailure EncodeErrorKind = iota + 1
	EncodeExpressionFailed
	InvalidValue
	CountMismatch
)

func (k EncodeErrorKind) String() string {
	switch k {
	case SinkFailure:
		return "sink failure"
	case EncodeExpressionFailed:
		return "expression evaluation failed"
	case InvalidValue:
		return "invalid value"
	case CountMismatch:
		return "count mismatch"
	}
	return fmt.Sprintf("EncodeErrorKind(%d)", int(k))
}

// EncodeError aborts an encode pass.
type EncodeError struct {
	Kind EncodeErrorKind
	Type string
	Field string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s.%s: %s: %v", e.Type, e.Field, e.Kind, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Is(target error) bool {
	switch e.Kind {
	case SinkFailure:
		return target == ErrSinkFailure
	case EncodeExpressionFailed:
		return target == ErrExpressionEvaluation
	case InvalidValue:
		return target == ErrInvalidValue
	case CountMismatch:
		return target == ErrCountMismatch
	}
	return false
}

// joinPath prefixes an error path with a field id or an [index] segment.
func joinPath(segment, path string) string {
	switch {
	case path == "":
		return segment
	case strings.HasPrefix(path, "["):
		return segment + path
	default:
		return segment + "." + path
	}
}

// withPath prepends segment to the path of a decode or encode error and,
// when typeName is set, records the record type the path is relative to.
func withPath(err error, typeName, segment string) error {
	var de *DecodeError
	if errors.As(err, &de) {
		de.Field = joinPath(segment, de.Field)
		if typeName != "" {
			de.Type = typeName
		}
		return err
	}
	var ee *EncodeError
	if errors.As(err, &ee) {
		ee.Field = joinPath(segment, ee.Field)
		if typeName != "" {
			ee.Type = typeName
		}
	}
	return err
}
