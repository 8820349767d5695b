// SPDX-License-Identifier: MIT

package schema

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

// exprEnv returns the shared CEL environment. Variables are not declared:
// expressions are parsed but not type-checked, so an unknown identifier only
// fails when the expression is evaluated.
func exprEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(cel.CrossTypeNumericComparisons(true))
	})
	return env, envErr
}

// Expr is a compiled condition or count expression.
// It is safe for concurrent evaluation.
type Expr struct {
	source  string
	program cel.Program
}

// CompileExpr parses src and plans it for evaluation.
func CompileExpr(src string) (*Expr, error) {
	e, err := exprEnv()
	if err != nil {
		return nil, fmt.Errorf("creating expression environment: %w", err)
	}
	ast, iss := e.Parse(src)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	prg, err := e.Program(ast)
	if err != nil {
		return nil, err
	}
	return &Expr{source: src, program: prg}, nil
}

// MustCompileExpr is like CompileExpr but panics on error.
func MustCompileExpr(src string) *Expr {
	e, err := CompileExpr(src)
	if err != nil {
		panic(fmt.Sprintf("schema: compiling %q: %v", src, err))
	}
	return e
}

func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

// Eval evaluates the expression against vars and returns the native result.
func (e *Expr) Eval(vars map[string]any) (any, error) {
	out, _, err := e.program.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", e.source, err)
	}
	return out.Value(), nil
}

// EvalBool evaluates a condition.
func (e *Expr) EvalBool(vars map[string]any) (bool, error) {
	v, err := e.Eval(vars)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q evaluated to %v (%T), want bool", e.source, v, v)
	}
	return b, nil
}

// EvalCount evaluates a repetition count, which must be a non-negative integer.
func (e *Expr) EvalCount(vars map[string]any) (int, error) {
	v, err := e.Eval(vars)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("count %q evaluated to negative value %d", e.source, n)
		}
		if uint64(n) > math.MaxInt {
			return 0, fmt.Errorf("count %q value %d out of range", e.source, n)
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("count %q value %d out of range", e.source, n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("count %q evaluated to %v (%T), want integer", e.source, v, v)
}
