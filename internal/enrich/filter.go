// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/pdiddy/blastsets/pkg/types"
)

// ErrInvalidFilter is returned for filter expressions that do not compile.
var ErrInvalidFilter = errors.New("invalid filter expression")

// Filter is a compiled CEL predicate over one result row. Available
// variables: id, name (string), common_n, target_n (int), score and
// adjusted (double; adjusted equals score when no adjustment was made).
//
// Example: common_n >= 3 && target_n < 500
type Filter struct {
	expr string
	prg  cel.Program
}

// CompileFilter parses expr. An empty expression yields a nil filter.
func CompileFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("common_n", cel.IntType),
		cel.Variable("target_n", cel.IntType),
		cel.Variable("score", cel.DoubleType),
		cel.Variable("adjusted", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("creating filter environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidFilter, expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w %q: must evaluate to bool, got %s", ErrInvalidFilter, expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidFilter, expr, err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the predicate for r.
func (f *Filter) Match(r types.ScoreResult) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{
		"id":       r.ID,
		"name":     r.Name,
		"common_n": int64(r.Common),
		"target_n": int64(r.TargetSize),
		"score":    r.Score,
		"adjusted": r.Significance(),
	})
	if err != nil {
		return false, fmt.Errorf("evaluating %q: %w", f.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", f.expr, out.Value())
	}
	return b, nil
}
