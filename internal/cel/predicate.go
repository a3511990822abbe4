// Package cel evaluates CEL predicates against KV entries. The entry is
// bound to the variable "_" with the fields key, value, expiration and
// metadata, e.g. `_.value.age > 30 && _.key.startsWith("user:")`.
package cel

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
)

// newStandardCELEnv creates the CEL environment shared by predicates and
// function discovery. Additional options extend it.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 6+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Predicate is a compiled boolean expression over one entry.
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks expr. Expressions whose result cannot be
// a bool are rejected here rather than per entry.
func Compile(expr string) (*Predicate, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	if !ast.OutputType().IsAssignableType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.expr
}

// Match evaluates the predicate against e.
func (p *Predicate) Match(e dataset.Entry) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{"_": e.Fields()})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %s, not bool", p.expr, out.Type())
	}
	return bool(b), nil
}

// Filter keeps the entries the predicate accepts, in order. An entry the
// expression cannot be evaluated against, such as one missing a field the
// expression reads, is left out.
func (p *Predicate) Filter(entries []dataset.Entry) []dataset.Entry {
	out := make([]dataset.Entry, 0, len(entries))
	for _, e := range entries {
		if ok, err := p.Match(e); err == nil && ok {
			out = append(out, e)
		}
	}
	return out
}

// FilterEntries compiles expr and applies it. A blank expression returns
// entries unchanged.
func FilterEntries(entries []dataset.Entry, expr string) ([]dataset.Entry, error) {
	if strings.TrimSpace(expr) == "" {
		return entries, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return p.Filter(entries), nil
}
