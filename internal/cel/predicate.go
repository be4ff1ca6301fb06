package cel

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/cel-go/cel"
)

// CompilePredicate compiles a boolean filter expression. Expressions whose
// static type is known to be something other than bool are rejected.
func (e *Evaluator) CompilePredicate(expr string) (*Program, error) {
	p, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	if p.out != nil && !p.out.IsExactType(cel.BoolType) && !p.out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, p.out)
	}
	return p, nil
}

// Match runs the program as a filter. A non-bool result is an error.
func (p *Program) Match(data any) (bool, error) {
	v, err := p.Eval(data)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", p.expr, v)
	}
	return b, nil
}

// Filter adapts p to a plain predicate. Records the expression cannot be
// evaluated against, for example because a field is missing, do not match;
// the error is logged at V(1).
func Filter[T any](p *Program, lgr logr.Logger) func(T) bool {
	return func(item T) bool {
		ok, err := p.Match(item)
		if err != nil {
			lgr.V(1).Info("filter did not evaluate", "expr", p.expr, "error", err.Error())
			return false
		}
		return ok
	}
}

// Key adapts p to a sort key. Records that fail to evaluate yield nil.
func Key[T any](p *Program) func(T) any {
	return func(item T) any {
		v, err := p.Eval(item)
		if err != nil {
			return nil
		}
		return v
	}
}
