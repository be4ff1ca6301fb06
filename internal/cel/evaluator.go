// Package cel compiles CEL expressions over records. The record under test is
// bound to the variable "_", so `_.cores > 4 && _.zone == "east"` is a
// typical filter.
package cel

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// Evaluator compiles CEL expressions against a shared environment.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
// opts extend the environment, e.g. with custom functions.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	env, err := newStandardCELEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// newStandardCELEnv creates a standard CEL environment with common extensions.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Program is a compiled expression ready to run against many records.
type Program struct {
	expr string
	out  *cel.Type
	prg  cel.Program
}

// Compile parses and type-checks expr.
func (e *Evaluator) Compile(expr string) (*Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, out: ast.OutputType(), prg: prg}, nil
}

// String returns the source expression.
func (p *Program) String() string { return p.expr }

// Eval runs the program with data bound to "_" and converts the result to
// Go types.
func (p *Program) Eval(data any) (any, error) {
	result, _, err := p.prg.Eval(map[string]any{"_": data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	converted := ToGo(result)
	if refVal, ok := converted.(ref.Val); ok {
		converted = refVal.Value()
	}
	return converted, nil
}

// Evaluate compiles and runs expr once.
func (e *Evaluator) Evaluate(expr string, data any) (any, error) {
	p, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return p.Eval(data)
}

// identifierName matches callable names, skipping operators such as "_&&_"
// and internal macros such as "@in".
var identifierName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

// FunctionNames lists the functions and macros callable in expressions,
// sorted and without operators.
func (e *Evaluator) FunctionNames() []string {
	seen := make(map[string]bool)
	for name := range e.env.Functions() {
		if identifierName.MatchString(name) {
			seen[name] = true
		}
	}
	for _, m := range e.env.Macros() {
		if identifierName.MatchString(m.Function()) {
			seen[m.Function()] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToGo converts CEL values to Go native types recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	inner := val.Value()
	switch t := inner.(type) {
	case []ref.Val:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = convertValue(elem)
		}
		return out
	case map[string]any:
		return convertMapValues(t)
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[fmt.Sprintf("%v", k.Value())] = ToGo(v)
		}
		return out
	}
	return inner
}

func convertValue(v any) any {
	switch t := v.(type) {
	case ref.Val:
		return ToGo(t)
	case map[string]any:
		return convertMapValues(t)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = convertValue(elem)
		}
		return out
	default:
		return v
	}
}

func convertMapValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = convertValue(v)
	}
	return out
}
