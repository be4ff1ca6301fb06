package cel

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record() map[string]any {
	return map[string]any{
		"name":  "web-1",
		"cores": 8,
		"zone":  "east",
		"tags":  []any{"prod", "edge"},
		"meta":  map[string]any{"owner": "ops"},
	}
}

func TestEvaluate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		want any
	}{
		{name: "field", expr: "_.name", want: "web-1"},
		{name: "arithmetic", expr: "_.cores * 2", want: int64(16)},
		{name: "string extension", expr: "_.name.upperAscii()", want: "WEB-1"},
		{name: "list", expr: "_.tags.filter(t, t != 'edge')", want: []any{"prod"}},
		{name: "map literal", expr: "{'owner': _.meta.owner}", want: map[string]any{"owner": "ops"}},
		{name: "null", expr: "null", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(tt.expr, record())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluatorEnvOptions(t *testing.T) {
	twice := cel.Function("twice",
		cel.Overload("twice_int", []*cel.Type{cel.IntType}, cel.IntType,
			cel.UnaryBinding(func(v ref.Val) ref.Val { return v.(types.Int) * 2 })))
	e, err := NewEvaluator(twice)
	require.NoError(t, err)

	got, err := e.Evaluate("twice(21)", record())
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestCompileErrors(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	_, err = eval.Compile("   ")
	require.Error(t, err)

	_, err = eval.Compile("_.name ==")
	require.ErrorContains(t, err, "compilation error")

	_, err = eval.CompilePredicate("'text'")
	require.ErrorContains(t, err, "must evaluate to bool")
}

func TestPredicate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	p, err := eval.CompilePredicate(`_.cores > 4 && "prod" in _.tags`)
	require.NoError(t, err)
	assert.Equal(t, `_.cores > 4 && "prod" in _.tags`, p.String())

	ok, err := p.Match(record())
	require.NoError(t, err)
	assert.True(t, ok)

	small := record()
	small["cores"] = 2
	ok, err = p.Match(small)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicateDynResult(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	p, err := eval.CompilePredicate("_.name")
	require.NoError(t, err, "dyn expressions are checked at evaluation time")
	_, err = p.Match(record())
	require.ErrorContains(t, err, "want bool")
}

func TestFilterAdapter(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	p, err := eval.CompilePredicate(`_.zone == "east"`)
	require.NoError(t, err)

	match := Filter[map[string]any](p, logr.Discard())
	assert.True(t, match(record()))
	assert.False(t, match(map[string]any{"zone": "west"}))
	assert.False(t, match(map[string]any{"name": "no zone"}), "missing field does not match")
}

func TestKeyAdapter(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	p, err := eval.Compile("size(_.tags)")
	require.NoError(t, err)

	key := Key[map[string]any](p)
	assert.Equal(t, int64(2), key(record()))
	assert.Nil(t, key(map[string]any{}))
}

func TestToGo(t *testing.T) {
	assert.Nil(t, ToGo(nil))
	assert.Equal(t, true, ToGo(types.True))
	assert.Equal(t, uint64(3), ToGo(types.Uint(3)))
	assert.Equal(t, 1.5, ToGo(types.Double(1.5)))
	assert.Equal(t, []byte("x"), ToGo(types.Bytes("x")))
}

func TestFunctionNames(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	names := eval.FunctionNames()
	assert.Contains(t, names, "size")
	assert.Contains(t, names, "startsWith")
	assert.Contains(t, names, "filter")
	assert.NotContains(t, names, "_&&_")
	assert.NotContains(t, names, "@in")
	assert.IsNonDecreasing(t, names)
}
