package paging

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompareValues(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a    any
		b    any
		want int
	}{
		{name: "nil first", a: nil, b: 0, want: -1},
		{name: "nil last for b", a: "x", b: nil, want: 1},
		{name: "both nil", a: nil, b: nil, want: 0},
		{name: "ints", a: 2, b: 10, want: -1},
		{name: "large int64 keeps precision", a: int64(1<<62 + 1), b: int64(1 << 62), want: 1},
		{name: "uints", a: uint8(3), b: uint64(3), want: 0},
		{name: "int against float", a: 3, b: 2.5, want: 1},
		{name: "float against uint", a: 1.0, b: uint(1), want: 0},
		{name: "NaN first", a: math.NaN(), b: -1.0, want: -1},
		{name: "strings are ordinal", a: "B", b: "a", want: -1},
		{name: "bools", a: false, b: true, want: -1},
		{name: "equal bools", a: true, b: true, want: 0},
		{name: "times", a: now.Add(time.Hour), b: now, want: 1},
		{name: "numbers before strings", a: "10", b: 9, want: 1},
		{name: "bools before numbers", a: true, b: 0, want: -1},
		{name: "strings before times", a: "z", b: now, want: -1},
		{name: "times before other kinds", a: now, b: []int{1}, want: -1},
		{name: "other kinds use formatting", a: []int{2}, b: []int{10}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareValues(tt.a, tt.b))
		})
	}
}

func TestCompareValuesNamedTypes(t *testing.T) {
	type level string
	type score int
	assert.Equal(t, -1, CompareValues(level("debug"), level("info")))
	assert.Equal(t, 1, CompareValues(score(7), 2))
}

func TestCompareValuesIsTransitiveOverMixedKinds(t *testing.T) {
	values := []any{"9", 10, 9, "8", 100, nil, true, 2.5, "N/A", uint(3)}
	for _, a := range values {
		for _, b := range values {
			ab, ba := CompareValues(a, b), CompareValues(b, a)
			assert.Equal(t, -ab, ba, "antisymmetry for %v, %v", a, b)
			for _, c := range values {
				if ab <= 0 && CompareValues(b, c) <= 0 {
					assert.LessOrEqual(t, CompareValues(a, c), 0, "transitivity for %v <= %v <= %v", a, b, c)
				}
			}
		}
	}
}

func TestSortMixedKinds(t *testing.T) {
	v, err := New[any](10)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetSource([]any{"9", 10, 9, "8", 100, "N/A", nil}); err != nil {
		t.Fatal(err)
	}
	if err := v.SetSort(func(x any) any { return x }, true); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []any{nil, 9, 10, 100, "8", "9", "N/A"}, v.Filtered())

	if err := v.SetSort(func(x any) any { return x }, false); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []any{"N/A", "9", "8", 100, 10, 9, nil}, v.Filtered())
}
