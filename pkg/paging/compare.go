package paging

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// kindClass ranks values of different kinds so that CompareValues is a
// total order over mixed columns.
type kindClass int

const (
	classNil kindClass = iota
	classBool
	classNumber
	classString
	classTime
	classOther
)

func classOf(v any) kindClass {
	if v == nil {
		return classNil
	}
	if _, ok := v.(time.Time); ok {
		return classTime
	}
	rv := reflect.ValueOf(v)
	if _, ok := numeric(rv); ok {
		return classNumber
	}
	switch rv.Kind() {
	case reflect.Bool:
		return classBool
	case reflect.String:
		return classString
	default:
		return classOther
	}
}

// CompareValues orders two sort keys. Values of different kinds order by
// kind: nil, bools, numbers, strings, times, then everything else. Within a
// kind numbers compare numerically across integer, unsigned and float kinds,
// strings ordinally, bools false before true and time.Time chronologically.
// Other values compare by their fmt representation.
func CompareValues(a, b any) int {
	ca, cb := classOf(a), classOf(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}

	switch ca {
	case classNil:
		return 0
	case classTime:
		return a.(time.Time).Compare(b.(time.Time))
	case classNumber:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		fa, _ := numeric(va)
		fb, _ := numeric(vb)
		return compareNumbers(va, vb, fa, fb)
	case classString:
		return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
	case classBool:
		x, y := reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool()
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func numeric(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}

// compareNumbers keeps full precision when both sides are the same integer
// family and falls back to float64 otherwise.
func compareNumbers(va, vb reflect.Value, fa, fb float64) int {
	switch {
	case isInt(va) && isInt(vb):
		return cmp.Compare(va.Int(), vb.Int())
	case isUint(va) && isUint(vb):
		return cmp.Compare(va.Uint(), vb.Uint())
	}
	// cmp.Compare sorts NaN before every other number.
	return cmp.Compare(fa, fb)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
