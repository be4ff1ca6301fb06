// Package navigator resolves textual field paths such as
// "owner.address[0].city" or `labels["app.kubernetes.io/name"]` against
// decoded records and Go values.
package navigator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a path step names a key, index or field that
// does not exist in the value being descended.
var ErrNotFound = errors.New("path not found")

// Resolve walks path through root and returns the value it names. An empty
// path or "_" returns root itself. Keys are separated by '.'; bracket steps
// accept a numeric index or a quoted key.
func Resolve(root any, path string) (any, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "_" {
		return root, nil
	}
	cur := root
	for _, step := range ParsePath(strings.TrimPrefix(trimmed, "_.")) {
		next, err := navigateStep(cur, step)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", path, err)
		}
		cur = next
	}
	return cur, nil
}

// QuoteKey returns key as a single path step. Keys that contain path
// syntax, or that would be read as the root, are wrapped in brackets.
func QuoteKey(key string) string {
	if key == "_" || key != strings.TrimSpace(key) || strings.ContainsAny(key, ".[]") {
		return `["` + key + `"]`
	}
	return key
}

// ParsePath splits a path into navigation steps, handling both dot and
// bracket notation.
//
//	"items.0"            -> ["items", "0"]
//	"items[0].tags"      -> ["items", "0", "tags"]
//	`meta["a.b"].value`  -> ["meta", `"a.b"`, "value"]
func ParsePath(path string) []string {
	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch ch {
		case '.':
			flush()
		case '[':
			flush()
			j := i + 1
			inQuote := false
			for j < len(path) && (inQuote || path[j] != ']') {
				if path[j] == '"' {
					inQuote = !inQuote
				}
				j++
			}
			if j < len(path) {
				parts = append(parts, strings.TrimSpace(path[i+1:j]))
				i = j
			}
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return parts
}

// navigateStep descends one key or index.
func navigateStep(cur any, step string) (any, error) {
	key := step
	if len(key) > 1 && strings.HasPrefix(key, `"`) && strings.HasSuffix(key, `"`) {
		key = key[1 : len(key)-1]
	}

	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[key]
		if !ok {
			return nil, fmt.Errorf("key '%s': %w", key, ErrNotFound)
		}
		return v, nil
	case []any:
		idx, err := strconv.Atoi(step)
		if err != nil {
			return nil, fmt.Errorf("expected numeric index into array but got '%s'", step)
		}
		if idx < 0 || idx >= len(t) {
			return nil, fmt.Errorf("index %d: %w", idx, ErrNotFound)
		}
		return t[idx], nil
	}

	rv := reflect.ValueOf(cur)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot descend into nil at '%s'", step)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("cannot descend into %T at '%s'", cur, step)
	}

	switch rv.Kind() { //nolint:exhaustive // only container kinds can be descended
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot descend into %T at '%s'", cur, step)
		}
		value := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, fmt.Errorf("key '%s': %w", key, ErrNotFound)
		}
		return value.Interface(), nil
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(step)
		if err != nil {
			return nil, fmt.Errorf("expected numeric index into array but got '%s'", step)
		}
		if idx < 0 || idx >= rv.Len() {
			return nil, fmt.Errorf("index %d: %w", idx, ErrNotFound)
		}
		return rv.Index(idx).Interface(), nil
	case reflect.Struct:
		if field, ok := structFieldValue(rv, key); ok {
			return field, nil
		}
		return nil, fmt.Errorf("field '%s': %w", key, ErrNotFound)
	default:
		return nil, fmt.Errorf("cannot descend into %T at '%s'", cur, step)
	}
}

// structFieldValue matches key against the json tag name first and then the
// Go field name, case-insensitively for the latter.
func structFieldValue(rv reflect.Value, key string) (any, bool) {
	typ := rv.Type()
	byName := -1
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if tagName == "-" {
			continue
		}
		if tagName == key {
			return rv.Field(i).Interface(), true
		}
		if byName < 0 && strings.EqualFold(field.Name, key) {
			byName = i
		}
	}
	if byName >= 0 {
		return rv.Field(byName).Interface(), true
	}
	return nil, false
}
