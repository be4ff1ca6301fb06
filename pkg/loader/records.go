package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
)

// Record is one row of a paged data set.
type Record = map[string]any

// ValueKey holds non-object elements that are wrapped into a Record.
const ValueKey = "value"

// Format selects the parser for LoadBytes.
type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
)

// FormatForPath picks a format from a file extension. Anything that is not
// CSV or TSV is auto-detected.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".tsv":
		return FormatTSV
	default:
		return FormatAuto
	}
}

// LoadFile reads path and parses it into records.
func LoadFile(path string, lgr logr.Logger) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	format := FormatForPath(path)
	records, err := LoadBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	lgr.V(1).Info("records loaded", "path", path, "format", string(format), "count", len(records))
	return records, nil
}

// LoadBytes parses data in the given format into records.
func LoadBytes(data []byte, format Format) ([]Record, error) {
	switch format {
	case FormatCSV:
		return LoadCSV(strings.NewReader(string(data)), ',')
	case FormatTSV:
		return LoadCSV(strings.NewReader(string(data)), '\t')
	default:
		return LoadRecords(string(data))
	}
}

// LoadRecords parses structured text into records.
//
// A single document that is an array yields one record per element. A
// single object yields one record, unless every value is an array of
// objects under exactly one key (TOML [[records]] style), in which case
// those objects are the records. Multiple documents yield one record each.
// Elements that are not objects are wrapped as {"value": x}.
func LoadRecords(input string) ([]Record, error) {
	docs, err := LoadData(input)
	if err != nil {
		return nil, err
	}

	var elems []any
	if len(docs) == 1 {
		elems = expandDocument(docs[0])
	} else {
		elems = docs
	}

	records := make([]Record, 0, len(elems))
	for i, e := range elems {
		norm, err := Normalize(e)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, asRecord(norm))
	}
	return records, nil
}

func expandDocument(doc any) []any {
	switch t := doc.(type) {
	case []any:
		return t
	case map[string]any:
		if len(t) == 1 {
			for _, v := range t {
				if list, ok := v.([]any); ok && allObjects(list) {
					return list
				}
			}
		}
		return []any{t}
	default:
		return []any{doc}
	}
}

func allObjects(list []any) bool {
	if len(list) == 0 {
		return false
	}
	for _, e := range list {
		if _, ok := e.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func asRecord(v any) Record {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return Record{ValueKey: v}
}

// LoadCSV reads a delimited file with a header row. Cells that parse as
// integers, floats or booleans are converted so they sort and filter as
// numbers; empty cells are omitted from the record.
func LoadCSV(r io.Reader, comma rune) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("invalid CSV header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if header[i] == "" {
			header[i] = "column" + strconv.Itoa(i+1)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV at line %d: %w", line, err)
		}
		rec := make(Record, len(header))
		for i, cell := range row {
			if i >= len(header) || cell == "" {
				continue
			}
			rec[header[i]] = parseCell(cell)
		}
		records = append(records, rec)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func parseCell(cell string) any {
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	switch strings.ToLower(cell) {
	case "true":
		return true
	case "false":
		return false
	}
	return cell
}

// Normalize converts arbitrary Go values into JSON-compatible types that CEL
// and the formatter handle: structs (including TOML date types) become maps
// or strings via JSON, slices become []any and map values are normalized
// recursively.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
		value = rv.Interface()
	}

	switch rv.Kind() { //nolint:exhaustive // everything else goes through JSON
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return value, nil
	case reflect.Slice, reflect.Array:
		if b, ok := value.([]byte); ok {
			return string(b), nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			v, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element [%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return viaJSON(value)
		}
		out := make(map[string]any, rv.Len())
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			v, err := Normalize(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k.String(), err)
			}
			out[k.String()] = v
		}
		return out, nil
	case reflect.Interface:
		return Normalize(rv.Interface())
	default:
		return viaJSON(value)
	}
}

// viaJSON round-trips value through JSON, which respects struct tags and
// MarshalJSON / MarshalText implementations.
func viaJSON(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %T to JSON: %w", value, err)
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cannot unmarshal to standard type: %w", err)
	}
	return result, nil
}
