package core

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/oakwood-commons/pageview/pkg/loader"
	"github.com/oakwood-commons/pageview/pkg/paging"
)

func hosts() []loader.Record {
	return []loader.Record{
		{"name": "web-1", "cores": int64(4), "zone": "east"},
		{"name": "db-1", "cores": int64(16), "zone": "west"},
		{"name": "web-2", "cores": int64(8), "zone": "east"},
		{"name": "cache", "cores": int64(2), "zone": "west"},
		{"name": "batch", "cores": int64(32), "zone": "east"},
	}
}

func names(records []loader.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["name"].(string)
	}
	return out
}

func TestEngineEvaluate(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	out, err := engine.Evaluate(`_.name + "@" + _.zone`, hosts()[0])
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if out != "web-1@east" {
		t.Fatalf("Evaluate output = %v, want %v", out, "web-1@east")
	}
}

func TestPageAppliesRequest(t *testing.T) {
	engine, err := New(WithLogger(logr.Discard()))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	page, err := engine.Page(hosts(), Request{
		PageSize: 2,
		Filters:  []string{`_.zone == "east"`},
		Sort:     "cores",
		Page:     2,
	})
	if err != nil {
		t.Fatalf("Page error: %v", err)
	}
	if got := names(page.Items()); len(got) != 1 || got[0] != "batch" {
		t.Fatalf("Items = %v, want [batch]", got)
	}
	if want := "Page 2 of 2 · 3 items · size 2 · sort: cores ↑ · filters: filter1"; page.Footer() != want {
		t.Fatalf("Footer = %q, want %q", page.Footer(), want)
	}
	if got := page.Columns(); strings.Join(got, ",") != "cores,name,zone" {
		t.Fatalf("Columns = %v", got)
	}

	page.View().GoToFirstPage()
	if got := names(page.Items()); strings.Join(got, ",") != "web-1,web-2" {
		t.Fatalf("first page = %v", got)
	}
}

func TestPageInvalidRequest(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	tests := map[string]Request{
		"page size":  {PageSize: 0},
		"filter":     {PageSize: 5, Filters: []string{"_.cores >"}},
		"sort":       {PageSize: 5, Sort: "size(_.name"},
		"no columns": {PageSize: 5, Search: "web", Columns: nil},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			records := hosts()
			if name == "no columns" {
				records = nil
			}
			_, err := engine.Page(records, req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("want ErrInvalidRequest, got %v", err)
			}
		})
	}

	_, err = engine.Page(hosts(), Request{PageSize: -1})
	if !errors.Is(err, paging.ErrInvalidRange) {
		t.Fatalf("page size error should wrap paging.ErrInvalidRange, got %v", err)
	}
}

func TestWithCELOptions(t *testing.T) {
	weight := cel.Function("weight",
		cel.Overload("weight_int", []*cel.Type{cel.IntType}, cel.IntType,
			cel.UnaryBinding(func(v ref.Val) ref.Val { return v.(types.Int) % 10 })))
	engine, err := New(WithCELOptions(weight))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	page, err := engine.Page(hosts(), Request{PageSize: 10, Sort: "weight(_.cores)", Descending: true})
	if err != nil {
		t.Fatalf("Page error: %v", err)
	}
	// 4, 6, 8, 2, 2 descending; ties keep source order.
	if got := strings.Join(names(page.Items()), ","); got != "web-2,db-1,web-1,cache,batch" {
		t.Fatalf("sorted = %s", got)
	}
}

func TestPageWrite(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	page, err := engine.Page(hosts(), Request{PageSize: 2, Sort: "name", Columns: []string{"name", "zone"}})
	if err != nil {
		t.Fatalf("Page error: %v", err)
	}

	var buf bytes.Buffer
	if err := page.Write(&buf, FormatTable, RenderOptions{NoColor: true}); err != nil {
		t.Fatalf("Write table: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"name ↑", "batch", "cache", "Page 1 of 3 · 5 items · size 2 · sort: name ↑"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "cores") {
		t.Errorf("table output shows an unselected column:\n%s", out)
	}

	buf.Reset()
	if err := page.Write(&buf, FormatCSV, RenderOptions{}); err != nil {
		t.Fatalf("Write csv: %v", err)
	}
	if want := "name,zone\nbatch,east\ncache,west\n"; buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := page.Write(&buf, FormatJSON, RenderOptions{}); err != nil {
		t.Fatalf("Write json: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "batch"`) {
		t.Fatalf("json = %s", buf.String())
	}
}

func TestPageWriteEmpty(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	page, err := engine.Page(nil, Request{PageSize: 5})
	if err != nil {
		t.Fatalf("Page error: %v", err)
	}
	var buf bytes.Buffer
	if err := page.Write(&buf, FormatTable, RenderOptions{NoColor: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "No records.\n" {
		t.Fatalf("empty output = %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		if err != nil || got != f {
			t.Fatalf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("ParseFormat(xml) error = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.yaml")
	if err := os.WriteFile(path, []byte("- name: a\n- name: b\n"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	records, err := LoadFile(path, logr.Discard())
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if strings.Join(names(records), ",") != "a,b" {
		t.Fatalf("records = %v", records)
	}

	records, err = LoadRecords(`{"name":"c"}`)
	if err != nil || len(records) != 1 || records[0]["name"] != "c" {
		t.Fatalf("LoadRecords = %v, %v", records, err)
	}
}

type artifact struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Size    int    `json:"size"`
}

func TestLoadObjects(t *testing.T) {
	records, err := LoadObjects([]artifact{
		{Name: "workflow", Version: "1.0.0", Size: 3},
		{Name: "runner", Version: "2.1.0", Size: 1},
	})
	if err != nil {
		t.Fatalf("LoadObjects error: %v", err)
	}
	if len(records) != 2 || records[0]["name"] != "workflow" || records[1]["version"] != "2.1.0" {
		t.Fatalf("records = %v", records)
	}

	engine, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	page, err := engine.Page(records, Request{PageSize: 5, Filters: []string{"_.size > 2"}})
	if err != nil {
		t.Fatalf("Page error: %v", err)
	}
	if got := names(page.Items()); len(got) != 1 || got[0] != "workflow" {
		t.Fatalf("filtered = %v", got)
	}

	scalars, err := LoadObjects([]int{1, 2})
	if err != nil || scalars[1][loader.ValueKey] != 2 {
		t.Fatalf("scalars = %v, %v", scalars, err)
	}

	if _, err := LoadObjects("nope"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("LoadObjects(string) error = %v", err)
	}
}
