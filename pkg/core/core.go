// Package core is the library entry point for one-shot paging: load records,
// apply filters, a search and a sort, select a page and render it.
package core

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-logr/logr"
	celgo "github.com/google/cel-go/cel"

	"github.com/oakwood-commons/pageview/internal/cel"
	"github.com/oakwood-commons/pageview/internal/formatter"
	"github.com/oakwood-commons/pageview/internal/navigator"
	"github.com/oakwood-commons/pageview/internal/query"
	"github.com/oakwood-commons/pageview/pkg/loader"
	"github.com/oakwood-commons/pageview/pkg/paging"
	"github.com/oakwood-commons/pageview/pkg/sortreq"
)

// ErrInvalidRequest wraps every error caused by the Request itself rather
// than by the records.
var ErrInvalidRequest = errors.New("invalid request")

// Format selects the Page.Write output.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatCSV}

// ParseFormat validates s as an output format.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("%w: output format %q: must be one of %s", ErrInvalidRequest, s, strings.Join(names, "|"))
}

// Engine compiles filter and sort expressions and builds pages.
type Engine struct {
	eval    *cel.Evaluator
	log     logr.Logger
	celOpts []celgo.EnvOption
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to every view the Engine builds.
func WithLogger(l logr.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithCELOptions extends the expression environment, e.g. with custom
// functions usable in filters and sort keys.
func WithCELOptions(opts ...celgo.EnvOption) Option {
	return func(e *Engine) {
		e.celOpts = append(e.celOpts, opts...)
	}
}

// New creates an Engine with defaults.
func New(opts ...Option) (*Engine, error) {
	engine := &Engine{log: logr.Discard()}
	for _, opt := range opts {
		opt(engine)
	}
	eval, err := cel.NewEvaluator(engine.celOpts...)
	if err != nil {
		return nil, err
	}
	engine.eval = eval
	return engine, nil
}

// Evaluate runs expr once with record bound to "_".
func (e *Engine) Evaluate(expr string, record any) (any, error) {
	return e.eval.Evaluate(expr, record)
}

// Request describes one page of a record set.
type Request struct {
	PageSize int
	// Columns fixes the displayed columns. Empty shows every record key.
	Columns        []string
	MaxColumnWidth int
	// Filters are CEL predicates, AND-combined, installed as filter1..N.
	Filters []string
	Search  string
	// SearchFields default to the displayed columns.
	SearchFields []string
	MatchAll     bool
	Wildcards    bool
	// Sort is a field path or a CEL expression.
	Sort       string
	Descending bool
	// Page is one-based; 0 keeps the first page. Out of range values clamp.
	Page int
}

// Page is a view over a record set with a Request applied.
type Page struct {
	view           *query.View
	sorter         *sortreq.Adapter[loader.Record]
	columns        []string
	maxColumnWidth int
}

// Page applies req to records.
func (e *Engine) Page(records []loader.Record, req Request) (*Page, error) {
	view, err := paging.New[loader.Record](req.PageSize, paging.WithLogger(e.log))
	if err != nil {
		return nil, fmt.Errorf("%w: page size: %w", ErrInvalidRequest, err)
	}
	if err := view.SetSource(records); err != nil {
		return nil, err
	}

	cols := formatter.SelectColumns(req.Columns)
	if len(cols) == 0 {
		cols = formatter.Columns(records, nil)
	}

	q := query.Query{
		Filters:      req.Filters,
		Search:       req.Search,
		SearchFields: req.SearchFields,
		MatchAll:     req.MatchAll,
		Wildcards:    req.Wildcards,
		Sort:         req.Sort,
		Descending:   req.Descending,
		Page:         req.Page,
	}
	sorter := sortreq.NewAdapter[loader.Record](view)
	if err := q.Apply(view, sorter, e.eval, cols, e.log); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	e.log.V(1).Info("page built",
		"page", view.CurrentPage(), "pages", view.TotalPages(),
		"items", view.TotalItems(), "filters", view.ActiveFilters())

	return &Page{view: view, sorter: sorter, columns: cols, maxColumnWidth: req.MaxColumnWidth}, nil
}

// View returns the underlying view for further navigation.
func (p *Page) View() *paging.View[loader.Record] { return p.view }

// Items returns the records of the current page.
func (p *Page) Items() []loader.Record { return p.view.CurrentPageItems() }

// Columns returns the displayed columns.
func (p *Page) Columns() []string { return append([]string(nil), p.columns...) }

// Footer describes page position, sort and active filters.
func (p *Page) Footer() string {
	parts := []string{formatter.PageFooter(p.view.CurrentPage(), p.view.TotalPages(), p.view.TotalItems(), p.view.PageSize())}
	if req, ok := p.sorter.Active(); ok {
		parts = append(parts, "sort: "+req.FieldPath+" "+req.Direction.Arrow())
	}
	if active := p.view.ActiveFilters(); len(active) > 0 {
		parts = append(parts, "filters: "+strings.Join(active, ", "))
	}
	return strings.Join(parts, " · ")
}

// RenderOptions configures table output.
type RenderOptions struct {
	// Width is the terminal width. 0 disables shrinking.
	Width   int
	NoColor bool
}

// Write renders the current page in format.
func (p *Page) Write(w io.Writer, format Format, opts RenderOptions) error {
	items := p.view.CurrentPageItems()
	switch format {
	case FormatJSON:
		return formatter.WriteJSON(w, items)
	case FormatYAML:
		return formatter.WriteYAML(w, items)
	case FormatCSV:
		return formatter.WriteCSV(w, p.columns, items)
	}

	if len(p.columns) == 0 {
		_, err := fmt.Fprintln(w, "No records.")
		return err
	}
	tableOpts := formatter.TableOptions{
		Width:          opts.Width,
		MaxColumnWidth: p.maxColumnWidth,
		RowOffset:      (p.view.CurrentPage() - 1) * p.view.PageSize(),
		NoColor:        opts.NoColor,
	}
	if req, ok := p.sorter.Active(); ok {
		for _, c := range p.columns {
			if navigator.QuoteKey(c) == req.FieldPath {
				tableOpts.SortColumn, tableOpts.SortArrow = c, req.Direction.Arrow()
				break
			}
		}
	}
	if _, err := fmt.Fprint(w, formatter.RenderTable(p.columns, formatter.CellRows(items, p.columns), tableOpts)); err != nil {
		return err
	}
	if p.view.IsEmpty() && p.view.SearchTerm() != "" {
		if _, err := fmt.Fprintf(w, "No records match %q.\n", p.view.SearchTerm()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, formatter.RenderFooter(p.Footer(), opts.NoColor))
	return err
}

// LoadFile reads path and parses it into records.
func LoadFile(path string, lgr logr.Logger) ([]loader.Record, error) {
	return loader.LoadFile(path, lgr)
}

// LoadRecords parses JSON, NDJSON, YAML or TOML text into records.
func LoadRecords(input string) ([]loader.Record, error) {
	return loader.LoadRecords(input)
}

// LoadObjects converts a slice of structs or maps into records. Struct
// fields are named by their json tags.
func LoadObjects(items any) ([]loader.Record, error) {
	rv := reflect.ValueOf(items)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: LoadObjects wants a slice, got %T", ErrInvalidRequest, items)
	}
	records := make([]loader.Record, 0, rv.Len())
	for i := range rv.Len() {
		v, err := loader.Normalize(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if m, ok := v.(map[string]any); ok {
			records = append(records, m)
			continue
		}
		records = append(records, loader.Record{loader.ValueKey: v})
	}
	return records, nil
}
