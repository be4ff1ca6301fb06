// Package query applies command-line style filter, search and sort settings
// to a paged record view.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pageview/internal/cel"
	"github.com/oakwood-commons/pageview/internal/navigator"
	"github.com/oakwood-commons/pageview/pkg/loader"
	"github.com/oakwood-commons/pageview/pkg/paging"
	"github.com/oakwood-commons/pageview/pkg/sortreq"
)

// View is the record view queries apply to.
type View = paging.View[loader.Record]

// Query is the initial state requested for a view.
type Query struct {
	// Filters are CEL expressions over "_", installed as "filter1", "filter2", ...
	Filters []string
	// Search is the search term; empty leaves search inactive.
	Search string
	// SearchFields are field paths searched. Empty means the caller's columns.
	SearchFields []string
	MatchAll     bool
	Wildcards    bool
	// Sort is a field path, or a CEL expression when IsExpression reports true.
	Sort       string
	Descending bool
	// Page is the 1-based page to show after everything else is applied.
	Page int
}

// FilterKey returns the view filter key of the n-th (0-based) filter.
func FilterKey(n int) string {
	return "filter" + strconv.Itoa(n+1)
}

// IsExpression reports whether s should be compiled as CEL rather than read
// as a field path.
func IsExpression(s string) bool {
	s = strings.TrimSpace(s)
	return s == "_" || strings.HasPrefix(s, "_.") || strings.HasPrefix(s, "_[") || strings.Contains(s, "(")
}

// CompileFilter compiles expr into a view predicate.
func CompileFilter(eval *cel.Evaluator, expr string, lgr logr.Logger) (paging.Predicate[loader.Record], error) {
	prg, err := eval.CompilePredicate(expr)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, err)
	}
	return cel.Filter[loader.Record](prg, lgr), nil
}

// Selectors returns search selectors for paths.
func Selectors(paths []string) []paging.Selector[loader.Record] {
	return sortreq.FieldSelectors[loader.Record](paths...)
}

// ColumnPaths turns column names into field paths.
func ColumnPaths(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = navigator.QuoteKey(c)
	}
	return out
}

// ApplySort sorts v through sorter by field path or CEL expression.
func ApplySort(sorter *sortreq.Adapter[loader.Record], eval *cel.Evaluator, sort string, descending bool) error {
	sort = strings.TrimSpace(sort)
	dir := sortreq.Ascending
	if descending {
		dir = sortreq.Descending
	}
	req := sortreq.Request{FieldPath: sort, Direction: dir}
	if !IsExpression(sort) {
		return sorter.Apply(req)
	}
	prg, err := eval.Compile(sort)
	if err != nil {
		return fmt.Errorf("sort %q: %w", sort, err)
	}
	return sorter.ApplyKey(req, cel.Key[loader.Record](prg))
}

// Apply installs q on v. columns supplies the search fields when q names
// none. All searches run immediately.
func (q Query) Apply(v *View, sorter *sortreq.Adapter[loader.Record], eval *cel.Evaluator, columns []string, lgr logr.Logger) error {
	for i, expr := range q.Filters {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		pred, err := CompileFilter(eval, expr, lgr)
		if err != nil {
			return err
		}
		if err := v.SetFilter(FilterKey(i), pred); err != nil {
			return err
		}
	}

	if strings.TrimSpace(q.Search) != "" {
		fields := q.SearchFields
		if len(fields) == 0 {
			fields = ColumnPaths(columns)
		}
		if len(fields) == 0 {
			return fmt.Errorf("search %q: no fields to search: %w", q.Search, paging.ErrInvalidArgument)
		}
		opts := paging.SearchOptions{Wildcards: q.Wildcards}
		var err error
		if q.MatchAll {
			err = v.SetSearchAll(Selectors(fields), q.Search, opts)
		} else {
			err = v.SetSearch(Selectors(fields), q.Search, opts)
		}
		if err != nil {
			return fmt.Errorf("search %q: %w", q.Search, err)
		}
	}

	if strings.TrimSpace(q.Sort) != "" {
		if err := ApplySort(sorter, eval, q.Sort, q.Descending); err != nil {
			return err
		}
	}

	if q.Page > 0 {
		v.GoToPage(q.Page)
	}
	return nil
}
