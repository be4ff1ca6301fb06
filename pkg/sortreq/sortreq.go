// Package sortreq turns column sort requests, expressed as field paths, into
// sort keys and search selectors for a paging.View.
package sortreq

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/pageview/internal/formatter"
	"github.com/oakwood-commons/pageview/internal/navigator"
	"github.com/oakwood-commons/pageview/pkg/paging"
)

// Direction is the requested sort order of a column.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Arrow returns the glyph renderers put next to a sorted column header.
func (d Direction) Arrow() string {
	if d == Descending {
		return "↓"
	}
	return "↑"
}

// ParseDirection accepts "asc", "ascending", "desc" and "descending" in any
// case. An empty string is Ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort direction %q: %w", s, paging.ErrInvalidArgument)
	}
}

// Request asks for the view to be ordered by the value at FieldPath.
type Request struct {
	FieldPath string
	Direction Direction
}

// Sorter is the part of a paging.View an Adapter drives.
type Sorter[T any] interface {
	SetSort(key paging.KeyFunc[T], ascending bool) error
	ClearSort()
}

// Adapter applies sort requests to a view and remembers the active one.
type Adapter[T any] struct {
	view   Sorter[T]
	active *Request
}

// NewAdapter returns an Adapter driving view.
func NewAdapter[T any](view Sorter[T]) *Adapter[T] {
	return &Adapter[T]{view: view}
}

// Apply sorts the view by req.
func (a *Adapter[T]) Apply(req Request) error {
	path := strings.TrimSpace(req.FieldPath)
	if path == "" {
		return fmt.Errorf("sort field path: %w", paging.ErrInvalidArgument)
	}
	if err := a.view.SetSort(FieldKey[T](path), req.Direction == Ascending); err != nil {
		return err
	}
	req.FieldPath = path
	a.active = &req
	return nil
}

// ApplyKey sorts the view by key and records req as the active sort. It
// serves keys that are not plain field paths, such as computed expressions;
// req.FieldPath is only used as the label.
func (a *Adapter[T]) ApplyKey(req Request, key paging.KeyFunc[T]) error {
	if err := a.view.SetSort(key, req.Direction == Ascending); err != nil {
		return err
	}
	a.active = &req
	return nil
}

// Toggle sorts by path, flipping the direction when path is already the
// active sort and starting ascending otherwise.
func (a *Adapter[T]) Toggle(path string) (Request, error) {
	req := Request{FieldPath: strings.TrimSpace(path), Direction: Ascending}
	if a.active != nil && a.active.FieldPath == req.FieldPath && a.active.Direction == Ascending {
		req.Direction = Descending
	}
	if err := a.Apply(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Clear removes the sort from the view.
func (a *Adapter[T]) Clear() {
	a.active = nil
	a.view.ClearSort()
}

// Active returns the sort request in force, if any.
func (a *Adapter[T]) Active() (Request, bool) {
	if a.active == nil {
		return Request{}, false
	}
	return *a.active, true
}

// FieldKey builds a sort key that resolves path on each item. Items where
// the path does not resolve yield nil and sort first.
func FieldKey[T any](path string) paging.KeyFunc[T] {
	return func(item T) any {
		v, err := navigator.Resolve(item, path)
		if err != nil {
			return nil
		}
		return v
	}
}

// FieldSelector builds a search selector that stringifies the value at path.
// Items where the path does not resolve yield an empty string.
func FieldSelector[T any](path string) paging.Selector[T] {
	return func(item T) string {
		v, err := navigator.Resolve(item, path)
		if err != nil || v == nil {
			return ""
		}
		return formatter.Stringify(v)
	}
}

// FieldSelectors builds one selector per path.
func FieldSelectors[T any](paths ...string) []paging.Selector[T] {
	out := make([]paging.Selector[T], 0, len(paths))
	for _, p := range paths {
		out = append(out, FieldSelector[T](p))
	}
	return out
}
