// Package paging provides View, an observable paged window over an in-memory
// collection. A View derives its result from the source by applying the
// registered filters, then the search request, then the sort, and exposes one
// page of that result at a time.
//
// A View is owned by a single goroutine. It does no locking; a debounced
// search is delivered back to the owner through a Scheduler. With the default
// scheduler the owner receives due jobs from View.Deferred or runs them with
// View.RunDeferred.
package paging

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pageview/internal/pagemath"
)

// Predicate reports whether an item passes a filter.
type Predicate[T any] func(item T) bool

// Selector extracts the text a search term is matched against.
type Selector[T any] func(item T) string

// KeyFunc extracts the sort key of an item. Keys are ordered by CompareValues.
type KeyFunc[T any] func(item T) any

type sortKey[T any] struct {
	key       KeyFunc[T]
	ascending bool
}

// Option configures a View.
type Option func(*options)

type options struct {
	log       logr.Logger
	scheduler Scheduler
}

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithScheduler sets the Scheduler that runs debounced searches.
// The default is a QueueScheduler drained through View.Deferred or
// View.RunDeferred.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// View is a paged, filtered, searched and sorted window over a source slice.
type View[T any] struct {
	source    []T
	filters   map[string]Predicate[T]
	filterSeq uint64
	search    searchState[T]
	sorts     []sortKey[T]
	pageSize  int
	pageIndex int
	filtered  []T

	searching bool
	pending   *pendingJob

	propListeners  listeners[func(*View[T], Property)]
	eventListeners listeners[func(*View[T], Event)]

	scheduler Scheduler
	queue     *QueueScheduler
	log       logr.Logger
}

// New returns an empty View showing pageSize items per page.
func New[T any](pageSize int, opts ...Option) (*View[T], error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("page size %d must be at least 1: %w", pageSize, ErrInvalidRange)
	}
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	var queue *QueueScheduler
	if o.scheduler == nil {
		queue = NewQueueScheduler()
		o.scheduler = queue
	}
	return &View[T]{
		source:    []T{},
		filters:   make(map[string]Predicate[T]),
		pageSize:  pageSize,
		filtered:  []T{},
		scheduler: o.scheduler,
		queue:     queue,
		log:       o.log,
	}, nil
}

// SetSource replaces the source collection and returns to the first page.
// Filters, search and sort are kept. The slice is not copied; callers must
// not modify it afterwards.
func (v *View[T]) SetSource(items []T) error {
	if items == nil {
		return fmt.Errorf("source: %w", ErrInvalidArgument)
	}
	v.source = items
	v.recompute(true)
	v.emit(EventSourceChanged)
	return nil
}

// AddFilter registers p under a generated key. The key is not exposed; use
// SetFilter when the filter must be removed individually later.
func (v *View[T]) AddFilter(p Predicate[T]) error {
	if p == nil {
		return fmt.Errorf("filter predicate: %w", ErrInvalidArgument)
	}
	key := ""
	for key == "" || v.filters[key] != nil {
		v.filterSeq++
		key = "\x00anon-" + strconv.FormatUint(v.filterSeq, 10)
	}
	return v.SetFilter(key, p)
}

// SetFilter registers p under key, replacing any filter already there.
func (v *View[T]) SetFilter(key string, p Predicate[T]) error {
	if key == "" {
		return fmt.Errorf("filter key: %w", ErrInvalidArgument)
	}
	if p == nil {
		return fmt.Errorf("filter %q predicate: %w", key, ErrInvalidArgument)
	}
	v.filters[key] = p
	v.recompute(false)
	v.emit(EventFilterChanged)
	return nil
}

// RemoveFilter unregisters the filter under key. An unknown key is ignored.
func (v *View[T]) RemoveFilter(key string) error {
	if key == "" {
		return fmt.Errorf("filter key: %w", ErrInvalidArgument)
	}
	if _, ok := v.filters[key]; !ok {
		return nil
	}
	delete(v.filters, key)
	v.recompute(false)
	v.emit(EventFilterChanged)
	return nil
}

// ClearFilters removes every filter and returns to the first page.
func (v *View[T]) ClearFilters() {
	clear(v.filters)
	v.recompute(true)
	v.emit(EventFilterChanged)
}

// ActiveFilters returns the keys of the registered filters in sorted order.
// Generated keys of AddFilter filters are included.
func (v *View[T]) ActiveFilters() []string {
	return slices.Sorted(maps.Keys(v.filters))
}

// SetSort orders the result by key, replacing any previous sort.
func (v *View[T]) SetSort(key KeyFunc[T], ascending bool) error {
	if key == nil {
		return fmt.Errorf("sort key: %w", ErrInvalidArgument)
	}
	v.sorts = []sortKey[T]{{key: key, ascending: ascending}}
	v.recompute(false)
	v.notify(PropIsSorted)
	v.emit(EventSortChanged)
	return nil
}

// ClearSort restores source order and returns to the first page.
func (v *View[T]) ClearSort() {
	v.sorts = nil
	v.recompute(true)
	v.notify(PropIsSorted)
	v.emit(EventSortChanged)
}

// IsSorted reports whether a sort is active.
func (v *View[T]) IsSorted() bool { return len(v.sorts) > 0 }

// NextPage moves forward one page. It does nothing on the last page.
func (v *View[T]) NextPage() {
	if v.HasNext() {
		v.movePage(v.pageIndex + 1)
	}
}

// PreviousPage moves back one page. It does nothing on the first page.
func (v *View[T]) PreviousPage() {
	if v.HasPrevious() {
		v.movePage(v.pageIndex - 1)
	}
}

// GoToPage moves to the one-based page n, clamped into [1, TotalPages].
func (v *View[T]) GoToPage(n int) {
	v.movePage(pagemath.ClampPage(n, v.TotalPages()) - 1)
}

// GoToFirstPage moves to page 1.
func (v *View[T]) GoToFirstPage() { v.movePage(0) }

// GoToLastPage moves to the last page.
func (v *View[T]) GoToLastPage() { v.movePage(v.TotalPages() - 1) }

func (v *View[T]) movePage(index int) {
	if index == v.pageIndex {
		return
	}
	v.pageIndex = index
	v.notify(navigationProperties...)
	v.emit(EventPageChanged)
}

// SetPageSize changes the page size and keeps the first visible item on the
// current page.
func (v *View[T]) SetPageSize(n int) error {
	if n < 1 {
		return fmt.Errorf("page size %d must be at least 1: %w", n, ErrInvalidRange)
	}
	old := v.pageSize
	v.pageSize = n
	v.pageIndex = pagemath.RemapIndex(v.pageIndex, old, n, len(v.filtered))
	v.notify(resultProperties...)
	v.notify(PropPageSize)
	v.emit(EventPageSizeChanged)
	return nil
}

// PageSize returns the number of items per page.
func (v *View[T]) PageSize() int { return v.pageSize }

// CurrentPageItems returns a copy of the items on the current page.
func (v *View[T]) CurrentPageItems() []T {
	start, end := pagemath.Window(len(v.filtered), v.pageIndex, v.pageSize)
	return slices.Clone(v.filtered[start:end])
}

// Filtered returns a copy of the whole derived result across all pages.
func (v *View[T]) Filtered() []T { return slices.Clone(v.filtered) }

// CurrentPage returns the one-based current page number.
func (v *View[T]) CurrentPage() int { return v.pageIndex + 1 }

// TotalPages returns the page count. It is at least 1.
func (v *View[T]) TotalPages() int { return pagemath.TotalPages(len(v.filtered), v.pageSize) }

// TotalItems returns the size of the derived result.
func (v *View[T]) TotalItems() int { return len(v.filtered) }

// HasNext reports whether a page follows the current one.
func (v *View[T]) HasNext() bool { return v.pageIndex < v.TotalPages()-1 }

// HasPrevious reports whether a page precedes the current one.
func (v *View[T]) HasPrevious() bool { return v.pageIndex > 0 }

// IsEmpty reports whether the derived result has no items.
func (v *View[T]) IsEmpty() bool { return len(v.filtered) == 0 }

// HasItems reports whether the derived result has items.
func (v *View[T]) HasItems() bool { return len(v.filtered) > 0 }

// IsSourceEmpty reports whether the source has no items.
func (v *View[T]) IsSourceEmpty() bool { return len(v.source) == 0 }

// recompute rebuilds the derived result from the source. With reset the view
// returns to the first page; otherwise the current offset is kept and clamped
// into the new result.
func (v *View[T]) recompute(reset bool) {
	result := slices.Clone(v.source)

	if len(v.filters) > 0 {
		preds := make([]Predicate[T], 0, len(v.filters))
		for _, p := range v.filters {
			preds = append(preds, p)
		}
		result = slices.DeleteFunc(result, func(item T) bool {
			for _, p := range preds {
				if !p(item) {
					return true
				}
			}
			return false
		})
	}

	if v.search.active() {
		result = v.search.apply(result)
	}

	if len(v.sorts) > 0 {
		s := v.sorts[0]
		slices.SortStableFunc(result, func(a, b T) int {
			c := CompareValues(s.key(a), s.key(b))
			if !s.ascending {
				c = -c
			}
			return c
		})
	}

	v.filtered = result
	if reset {
		v.pageIndex = 0
	} else {
		v.pageIndex = pagemath.ClampIndex(v.pageIndex, len(result), v.pageSize)
	}

	v.log.V(1).Info("view recomputed",
		"source", len(v.source),
		"filters", len(v.filters),
		"search", v.search.active(),
		"sorted", v.IsSorted(),
		"items", len(result),
		"page", v.CurrentPage(),
		"pages", v.TotalPages(),
	)
	v.notify(resultProperties...)
}
