package paging

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SearchOptions tunes a search request.
type SearchOptions struct {
	// Wildcards switches matching from substring containment to an anchored
	// pattern where '*' matches any run of characters and '?' exactly one.
	Wildcards bool
	// Debounce delays the recomputation. Zero recomputes synchronously;
	// negative values are treated as zero.
	Debounce time.Duration
}

// searchState is the search request currently in force. It is updated
// immediately by every search call even while the recomputation is pending.
type searchState[T any] struct {
	selectors []Selector[T]
	term      string
	wildcards bool
	matchAll  bool
}

func (s searchState[T]) active() bool {
	return len(s.selectors) > 0 && strings.TrimSpace(s.term) != ""
}

// SetSearch keeps items where at least one selector matches term.
func (v *View[T]) SetSearch(selectors []Selector[T], term string, opts SearchOptions) error {
	return v.setSearch(selectors, term, opts, false)
}

// SetSearchAll keeps items where every selector matches term.
func (v *View[T]) SetSearchAll(selectors []Selector[T], term string, opts SearchOptions) error {
	return v.setSearch(selectors, term, opts, true)
}

func (v *View[T]) setSearch(selectors []Selector[T], term string, opts SearchOptions, matchAll bool) error {
	if len(selectors) == 0 {
		return fmt.Errorf("search selectors: %w", ErrInvalidArgument)
	}
	for i, sel := range selectors {
		if sel == nil {
			return fmt.Errorf("search selector %d is nil: %w", i, ErrInvalidArgument)
		}
	}

	v.search = searchState[T]{
		selectors: append([]Selector[T](nil), selectors...),
		term:      term,
		wildcards: opts.Wildcards,
		matchAll:  matchAll,
	}
	v.runSearch(opts.Debounce, false)
	return nil
}

// ClearSearch drops the search request and returns to the first page.
// A positive debounce defers the recomputation the same way SetSearch does.
func (v *View[T]) ClearSearch(debounce time.Duration) {
	v.search = searchState[T]{}
	v.runSearch(debounce, true)
}

// SearchTerm returns the term of the search request in force.
func (v *View[T]) SearchTerm() string { return v.search.term }

// IsSearching reports whether a debounced search is waiting to run.
func (v *View[T]) IsSearching() bool { return v.searching }

func (v *View[T]) runSearch(delay time.Duration, reset bool) {
	run := func() {
		v.recompute(reset)
		v.emit(EventSearchChanged)
	}
	if delay > 0 {
		v.debounce(delay, run)
		return
	}
	v.cancelPending()
	v.setSearching(false)
	run()
}

// matcher compiles the search term into a string predicate.
func (s searchState[T]) matcher() func(string) bool {
	if s.wildcards {
		re := wildcardPattern(s.term)
		return re.MatchString
	}
	needle := strings.ToLower(s.term)
	return func(value string) bool {
		return strings.Contains(strings.ToLower(value), needle)
	}
}

// wildcardPattern turns a '*'/'?' term into a case-insensitive regular
// expression anchored at both ends. Every other character is literal.
func wildcardPattern(term string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for _, r := range term {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.MustCompile(b.String())
}

// apply filters items against the search request. The caller has already
// checked that the request is active.
func (s searchState[T]) apply(items []T) []T {
	match := s.matcher()
	out := items[:0:0]
	for _, item := range items {
		if s.matches(item, match) {
			out = append(out, item)
		}
	}
	return out
}

func (s searchState[T]) matches(item T, match func(string) bool) bool {
	if s.matchAll {
		for _, sel := range s.selectors {
			if !match(sel(item)) {
				return false
			}
		}
		return true
	}
	for _, sel := range s.selectors {
		if match(sel(item)) {
			return true
		}
	}
	return false
}
