package paging

// Property names an observable value of a View.
type Property int

const (
	PropCurrentPageItems Property = iota
	PropCurrentPage
	PropTotalPages
	PropHasNext
	PropHasPrevious
	PropIsEmpty
	PropHasItems
	PropIsSourceEmpty
	PropTotalItems
	PropPageSize
	PropIsSorted
	PropIsSearching
)

var propertyNames = [...]string{
	PropCurrentPageItems: "CurrentPageItems",
	PropCurrentPage:      "CurrentPage",
	PropTotalPages:       "TotalPages",
	PropHasNext:          "HasNext",
	PropHasPrevious:      "HasPrevious",
	PropIsEmpty:          "IsEmpty",
	PropHasItems:         "HasItems",
	PropIsSourceEmpty:    "IsSourceEmpty",
	PropTotalItems:       "TotalItems",
	PropPageSize:         "PageSize",
	PropIsSorted:         "IsSorted",
	PropIsSearching:      "IsSearching",
}

func (p Property) String() string {
	if p < 0 || int(p) >= len(propertyNames) {
		return "Property(?)"
	}
	return propertyNames[p]
}

// Event is a coarse notification fired once per operation, after the
// property notifications of that operation.
type Event int

const (
	EventSourceChanged Event = iota
	EventFilterChanged
	EventSortChanged
	EventPageChanged
	EventSearchChanged
	EventPageSizeChanged
)

var eventNames = [...]string{
	EventSourceChanged:   "SourceChanged",
	EventFilterChanged:   "FilterChanged",
	EventSortChanged:     "SortChanged",
	EventPageChanged:     "PageChanged",
	EventSearchChanged:   "SearchChanged",
	EventPageSizeChanged: "PageSizeChanged",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return "Event(?)"
	}
	return eventNames[e]
}

// resultProperties is emitted after every recomputation of the derived result.
var resultProperties = []Property{
	PropCurrentPageItems,
	PropCurrentPage,
	PropTotalPages,
	PropHasNext,
	PropHasPrevious,
	PropIsEmpty,
	PropHasItems,
	PropIsSourceEmpty,
	PropTotalItems,
}

// navigationProperties is emitted when only the page index moved.
var navigationProperties = []Property{
	PropCurrentPageItems,
	PropCurrentPage,
	PropHasNext,
	PropHasPrevious,
}

// listeners is an ordered registry of callbacks. Removal is by id so that an
// unsubscribe func stays valid regardless of what else was removed.
type listeners[F any] struct {
	nextID  uint64
	entries []listenerEntry[F]
}

type listenerEntry[F any] struct {
	id uint64
	fn F
}

func (l *listeners[F]) add(fn F) func() {
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listenerEntry[F]{id: id, fn: fn})
	return func() {
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

// snapshot returns the callbacks registered right now; callbacks may
// subscribe or unsubscribe while the snapshot is being delivered.
func (l *listeners[F]) snapshot() []F {
	out := make([]F, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.fn
	}
	return out
}

// OnPropertyChanged registers fn to be called for each property change and
// returns a func that removes the registration.
func (v *View[T]) OnPropertyChanged(fn func(v *View[T], p Property)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return v.propListeners.add(fn)
}

// OnEvent registers fn to be called for each coarse event and returns a func
// that removes the registration.
func (v *View[T]) OnEvent(fn func(v *View[T], e Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return v.eventListeners.add(fn)
}

func (v *View[T]) notify(props ...Property) {
	fns := v.propListeners.snapshot()
	for _, p := range props {
		for _, fn := range fns {
			fn(v, p)
		}
	}
}

func (v *View[T]) emit(e Event) {
	v.log.V(2).Info("view event", "event", e.String())
	for _, fn := range v.eventListeners.snapshot() {
		fn(v, e)
	}
}
