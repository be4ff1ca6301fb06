package paging

// Paginator is the element-type-independent navigation surface of a View.
type Paginator interface {
	CurrentPageItems() []any
	CurrentPage() int
	TotalPages() int
	HasNext() bool
	HasPrevious() bool
	NextPage()
	PreviousPage()
	GoToPage(n int)
}

// Observable delivers property change notifications.
type Observable interface {
	OnPropertyChanged(fn func(p Property)) (unsubscribe func())
}

// Pager is a type-erased View for renderers that do not know T.
type Pager interface {
	Paginator
	Observable
}

// Erase wraps v as a Pager. The Pager shares state with v.
func Erase[T any](v *View[T]) Pager {
	return erased[T]{v: v}
}

type erased[T any] struct {
	v *View[T]
}

func (e erased[T]) CurrentPageItems() []any {
	items := e.v.CurrentPageItems()
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func (e erased[T]) CurrentPage() int  { return e.v.CurrentPage() }
func (e erased[T]) TotalPages() int   { return e.v.TotalPages() }
func (e erased[T]) HasNext() bool     { return e.v.HasNext() }
func (e erased[T]) HasPrevious() bool { return e.v.HasPrevious() }
func (e erased[T]) NextPage()         { e.v.NextPage() }
func (e erased[T]) PreviousPage()     { e.v.PreviousPage() }
func (e erased[T]) GoToPage(n int)    { e.v.GoToPage(n) }

func (e erased[T]) OnPropertyChanged(fn func(p Property)) func() {
	if fn == nil {
		return func() {}
	}
	return e.v.OnPropertyChanged(func(_ *View[T], p Property) { fn(p) })
}
