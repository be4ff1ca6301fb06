// Package pagemath holds the page-window arithmetic shared by the paged view
// and its renderers. All functions are pure and clamp instead of failing.
package pagemath

// TotalPages returns the number of pages needed for count items.
// It is never less than 1 so an empty result still reports "page 1 of 1".
// A non-positive size is treated as 1.
func TotalPages(count, size int) int {
	if size < 1 {
		size = 1
	}
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// LastIndex returns the zero-based index of the last page.
func LastIndex(count, size int) int {
	return TotalPages(count, size) - 1
}

// ClampIndex forces a zero-based page index into [0, LastIndex].
func ClampIndex(index, count, size int) int {
	if index < 0 {
		return 0
	}
	if last := LastIndex(count, size); index > last {
		return last
	}
	return index
}

// ClampPage forces a one-based page number into [1, total].
func ClampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Window returns the [start, end) bounds of page index within count items.
// Bounds are clamped so they can be used directly to slice.
func Window(count, index, size int) (start, end int) {
	if size < 1 {
		size = 1
	}
	if count <= 0 {
		return 0, 0
	}
	index = ClampIndex(index, count, size)
	start = index * size
	if start > count {
		start = count
	}
	end = start + size
	if end > count {
		end = count
	}
	return start, end
}

// RemapIndex keeps the first visible item on screen across a change of page
// size or result length: the flat offset oldIndex*oldSize is divided by
// newSize and clamped against the new result length.
func RemapIndex(oldIndex, oldSize, newSize, count int) int {
	if oldIndex < 0 {
		oldIndex = 0
	}
	if oldSize < 1 {
		oldSize = 1
	}
	if newSize < 1 {
		newSize = 1
	}
	offset := oldIndex * oldSize
	return ClampIndex(offset/newSize, count, newSize)
}
