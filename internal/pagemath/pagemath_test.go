package pagemath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		want  int
	}{
		{name: "empty result is one page", count: 0, size: 10, want: 1},
		{name: "exact multiple", count: 20, size: 5, want: 4},
		{name: "partial last page", count: 21, size: 5, want: 5},
		{name: "fewer items than a page", count: 3, size: 50, want: 1},
		{name: "size one", count: 7, size: 1, want: 7},
		{name: "non-positive size treated as one", count: 4, size: 0, want: 4},
		{name: "negative count", count: -3, size: 5, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPages(tt.count, tt.size))
		})
	}
}

func TestClampIndex(t *testing.T) {
	tests := []struct {
		name  string
		index int
		count int
		size  int
		want  int
	}{
		{name: "in range", index: 2, count: 25, size: 5, want: 2},
		{name: "negative", index: -4, count: 25, size: 5, want: 0},
		{name: "past the end", index: 9, count: 25, size: 5, want: 4},
		{name: "empty result", index: 3, count: 0, size: 5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampIndex(tt.index, tt.count, tt.size))
		})
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 5))
	assert.Equal(t, 1, ClampPage(-10, 5))
	assert.Equal(t, 5, ClampPage(1<<30, 5))
	assert.Equal(t, 3, ClampPage(3, 5))
	assert.Equal(t, 1, ClampPage(2, 0))
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		index     int
		size      int
		wantStart int
		wantEnd   int
	}{
		{name: "first page", count: 12, index: 0, size: 5, wantStart: 0, wantEnd: 5},
		{name: "middle page", count: 12, index: 1, size: 5, wantStart: 5, wantEnd: 10},
		{name: "short last page", count: 12, index: 2, size: 5, wantStart: 10, wantEnd: 12},
		{name: "index past end clamps to last page", count: 12, index: 7, size: 5, wantStart: 10, wantEnd: 12},
		{name: "empty", count: 0, index: 0, size: 5, wantStart: 0, wantEnd: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(tt.count, tt.index, tt.size)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestRemapIndex(t *testing.T) {
	tests := []struct {
		name     string
		oldIndex int
		oldSize  int
		newSize  int
		count    int
		want     int
	}{
		{name: "grow page size keeps offset", oldIndex: 2, oldSize: 5, newSize: 10, count: 25, want: 1},
		{name: "shrink page size keeps offset", oldIndex: 1, oldSize: 10, newSize: 5, count: 25, want: 2},
		{name: "same size clamps to shorter result", oldIndex: 4, oldSize: 5, newSize: 5, count: 11, want: 2},
		{name: "empty result", oldIndex: 3, oldSize: 5, newSize: 5, count: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemapIndex(tt.oldIndex, tt.oldSize, tt.newSize, tt.count))
		})
	}
}
