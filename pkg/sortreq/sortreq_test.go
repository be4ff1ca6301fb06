package sortreq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/pageview/pkg/paging"
)

type server struct {
	Name   string            `json:"name"`
	Cores  int               `json:"cores"`
	Labels map[string]string `json:"labels"`
}

var fleet = []server{
	{Name: "web-2", Cores: 4, Labels: map[string]string{"tier": "front"}},
	{Name: "db-1", Cores: 16, Labels: map[string]string{"tier": "data"}},
	{Name: "web-1", Cores: 4, Labels: map[string]string{"tier": "front"}},
	{Name: "cache", Cores: 2},
}

func names(items []server) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.Name
	}
	return out
}

func newFleetView(t *testing.T) *paging.View[server] {
	t.Helper()
	v, err := paging.New[server](10)
	require.NoError(t, err)
	require.NoError(t, v.SetSource(fleet))
	return v
}

func TestAdapterApply(t *testing.T) {
	v := newFleetView(t)
	a := NewAdapter[server](v)

	require.NoError(t, a.Apply(Request{FieldPath: "cores", Direction: Descending}))
	assert.Equal(t, []string{"db-1", "web-2", "web-1", "cache"}, names(v.CurrentPageItems()))

	require.NoError(t, a.Apply(Request{FieldPath: "Name"}))
	assert.Equal(t, []string{"cache", "db-1", "web-1", "web-2"}, names(v.CurrentPageItems()))

	active, ok := a.Active()
	require.True(t, ok)
	assert.Equal(t, Request{FieldPath: "Name", Direction: Ascending}, active)
}

func TestAdapterMissingFieldsSortFirst(t *testing.T) {
	v := newFleetView(t)
	a := NewAdapter[server](v)

	require.NoError(t, a.Apply(Request{FieldPath: `labels["tier"]`}))
	assert.Equal(t, []string{"cache", "db-1", "web-2", "web-1"}, names(v.CurrentPageItems()))
}

func TestAdapterToggle(t *testing.T) {
	v := newFleetView(t)
	a := NewAdapter[server](v)

	req, err := a.Toggle("name")
	require.NoError(t, err)
	assert.Equal(t, Ascending, req.Direction)

	req, err = a.Toggle("name")
	require.NoError(t, err)
	assert.Equal(t, Descending, req.Direction)
	assert.Equal(t, []string{"web-2", "web-1", "db-1", "cache"}, names(v.CurrentPageItems()))

	req, err = a.Toggle("name")
	require.NoError(t, err)
	assert.Equal(t, Ascending, req.Direction)

	req, err = a.Toggle("cores")
	require.NoError(t, err)
	assert.Equal(t, Ascending, req.Direction, "a new column starts ascending")
}

func TestAdapterClear(t *testing.T) {
	v := newFleetView(t)
	a := NewAdapter[server](v)

	require.NoError(t, a.Apply(Request{FieldPath: "name"}))
	a.Clear()
	assert.False(t, v.IsSorted())
	assert.Equal(t, names(fleet), names(v.CurrentPageItems()))
	_, ok := a.Active()
	assert.False(t, ok)
}

func TestAdapterApplyKey(t *testing.T) {
	v := newFleetView(t)
	a := NewAdapter[server](v)

	nameLen := func(s server) any { return len(s.Name) }
	req := Request{FieldPath: "size(_.name)", Direction: Descending}
	require.NoError(t, a.ApplyKey(req, nameLen))
	assert.Equal(t, []string{"web-2", "web-1", "cache", "db-1"}, names(v.CurrentPageItems()))

	active, ok := a.Active()
	require.True(t, ok)
	assert.Equal(t, req, active)

	require.ErrorIs(t, a.ApplyKey(Request{FieldPath: "x"}, nil), paging.ErrInvalidArgument)
	active, _ = a.Active()
	assert.Equal(t, req, active, "a rejected key keeps the previous sort")
}

func TestAdapterRejectsEmptyPath(t *testing.T) {
	v := newFleetView(t)
	a := NewAdapter[server](v)

	require.ErrorIs(t, a.Apply(Request{FieldPath: "  "}), paging.ErrInvalidArgument)
	_, err := a.Toggle("")
	require.ErrorIs(t, err, paging.ErrInvalidArgument)
	assert.False(t, v.IsSorted())
}

func TestFieldSelectors(t *testing.T) {
	v := newFleetView(t)
	sel := FieldSelectors[server]("name", "labels.tier")
	require.NoError(t, v.SetSearch(sel, "front", paging.SearchOptions{}))
	assert.Equal(t, []string{"web-2", "web-1"}, names(v.Filtered()))

	cores := FieldSelector[server]("cores")
	assert.Equal(t, "16", cores(fleet[1]))
	assert.Empty(t, FieldSelector[server]("missing")(fleet[0]))
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "", want: Ascending},
		{in: "ASC", want: Ascending},
		{in: "descending", want: Descending},
		{in: " desc ", want: Descending},
		{in: "sideways", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, paging.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "desc", Descending.String())
	assert.Equal(t, "↑", Ascending.Arrow())
}
