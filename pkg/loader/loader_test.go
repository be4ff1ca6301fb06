package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadData(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{name: "single object", input: `{"name": "test", "value": 42}`, wantLen: 1},
		{name: "single array", input: `[1, 2, 3]`, wantLen: 1},
		{name: "yaml object", input: "name: test\nvalue: 42", wantLen: 1},
		{name: "multi-doc yaml", input: "a: 1\n---\nb: 2\n---\n", wantLen: 2},
		{name: "ndjson", input: "{\"a\":1}\n{\"a\":2}\n\n{\"a\":3}", wantLen: 3},
		{name: "toml", input: "[server]\nhost = \"x\"", wantLen: 1},
		{name: "empty", input: "   \n", wantErr: true},
		{name: "broken toml", input: "[server]\nhost = ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadData(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}

	t.Run("invalid JSON falls back to YAML", func(t *testing.T) {
		got, err := LoadData(`{invalid}`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, map[string]any{"invalid": nil}, got[0])
	})

	t.Run("ndjson keeps plain lines as strings", func(t *testing.T) {
		got, err := LoadData("{\"a\":1}\nnot json\n{\"a\":2}")
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"a": float64(1)}, "not json", map[string]any{"a": float64(2)}}, got)
	})
}

func TestIsLikelyTOML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "section", input: "[server]\nport = 8080", want: true},
		{name: "array of tables", input: "[[records]]\nname = \"a\"", want: true},
		{name: "key value only", input: "name = \"a\"\nport = 1", want: true},
		{name: "json array", input: "[1, 2, 3]", want: false},
		{name: "yaml", input: "name: a\nport: 1", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isLikelyTOML(tt.input))
		})
	}
}

func TestLoadRecords(t *testing.T) {
	t.Run("json array of objects", func(t *testing.T) {
		got, err := LoadRecords(`[{"name":"a","n":1},{"name":"b","n":2}]`)
		require.NoError(t, err)
		assert.Equal(t, []Record{{"name": "a", "n": float64(1)}, {"name": "b", "n": float64(2)}}, got)
	})

	t.Run("scalars are wrapped", func(t *testing.T) {
		got, err := LoadRecords(`["x", 2, {"k": true}]`)
		require.NoError(t, err)
		assert.Equal(t, []Record{{ValueKey: "x"}, {ValueKey: float64(2)}, {"k": true}}, got)
	})

	t.Run("single object is one record", func(t *testing.T) {
		got, err := LoadRecords("name: web\nports: [80, 443]")
		require.NoError(t, err)
		assert.Equal(t, []Record{{"name": "web", "ports": []any{80, 443}}}, got)
	})

	t.Run("toml array of tables", func(t *testing.T) {
		input := strings.Join([]string{
			"[[records]]",
			`name = "web"`,
			"cores = 4",
			"",
			"[[records]]",
			`name = "db"`,
			"cores = 16",
		}, "\n")
		got, err := LoadRecords(input)
		require.NoError(t, err)
		assert.Equal(t, []Record{{"name": "web", "cores": int64(4)}, {"name": "db", "cores": int64(16)}}, got)
	})

	t.Run("yaml documents", func(t *testing.T) {
		got, err := LoadRecords("name: a\n---\nname: b\n---\n- 1\n")
		require.NoError(t, err)
		assert.Equal(t, []Record{{"name": "a"}, {"name": "b"}, {ValueKey: []any{1}}}, got)
	})

	t.Run("toml dates become strings", func(t *testing.T) {
		got, err := LoadRecords("[[items]]\nname = \"a\"\nday = 2024-05-01")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "2024-05-01", got[0]["day"])
	})
}

func TestLoadCSV(t *testing.T) {
	input := "\ufeffname, cores,ratio,enabled,\nweb,4,0.5,true,x\ndb,,1e3,FALSE\n"
	got, err := LoadCSV(strings.NewReader(input), ',')
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{"name": "web", "cores": int64(4), "ratio": 0.5, "enabled": true, "column5": "x"},
		{"name": "db", "ratio": float64(1000), "enabled": false},
	}, got)

	_, err = LoadCSV(strings.NewReader(""), ',')
	require.Error(t, err)

	got, err = LoadCSV(strings.NewReader("a\tb\n1\tz\n"), '\t')
	require.NoError(t, err)
	assert.Equal(t, []Record{{"a": int64(1), "b": "z"}}, got)

	got, err = LoadCSV(strings.NewReader("a,b\n"), ',')
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "hosts.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,cores\nweb,4\n"), 0o600))
	got, err := LoadFile(csvPath, logr.Discard())
	require.NoError(t, err)
	assert.Equal(t, []Record{{"name": "web", "cores": int64(4)}}, got)

	jsonPath := filepath.Join(dir, "hosts.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name":"db"}]`), 0o600))
	got, err = LoadFile(jsonPath, logr.Discard())
	require.NoError(t, err)
	assert.Equal(t, []Record{{"name": "db"}}, got)

	_, err = LoadFile(filepath.Join(dir, "missing.json"), logr.Discard())
	require.ErrorIs(t, err, os.ErrNotExist)

	assert.Equal(t, FormatTSV, FormatForPath("x.TSV"))
	assert.Equal(t, FormatAuto, FormatForPath("x.yaml"))
}

func TestNormalize(t *testing.T) {
	type tag struct {
		Key string `json:"key"`
	}
	type host struct {
		Name string `json:"name"`
		Tags []tag  `json:"tags"`
	}

	got, err := Normalize(&host{Name: "web", Tags: []tag{{Key: "a"}}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "web", "tags": []any{map[string]any{"key": "a"}}}, got)

	got, err = Normalize(map[string]any{"when": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "raw": []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"when": "2024-01-02T03:04:05Z", "raw": "hi"}, got)

	got, err = Normalize([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)

	var nilHost *host
	got, err = Normalize(nilHost)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Normalize(map[string]any{"f": func() {}})
	require.Error(t, err)
}
