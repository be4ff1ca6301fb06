package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oakwood-commons/pageview/pkg/core"
	"github.com/oakwood-commons/pageview/pkg/loader"
)

func hosts() []loader.Record {
	return []loader.Record{
		{"name": "web-1", "cores": int64(4), "zone": "east"},
		{"name": "db-1", "cores": int64(16), "zone": "west"},
		{"name": "web-2", "cores": int64(8), "zone": "east"},
	}
}

func TestDetectTerminalSize(t *testing.T) {
	t.Setenv("COLUMNS", "")
	w, _ := DetectTerminalSize()
	if w <= 0 {
		t.Fatalf("DetectTerminalSize width = %d, want > 0", w)
	}
}

func TestRenderSnapshot(t *testing.T) {
	out, err := RenderSnapshot(hosts(), Config{
		PageSize: 2,
		NoColor:  true,
		Columns:  []string{"name", "zone"},
		Sort:     "name",
	})
	if err != nil {
		t.Fatalf("RenderSnapshot error: %v", err)
	}
	for _, want := range []string{"db-1", "web-1", "Page 1 of 2 · 3 items · size 2 · sort: name ↑"} {
		if !strings.Contains(out, want) {
			t.Errorf("snapshot missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "web-2") {
		t.Errorf("snapshot shows a second page row:\n%s", out)
	}
}

func TestRenderSnapshotStartKeys(t *testing.T) {
	out, err := RenderSnapshot(hosts(), Config{
		NoColor:   true,
		Debounce:  time.Second,
		StartKeys: []string{"/web<CR>"},
	})
	if err != nil {
		t.Fatalf("RenderSnapshot error: %v", err)
	}
	if strings.Contains(out, "db-1") {
		t.Errorf("search did not apply:\n%s", out)
	}
	if !strings.Contains(out, "2 items · size 20") {
		t.Errorf("default page size not applied:\n%s", out)
	}
}

func TestConfigErrors(t *testing.T) {
	tests := map[string]Config{
		"negative page size": {PageSize: -1},
		"negative debounce":  {Debounce: -time.Second},
		"descending alone":   {Descending: true},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := RenderSnapshot(hosts(), cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("RenderSnapshot error = %v, want ErrInvalidConfig", err)
			}
			if err := Run(context.Background(), hosts(), cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Run error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := RenderSnapshot(hosts(), Config{Filters: []string{"_.cores >"}}); err == nil {
		t.Fatal("expected a filter compile error")
	}
}

func TestRunObjectsRejectsNonSlice(t *testing.T) {
	err := RunObjects(context.Background(), "nope", Config{})
	if !errors.Is(err, core.ErrInvalidRequest) {
		t.Fatalf("RunObjects error = %v", err)
	}
}

func TestWithIO(t *testing.T) {
	if got := len(WithIO(nil, nil)); got != 0 {
		t.Fatalf("WithIO(nil, nil) = %d options", got)
	}
	if got := len(WithIO(strings.NewReader("q"), &strings.Builder{})); got != 2 {
		t.Fatalf("WithIO = %d options, want 2", got)
	}
}
