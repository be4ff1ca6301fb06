// Package tui embeds the interactive pager in host applications.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"golang.org/x/term"

	"github.com/oakwood-commons/pageview/internal/config"
	"github.com/oakwood-commons/pageview/internal/query"
	"github.com/oakwood-commons/pageview/internal/ui"
	"github.com/oakwood-commons/pageview/pkg/core"
	"github.com/oakwood-commons/pageview/pkg/loader"
)

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// DefaultPageSize applies when Config.PageSize is zero.
const DefaultPageSize = 20

// ErrInvalidConfig wraps errors caused by Config values.
var ErrInvalidConfig = errors.New("invalid pager config")

// DetectTerminalSize returns the best-effort terminal width and height by probing
// stdout, stderr, and stdin, then falling back to the COLUMNS environment variable.
// If detection fails completely it returns (120, 24).
func DetectTerminalSize() (width int, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 24
}

// Colors holds optional lipgloss color strings for the table.
type Colors = config.ColorConfig

// Config holds host-provided settings for running the pager.
type Config struct {
	PageSize int
	// Columns fixes the displayed columns. Empty shows every record key.
	Columns []string
	// SearchFields default to the displayed columns.
	SearchFields   []string
	Wildcards      bool
	MatchAll       bool
	Debounce       time.Duration
	MaxColumnWidth int
	NoColor        bool
	Colors         Colors
	// Width and Height size the first frame. Zero waits for the terminal.
	Width  int
	Height int

	// Filters, Search, Sort, Descending and Page describe the initial state.
	Filters    []string
	Search     string
	Sort       string
	Descending bool
	Page       int

	// StartKeys are replayed before the first frame, e.g. "/", "web", "enter".
	StartKeys []string
	Logger    logr.Logger
}

func (c Config) options() (ui.Options, error) {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize < 0 {
		return ui.Options{}, fmt.Errorf("%w: page size %d", ErrInvalidConfig, c.PageSize)
	}
	if c.Debounce < 0 {
		return ui.Options{}, fmt.Errorf("%w: debounce %s", ErrInvalidConfig, c.Debounce)
	}
	if c.Descending && c.Sort == "" {
		return ui.Options{}, fmt.Errorf("%w: descending needs a sort field", ErrInvalidConfig)
	}
	lgr := c.Logger
	if lgr.GetSink() == nil {
		lgr = logr.Discard()
	}
	return ui.Options{
		PageSize:       c.PageSize,
		Columns:        c.Columns,
		SearchFields:   c.SearchFields,
		Wildcards:      c.Wildcards,
		MatchAll:       c.MatchAll,
		Debounce:       c.Debounce,
		MaxColumnWidth: c.MaxColumnWidth,
		NoColor:        c.NoColor,
		Colors:         c.Colors.TableColors(),
		Width:          c.Width,
		Height:         c.Height,
		Query: query.Query{
			Filters:      c.Filters,
			Search:       c.Search,
			SearchFields: c.SearchFields,
			MatchAll:     c.MatchAll,
			Wildcards:    c.Wildcards,
			Sort:         c.Sort,
			Descending:   c.Descending,
			Page:         c.Page,
		},
		Logger: lgr,
	}, nil
}

// Run starts the pager over records and blocks until the user quits or ctx
// is canceled.
func Run(ctx context.Context, records []loader.Record, cfg Config, opts ...tea.ProgramOption) error {
	uiOpts, err := cfg.options()
	if err != nil {
		return err
	}
	return ui.Run(ctx, records, uiOpts, cfg.StartKeys, opts...)
}

// RunObjects converts a slice of structs or maps with core.LoadObjects and
// runs the pager over it.
func RunObjects(ctx context.Context, items any, cfg Config, opts ...tea.ProgramOption) error {
	records, err := core.LoadObjects(items)
	if err != nil {
		return err
	}
	return Run(ctx, records, cfg, opts...)
}

// RenderSnapshot renders a single frame without starting a program. Width
// and Height default to 80x24.
func RenderSnapshot(records []loader.Record, cfg Config) (string, error) {
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Height <= 0 {
		cfg.Height = 24
	}
	uiOpts, err := cfg.options()
	if err != nil {
		return "", err
	}
	return ui.RenderSnapshot(records, uiOpts, cfg.StartKeys)
}

// WithIO returns tea.ProgramOptions to set custom input/output.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	opts := []tea.ProgramOption{}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}
