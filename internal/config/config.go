// Package config loads pageview settings from the embedded defaults and an
// optional user YAML file.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/pageview/internal/formatter"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     Config
	embeddedConfigErr  error
)

// Config is the merged pageview configuration.
type Config struct {
	Paging  PagingConfig  `yaml:"paging"`
	Search  SearchConfig  `yaml:"search"`
	Display DisplayConfig `yaml:"display"`
}

type PagingConfig struct {
	PageSize int `yaml:"page_size"`
}

type SearchConfig struct {
	DebounceMS int      `yaml:"debounce_ms"`
	Wildcards  bool     `yaml:"wildcards"`
	MatchAll   bool     `yaml:"match_all"`
	Fields     []string `yaml:"fields"`
}

type DisplayConfig struct {
	Columns        []string    `yaml:"columns"`
	MaxColumnWidth int         `yaml:"max_column_width"`
	NoColor        bool        `yaml:"no_color"`
	Colors         ColorConfig `yaml:"colors"`
}

// ColorConfig holds lipgloss color strings (ANSI codes or hex).
type ColorConfig struct {
	HeaderFG  string `yaml:"header_fg"`
	HeaderBG  string `yaml:"header_bg"`
	Cell      string `yaml:"cell"`
	Separator string `yaml:"separator"`
	Footer    string `yaml:"footer"`
}

// DefaultConfigYAML returns a copy of the embedded default config YAML bytes.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default parses and returns the embedded default configuration.
func Default() (Config, error) {
	embeddedConfigOnce.Do(func() {
		if len(embeddedDefaultConfig) == 0 {
			embeddedConfigErr = fmt.Errorf("embedded default config is empty")
			return
		}
		if err := yaml.Unmarshal(embeddedDefaultConfig, &embeddedConfig); err != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", err)
		}
	})
	return embeddedConfig.clone(), embeddedConfigErr
}

func (c Config) clone() Config {
	out := c
	out.Search.Fields = append([]string(nil), c.Search.Fields...)
	out.Display.Columns = append([]string(nil), c.Display.Columns...)
	return out
}

// Load returns the defaults merged with the YAML file at path. An empty path
// returns the defaults. Keys absent from the file keep their default value;
// unknown keys are an error.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := merge(&cfg, data); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func merge(cfg *Config, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Validate rejects values the paging view cannot accept.
func (c Config) Validate() error {
	var errs []error
	if c.Paging.PageSize < 1 {
		errs = append(errs, fmt.Errorf("paging.page_size must be at least 1, got %d", c.Paging.PageSize))
	}
	if c.Search.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("search.debounce_ms must not be negative, got %d", c.Search.DebounceMS))
	}
	if c.Display.MaxColumnWidth < 0 {
		errs = append(errs, fmt.Errorf("display.max_column_width must not be negative, got %d", c.Display.MaxColumnWidth))
	}
	return errors.Join(errs...)
}

// Debounce returns the search debounce delay.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

// TableColors converts the configured colors for the table renderer. Empty
// entries keep the renderer defaults.
func (c ColorConfig) TableColors() formatter.TableColors {
	var tc formatter.TableColors
	if c.HeaderFG != "" {
		tc.HeaderFG = lipgloss.Color(c.HeaderFG)
	}
	if c.HeaderBG != "" {
		tc.HeaderBG = lipgloss.Color(c.HeaderBG)
	}
	if c.Cell != "" {
		tc.CellColor = lipgloss.Color(c.Cell)
	}
	if c.Separator != "" {
		tc.SeparatorColor = lipgloss.Color(c.Separator)
	}
	if c.Footer != "" {
		tc.FooterColor = lipgloss.Color(c.Footer)
	}
	return tc
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// ResolvePath returns the explicit path if set, otherwise the XDG path
// ($XDG_CONFIG_HOME/pageview/config.yaml) or ~/.config/pageview/config.yaml
// if present.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, "pageview", "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", "pageview", "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}
