package formatter

import (
	"encoding/json"
	"fmt"
	"image/color"
	"reflect"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

var (
	defaultHeaderFG  = lipgloss.Color("12")
	defaultHeaderBG  = lipgloss.Color("236")
	defaultCellColor = lipgloss.Color("248")
	defaultSeparator = lipgloss.Color("240")
	defaultFooter    = lipgloss.Color("244")

	headerStyle    lipgloss.Style
	cellStyle      lipgloss.Style
	separatorStyle lipgloss.Style
	footerStyle    lipgloss.Style
)

// TableColors controls the rendered colors for page tables.
// Nil fields fall back to the defaults (ANSI 256 codes).
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	CellColor      color.Color
	SeparatorColor color.Color
	FooterColor    color.Color
}

func applyTableTheme(tc TableColors) {
	pick := func(c, def color.Color) color.Color {
		if c == nil {
			return def
		}
		return c
	}
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(pick(tc.HeaderFG, defaultHeaderFG)).
		Background(pick(tc.HeaderBG, defaultHeaderBG))
	cellStyle = lipgloss.NewStyle().Foreground(pick(tc.CellColor, defaultCellColor))
	separatorStyle = lipgloss.NewStyle().Foreground(pick(tc.SeparatorColor, defaultSeparator))
	footerStyle = lipgloss.NewStyle().Faint(true).Foreground(pick(tc.FooterColor, defaultFooter))
}

// SetTableTheme overrides the global table styles.
func SetTableTheme(tc TableColors) {
	applyTableTheme(tc)
}

//nolint:gochecknoinits // initialize default table theme for package consumers
func init() {
	applyTableTheme(TableColors{})
}

// Stringify returns a compact single-line string for a record value.
// Scalars print as-is, containers as compact JSON.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return escapeScalarString(t)
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case map[string]any, []any:
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", t)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() { //nolint:exhaustive // only complex types need JSON marshaling
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
			if b, err := json.Marshal(v); err == nil {
				return string(b)
			}
		case reflect.Ptr:
			if !rv.IsNil() {
				switch rv.Elem().Kind() { //nolint:exhaustive // see above
				case reflect.Struct, reflect.Map, reflect.Slice:
					if b, err := json.Marshal(v); err == nil {
						return string(b)
					}
				}
			}
		}
		return fmt.Sprintf("%v", v)
	}
}

// escapeScalarString flattens line breaks so table rows stay single-line.
func escapeScalarString(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// truncate cuts s to maxLen display cells and adds an ellipsis if needed.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

// padLeft right-aligns s within width display cells.
func padLeft(s string, width int) string {
	return runewidth.FillLeft(truncate(s, width), width)
}
