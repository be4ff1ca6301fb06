package table

import (
	"fmt"
	"image/color"

	bubtable "charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/pageview/internal/formatter"
)

// Re-export common table types so callers can construct rows without
// importing bubbles directly.
type Column = bubtable.Column
type Row = bubtable.Row

const cellGap = 2

// Model displays one page of values of type V. Column widths are sized from
// the current rows and shrunk to fit the available width; the sorted column
// carries an arrow in its header.
type Model[V any] struct {
	table  bubtable.Model
	styles bubtable.Styles
	rows   []V
	names  []string

	toRow func(V, []string) Row

	sortColumn string
	sortArrow  string
	maxColumn  int

	width   int
	height  int
	focused bool
	noColor bool

	headerFG   color.Color
	headerBG   color.Color
	selectedFG color.Color
	selectedBG color.Color
}

// NewModel creates a table over columns. toRow converts a value into cells
// in the order of the columns passed to it.
func NewModel[V any](columns []string, toRow func(V, []string) Row) *Model[V] {
	t := bubtable.New(
		bubtable.WithFocused(true),
		bubtable.WithHeight(5),
	)

	s := bubtable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Bold(true).
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(cellGap)
	s.Selected = s.Selected.
		PaddingLeft(0).
		PaddingRight(0)
	s.Cell = lipgloss.NewStyle().
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(cellGap)
	t.SetStyles(s)

	m := &Model[V]{
		table:   t,
		styles:  s,
		rows:    []V{},
		names:   append([]string(nil), columns...),
		toRow:   toRow,
		width:   80,
		height:  10,
		focused: true,
	}
	m.layout()
	return m
}

// SetRows replaces the displayed values. The cursor is kept when still in
// range, otherwise it moves to the first row.
func (m *Model[V]) SetRows(rows []V) {
	m.rows = rows
	m.layout()
	if m.Cursor() >= len(m.rows) && len(m.rows) > 0 {
		m.SetCursor(0)
	}
}

// SetColumns changes the displayed columns.
func (m *Model[V]) SetColumns(columns []string) {
	m.names = append([]string(nil), columns...)
	m.layout()
}

// ColumnNames returns the displayed column names.
func (m *Model[V]) ColumnNames() []string {
	return m.names
}

// Rows returns the displayed values.
func (m *Model[V]) Rows() []V {
	return m.rows
}

// SetSortIndicator marks column with arrow. An empty column removes the mark.
func (m *Model[V]) SetSortIndicator(column, arrow string) {
	m.sortColumn = column
	m.sortArrow = arrow
	m.layout()
}

// SetMaxColumnWidth caps every column. 0 disables the cap.
func (m *Model[V]) SetMaxColumnWidth(n int) {
	m.maxColumn = n
	m.layout()
}

func (m *Model[V]) layout() {
	cells := make([][]string, len(m.rows))
	tableRows := make([]Row, len(m.rows))
	for i, v := range m.rows {
		row := m.toRow(v, m.names)
		cells[i] = row
		tableRows[i] = row
	}

	titles := make([]string, len(m.names))
	for i, n := range m.names {
		titles[i] = n
		if m.sortColumn != "" && n == m.sortColumn && m.sortArrow != "" {
			titles[i] = n + " " + m.sortArrow
		}
	}

	// Every cell carries cellGap of right padding, including the last one.
	widths := formatter.ColumnWidths(titles, cells, max(m.width-cellGap, 1), m.maxColumn)
	columns := make([]Column, len(titles))
	for i, title := range titles {
		columns[i] = Column{Title: title, Width: widths[i]}
	}

	// Columns first so SetRows renders against the new widths.
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(tableRows)
	m.table.SetWidth(m.width)
}

// Cursor returns the current cursor position.
func (m *Model[V]) Cursor() int {
	return m.table.Cursor()
}

// SetCursor sets the cursor position.
func (m *Model[V]) SetCursor(pos int) {
	m.table.SetCursor(pos)
}

// SelectedRow returns the currently selected value, or nil if no rows.
func (m *Model[V]) SelectedRow() *V {
	if len(m.rows) == 0 {
		return nil
	}
	cursor := m.Cursor()
	if cursor < 0 || cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[cursor]
}

// SetSize sets the table dimensions. Height includes the header.
func (m *Model[V]) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(height)
	m.layout()
}

// Focus sets the table focus state.
func (m *Model[V]) Focus() {
	m.focused = true
	m.table.Focus()
}

// Blur removes focus from the table.
func (m *Model[V]) Blur() {
	m.focused = false
	m.table.Blur()
}

// Focused returns true if the table has focus.
func (m *Model[V]) Focused() bool {
	return m.focused
}

// SetNoColor enables/disables color output.
func (m *Model[V]) SetNoColor(noColor bool) {
	m.noColor = noColor
	m.applyColorScheme()
}

// SetColors sets custom theme colors. Nil keeps the bubbles default.
func (m *Model[V]) SetColors(headerFG, headerBG, selectedFG, selectedBG color.Color) {
	m.headerFG = headerFG
	m.headerBG = headerBG
	m.selectedFG = selectedFG
	m.selectedBG = selectedBG
	m.applyColorScheme()
}

func (m *Model[V]) applyColorScheme() {
	s := m.styles

	if m.noColor {
		s.Header = s.Header.UnsetForeground().UnsetBackground().BorderForeground(nil)
		s.Selected = s.Selected.UnsetForeground().UnsetBackground().Reverse(true)
		s.Cell = s.Cell.UnsetForeground().UnsetBackground()
	} else {
		if m.headerFG != nil {
			s.Header = s.Header.Foreground(m.headerFG)
		}
		if m.headerBG != nil {
			s.Header = s.Header.Background(m.headerBG)
		}
		if m.selectedFG != nil {
			s.Selected = s.Selected.Foreground(m.selectedFG)
		}
		if m.selectedBG != nil {
			s.Selected = s.Selected.Background(m.selectedBG)
		}
	}

	m.table.SetStyles(s)
	m.styles = s
}

// Update handles cursor movement keys.
func (m *Model[V]) Update(msg tea.Msg) (*Model[V], tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table to a string.
func (m *Model[V]) View() string {
	return m.table.View()
}

// Height returns the rendered height of the table (including header).
func (m *Model[V]) Height() int {
	return lipgloss.Height(m.View())
}

// Width returns the rendered width of the table.
func (m *Model[V]) Width() int {
	return lipgloss.Width(m.View())
}

// String returns a string representation for debugging.
func (m *Model[V]) String() string {
	return fmt.Sprintf("Table[rows=%d, columns=%d, cursor=%d, sort=%q]",
		len(m.rows), len(m.names), m.Cursor(), m.sortColumn)
}
