package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TableOptions configures RenderTable.
type TableOptions struct {
	// Width is the total width available. 0 disables shrinking.
	Width int
	// MaxColumnWidth caps every column before shrinking. 0 = no cap.
	MaxColumnWidth int
	// RowOffset is added to the row numbers so page 2 continues where page 1
	// stopped. Negative disables the row number column.
	RowOffset int
	// SortColumn marks the header of the sorted column with SortArrow.
	SortColumn string
	SortArrow  string
	// RightAlign lists columns rendered right-aligned.
	RightAlign []string
	NoColor    bool
}

// Columns returns the column set of records: the preferred names that occur
// first, in the given order, then every other key sorted.
func Columns(records []map[string]any, preferred []string) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			seen[k] = true
		}
	}

	cols := make([]string, 0, len(seen))
	used := make(map[string]bool, len(preferred))
	for _, p := range preferred {
		if seen[p] && !used[p] {
			cols = append(cols, p)
			used[p] = true
		}
	}

	rest := make([]string, 0, len(seen))
	for k := range seen {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// SelectColumns returns only the named columns, keeping the order of names.
// Names are kept even when no record carries them so the header stays stable.
func SelectColumns(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// CellRows stringifies records into table cells in column order.
func CellRows(records []map[string]any, columns []string) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = Stringify(r[c])
		}
		rows[i] = row
	}
	return rows
}

// RenderTable renders rows under a header of columns.
func RenderTable(columns []string, rows [][]string, opts TableOptions) string {
	if len(columns) == 0 {
		return ""
	}

	showRowNum := opts.RowOffset >= 0
	rowNumWidth := 0
	if showRowNum {
		rowNumWidth = len(fmt.Sprintf("%d", opts.RowOffset+len(rows)))
		if rowNumWidth < 1 {
			rowNumWidth = 1
		}
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c
		if opts.SortColumn != "" && c == opts.SortColumn && opts.SortArrow != "" {
			headers[i] = c + " " + opts.SortArrow
		}
	}

	const sepWidth = 2
	available := opts.Width
	if available > 0 && showRowNum {
		available -= rowNumWidth + sepWidth
	}
	widths := ColumnWidths(headers, rows, available, opts.MaxColumnWidth)

	right := make(map[string]bool, len(opts.RightAlign))
	for _, c := range opts.RightAlign {
		right[c] = true
	}

	sep := strings.Repeat(" ", sepWidth)
	var b strings.Builder

	parts := make([]string, 0, len(columns)+1)
	if showRowNum {
		parts = append(parts, styled(headerStyle.Render, padRight("#", rowNumWidth), opts.NoColor))
	}
	for i, h := range headers {
		parts = append(parts, styled(headerStyle.Render, padRight(h, widths[i]), opts.NoColor))
	}
	b.WriteString(strings.Join(parts, sep) + "\n")

	total := 0
	for _, w := range widths {
		total += w
	}
	total += sepWidth * (len(widths) - 1)
	if showRowNum {
		total += rowNumWidth + sepWidth
	}
	b.WriteString(styled(separatorStyle.Render, strings.Repeat("─", total), opts.NoColor) + "\n")

	for i, row := range rows {
		parts = parts[:0]
		if showRowNum {
			num := fmt.Sprintf("%d", opts.RowOffset+i+1)
			parts = append(parts, styled(separatorStyle.Render, padLeft(num, rowNumWidth), opts.NoColor))
		}
		for j := range columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			var cell string
			if right[columns[j]] {
				cell = padLeft(val, widths[j])
			} else {
				cell = padRight(val, widths[j])
			}
			parts = append(parts, styled(cellStyle.Render, cell, opts.NoColor))
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, sep), " ") + "\n")
	}

	return b.String()
}

func styled(render func(...string) string, s string, noColor bool) string {
	if noColor {
		return s
	}
	return render(s)
}

// ColumnWidths sizes each column to its widest cell, caps it at
// maxCol, then shrinks the widest columns until the row fits available.
// Columns are assumed to be separated by two spaces.
func ColumnWidths(columns []string, rows [][]string, available, maxCol int) []int {
	const sepWidth = 2
	const minColWidth = 3

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(widths) {
				if w := runewidth.StringWidth(val); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	if maxCol > 0 {
		for i := range widths {
			if widths[i] > maxCol {
				widths[i] = max(maxCol, minColWidth)
			}
		}
	}
	if available <= 0 {
		return widths
	}

	usable := available - sepWidth*(len(widths)-1)
	for {
		total := 0
		widest := 0
		for i, w := range widths {
			total += w
			if w > widths[widest] {
				widest = i
			}
		}
		if total <= usable || widths[widest] <= minColWidth {
			return widths
		}
		widths[widest]--
	}
}

// PageFooter describes the current page, for example
// "Page 2 of 5 · 48 items · size 10".
func PageFooter(current, total, items, size int) string {
	noun := "items"
	if items == 1 {
		noun = "item"
	}
	return fmt.Sprintf("Page %d of %d · %d %s · size %d", current, total, items, noun, size)
}

// RenderFooter styles PageFooter output unless noColor is set.
func RenderFooter(footer string, noColor bool) string {
	return styled(footerStyle.Render, footer, noColor)
}
