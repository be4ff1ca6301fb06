// Package ui is the interactive pager: a bubbletea program over a paged
// record view with search, CEL filter and column sort prompts.
package ui

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pageview/internal/cel"
	"github.com/oakwood-commons/pageview/internal/completion"
	"github.com/oakwood-commons/pageview/internal/formatter"
	"github.com/oakwood-commons/pageview/internal/navigator"
	"github.com/oakwood-commons/pageview/internal/query"
	"github.com/oakwood-commons/pageview/internal/ui/table"
	"github.com/oakwood-commons/pageview/pkg/loader"
	"github.com/oakwood-commons/pageview/pkg/paging"
	"github.com/oakwood-commons/pageview/pkg/sortreq"
)

// FilterKey is the view filter installed by the filter prompt.
const FilterKey = "expr"

const (
	pageSizeStep   = 5
	deferredBuffer = 16
	// rows used by the prompt, status and help lines
	chromeHeight = 3
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeFilter
)

// Options configures a Model.
type Options struct {
	PageSize int
	// Columns fixes the displayed columns. Empty shows every record key.
	Columns []string
	// SearchFields are the field paths the search prompt matches. Empty
	// searches the displayed columns.
	SearchFields   []string
	Wildcards      bool
	MatchAll       bool
	Debounce       time.Duration
	MaxColumnWidth int
	NoColor        bool
	Colors         formatter.TableColors
	Width          int
	Height         int
	// Query is applied before the first frame.
	Query  query.Query
	Logger logr.Logger
	// Scheduler replaces the timer-based debounce scheduler.
	Scheduler paging.Scheduler
}

// deferredMsg carries a debounced view callback onto the program loop.
type deferredMsg struct {
	fn func()
}

// Model is the bubbletea model of the pager.
type Model struct {
	view    *paging.View[loader.Record]
	sorter  *sortreq.Adapter[loader.Record]
	eval    *cel.Evaluator
	suggest *completion.Completer
	table   *table.Model[loader.Record]
	search  textinput.Model
	filter  textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    KeyMap
	opts    Options
	log     logr.Logger

	mode         inputMode
	columns      []string
	filterSource string
	errMsg       string
	flash        string
	spinning     bool
	quitting     bool
	width        int
	height       int

	deferred    chan func()
	done        chan struct{}
	closed      bool
	pendingCmds []tea.Cmd
	unsubscribe []func()
}

// New builds a Model over records.
func New(records []loader.Record, opts Options) (*Model, error) {
	if opts.PageSize == 0 {
		opts.PageSize = 20
	}
	lgr := opts.Logger
	if lgr.GetSink() == nil {
		lgr = logr.Discard()
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}

	m := &Model{
		keys:     DefaultKeyMap(),
		opts:     opts,
		log:      lgr,
		width:    opts.Width,
		height:   opts.Height,
		deferred: make(chan func(), deferredBuffer),
		done:     make(chan struct{}),
	}
	if m.width <= 0 {
		m.width = 80
	}
	if m.height <= 0 {
		m.height = 24
	}

	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = paging.TimerScheduler{Dispatch: m.dispatch}
	}
	view, err := paging.New[loader.Record](opts.PageSize, paging.WithLogger(lgr), paging.WithScheduler(scheduler))
	if err != nil {
		return nil, fmt.Errorf("page size: %w", err)
	}
	if err := view.SetSource(records); err != nil {
		return nil, err
	}
	eval, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	m.view = view
	m.sorter = sortreq.NewAdapter[loader.Record](view)
	m.eval = eval

	if len(opts.Columns) > 0 {
		m.columns = formatter.SelectColumns(opts.Columns)
	} else {
		m.columns = formatter.Columns(records, nil)
	}

	m.suggest = completion.New(m.columns, eval.FunctionNames())

	m.table = table.NewModel[loader.Record](m.columns, recordRow)
	m.table.SetMaxColumnWidth(opts.MaxColumnWidth)
	m.table.SetNoColor(opts.NoColor)
	if !opts.NoColor {
		m.table.SetColors(opts.Colors.HeaderFG, opts.Colors.HeaderBG, nil, nil)
	}

	m.search = newInput("/ ")
	m.filter = newInput("filter> ")
	m.filter.Placeholder = `_.cores > 4 && _.zone == "east"`
	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.help = help.New()

	m.unsubscribe = append(m.unsubscribe,
		view.OnPropertyChanged(func(_ *paging.View[loader.Record], p paging.Property) {
			m.propertyChanged(p)
		}),
	)

	if err := opts.Query.Apply(view, m.sorter, eval, m.columns, lgr); err != nil {
		m.Close()
		return nil, err
	}
	if opts.Query.Search != "" {
		m.search.SetValue(opts.Query.Search)
	}
	m.layout()
	m.refreshRows()
	m.refreshSortIndicator()
	return m, nil
}

func newInput(prompt string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.CharLimit = 500
	ti.SetWidth(80)
	return ti
}

func recordRow(r loader.Record, columns []string) table.Row {
	row := make(table.Row, len(columns))
	for i, c := range columns {
		row[i] = formatter.Stringify(r[c])
	}
	return row
}

// dispatch hands a debounced callback to the program loop. It is called
// from timer goroutines.
func (m *Model) dispatch(fn func()) {
	select {
	case m.deferred <- fn:
	case <-m.done:
	}
}

func (m *Model) waitForDeferred() tea.Cmd {
	ch, done := m.deferred, m.done
	return func() tea.Msg {
		select {
		case fn := <-ch:
			return deferredMsg{fn: fn}
		case <-done:
			return nil
		}
	}
}

func (m *Model) propertyChanged(p paging.Property) {
	switch p {
	case paging.PropCurrentPageItems:
		m.refreshRows()
	case paging.PropIsSearching:
		if m.view.IsSearching() && !m.spinning {
			m.spinning = true
			m.pendingCmds = append(m.pendingCmds, m.spinner.Tick)
		} else if !m.view.IsSearching() {
			m.spinning = false
		}
	case paging.PropIsSorted:
		m.refreshSortIndicator()
	}
}

func (m *Model) refreshRows() {
	m.table.SetRows(m.view.CurrentPageItems())
}

func (m *Model) refreshSortIndicator() {
	req, ok := m.sorter.Active()
	if !ok {
		m.table.SetSortIndicator("", "")
		return
	}
	for _, c := range m.columns {
		if navigator.QuoteKey(c) == req.FieldPath {
			m.table.SetSortIndicator(c, req.Direction.Arrow())
			return
		}
	}
	m.table.SetSortIndicator("", "")
}

func (m *Model) layout() {
	m.table.SetSize(m.width, max(m.height-chromeHeight, 3))
	m.search.SetWidth(max(m.width-4, 10))
	m.filter.SetWidth(max(m.width-10, 10))
}

// Close cancels pending debounced work and releases listeners.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
	for _, un := range m.unsubscribe {
		un()
	}
	_ = m.view.Close()
}

// Paged returns the underlying view.
func (m *Model) Paged() *paging.View[loader.Record] {
	return m.view
}

// Init starts listening for debounced callbacks.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForDeferred()}
	if m.spinning {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case deferredMsg:
		if msg.fn != nil {
			msg.fn()
		}
		cmd = m.waitForDeferred()

	case spinner.TickMsg:
		if m.spinning {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refreshRows()

	case tea.KeyPressMsg:
		switch m.mode {
		case modeSearch:
			cmd = m.updateSearch(msg)
		case modeFilter:
			cmd = m.updateFilter(msg)
		default:
			cmd = m.updateBrowse(msg)
		}
	}
	return m, m.flush(cmd)
}

// flush batches cmd with commands queued by view listeners.
func (m *Model) flush(cmd tea.Cmd) tea.Cmd {
	if len(m.pendingCmds) == 0 {
		return cmd
	}
	cmds := append(m.pendingCmds, cmd)
	m.pendingCmds = nil
	return tea.Batch(cmds...)
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.Close()
	return tea.Quit
}

func (m *Model) updateBrowse(msg tea.KeyPressMsg) tea.Cmd {
	m.errMsg = ""
	m.flash = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.NextPage):
		m.view.NextPage()
	case key.Matches(msg, m.keys.PrevPage):
		m.view.PreviousPage()
	case key.Matches(msg, m.keys.FirstPage):
		m.view.GoToFirstPage()
	case key.Matches(msg, m.keys.LastPage):
		m.view.GoToLastPage()
	case key.Matches(msg, m.keys.Grow):
		m.resize(m.view.PageSize() + pageSizeStep)
	case key.Matches(msg, m.keys.Shrink):
		m.resize(max(m.view.PageSize()-pageSizeStep, 1))
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.table.Blur()
		return m.search.Focus()
	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.table.Blur()
		m.filter.SetValue(m.filterSource)
		m.filter.CursorEnd()
		return m.filter.Focus()
	case key.Matches(msg, m.keys.SortColumn):
		m.toggleSort(int(msg.String()[0] - '1'))
	case key.Matches(msg, m.keys.ClearSort):
		m.sorter.Clear()
		m.refreshSortIndicator()
	case key.Matches(msg, m.keys.ClearSearch):
		if m.view.SearchTerm() != "" {
			m.search.SetValue("")
			m.view.ClearSearch(0)
		}
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	case key.Matches(msg, m.keys.Up, m.keys.Down):
		_, cmd := m.table.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) copySelected() {
	row := m.table.SelectedRow()
	if row == nil {
		return
	}
	var buf bytes.Buffer
	if err := formatter.WriteJSON(&buf, *row); err != nil {
		m.errMsg = err.Error()
		return
	}
	if err := CopyToClipboard(buf.String()); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.flash = "copied row to clipboard"
}

func (m *Model) resize(size int) {
	if err := m.view.SetPageSize(size); err != nil {
		m.errMsg = err.Error()
	}
}

func (m *Model) toggleSort(col int) {
	if col < 0 || col >= len(m.columns) {
		return
	}
	if _, err := m.sorter.Toggle(navigator.QuoteKey(m.columns[col])); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.refreshSortIndicator()
}

func (m *Model) updateSearch(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m.quit()
	case key.Matches(msg, m.keys.InputAccept):
		m.endInput()
		return nil
	case key.Matches(msg, m.keys.InputCancel):
		m.search.SetValue("")
		m.view.ClearSearch(0)
		m.endInput()
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.applySearch(after)
	}
	return cmd
}

func (m *Model) applySearch(term string) {
	m.errMsg = ""
	if strings.TrimSpace(term) == "" {
		m.view.ClearSearch(m.opts.Debounce)
		return
	}
	fields := m.opts.SearchFields
	if len(fields) == 0 {
		fields = query.ColumnPaths(m.columns)
	}
	opts := paging.SearchOptions{Wildcards: m.opts.Wildcards, Debounce: m.opts.Debounce}
	var err error
	if m.opts.MatchAll {
		err = m.view.SetSearchAll(query.Selectors(fields), term, opts)
	} else {
		err = m.view.SetSearch(query.Selectors(fields), term, opts)
	}
	if err != nil {
		m.errMsg = err.Error()
	}
}

func (m *Model) updateFilter(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m.quit()
	case key.Matches(msg, m.keys.InputAccept):
		m.applyFilter(m.filter.Value())
		if m.errMsg == "" {
			m.endInput()
		}
		return nil
	case key.Matches(msg, m.keys.InputCancel):
		m.errMsg = ""
		m.endInput()
		return nil
	case key.Matches(msg, m.keys.Complete):
		m.completeFilter()
		return nil
	}
	m.flash = ""
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return cmd
}

// maxShownCompletions caps the candidates listed in the status line.
const maxShownCompletions = 6

func (m *Model) completeFilter() {
	value, cands := m.suggest.Complete(m.filter.Value())
	m.filter.SetValue(value)
	m.filter.CursorEnd()
	m.flash = ""
	if len(cands) > 1 {
		shown := cands[:min(len(cands), maxShownCompletions)]
		m.flash = strings.Join(shown, "  ")
		if len(cands) > len(shown) {
			m.flash += fmt.Sprintf("  (+%d)", len(cands)-len(shown))
		}
	}
}

func (m *Model) applyFilter(expr string) {
	m.errMsg = ""
	expr = strings.TrimSpace(expr)
	if expr == "" {
		_ = m.view.RemoveFilter(FilterKey)
		m.filterSource = ""
		return
	}
	pred, err := query.CompileFilter(m.eval, expr, m.log)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	if err := m.view.SetFilter(FilterKey, pred); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.filterSource = expr
}

func (m *Model) endInput() {
	m.mode = modeBrowse
	m.search.Blur()
	m.filter.Blur()
	m.table.Focus()
}

// View renders the current frame.
func (m *Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Render returns the frame as a string.
func (m *Model) Render() string {
	var b strings.Builder
	if len(m.columns) == 0 || m.view.IsEmpty() {
		b.WriteString(m.emptyMessage())
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")
	b.WriteString(m.promptLine())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.helpLine())

	out := b.String()
	if m.opts.NoColor {
		out = formatter.StripANSI(out)
	}
	return out
}

func (m *Model) emptyMessage() string {
	switch {
	case m.view.IsSourceEmpty():
		return "no records"
	case m.view.SearchTerm() != "":
		return fmt.Sprintf("no records match %q", m.view.SearchTerm())
	default:
		return "no records match the active filters"
	}
}

func (m *Model) promptLine() string {
	switch m.mode {
	case modeSearch:
		return m.search.View()
	case modeFilter:
		return m.filter.View()
	}
	if term := m.view.SearchTerm(); term != "" {
		return "/ " + term
	}
	return ""
}

// StatusLine describes page position, sort, filters and search state.
func (m *Model) StatusLine() string {
	parts := []string{formatter.PageFooter(m.view.CurrentPage(), m.view.TotalPages(), m.view.TotalItems(), m.view.PageSize())}
	if req, ok := m.sorter.Active(); ok {
		parts = append(parts, "sort: "+req.FieldPath+" "+req.Direction.Arrow())
	}
	if filters := m.view.ActiveFilters(); len(filters) > 0 {
		parts = append(parts, "filters: "+strings.Join(filters, ", "))
	}
	return strings.Join(parts, " · ")
}

func (m *Model) statusLine() string {
	line := formatter.RenderFooter(m.StatusLine(), m.opts.NoColor)
	if m.view.IsSearching() {
		line = m.spinner.View() + " " + line
	}
	if m.flash != "" {
		line += "  " + m.flash
	}
	if m.errMsg != "" {
		errText := "error: " + m.errMsg
		if !m.opts.NoColor {
			errText = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(errText)
		}
		line += "  " + errText
	}
	return line
}

func (m *Model) helpLine() string {
	bindings := m.keys.ShortHelp()
	switch m.mode {
	case modeSearch:
		bindings = m.keys.inputHelp()
	case modeFilter:
		bindings = m.keys.filterHelp()
	}
	return m.help.ShortHelpView(bindings)
}

// Columns returns the displayed column names.
func (m *Model) Columns() []string {
	return slices.Clone(m.columns)
}
