package ui

import "charm.land/bubbles/v2/key"

// KeyMap lists the browse-mode bindings.
type KeyMap struct {
	NextPage    key.Binding
	PrevPage    key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	Grow        key.Binding
	Shrink      key.Binding
	Up          key.Binding
	Down        key.Binding
	Search      key.Binding
	Filter      key.Binding
	SortColumn  key.Binding
	ClearSort   key.Binding
	ClearSearch key.Binding
	Copy        key.Binding
	Quit        key.Binding
	InputAccept key.Binding
	InputCancel key.Binding
	Complete    key.Binding
	ForceQuit   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextPage: key.NewBinding(
			key.WithKeys("right", "l", "n"),
			key.WithHelp("→/n", "next"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h", "p"),
			key.WithHelp("←/p", "prev"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last"),
		),
		Grow: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", "page size"),
		),
		Shrink: key.NewBinding(
			key.WithKeys("-"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		SortColumn: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "sort"),
		),
		ClearSort: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "unsort"),
		),
		ClearSearch: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy row"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		InputAccept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		InputCancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// ShortHelp returns the bindings shown in the help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.PrevPage, k.FirstPage, k.LastPage, k.Grow, k.Search, k.Filter, k.SortColumn, k.ClearSort, k.Copy, k.Quit}
}

func (k KeyMap) inputHelp() []key.Binding {
	return []key.Binding{k.InputAccept, k.InputCancel}
}

func (k KeyMap) filterHelp() []key.Binding {
	return []key.Binding{k.InputAccept, k.InputCancel, k.Complete}
}
