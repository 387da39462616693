package ui

import "github.com/charmbracelet/bubbles/key"

// tourKeys are active while a tip is on screen.
type tourKeys struct {
	Next key.Binding
	Prev key.Binding
	Skip key.Binding
}

// promptKeys answer the "show more tips?" question.
type promptKeys struct {
	Accept  key.Binding
	Decline key.Binding
	Skip    key.Binding
}

// hostKeys drive the demo screens when no tour is running.
type hostKeys struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Back     key.Binding
	List     key.Binding
	Board    key.Binding
	Settings key.Binding
	Tour     key.Binding
	Reset    key.Binding
	Toggle   key.Binding
	Quit     key.Binding
}

type keyMap struct {
	tour   tourKeys
	prompt promptKeys
	host   hostKeys
}

func defaultKeyMap() keyMap {
	return keyMap{
		tour: tourKeys{
			Next: key.NewBinding(key.WithKeys("n", "right", "l", "enter", " "), key.WithHelp("n/→", "next")),
			Prev: key.NewBinding(key.WithKeys("p", "left", "h"), key.WithHelp("p/←", "back")),
			Skip: key.NewBinding(key.WithKeys("s", "esc"), key.WithHelp("esc", "skip")),
		},
		prompt: promptKeys{
			Accept:  key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "show more")),
			Decline: key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "done")),
			Skip:    key.NewBinding(key.WithKeys("s", "esc"), key.WithHelp("esc", "skip")),
		},
		host: hostKeys{
			Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
			Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
			Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
			Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
			List:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "list")),
			Board:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "board")),
			Settings: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "settings")),
			Tour:     key.NewBinding(key.WithKeys("?", "t"), key.WithHelp("?", "tour")),
			Reset:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset tour")),
			Toggle:   key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
			Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

// ShortHelp implements help.KeyMap for the status bar.
func (k hostKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.List, k.Board, k.Settings, k.Tour, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k hostKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back},
		{k.List, k.Board, k.Settings},
		{k.Tour, k.Reset, k.Toggle, k.Quit},
	}
}

func (k tourKeys) bindings() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Skip}
}

func (k promptKeys) bindings() []key.Binding {
	return []key.Binding{k.Accept, k.Decline, k.Skip}
}
