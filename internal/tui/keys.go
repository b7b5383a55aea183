package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Enter      key.Binding
	Add        key.Binding
	Advance    key.Binding
	Power      key.Binding
	Ground     key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Delete     key.Binding
	Connect    key.Binding
	Refresh    key.Binding
	Disconnect key.Binding
	Help       key.Binding
	Quit       key.Binding
	Escape     key.Binding
	Confirm    key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:       key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←/h", "prev column")),
	Right:      key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/l", "next column")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Add:        key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "quick add")),
	Advance:    key.NewBinding(key.WithKeys(" ", "space", "m"), key.WithHelp("space", "move along")),
	Power:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "power (done)")),
	Ground:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "ground")),
	MoveUp:     key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move card up")),
	MoveDown:   key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move card down")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Connect:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect drive")),
	Refresh:    key.NewBinding(key.WithKeys("R", "r"), key.WithHelp("r", "sync now")),
	Disconnect: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "disconnect")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Confirm:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
}
