package tui

import "github.com/charmbracelet/bubbles/key"

// bindings drive the browser and double as its help line.
type bindings struct {
	Prev       key.Binding
	Next       key.Binding
	Copy       key.Binding
	Open       key.Binding
	Group      key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
}

func defaultBindings() bindings {
	return bindings{
		Prev:       key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "prev")),
		Next:       key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next")),
		Copy:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "copy link")),
		Open:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("C-o", "open issue")),
		Group:      key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("C-g", "by action/change")),
		ScrollUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("C-u", "preview up")),
		ScrollDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("C-d", "preview down")),
		Quit:       key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (b bindings) ShortHelp() []key.Binding {
	return []key.Binding{b.Copy, b.Open, b.Group, b.ScrollDown, b.Quit}
}

// FullHelp implements help.KeyMap.
func (b bindings) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{b.Prev, b.Next},
		{b.Copy, b.Open, b.Group},
		{b.ScrollUp, b.ScrollDown, b.Quit},
	}
}
