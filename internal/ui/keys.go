package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit         key.Binding
	OpenSettings key.Binding
	Back         key.Binding
	Save         key.Binding
	NextField    key.Binding
	PrevField    key.Binding
	Left         key.Binding
	Right        key.Binding
	ToggleMask   key.Binding
	Send         key.Binding
	NewThread    key.Binding
	NextThread   key.Binding
	DeleteThread key.Binding
	Tools        key.Binding
	ToggleTool   key.Binding
}

var keys = keyMap{
	Quit:         key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("C-q", "quit")),
	OpenSettings: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("C-o", "settings")),
	Back:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to chat")),
	Save:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("C-s", "save")),
	NextField:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("S-tab", "previous field")),
	Left:         key.NewBinding(key.WithKeys("left")),
	Right:        key.NewBinding(key.WithKeys("right")),
	ToggleMask:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("C-r", "show/hide key")),
	Send:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	NewThread:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("C-n", "new chat")),
	NextThread:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next chat")),
	DeleteThread: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("C-x", "delete chat")),
	Tools:        key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("C-t", "tools")),
	ToggleTool:   key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle tool")),
}

func helpLine(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		h := b.Help()
		if i > 0 {
			out += "  "
		}
		out += "[" + h.Key + "] " + h.Desc
	}
	return out
}
