package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"sidepanel/internal/services"
)

// toolSelector is the chat overlay listing the registered tools.
type toolSelector struct {
	open   bool
	cursor int
	err    error
}

func (s toolSelector) toggleOpen() toolSelector {
	s.open = !s.open
	s.err = nil
	return s
}

func (s toolSelector) update(chat *services.ChatService, msg tea.KeyMsg) toolSelector {
	tools := chat.Tools()
	if s.cursor >= len(tools) {
		s.cursor = max(len(tools)-1, 0)
	}

	switch {
	case key.Matches(msg, keys.Tools), key.Matches(msg, keys.Back):
		s.open = false
	case key.Matches(msg, keys.PrevField):
		if len(tools) > 0 {
			s.cursor = wrapIndex(s.cursor, -1, len(tools))
		}
	case key.Matches(msg, keys.NextField):
		if len(tools) > 0 {
			s.cursor = wrapIndex(s.cursor, 1, len(tools))
		}
	case key.Matches(msg, keys.ToggleTool):
		if len(tools) > 0 {
			t := tools[s.cursor]
			s.err = chat.SetToolEnabled(t.Name, !t.Enabled)
		}
	}
	return s
}

func (s toolSelector) view(chat *services.ChatService) string {
	var b strings.Builder
	tools := chat.Tools()
	enabled := 0
	for _, t := range tools {
		if t.Enabled {
			enabled++
		}
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Tools (%d/%d enabled)", enabled, len(tools))))
	b.WriteString("\n")

	if len(tools) == 0 {
		b.WriteString(mutedStyle.Render("No tools registered."))
		b.WriteString("\n")
	}
	for i, t := range tools {
		marker := "  "
		if i == s.cursor {
			marker = focusedStyle.Render("> ")
		}
		check := "[ ]"
		if t.Enabled {
			check = "[x]"
		}
		line := marker + check + " " + t.Name
		if t.Description != "" {
			line += mutedStyle.Render("  " + t.Description)
		}
		b.WriteString(line + "\n")
	}
	if s.err != nil {
		b.WriteString(errorStyle.Render("Error: " + s.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(helpLine(keys.NextField, keys.ToggleTool, keys.Tools)))
	return b.String()
}
