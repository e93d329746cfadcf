package ui

import (
	"github.com/charmbracelet/lipgloss"

	"sidepanel/internal/events"
)

var (
	colorAccent  = lipgloss.Color("12")
	colorMuted   = lipgloss.Color("8")
	colorFocus   = lipgloss.Color("14")
	colorError   = lipgloss.Color("9")
	colorSuccess = lipgloss.Color("10")
	colorWarn    = lipgloss.Color("11")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle     = lipgloss.NewStyle().Foreground(colorMuted).Width(10)
	focusedStyle   = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	userStyle      = lipgloss.NewStyle().Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(colorAccent)
	activeTabStyle = lipgloss.NewStyle().Underline(true).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
)

func toastStyle(t events.EventType) lipgloss.Style {
	style := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	switch t {
	case events.EventError:
		return style.Foreground(colorError)
	case events.EventWarn:
		return style.Foreground(colorWarn)
	case events.EventSuccess:
		return style.Foreground(colorSuccess)
	default:
		return style.Foreground(colorAccent)
	}
}
