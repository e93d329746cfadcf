package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders assistant replies; nil falls back to plain text.
// Auto style would query the terminal, which the running program owns.
var markdownRenderer *glamour.TermRenderer

func init() {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(80),
	)
	if err == nil {
		markdownRenderer = r
	}
}

func renderMarkdown(content string) string {
	if markdownRenderer == nil || strings.TrimSpace(content) == "" {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
