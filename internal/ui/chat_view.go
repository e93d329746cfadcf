package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cloudwego/eino/schema"

	"sidepanel/internal/services"
)

type chatReplyMsg struct {
	text  string
	reply *schema.Message
	err   error
}

type chatView struct {
	chat *services.ChatService

	input   textinput.Model
	sending bool
	err     error
	tools   toolSelector
}

func newChatView(chat *services.ChatService) chatView {
	ti := textinput.New()
	ti.Placeholder = "Ask anything..."
	ti.CharLimit = 4000
	ti.Width = 60
	ti.Focus()
	return chatView{chat: chat, input: ti}
}

func (v chatView) send(ctx context.Context, text string) tea.Cmd {
	chat := v.chat
	return func() tea.Msg {
		reply, err := chat.Send(ctx, text)
		return chatReplyMsg{text: text, reply: reply, err: err}
	}
}

func (v chatView) update(ctx context.Context, msg tea.Msg) (chatView, tea.Cmd) {
	switch msg := msg.(type) {
	case chatReplyMsg:
		v.sending = false
		v.err = msg.err
		if msg.err != nil && v.input.Value() == "" {
			// Give the prompt back so it can be resent.
			v.input.SetValue(msg.text)
			v.input.CursorEnd()
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(ctx, msg)
	}
	return v, nil
}

func (v chatView) handleKey(ctx context.Context, msg tea.KeyMsg) (chatView, tea.Cmd) {
	if v.tools.open {
		v.tools = v.tools.update(v.chat, msg)
		return v, nil
	}

	switch {
	case key.Matches(msg, keys.Tools):
		v.tools = v.tools.toggleOpen()
		return v, nil

	case key.Matches(msg, keys.Send):
		text := strings.TrimSpace(v.input.Value())
		if text == "" || v.sending {
			return v, nil
		}
		v.sending = true
		v.err = nil
		v.input.SetValue("")
		return v, v.send(ctx, text)

	case key.Matches(msg, keys.NewThread):
		v.chat.NewThread()
		v.err = nil
		return v, nil

	case key.Matches(msg, keys.NextThread):
		if id, ok := v.nextThreadID(); ok {
			v = v.switchThread(id)
		}
		return v, nil

	case key.Matches(msg, keys.DeleteThread):
		if th, ok := v.chat.ActiveThread(); ok {
			v = v.deleteThread(th.ID)
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// nextThreadID is the thread after the active one in list order.
func (v chatView) nextThreadID() (string, bool) {
	threads := v.chat.Threads()
	if len(threads) < 2 {
		return "", false
	}
	idx := -1
	for i, th := range threads {
		if th.Active {
			idx = i
			break
		}
	}
	return threads[wrapIndex(idx, 1, len(threads))].ID, true
}

// switchThread and deleteThread report a thread removed since it was listed.
func (v chatView) switchThread(id string) chatView {
	v.err = v.chat.SwitchThread(id)
	return v
}

func (v chatView) deleteThread(id string) chatView {
	v.err = v.chat.DeleteThread(id)
	return v
}

func (v chatView) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Chat"))
	b.WriteString("\n")

	if threads := v.chat.Threads(); len(threads) > 0 {
		tabs := make([]string, 0, len(threads))
		for _, th := range threads {
			if th.Active {
				tabs = append(tabs, activeTabStyle.Render(th.Title))
			} else {
				tabs = append(tabs, mutedStyle.Render(th.Title))
			}
		}
		b.WriteString(strings.Join(tabs, mutedStyle.Render(" | ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if th, ok := v.chat.ActiveThread(); ok && len(th.Messages) > 0 {
		for _, msg := range th.Messages {
			b.WriteString(renderMessage(msg))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(mutedStyle.Render("No messages yet."))
		b.WriteString("\n")
	}

	if v.tools.open {
		b.WriteString("\n")
		b.WriteString(v.tools.view(v.chat))
		b.WriteString("\n")
	} else if enabled := len(v.chat.EnabledTools()); enabled > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d tools enabled", enabled)))
		b.WriteString("\n")
	}
	if v.sending {
		b.WriteString(mutedStyle.Render("Thinking..."))
		b.WriteString("\n")
	}
	if v.err != nil {
		b.WriteString(errorStyle.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(helpLine(keys.Send, keys.NewThread, keys.NextThread, keys.DeleteThread, keys.Tools, keys.OpenSettings, keys.Quit)))
	return b.String()
}

func renderMessage(msg *schema.Message) string {
	switch msg.Role {
	case schema.User:
		return userStyle.Render("You: ") + msg.Content
	case schema.Assistant:
		content := renderMarkdown(msg.Content)
		for _, call := range msg.ToolCalls {
			content += "\n  -> " + call.Function.Name + "(" + call.Function.Arguments + ")"
		}
		return assistantStyle.Render("Assistant: ") + content
	default:
		return mutedStyle.Render(string(msg.Role)+": ") + msg.Content
	}
}
