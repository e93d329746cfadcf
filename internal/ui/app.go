// Package ui is the terminal shell of the side panel: a chat route and a
// settings route sharing one model config store.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cloudwego/eino/schema"

	"sidepanel/internal/events"
	"sidepanel/internal/services"
)

type Route string

const (
	RouteChat     Route = "/chat"
	RouteSettings Route = "/settings"
)

const toastDuration = 3 * time.Second

type notificationMsg events.Notification

type toastExpiredMsg struct{ id string }

type Options struct {
	Form    *services.SettingsForm
	Catalog services.ModelCatalogService
	Chat    *services.ChatService
	// Bus, when set, feeds the toast line.
	Bus   *events.Bus
	Route Route
	// Tools are registered with Chat for the tool selector.
	Tools []*schema.ToolInfo
}

// Model routes between the chat and settings views.
type Model struct {
	ctx   context.Context
	route Route

	chat     chatView
	settings settingsView

	notes       chan events.Notification
	unsubscribe func()
	toast       *events.Notification
}

func New(ctx context.Context, opts Options) Model {
	m := Model{
		ctx:         ctx,
		route:       RouteChat,
		chat:        newChatView(opts.Chat),
		settings:    newSettingsView(opts.Form, opts.Catalog),
		notes:       make(chan events.Notification, 16),
		unsubscribe: func() {},
	}
	if len(opts.Tools) > 0 {
		opts.Chat.RegisterTools(opts.Tools)
	}
	if opts.Route == RouteSettings {
		m.route = RouteSettings
	}
	if opts.Bus != nil {
		notes := m.notes
		m.unsubscribe = opts.Bus.Subscribe(func(n events.Notification) {
			if n.Type == events.EventInfo {
				return
			}
			select {
			case notes <- n:
			default:
			}
		})
	}
	return m
}

// Close detaches the model from the notification bus.
func (m Model) Close() {
	m.unsubscribe()
}

func (m Model) Route() Route {
	return m.route
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.settings.load(m.ctx), m.waitForNotification(), textinput.Blink)
}

func (m Model) waitForNotification() tea.Cmd {
	notes := m.notes
	return func() tea.Msg {
		return notificationMsg(<-notes)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notificationMsg:
		n := events.Notification(msg)
		m.toast = &n
		return m, tea.Batch(m.waitForNotification(), tea.Tick(toastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: n.ID}
		}))

	case toastExpiredMsg:
		if m.toast != nil && m.toast.ID == msg.id {
			m.toast = nil
		}
		return m, nil

	case settingsLoadedMsg, settingsSavedMsg:
		var cmd tea.Cmd
		m.settings, cmd = m.settings.update(m.ctx, msg)
		return m, cmd

	case chatReplyMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.update(m.ctx, msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.route {
	case RouteSettings:
		if key.Matches(msg, keys.Back) {
			return m.navigate(RouteChat)
		}
		m.settings, cmd = m.settings.update(m.ctx, msg)
	default:
		if key.Matches(msg, keys.OpenSettings) {
			return m.navigate(RouteSettings)
		}
		m.chat, cmd = m.chat.update(m.ctx, msg)
	}
	return m, cmd
}

func (m Model) navigate(route Route) (tea.Model, tea.Cmd) {
	m.route = route
	if route == RouteSettings {
		m.chat.input.Blur()
		if !m.settings.form.Loaded() {
			return m, m.settings.load(m.ctx)
		}
		m.settings.syncInput()
		return m, nil
	}
	return m, m.chat.input.Focus()
}

func (m Model) View() string {
	var body string
	if m.route == RouteSettings {
		body = m.settings.view()
	} else {
		body = m.chat.view()
	}
	if m.toast != nil {
		body += "\n" + toastStyle(m.toast.Type).Render(m.toast.Message)
	}
	return body + "\n"
}
