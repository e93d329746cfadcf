package ui

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidepanel/internal/events"
	"sidepanel/internal/models"
	"sidepanel/internal/services"
	"sidepanel/internal/tests/mocks"
)

type uiFixture struct {
	store *services.ModelConfigStore
	form  *services.SettingsForm
	chat  *services.ChatService
	llm   *mocks.ChatModelMock
	model Model
}

func newUIFixture(t *testing.T) *uiFixture {
	t.Helper()
	ctx := context.Background()
	store := services.NewModelConfigStore(&mocks.ModelConfigRepositoryMock{}, services.ModelConfigStoreOptions{})
	catalog := services.NewModelCatalogService()
	require.NoError(t, catalog.Startup())
	bus := events.NewBus(10, false)
	form := services.NewSettingsForm(store, catalog, bus)
	llm := &mocks.ChatModelMock{}
	chat := services.NewChatService(store, func(context.Context, models.ModelConfig) (model.ToolCallingChatModel, error) {
		return llm, nil
	}, services.ChatOptions{Notifier: bus})

	m := New(ctx, Options{Form: form, Catalog: catalog, Chat: chat, Bus: bus})
	t.Cleanup(func() {
		m.Close()
		form.Close()
	})
	return &uiFixture{store: store, form: form, chat: chat, llm: llm, model: m}
}

func (f *uiFixture) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

// run executes cmd and feeds its message back, as the program loop would.
func (f *uiFixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	f.send(t, cmd())
}

func (f *uiFixture) key(t *testing.T, k tea.KeyType) tea.Cmd {
	return f.send(t, tea.KeyMsg{Type: k})
}

func (f *uiFixture) typeText(t *testing.T, s string) {
	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (f *uiFixture) openSettings(t *testing.T) {
	t.Helper()
	f.run(t, f.model.settings.load(context.Background()))
	f.key(t, tea.KeyCtrlO)
	require.Equal(t, RouteSettings, f.model.Route())
}

func TestModel_StartsOnChatAndRoutes(t *testing.T) {
	f := newUIFixture(t)
	assert.Equal(t, RouteChat, f.model.Route())
	assert.Contains(t, f.model.View(), "Chat")

	f.openSettings(t)
	assert.Contains(t, f.model.View(), "Settings")

	f.key(t, tea.KeyEsc)
	assert.Equal(t, RouteChat, f.model.Route())
}

func TestModel_SettingsShowsLoadingUntilLoaded(t *testing.T) {
	f := newUIFixture(t)
	cmd := f.key(t, tea.KeyCtrlO)
	assert.Contains(t, f.model.View(), "Loading settings...")

	f.run(t, cmd)
	assert.Contains(t, f.model.View(), "gpt-4o-mini")
}

func TestModel_SaveProviderSwitchShowsToast(t *testing.T) {
	f := newUIFixture(t)
	f.openSettings(t)

	f.key(t, tea.KeyRight)
	assert.Equal(t, models.ProviderAnthropic, f.form.Provider())
	assert.Contains(t, f.model.View(), "claude-sonnet-4-20250514", "catalog default shown for an unset model")

	f.key(t, tea.KeyTab)
	f.key(t, tea.KeyRight)

	save := f.key(t, tea.KeyCtrlS)
	assert.Contains(t, f.model.View(), "Saving...")
	f.run(t, save)

	stored, err := f.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ProviderAnthropic, stored.ModelProvider)
	assert.NotEmpty(t, models.GetModelName(stored))
	assert.Equal(t, "gpt-4o-mini", *stored.OpenAIModelName)

	f.run(t, f.model.waitForNotification())
	assert.Contains(t, f.model.View(), services.SettingsSavedMessage)
}

func TestModel_KeyInputMasking(t *testing.T) {
	f := newUIFixture(t)
	f.openSettings(t)

	f.key(t, tea.KeyTab)
	f.key(t, tea.KeyTab)
	f.typeText(t, "sk-test")

	draft, ok := f.form.Draft()
	require.True(t, ok)
	require.NotNil(t, draft.OpenAIAPIKey)
	assert.Equal(t, "sk-test", *draft.OpenAIAPIKey)
	assert.Equal(t, textinput.EchoPassword, f.model.settings.keyInput.EchoMode)
	assert.True(t, f.form.Masked(models.ProviderOpenAI))

	f.key(t, tea.KeyCtrlR)
	assert.Equal(t, textinput.EchoNormal, f.model.settings.keyInput.EchoMode)
	assert.False(t, f.form.Masked(models.ProviderOpenAI))

	// Switching provider shows the other group's key.
	f.key(t, tea.KeyShiftTab)
	f.key(t, tea.KeyShiftTab)
	f.key(t, tea.KeyRight)
	assert.Equal(t, "", f.model.settings.keyInput.Value())
	f.key(t, tea.KeyLeft)
	assert.Equal(t, "sk-test", f.model.settings.keyInput.Value())
}

func TestModel_ChatSendAndReply(t *testing.T) {
	f := newUIFixture(t)

	f.typeText(t, "hello")
	cmd := f.key(t, tea.KeyEnter)
	assert.Contains(t, f.model.View(), "Thinking...")
	f.run(t, cmd)

	view := f.model.View()
	assert.NotContains(t, view, "Thinking...")
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "Assistant:")
	assert.Equal(t, "", f.model.chat.input.Value())
}

func TestModel_ChatFailureRestoresPrompt(t *testing.T) {
	f := newUIFixture(t)
	f.llm.GenerateFunc = func(context.Context, []*schema.Message) (*schema.Message, error) {
		return nil, assert.AnError
	}

	f.typeText(t, "hello")
	f.run(t, f.key(t, tea.KeyEnter))

	assert.Contains(t, f.model.View(), "Error:")
	assert.Equal(t, "hello", f.model.chat.input.Value())

	f.run(t, f.model.waitForNotification())
	assert.Contains(t, f.model.View(), assert.AnError.Error())
}

func TestModel_ThreadKeys(t *testing.T) {
	f := newUIFixture(t)

	f.typeText(t, "first")
	f.run(t, f.key(t, tea.KeyEnter))
	f.key(t, tea.KeyCtrlN)
	require.Len(t, f.chat.Threads(), 2)

	f.key(t, tea.KeyTab)
	th, ok := f.chat.ActiveThread()
	require.True(t, ok)
	assert.Equal(t, "first", th.Title)

	f.key(t, tea.KeyCtrlX)
	assert.Len(t, f.chat.Threads(), 1)
}

func TestModel_Quit(t *testing.T) {
	f := newUIFixture(t)
	cmd := f.key(t, tea.KeyCtrlQ)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWrapIndex(t *testing.T) {
	assert.Equal(t, 0, wrapIndex(-1, 1, 3))
	assert.Equal(t, 2, wrapIndex(-1, -1, 3))
	assert.Equal(t, 0, wrapIndex(2, 1, 3))
	assert.Equal(t, 2, wrapIndex(0, -1, 3))
}

func TestRenderMarkdown(t *testing.T) {
	assert.Equal(t, "", renderMarkdown(""))
	assert.Contains(t, renderMarkdown("**bold** reply"), "bold")
}

func TestModel_ToolSelectorTogglesTools(t *testing.T) {
	f := newUIFixture(t)
	f.chat.RegisterTools([]*schema.ToolInfo{
		{Name: "read_page", Desc: "Read the page"},
		{Name: "click", Desc: "Click an element"},
	})

	f.key(t, tea.KeyCtrlT)
	require.True(t, f.model.chat.tools.open)
	assert.Contains(t, f.model.View(), "Tools (2/2 enabled)")

	f.key(t, tea.KeyDown)
	f.key(t, tea.KeyEnter)
	enabled := f.chat.EnabledTools()
	require.Len(t, enabled, 1)
	assert.Equal(t, "read_page", enabled[0].Name)
	assert.Contains(t, f.model.View(), "Tools (1/2 enabled)")

	// Typing while the selector is open does not reach the prompt.
	f.typeText(t, "x")
	assert.Equal(t, "", f.model.chat.input.Value())

	f.key(t, tea.KeyEsc)
	assert.False(t, f.model.chat.tools.open)
	assert.Equal(t, RouteChat, f.model.Route())

	f.typeText(t, "summarize")
	f.run(t, f.key(t, tea.KeyEnter))
	require.Len(t, f.llm.Tools, 1)
	assert.Equal(t, "read_page", f.llm.Tools[0].Name)
}

func TestModel_ToolSelectorEmpty(t *testing.T) {
	f := newUIFixture(t)
	f.key(t, tea.KeyCtrlT)
	f.key(t, tea.KeyEnter)
	assert.Contains(t, f.model.View(), "No tools registered.")
	f.key(t, tea.KeyCtrlT)
	assert.False(t, f.model.chat.tools.open)
}

func TestNew_RegistersOptionTools(t *testing.T) {
	store := services.NewModelConfigStore(&mocks.ModelConfigRepositoryMock{}, services.ModelConfigStoreOptions{})
	catalog := services.NewModelCatalogService()
	require.NoError(t, catalog.Startup())
	form := services.NewSettingsForm(store, catalog, nil)
	chat := services.NewChatService(store, nil, services.ChatOptions{})

	m := New(context.Background(), Options{
		Form:    form,
		Catalog: catalog,
		Chat:    chat,
		Tools:   []*schema.ToolInfo{{Name: "read_page"}},
	})
	defer m.Close()
	require.Len(t, chat.Tools(), 1)
	assert.True(t, chat.Tools()[0].Enabled)
}

func TestChatView_ThreadErrorsAreShown(t *testing.T) {
	f := newUIFixture(t)
	f.chat.NewThread()
	v := f.model.chat

	v = v.switchThread("gone")
	assert.ErrorIs(t, v.err, services.ErrThreadNotFound)
	assert.Contains(t, v.view(), "Error:")

	v = v.deleteThread("gone")
	assert.ErrorIs(t, v.err, services.ErrThreadNotFound)

	th, ok := f.chat.ActiveThread()
	require.True(t, ok)
	v = v.deleteThread(th.ID)
	assert.NoError(t, v.err)
}
