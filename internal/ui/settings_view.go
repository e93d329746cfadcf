package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"sidepanel/internal/models"
	"sidepanel/internal/services"
)

type settingsField int

const (
	fieldProvider settingsField = iota
	fieldModel
	fieldKey
	fieldCount
)

type settingsLoadedMsg struct{ err error }

type settingsSavedMsg struct{ err error }

// settingsView edits the draft held by a SettingsForm.
type settingsView struct {
	form    *services.SettingsForm
	catalog services.ModelCatalogService

	focus    settingsField
	keyInput textinput.Model
	loadErr  error
	saving   bool
}

func newSettingsView(form *services.SettingsForm, catalog services.ModelCatalogService) settingsView {
	ti := textinput.New()
	ti.Placeholder = "sk-..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 48
	return settingsView{form: form, catalog: catalog, keyInput: ti}
}

func (v settingsView) load(ctx context.Context) tea.Cmd {
	form := v.form
	return func() tea.Msg {
		return settingsLoadedMsg{err: form.Load(ctx)}
	}
}

func (v settingsView) save(ctx context.Context) tea.Cmd {
	form := v.form
	return func() tea.Msg {
		return settingsSavedMsg{err: form.Save(ctx)}
	}
}

func (v settingsView) update(ctx context.Context, msg tea.Msg) (settingsView, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		v.loadErr = msg.err
		v.syncInput()
		return v, nil

	case settingsSavedMsg:
		v.saving = false
		// A successful save replaces the draft through the store subscription.
		v.syncInput()
		return v, nil

	case tea.KeyMsg:
		if !v.form.Loaded() {
			return v, nil
		}
		return v.handleKey(ctx, msg)
	}
	return v, nil
}

func (v settingsView) handleKey(ctx context.Context, msg tea.KeyMsg) (settingsView, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Save):
		if v.saving {
			return v, nil
		}
		v.saving = true
		return v, v.save(ctx)

	case key.Matches(msg, keys.NextField):
		return v, v.setFocus((v.focus + 1) % fieldCount)

	case key.Matches(msg, keys.PrevField):
		return v, v.setFocus((v.focus + fieldCount - 1) % fieldCount)

	case key.Matches(msg, keys.ToggleMask):
		v.form.ToggleMask(v.form.Provider())
		v.syncInput()
		return v, nil
	}

	switch v.focus {
	case fieldProvider:
		if delta := arrowDelta(msg); delta != 0 {
			v.cycleProvider(delta)
		}
		return v, nil

	case fieldModel:
		if delta := arrowDelta(msg); delta != 0 {
			v.cycleModel(delta)
		}
		return v, nil

	case fieldKey:
		before := v.keyInput.Value()
		var cmd tea.Cmd
		v.keyInput, cmd = v.keyInput.Update(msg)
		if after := v.keyInput.Value(); after != before {
			v.form.SetKey(v.form.Provider(), after)
		}
		return v, cmd
	}
	return v, nil
}

func (v *settingsView) setFocus(f settingsField) tea.Cmd {
	v.focus = f
	if f == fieldKey {
		return v.keyInput.Focus()
	}
	v.keyInput.Blur()
	return nil
}

func (v *settingsView) cycleProvider(delta int) {
	current := slices.Index(models.Providers, v.form.Provider())
	next := wrapIndex(current, delta, len(models.Providers))
	if err := v.form.SetProvider(models.Providers[next]); err == nil {
		v.syncInput()
	}
}

func (v *settingsView) cycleModel(delta int) {
	p := v.form.Provider()
	list := v.catalog.ListModels(p)
	if len(list) == 0 {
		return
	}
	current := v.form.DisplayModel(p)
	idx := slices.IndexFunc(list, func(m models.LLMModel) bool { return m.APIName == current })
	v.form.SetModel(p, list[wrapIndex(idx, delta, len(list))].APIName)
}

// syncInput copies the draft key of the active provider into the input.
func (v *settingsView) syncInput() {
	p := v.form.Provider()
	draft, ok := v.form.Draft()
	if !ok {
		return
	}
	v.keyInput.SetValue(draft.APIKey(p))
	v.keyInput.CursorEnd()
	if v.form.Masked(p) {
		v.keyInput.EchoMode = textinput.EchoPassword
	} else {
		v.keyInput.EchoMode = textinput.EchoNormal
	}
}

func (v settingsView) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	if v.loadErr != nil {
		b.WriteString(errorStyle.Render("Failed to load settings: " + v.loadErr.Error()))
		b.WriteString("\n")
		return b.String()
	}
	if !v.form.Loaded() {
		b.WriteString(mutedStyle.Render("Loading settings..."))
		b.WriteString("\n")
		return b.String()
	}

	p := v.form.Provider()
	b.WriteString(v.row(fieldProvider, "Provider", "< "+p.DisplayName()+" >"))
	b.WriteString(v.row(fieldModel, "Model", "< "+v.form.DisplayModel(p)+" >"))

	keyValue := v.form.DisplayKey(p)
	if v.focus == fieldKey {
		keyValue = v.keyInput.View()
	} else if keyValue == "" {
		keyValue = mutedStyle.Render("not set")
	}
	b.WriteString(v.row(fieldKey, p.DisplayName()+" key", keyValue))

	save := "[ Save ]"
	if v.saving {
		save = "[ Saving... ]"
	}
	b.WriteString("\n" + save + "\n")
	b.WriteString(footerStyle.Render(helpLine(keys.NextField, keys.ToggleMask, keys.Save, keys.Back)))
	return b.String()
}

func (v settingsView) row(f settingsField, label, value string) string {
	marker := "  "
	if v.focus == f {
		marker = focusedStyle.Render("> ")
	}
	return fmt.Sprintf("%s%s %s\n", marker, labelStyle.Render(label), value)
}

func arrowDelta(msg tea.KeyMsg) int {
	switch {
	case key.Matches(msg, keys.Left):
		return -1
	case key.Matches(msg, keys.Right):
		return 1
	}
	return 0
}

// wrapIndex steps from current by delta modulo n. A current of -1 means no
// selection: stepping forward lands on the first item, backward on the last.
func wrapIndex(current, delta, n int) int {
	if current < 0 {
		if delta < 0 {
			return n - 1
		}
		return 0
	}
	return ((current+delta)%n + n) % n
}
