package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"sidepanel/internal/events"
	"sidepanel/internal/models"
)

// ModelConfigSource is the part of ModelConfigStore the UI surfaces use.
type ModelConfigSource interface {
	Get(ctx context.Context) (models.ModelConfig, error)
	Update(ctx context.Context, patch models.ModelConfigPatch) (models.ModelConfig, error)
	Subscribe(listener ModelConfigListener) func()
}

var ErrSettingsNotLoaded = errors.New("settings are not loaded")

const SettingsSavedMessage = "Settings saved successfully!"

// SettingsForm holds an uncommitted draft of the model config. Edits stay in
// the draft until Save; a change to the stored record replaces the draft.
type SettingsForm struct {
	store    ModelConfigSource
	catalog  ModelCatalogService
	notifier events.Notifier

	mu          sync.Mutex
	draft       *models.ModelConfig
	unmasked    map[models.Provider]bool
	unsubscribe func()
}

func NewSettingsForm(store ModelConfigSource, catalog ModelCatalogService, notifier events.Notifier) *SettingsForm {
	if notifier == nil {
		notifier = events.Discard
	}
	return &SettingsForm{
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		unmasked: make(map[models.Provider]bool),
	}
}

// Load copies the stored record into the draft and follows later changes.
func (f *SettingsForm) Load(ctx context.Context) error {
	cfg, err := f.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = &cfg
	if f.unsubscribe != nil {
		return nil
	}
	// Subscribed under f.mu so concurrent loads register one listener. The
	// store never calls a listener from inside Subscribe.
	f.unsubscribe = f.store.Subscribe(func(cfg models.ModelConfig) {
		f.mu.Lock()
		f.draft = &cfg
		f.mu.Unlock()
	})
	return nil
}

// Close stops following the store.
func (f *SettingsForm) Close() {
	f.mu.Lock()
	unsubscribe := f.unsubscribe
	f.unsubscribe = nil
	f.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (f *SettingsForm) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft != nil
}

// Draft returns a copy of the draft; ok is false before Load.
func (f *SettingsForm) Draft() (cfg models.ModelConfig, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return models.ModelConfig{}, false
	}
	return f.draft.Clone(), true
}

func (f *SettingsForm) Provider() models.Provider {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return ""
	}
	return f.draft.ModelProvider
}

// SetProvider switches the edited field group; other values are kept.
func (f *SettingsForm) SetProvider(p models.Provider) error {
	if !p.Valid() {
		return fmt.Errorf("unsupported provider %q", p)
	}
	f.edit(func(d *models.ModelConfig) { d.ModelProvider = p })
	return nil
}

func (f *SettingsForm) SetOpenAIModel(name string) {
	f.edit(func(d *models.ModelConfig) { d.OpenAIModelName = models.Ptr(name) })
}

func (f *SettingsForm) SetAnthropicModel(name string) {
	f.edit(func(d *models.ModelConfig) { d.AnthropicModelName = models.Ptr(name) })
}

// SetOpenAIKey stores key in the draft; an empty key clears it.
func (f *SettingsForm) SetOpenAIKey(key string) {
	f.edit(func(d *models.ModelConfig) { d.OpenAIAPIKey = optional(key) })
}

// SetAnthropicKey stores key in the draft; an empty key clears it.
func (f *SettingsForm) SetAnthropicKey(key string) {
	f.edit(func(d *models.ModelConfig) { d.AnthropicAPIKey = optional(key) })
}

// SetModel sets the model of provider's field group.
func (f *SettingsForm) SetModel(p models.Provider, name string) {
	if p == models.ProviderOpenAI {
		f.SetOpenAIModel(name)
		return
	}
	f.SetAnthropicModel(name)
}

// SetKey sets the API key of provider's field group.
func (f *SettingsForm) SetKey(p models.Provider, key string) {
	if p == models.ProviderOpenAI {
		f.SetOpenAIKey(key)
		return
	}
	f.SetAnthropicKey(key)
}

// ToggleMask flips whether provider's key is shown in clear text.
func (f *SettingsForm) ToggleMask(p models.Provider) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unmasked[p] = !f.unmasked[p]
	return !f.unmasked[p]
}

func (f *SettingsForm) Masked(p models.Provider) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.unmasked[p]
}

// DisplayModel returns the draft's model for p, or the catalog default.
func (f *SettingsForm) DisplayModel(p models.Provider) string {
	f.mu.Lock()
	var name string
	if f.draft != nil {
		name = f.draft.ModelName(p)
	}
	f.mu.Unlock()
	if name == "" && f.catalog != nil {
		name = f.catalog.DefaultModel(p)
	}
	return name
}

// DisplayKey returns the draft's key for p, bulleted when masked.
func (f *SettingsForm) DisplayKey(p models.Provider) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return ""
	}
	key := f.draft.APIKey(p)
	if !f.unmasked[p] {
		return strings.Repeat("•", len([]rune(key)))
	}
	return key
}

// Save merges the whole draft into the store. On failure the draft is kept
// so the user can retry.
func (f *SettingsForm) Save(ctx context.Context) error {
	f.mu.Lock()
	if f.draft == nil {
		f.mu.Unlock()
		return ErrSettingsNotLoaded
	}
	draft := f.draft.Clone()
	f.mu.Unlock()

	if _, err := f.store.Update(ctx, models.PatchFrom(draft)); err != nil {
		f.notifier.Notify(ctx, events.NewError(events.SettingsSaveFailed, "Failed to save settings: "+err.Error()))
		return fmt.Errorf("save settings: %w", err)
	}
	f.notifier.Notify(ctx, events.NewSuccess(events.SettingsSaved, SettingsSavedMessage).
		WithMetadata("provider", string(draft.ModelProvider)))
	return nil
}

func (f *SettingsForm) edit(fn func(d *models.ModelConfig)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return
	}
	fn(f.draft)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return models.Ptr(s)
}
