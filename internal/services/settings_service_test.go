package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidepanel/internal/events"
	"sidepanel/internal/models"
	"sidepanel/internal/services"
	"sidepanel/internal/tests/mocks"
)

type settingsFixture struct {
	repo  *mocks.ModelConfigRepositoryMock
	store *services.ModelConfigStore
	bus   *events.Bus
	form  *services.SettingsForm
}

func newSettingsFixture(t *testing.T) *settingsFixture {
	t.Helper()
	repo := &mocks.ModelConfigRepositoryMock{}
	store := services.NewModelConfigStore(repo, services.ModelConfigStoreOptions{})
	catalog := services.NewModelCatalogService()
	require.NoError(t, catalog.Startup())
	bus := events.NewBus(10, false)
	form := services.NewSettingsForm(store, catalog, bus)
	t.Cleanup(form.Close)
	return &settingsFixture{repo: repo, store: store, bus: bus, form: form}
}

func TestSettingsForm_NotLoaded(t *testing.T) {
	f := newSettingsFixture(t)

	assert.False(t, f.form.Loaded())
	_, ok := f.form.Draft()
	assert.False(t, ok)
	f.form.SetOpenAIModel("gpt-4o")
	assert.ErrorIs(t, f.form.Save(context.Background()), services.ErrSettingsNotLoaded)
}

func TestSettingsForm_DraftIsIndependentUntilSave(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()
	require.NoError(t, f.form.Load(ctx))

	require.NoError(t, f.form.SetProvider(models.ProviderAnthropic))
	f.form.SetAnthropicModel("claude-3-5-haiku-latest")

	stored, err := f.store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderOpenAI, stored.ModelProvider)

	require.NoError(t, f.form.Save(ctx))

	stored, err = f.store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ModelConfig{
		ID:                 models.ModelConfigID,
		ModelProvider:      models.ProviderAnthropic,
		OpenAIModelName:    models.Ptr("gpt-4o-mini"),
		AnthropicModelName: models.Ptr("claude-3-5-haiku-latest"),
	}, stored)

	latest, ok := f.bus.Latest()
	require.True(t, ok)
	assert.Equal(t, events.EventSuccess, latest.Type)
	assert.Equal(t, services.SettingsSavedMessage, latest.Message)
}

func TestSettingsForm_ProviderSwitchKeepsOtherGroup(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()
	require.NoError(t, f.form.Load(ctx))

	f.form.SetOpenAIKey("sk-openai")
	require.NoError(t, f.form.SetProvider(models.ProviderAnthropic))
	f.form.SetAnthropicKey("sk-ant")
	require.NoError(t, f.form.SetProvider(models.ProviderOpenAI))

	draft, ok := f.form.Draft()
	require.True(t, ok)
	assert.Equal(t, "sk-openai", *draft.OpenAIAPIKey)
	assert.Equal(t, "sk-ant", *draft.AnthropicAPIKey)
	assert.Equal(t, "gpt-4o-mini", *draft.OpenAIModelName)
}

func TestSettingsForm_EmptyKeyClearsField(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()
	_, err := f.store.Update(ctx, models.ModelConfigPatch{OpenAIAPIKey: models.Value("sk-old")})
	require.NoError(t, err)
	require.NoError(t, f.form.Load(ctx))

	f.form.SetKey(models.ProviderOpenAI, "")
	require.NoError(t, f.form.Save(ctx))

	stored, err := f.store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored.OpenAIAPIKey)
}

func TestSettingsForm_FailedSaveRetainsDraft(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()
	require.NoError(t, f.form.Load(ctx))

	f.repo.SaveFunc = func(ctx context.Context, cfg models.ModelConfig) error { return errors.New("quota exceeded") }
	f.form.SetModel(models.ProviderOpenAI, "gpt-4.1")

	err := f.form.Save(ctx)
	assert.ErrorContains(t, err, "quota exceeded")

	draft, ok := f.form.Draft()
	require.True(t, ok)
	assert.Equal(t, "gpt-4.1", *draft.OpenAIModelName)

	stored, err := f.store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", *stored.OpenAIModelName)

	latest, ok := f.bus.Latest()
	require.True(t, ok)
	assert.Equal(t, events.EventError, latest.Type)

	f.repo.SaveFunc = nil
	assert.NoError(t, f.form.Save(ctx))
}

func TestSettingsForm_FollowsStoreChanges(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()
	require.NoError(t, f.form.Load(ctx))

	_, err := f.store.Update(ctx, models.ModelConfigPatch{ModelProvider: models.Value(models.ProviderAnthropic)})
	require.NoError(t, err)
	assert.Equal(t, models.ProviderAnthropic, f.form.Provider())

	f.form.Close()
	_, err = f.store.Update(ctx, models.ModelConfigPatch{ModelProvider: models.Value(models.ProviderOpenAI)})
	require.NoError(t, err)
	assert.Equal(t, models.ProviderAnthropic, f.form.Provider())
}

func TestSettingsForm_MaskAndDisplay(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()
	require.NoError(t, f.form.Load(ctx))
	f.form.SetOpenAIKey("sk-abc")

	assert.True(t, f.form.Masked(models.ProviderOpenAI))
	assert.Equal(t, "••••••", f.form.DisplayKey(models.ProviderOpenAI))

	assert.False(t, f.form.ToggleMask(models.ProviderOpenAI))
	assert.Equal(t, "sk-abc", f.form.DisplayKey(models.ProviderOpenAI))
	assert.True(t, f.form.Masked(models.ProviderAnthropic))

	assert.Equal(t, "gpt-4o-mini", f.form.DisplayModel(models.ProviderOpenAI))
	assert.Equal(t, "claude-sonnet-4-20250514", f.form.DisplayModel(models.ProviderAnthropic))

	assert.Error(t, f.form.SetProvider(models.Provider("cohere")))
}

type countingSource struct {
	*services.ModelConfigStore
	subscribes atomic.Int32
}

func (c *countingSource) Subscribe(listener services.ModelConfigListener) func() {
	c.subscribes.Add(1)
	return c.ModelConfigStore.Subscribe(listener)
}

func TestSettingsForm_ConcurrentLoadsSubscribeOnce(t *testing.T) {
	src := &countingSource{ModelConfigStore: services.NewModelConfigStore(&mocks.ModelConfigRepositoryMock{}, services.ModelConfigStoreOptions{})}
	form := services.NewSettingsForm(src, services.NewModelCatalogService(), nil)
	t.Cleanup(form.Close)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, form.Load(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.subscribes.Load())

	form.Close()
	require.NoError(t, form.Load(ctx))
	assert.Equal(t, int32(2), src.subscribes.Load(), "a load after close subscribes again")
}
