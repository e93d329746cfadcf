package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"sidepanel/internal/models"
	"sidepanel/internal/repositories"
)

// ModelConfigListener receives the record after every successful change.
type ModelConfigListener func(cfg models.ModelConfig)

// SecretVault keeps provider API keys outside the persisted record.
type SecretVault interface {
	GetApiKey(provider string) (string, error)
	StoreApiKey(provider string, apiKey []byte) error
	DeleteApiKey(provider string) error
}

// ErrApiKeyNotFound is returned by a SecretVault holding no key for a provider.
var ErrApiKeyNotFound = errors.New("api key not found")

type ModelConfigStoreOptions struct {
	// Seed builds the record used when storage is empty. Defaults to BaseDefaults.
	Seed func() models.ModelConfig
	// Vault, when set, stores API keys instead of the record row.
	Vault SecretVault
}

// ModelConfigStore owns the singleton model configuration. Reads are served
// from memory; updates are persisted before the in-memory record changes and
// subscribers are notified synchronously afterwards.
type ModelConfigStore struct {
	repo  repositories.ModelConfigRepository
	vault SecretVault
	seed  func() models.ModelConfig

	mu      sync.RWMutex
	current *models.ModelConfig

	// notifyMu keeps notifications in update order. Listeners must not call
	// Update or Reset synchronously.
	notifyMu    sync.Mutex
	listenersMu sync.Mutex
	listeners   map[int]ModelConfigListener
	nextID      int
}

func NewModelConfigStore(repo repositories.ModelConfigRepository, opts ModelConfigStoreOptions) *ModelConfigStore {
	seed := opts.Seed
	if seed == nil {
		seed = BaseDefaults
	}
	return &ModelConfigStore{
		repo:      repo,
		vault:     opts.Vault,
		seed:      seed,
		listeners: make(map[int]ModelConfigListener),
	}
}

// Startup loads the record, seeding and persisting the default when absent.
func (s *ModelConfigStore) Startup(ctx context.Context) error {
	_, err := s.Get(ctx)
	return err
}

// Get returns a copy of the current record. The first call on empty storage
// seeds the default record.
func (s *ModelConfigStore) Get(ctx context.Context) (models.ModelConfig, error) {
	s.mu.RLock()
	if s.current != nil {
		cfg := s.current.Clone()
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		cfg, err := s.load(ctx)
		if err != nil {
			return models.ModelConfig{}, err
		}
		s.current = &cfg
	}
	return s.current.Clone(), nil
}

// must hold s.mu
func (s *ModelConfigStore) load(ctx context.Context) (models.ModelConfig, error) {
	stored, err := s.repo.Load(ctx)
	if err != nil {
		return models.ModelConfig{}, err
	}
	if stored != nil {
		cfg := stored.Clone()
		if err := s.readSecrets(&cfg); err != nil {
			return models.ModelConfig{}, err
		}
		return cfg, nil
	}

	cfg := s.seed()
	cfg.ID = models.ModelConfigID
	if !cfg.ModelProvider.Valid() {
		cfg.ModelProvider = models.ProviderOpenAI
	}
	if err := s.persist(ctx, nil, cfg); err != nil {
		// Still usable in memory; the next successful update persists it.
		log.Printf("model config: failed to persist seeded defaults: %v", err)
	}
	return cfg, nil
}

// Update merges patch into the record. On failure the error is returned and
// the record is left as it was.
func (s *ModelConfigStore) Update(ctx context.Context, patch models.ModelConfigPatch) (models.ModelConfig, error) {
	if err := patch.Validate(); err != nil {
		return models.ModelConfig{}, fmt.Errorf("invalid model config patch: %w", err)
	}

	s.mu.Lock()
	if s.current == nil {
		cfg, err := s.load(ctx)
		if err != nil {
			s.mu.Unlock()
			return models.ModelConfig{}, err
		}
		s.current = &cfg
	}
	prev := s.current.Clone()
	next := prev.Merge(patch)
	next.ID = models.ModelConfigID

	if err := s.persist(ctx, &prev, next); err != nil {
		s.mu.Unlock()
		return models.ModelConfig{}, err
	}
	s.current = &next
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.notify(next)
	s.notifyMu.Unlock()
	return next.Clone(), nil
}

// Reset replaces the record with a freshly seeded default.
func (s *ModelConfigStore) Reset(ctx context.Context) (models.ModelConfig, error) {
	s.mu.Lock()
	var prev *models.ModelConfig
	if s.current != nil {
		p := s.current.Clone()
		prev = &p
	}
	next := s.seed()
	next.ID = models.ModelConfigID
	if !next.ModelProvider.Valid() {
		next.ModelProvider = models.ProviderOpenAI
	}
	if err := s.persist(ctx, prev, next); err != nil {
		s.mu.Unlock()
		return models.ModelConfig{}, err
	}
	s.current = &next
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.notify(next)
	s.notifyMu.Unlock()
	return next.Clone(), nil
}

// Subscribe registers listener and returns an idempotent unsubscribe function.
func (s *ModelConfigStore) Subscribe(listener ModelConfigListener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *ModelConfigStore) notify(cfg models.ModelConfig) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]ModelConfigListener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(cfg.Clone())
	}
}

// persist writes next. Without a vault this is one row write. With a vault
// the keys are written first and restored to prev when the row write fails.
func (s *ModelConfigStore) persist(ctx context.Context, prev *models.ModelConfig, next models.ModelConfig) error {
	if s.vault == nil {
		return s.repo.Save(ctx, next)
	}

	var before models.ModelConfig
	if prev != nil {
		before = *prev
	} else if err := s.readSecrets(&before); err != nil {
		// No known record: whatever the vault holds is replaced by next.
		return err
	}
	written, err := s.writeSecrets(before, next)
	if err != nil {
		s.restoreSecrets(before, written)
		return err
	}

	row := next.Clone()
	row.OpenAIAPIKey = nil
	row.AnthropicAPIKey = nil
	if err := s.repo.Save(ctx, row); err != nil {
		s.restoreSecrets(before, written)
		return err
	}
	return nil
}

func (s *ModelConfigStore) readSecrets(cfg *models.ModelConfig) error {
	if s.vault == nil {
		return nil
	}
	for _, p := range models.Providers {
		key, err := s.vault.GetApiKey(string(p))
		switch {
		case errors.Is(err, ErrApiKeyNotFound):
			continue
		case err != nil:
			return fmt.Errorf("read %s api key: %w", p, err)
		}
		// A key still present in the row predates the vault and is superseded.
		setAPIKey(cfg, p, models.Ptr(key))
	}
	return nil
}

func (s *ModelConfigStore) writeSecrets(prev, next models.ModelConfig) ([]models.Provider, error) {
	var written []models.Provider
	for _, p := range models.Providers {
		oldKey, newKey := apiKeyPtr(prev, p), apiKeyPtr(next, p)
		var err error
		switch {
		case newKey != nil && *newKey != "":
			// Written even when unchanged so keys loaded from a legacy row move into the vault.
			err = s.vault.StoreApiKey(string(p), []byte(*newKey))
		case oldKey != nil:
			err = s.vault.DeleteApiKey(string(p))
			if errors.Is(err, ErrApiKeyNotFound) {
				err = nil
			}
		default:
			continue
		}
		if err != nil {
			return written, fmt.Errorf("write %s api key: %w", p, err)
		}
		written = append(written, p)
	}
	return written, nil
}

func (s *ModelConfigStore) restoreSecrets(prev models.ModelConfig, written []models.Provider) {
	for _, p := range written {
		var err error
		if key := apiKeyPtr(prev, p); key != nil && *key != "" {
			err = s.vault.StoreApiKey(string(p), []byte(*key))
		} else {
			err = s.vault.DeleteApiKey(string(p))
		}
		if err != nil && !errors.Is(err, ErrApiKeyNotFound) {
			log.Printf("model config: failed to restore %s api key: %v", p, err)
		}
	}
}

func apiKeyPtr(cfg models.ModelConfig, p models.Provider) *string {
	if p == models.ProviderOpenAI {
		return cfg.OpenAIAPIKey
	}
	return cfg.AnthropicAPIKey
}

func setAPIKey(cfg *models.ModelConfig, p models.Provider, key *string) {
	if p == models.ProviderOpenAI {
		cfg.OpenAIAPIKey = key
		return
	}
	cfg.AnthropicAPIKey = key
}

