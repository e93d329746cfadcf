package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"sidepanel/internal/models"
)

type ModelConfigRepository interface {
	Load(ctx context.Context) (*models.ModelConfig, error)
	Save(ctx context.Context, cfg models.ModelConfig) error
	Clear(ctx context.Context) error
}

type modelConfigRepository struct {
	storage    StorageRepository
	storageKey string
}

// NewModelConfigRepository stores the singleton record as JSON under
// storageKey. An empty storageKey uses models.ModelConfigStorageKey.
func NewModelConfigRepository(storage StorageRepository, storageKey string) ModelConfigRepository {
	if storageKey == "" {
		storageKey = models.ModelConfigStorageKey
	}
	return &modelConfigRepository{storage: storage, storageKey: storageKey}
}

// Load returns nil, nil when no record has been saved yet.
func (r *modelConfigRepository) Load(ctx context.Context) (*models.ModelConfig, error) {
	entry, err := r.storage.Get(ctx, r.storageKey, models.ModelConfigItemKey)
	if err != nil {
		return nil, fmt.Errorf("load model config: %w", err)
	}
	if entry == nil {
		return nil, nil
	}
	var cfg models.ModelConfig
	if err := json.Unmarshal([]byte(entry.Data), &cfg); err != nil {
		return nil, fmt.Errorf("decode model config: %w", err)
	}
	cfg.ID = models.ModelConfigID
	return &cfg, nil
}

func (r *modelConfigRepository) Save(ctx context.Context, cfg models.ModelConfig) error {
	cfg.ID = models.ModelConfigID
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode model config: %w", err)
	}
	if err := r.storage.Put(ctx, &models.StorageEntry{
		StorageKey: r.storageKey,
		ItemKey:    models.ModelConfigItemKey,
		Data:       string(data),
	}); err != nil {
		return fmt.Errorf("save model config: %w", err)
	}
	return nil
}

func (r *modelConfigRepository) Clear(ctx context.Context) error {
	if err := r.storage.Delete(ctx, r.storageKey, models.ModelConfigItemKey); err != nil {
		return fmt.Errorf("clear model config: %w", err)
	}
	return nil
}
