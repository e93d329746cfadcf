package services

import (
	"context"

	"sidepanel/internal/repositories"

	"gorm.io/gorm"
)

// DbServices aggregates all domain services backed by the database.
type DbServices struct {
	Storage      repositories.StorageRepository
	ModelConfigs *ModelConfigStore
}

// NewDbServices constructs the service container using repositories backed by db.
func NewDbServices(db *gorm.DB, storageKey string, opts ModelConfigStoreOptions) *DbServices {
	storageRepo := repositories.NewStorageRepository(db)
	modelConfigRepo := repositories.NewModelConfigRepository(storageRepo, storageKey)

	return &DbServices{
		Storage:      storageRepo,
		ModelConfigs: NewModelConfigStore(modelConfigRepo, opts),
	}
}

// StartDbServices loads or seeds the persisted records.
func (s *DbServices) StartDbServices(ctx context.Context) error {
	return s.ModelConfigs.Startup(ctx)
}
