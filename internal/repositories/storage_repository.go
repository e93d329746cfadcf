package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sidepanel/internal/models"
)

// StorageRepository is a device-local key/value store. Items are grouped by
// a storage key and addressed by an item key, mirroring browser local storage.
type StorageRepository interface {
	Get(ctx context.Context, storageKey, itemKey string) (*models.StorageEntry, error)
	Put(ctx context.Context, entry *models.StorageEntry) error
	Delete(ctx context.Context, storageKey, itemKey string) error
}

type storageRepository struct {
	db *gorm.DB
}

func NewStorageRepository(db *gorm.DB) StorageRepository {
	return &storageRepository{db: db}
}

// Get returns nil, nil when the item does not exist.
func (r *storageRepository) Get(ctx context.Context, storageKey, itemKey string) (*models.StorageEntry, error) {
	if storageKey == "" || itemKey == "" {
		return nil, fmt.Errorf("storage key and item key are required")
	}
	var entry models.StorageEntry
	err := r.db.WithContext(ctx).
		Where("storage_key = ? AND item_key = ?", storageKey, itemKey).
		Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Put inserts or replaces the item in a single transaction.
func (r *storageRepository) Put(ctx context.Context, entry *models.StorageEntry) error {
	if entry == nil {
		return fmt.Errorf("entry is required")
	}
	if entry.StorageKey == "" || entry.ItemKey == "" {
		return fmt.Errorf("storage key and item key are required")
	}
	entry.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}, {Name: "item_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(entry).Error
	})
}

func (r *storageRepository) Delete(ctx context.Context, storageKey, itemKey string) error {
	if storageKey == "" || itemKey == "" {
		return fmt.Errorf("storage key and item key are required")
	}
	return r.db.WithContext(ctx).
		Where("storage_key = ? AND item_key = ?", storageKey, itemKey).
		Delete(&models.StorageEntry{}).Error
}
