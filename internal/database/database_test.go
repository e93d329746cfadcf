package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"sidepanel/internal/models"
)

func TestInit_MigratesStorageEntries(t *testing.T) {
	db, err := Init(Config{Path: "file::memory:", LogLevel: logger.Silent})
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.StorageEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Close())
}

func TestDSN_AppendsPragmas(t *testing.T) {
	assert.Equal(t, "a.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dsn("a.db"))
	assert.Equal(t, "file::memory:?cache=shared&_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dsn("file::memory:?cache=shared"))
}
