package mocks

import (
	"context"
	"sync"

	"sidepanel/internal/models"
)

// ModelConfigRepositoryMock keeps the record in memory unless a func field overrides a method.
type ModelConfigRepositoryMock struct {
	LoadFunc  func(ctx context.Context) (*models.ModelConfig, error)
	SaveFunc  func(ctx context.Context, cfg models.ModelConfig) error
	ClearFunc func(ctx context.Context) error

	mu     sync.Mutex
	Stored *models.ModelConfig
	Saves  int
}

func (m *ModelConfigRepositoryMock) Load(ctx context.Context) (*models.ModelConfig, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Stored == nil {
		return nil, nil
	}
	cfg := m.Stored.Clone()
	return &cfg, nil
}

func (m *ModelConfigRepositoryMock) Save(ctx context.Context, cfg models.ModelConfig) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, cfg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := cfg.Clone()
	m.Stored = &stored
	m.Saves++
	return nil
}

func (m *ModelConfigRepositoryMock) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stored = nil
	return nil
}
