package mocks

import (
	"sync"

	"sidepanel/internal/services"
)

// SecretVaultMock is an in-memory services.SecretVault. StoreErr and
// DeleteErr, when set, fail the matching calls.
type SecretVaultMock struct {
	mu        sync.Mutex
	Keys      map[string]string
	StoreErr  error
	DeleteErr error
	GetErr    error
}

func NewSecretVaultMock() *SecretVaultMock {
	return &SecretVaultMock{Keys: make(map[string]string)}
}

func (m *SecretVaultMock) GetApiKey(provider string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", m.GetErr
	}
	key, ok := m.Keys[provider]
	if !ok {
		return "", services.ErrApiKeyNotFound
	}
	return key, nil
}

func (m *SecretVaultMock) StoreApiKey(provider string, apiKey []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreErr != nil {
		return m.StoreErr
	}
	m.Keys[provider] = string(apiKey)
	return nil
}

func (m *SecretVaultMock) DeleteApiKey(provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.Keys[provider]; !ok {
		return services.ErrApiKeyNotFound
	}
	delete(m.Keys, provider)
	return nil
}
