package services

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/99designs/keyring"
)

const serviceName = "sidepanel"

func GetOS() string {
	return runtime.GOOS
}

type KeyringConfig struct {
	ServiceName  string
	Backends     []string
	FileDir      string
	FilePassword string
}

// KeyringService stores provider API keys in the OS keyring.
type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

// OpenKeyringService opens the platform keyring restricted to cfg.Backends.
func OpenKeyringService(cfg KeyringConfig) (*KeyringService, error) {
	name := cfg.ServiceName
	if name == "" {
		name = serviceName
	}
	kcfg := keyring.Config{
		ServiceName:              name,
		KeychainTrustApplication: true,
		FileDir:                  cfg.FileDir,
	}
	if kcfg.FileDir == "" {
		kcfg.FileDir = "~/.config/" + name + "/keys"
	}
	if cfg.FilePassword != "" {
		kcfg.FilePasswordFunc = keyring.FixedStringPrompt(cfg.FilePassword)
	}
	for _, b := range cfg.Backends {
		kcfg.AllowedBackends = append(kcfg.AllowedBackends, keyring.BackendType(b))
	}

	ring, err := keyring.Open(kcfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring on %s: %w", GetOS(), err)
	}
	return NewKeyringService(ring), nil
}

func (s *KeyringService) StoreApiKey(provider string, apiKey []byte) error {
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	if provider == "" {
		return errors.New("provider is required")
	}

	return s.ring.Set(keyring.Item{
		Key:         provider,
		Data:        apiKey,
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by the side panel",
	})
}

func (s *KeyringService) GetApiKey(provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}
	item, err := s.ring.Get(provider)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrApiKeyNotFound
		}
		return "", err
	}
	return string(item.Data), nil
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	if err := s.ring.Remove(provider); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return ErrApiKeyNotFound
		}
		return err
	}
	return nil
}

func (s *KeyringService) ListApiKeys() ([]map[string]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	results := make([]map[string]string, 0, len(keys))
	for _, provider := range keys {
		results = append(results, map[string]string{
			"provider":    provider,
			"label":       provider + " API key",
			"description": "API key for " + provider + " used by the side panel",
		})
	}
	return results, nil
}
