// Package config loads the side panel's application settings.
//
// Settings come from an optional TOML file; every key is optional and
// missing keys keep their built-in default.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"sidepanel/internal/models"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "sidepanel.toml"

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Secrets SecretsConfig `toml:"secrets"`
	Env     EnvConfig     `toml:"env"`
	Chat    ChatConfig    `toml:"chat"`
}

type StorageConfig struct {
	// DatabasePath is the SQLite file; empty uses the build's default location.
	DatabasePath string `toml:"database_path"`
	// StorageKey namespaces the model config record.
	StorageKey string `toml:"storage_key"`
}

type SecretsConfig struct {
	// UseKeyring moves API keys out of the database into the OS keyring.
	UseKeyring bool `toml:"use_keyring"`
	// Backends restricts keyring backends, e.g. ["keychain", "secret-service", "file"].
	Backends    []string `toml:"backends"`
	ServiceName string   `toml:"service_name"`
	// FileDir and FilePassword configure the encrypted file backend.
	FileDir      string `toml:"file_dir"`
	FilePassword string `toml:"file_password"`
}

type EnvConfig struct {
	// DotenvPath is loaded in development builds only. Empty searches the project root.
	DotenvPath string `toml:"dotenv_path"`
}

type ChatConfig struct {
	MaxTokens    int    `toml:"max_tokens"`
	SystemPrompt string `toml:"system_prompt"`
	BaseURL      string `toml:"base_url"`
	// Tools are offered in the tool selector and bound to the model when enabled.
	Tools []ToolConfig `toml:"tools"`
}

type ToolConfig struct {
	Name        string            `toml:"name"`
	Description string            `toml:"description"`
	Params      []ToolParamConfig `toml:"params"`
}

type ToolParamConfig struct {
	Name        string `toml:"name"`
	Type        string `toml:"type"`
	Description string `toml:"description"`
	Required    bool   `toml:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			StorageKey: models.ModelConfigStorageKey,
		},
		Secrets: SecretsConfig{
			ServiceName: "sidepanel",
		},
		Chat: ChatConfig{
			MaxTokens:    4096,
			SystemPrompt: "You are a helpful assistant running in a browser side panel. Use the enabled tools when they help answer the user.",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Printf("config: ignoring unknown key %q in %s", key.String(), path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.StorageKey) == "" {
		return errors.New("storage.storage_key must not be empty")
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat.max_tokens must be positive, got %d", c.Chat.MaxTokens)
	}
	if c.Secrets.UseKeyring && strings.TrimSpace(c.Secrets.ServiceName) == "" {
		return errors.New("secrets.service_name is required when use_keyring is set")
	}
	seen := make(map[string]bool, len(c.Chat.Tools))
	for i, tool := range c.Chat.Tools {
		name := strings.TrimSpace(tool.Name)
		if name == "" {
			return fmt.Errorf("chat.tools[%d].name must not be empty", i)
		}
		if seen[name] {
			return fmt.Errorf("chat.tools: duplicate tool %q", name)
		}
		seen[name] = true
		for _, param := range tool.Params {
			switch param.Type {
			case "", "string", "integer", "number", "boolean", "object", "array":
			default:
				return fmt.Errorf("chat.tools %q: param %q has unsupported type %q", name, param.Name, param.Type)
			}
		}
	}
	return nil
}
