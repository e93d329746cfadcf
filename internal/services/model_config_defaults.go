package services

import (
	"os"
	"strings"

	"sidepanel/internal/models"
)

// Environment variables read for development-mode seeding.
const (
	EnvModelProvider      = "MODEL_PROVIDER"
	EnvOpenAIModelName    = "OPENAI_MODEL_NAME"
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvAnthropicModelName = "ANTHROPIC_MODEL_NAME"
	EnvAnthropicAPIKey    = "ANTHROPIC_API_KEY"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// BaseDefaults is the record seeded outside development mode.
func BaseDefaults() models.ModelConfig {
	return models.ModelConfig{
		ID:              models.ModelConfigID,
		ModelProvider:   models.ProviderOpenAI,
		OpenAIModelName: models.Ptr("gpt-4o-mini"),
	}
}

// EnvDefaults overlays BaseDefaults with values from lookup. An unsupported
// provider falls back to the base provider; empty values count as unset.
func EnvDefaults(lookup LookupFunc) models.ModelConfig {
	cfg := BaseDefaults()
	if lookup == nil {
		return cfg
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvModelProvider); ok {
		if p := models.Provider(strings.ToLower(v)); p.Valid() {
			cfg.ModelProvider = p
		}
	}
	if v, ok := get(EnvOpenAIModelName); ok {
		cfg.OpenAIModelName = models.Ptr(v)
	}
	if v, ok := get(EnvOpenAIAPIKey); ok {
		cfg.OpenAIAPIKey = models.Ptr(v)
	}
	if v, ok := get(EnvAnthropicModelName); ok {
		cfg.AnthropicModelName = models.Ptr(v)
	}
	if v, ok := get(EnvAnthropicAPIKey); ok {
		cfg.AnthropicAPIKey = models.Ptr(v)
	}
	return cfg
}

// SeedDefaults picks environment defaults in development and static ones otherwise.
func SeedDefaults(development bool, lookup LookupFunc) models.ModelConfig {
	if development {
		return EnvDefaults(lookup)
	}
	return BaseDefaults()
}

// DefaultSeed returns the seed function used by the running binary.
func DefaultSeed(development bool) func() models.ModelConfig {
	return func() models.ModelConfig {
		return SeedDefaults(development, os.LookupEnv)
	}
}
