package models

import (
	"encoding/json"
	"fmt"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Providers lists the supported providers in display order.
var Providers = []Provider{ProviderOpenAI, ProviderAnthropic}

func (p Provider) Valid() bool {
	return p == ProviderOpenAI || p == ProviderAnthropic
}

// DisplayName returns the label shown in the provider selector.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderAnthropic:
		return "Anthropic"
	default:
		return string(p)
	}
}

// ParseProvider accepts only the supported provider ids.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", fmt.Errorf("unsupported provider %q", s)
	}
	return p, nil
}

const (
	// ModelConfigID is the fixed id of the singleton record.
	ModelConfigID = "1"
	// ModelConfigStorageKey is the local storage namespace holding the record.
	ModelConfigStorageKey = "app-model-config"
	// ModelConfigItemKey addresses the record inside its storage namespace.
	ModelConfigItemKey = "singleton:modelConfig"
)

// ModelConfig is the single persisted provider configuration. Fields of the
// inactive provider are kept so that switching back restores them.
type ModelConfig struct {
	ID                 string   `json:"id"`
	ModelProvider      Provider `json:"modelProvider"`
	OpenAIModelName    *string  `json:"openaiModelName,omitempty"`
	OpenAIAPIKey       *string  `json:"openaiApiKey,omitempty"`
	AnthropicModelName *string  `json:"anthropicModelName,omitempty"`
	AnthropicAPIKey    *string  `json:"anthropicApiKey,omitempty"`
}

// Clone returns a copy that shares no pointers with c.
func (c ModelConfig) Clone() ModelConfig {
	return ModelConfig{
		ID:                 c.ID,
		ModelProvider:      c.ModelProvider,
		OpenAIModelName:    clonePtr(c.OpenAIModelName),
		OpenAIAPIKey:       clonePtr(c.OpenAIAPIKey),
		AnthropicModelName: clonePtr(c.AnthropicModelName),
		AnthropicAPIKey:    clonePtr(c.AnthropicAPIKey),
	}
}

// Merge overwrites the fields present in patch and returns the result.
// The receiver is not modified and the id is never patched.
func (c ModelConfig) Merge(patch ModelConfigPatch) ModelConfig {
	out := c.Clone()
	if patch.ModelProvider.Present && patch.ModelProvider.Value != nil {
		out.ModelProvider = *patch.ModelProvider.Value
	}
	patch.OpenAIModelName.apply(&out.OpenAIModelName)
	patch.OpenAIAPIKey.apply(&out.OpenAIAPIKey)
	patch.AnthropicModelName.apply(&out.AnthropicModelName)
	patch.AnthropicAPIKey.apply(&out.AnthropicAPIKey)
	return out
}

// ModelName returns the model name of the given provider's field group.
func (c ModelConfig) ModelName(p Provider) string {
	if p == ProviderOpenAI {
		return deref(c.OpenAIModelName)
	}
	return deref(c.AnthropicModelName)
}

// APIKey returns the API key of the given provider's field group.
func (c ModelConfig) APIKey(p Provider) string {
	if p == ProviderOpenAI {
		return deref(c.OpenAIAPIKey)
	}
	return deref(c.AnthropicAPIKey)
}

// GetModelName returns the model name of the active provider, or "" when unset.
func GetModelName(c ModelConfig) string {
	return c.ModelName(c.ModelProvider)
}

// GetAPIKey returns the API key of the active provider, or "" when unset.
func GetAPIKey(c ModelConfig) string {
	return c.APIKey(c.ModelProvider)
}

// ModelConfigPatch is a partial ModelConfig. Absent fields leave the record
// untouched, null fields clear it.
type ModelConfigPatch struct {
	ModelProvider      Field[Provider] `json:"modelProvider,omitzero"`
	OpenAIModelName    Field[string]   `json:"openaiModelName,omitzero"`
	OpenAIAPIKey       Field[string]   `json:"openaiApiKey,omitzero"`
	AnthropicModelName Field[string]   `json:"anthropicModelName,omitzero"`
	AnthropicAPIKey    Field[string]   `json:"anthropicApiKey,omitzero"`
}

// Validate rejects patches that would leave the record without a valid provider.
func (p ModelConfigPatch) Validate() error {
	if !p.ModelProvider.Present {
		return nil
	}
	if p.ModelProvider.Value == nil {
		return fmt.Errorf("modelProvider cannot be cleared")
	}
	if !p.ModelProvider.Value.Valid() {
		return fmt.Errorf("unsupported provider %q", *p.ModelProvider.Value)
	}
	return nil
}

// IsEmpty reports whether the patch touches no field.
func (p ModelConfigPatch) IsEmpty() bool {
	return !p.ModelProvider.Present &&
		!p.OpenAIModelName.Present &&
		!p.OpenAIAPIKey.Present &&
		!p.AnthropicModelName.Present &&
		!p.AnthropicAPIKey.Present
}

// PatchFrom builds a patch carrying every field of c, unset ones as null.
func PatchFrom(c ModelConfig) ModelConfigPatch {
	return ModelConfigPatch{
		ModelProvider:      Value(c.ModelProvider),
		OpenAIModelName:    fromPtr(c.OpenAIModelName),
		OpenAIAPIKey:       fromPtr(c.OpenAIAPIKey),
		AnthropicModelName: fromPtr(c.AnthropicModelName),
		AnthropicAPIKey:    fromPtr(c.AnthropicAPIKey),
	}
}

// Field is one optional entry of a patch.
type Field[T any] struct {
	Present bool
	Value   *T
}

// Value returns a field that sets v.
func Value[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: &v}
}

// Null returns a field that clears the target.
func Null[T any]() Field[T] {
	return Field[T]{Present: true}
}

func (f Field[T]) IsZero() bool {
	return !f.Present
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func (f Field[T]) apply(dst **T) {
	if !f.Present {
		return
	}
	*dst = clonePtr(f.Value)
}

func fromPtr(p *string) Field[string] {
	if p == nil {
		return Null[string]()
	}
	return Value(*p)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
