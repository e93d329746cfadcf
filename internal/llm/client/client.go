package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"sidepanel/internal/models"
)

var (
	ErrMissingAPIKey = errors.New("API key is not configured")
	ErrMissingModel  = errors.New("model name is not configured")
)

const defaultMaxTokens = 4096

const defaultFallbackUserMessage = "Continue the conversation."

// Options tunes the transport built for a request.
type Options struct {
	// MaxTokens caps Claude replies, where the limit is mandatory.
	MaxTokens int
	// BaseURL overrides the provider endpoint, e.g. for a proxy.
	BaseURL string
}

// NewChatModel builds a tool-calling chat model for the active provider of cfg.
func NewChatModel(ctx context.Context, cfg models.ModelConfig, opts Options) (model.ToolCallingChatModel, error) {
	provider := cfg.ModelProvider
	modelName := strings.TrimSpace(models.GetModelName(cfg))
	apiKey := strings.TrimSpace(models.GetAPIKey(cfg))
	if modelName == "" {
		return nil, fmt.Errorf("%s: %w", provider.DisplayName(), ErrMissingModel)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", provider.DisplayName(), ErrMissingAPIKey)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	switch provider {
	case models.ProviderOpenAI:
		return NewOpenAIModel(ctx, apiKey, modelName, opts)
	case models.ProviderAnthropic:
		return NewClaudeModel(ctx, apiKey, modelName, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func NewOpenAIModel(ctx context.Context, key, modelName string, opts Options) (model.ToolCallingChatModel, error) {
	cfg := &openai.ChatModelConfig{
		APIKey: key,
		Model:  modelName,
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		log.Printf("Error creating OpenAI client: %v", err)
		return nil, err
	}
	return chatModel, nil
}

func NewClaudeModel(ctx context.Context, key, modelName string, opts Options) (model.ToolCallingChatModel, error) {
	cfg := &claude.Config{
		APIKey:    key,
		Model:     modelName,
		MaxTokens: opts.MaxTokens,
	}
	if opts.BaseURL != "" {
		baseURL := opts.BaseURL
		cfg.BaseURL = &baseURL
	}

	chatModel, err := claude.NewChatModel(ctx, cfg)
	if err != nil {
		log.Printf("Error creating Claude client: %v", err)
		return nil, err
	}
	return chatModel, nil
}

// PrepareMessages prepends the system prompt and makes sure the first
// non-system message is from the user, which both providers require.
func PrepareMessages(systemPrompt string, history []*schema.Message) []*schema.Message {
	normalized, _ := normalizeConversationHistory(history, "")
	if strings.TrimSpace(systemPrompt) == "" {
		return normalized
	}
	out := make([]*schema.Message, 0, len(normalized)+1)
	out = append(out, schema.SystemMessage(systemPrompt))
	for _, m := range normalized {
		if m.Role == schema.System {
			continue
		}
		out = append(out, m)
	}
	return out
}

// normalizeConversationHistory drops assistant turns that precede the first
// user message, or inserts fallback as a user turn when there is none.
func normalizeConversationHistory(history []*schema.Message, fallback string) ([]*schema.Message, bool) {
	first := 0
	for first < len(history) && history[first] != nil && history[first].Role == schema.System {
		first++
	}
	userAt := -1
	for i := first; i < len(history); i++ {
		if history[i] != nil && history[i].Role == schema.User {
			userAt = i
			break
		}
	}
	if userAt == first {
		return history, false
	}

	out := make([]*schema.Message, 0, len(history)+1)
	out = append(out, history[:first]...)
	if userAt > first {
		return append(out, history[userAt:]...), true
	}

	if strings.TrimSpace(fallback) == "" {
		fallback = defaultFallbackUserMessage
	}
	out = append(out, schema.UserMessage(fallback))
	return append(out, history[first:]...), true
}
