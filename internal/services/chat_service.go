package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"sidepanel/internal/events"
	"sidepanel/internal/llm/client"
	"sidepanel/internal/models"
)

// ModelFactory builds the transport for one request from the current config.
type ModelFactory func(ctx context.Context, cfg models.ModelConfig) (model.ToolCallingChatModel, error)

// DefaultModelFactory builds eino OpenAI or Claude chat models.
func DefaultModelFactory(opts client.Options) ModelFactory {
	return func(ctx context.Context, cfg models.ModelConfig) (model.ToolCallingChatModel, error) {
		return client.NewChatModel(ctx, cfg, opts)
	}
}

type ModelConfigReader interface {
	Get(ctx context.Context) (models.ModelConfig, error)
}

var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrToolNotFound   = errors.New("tool not found")
	ErrEmptyMessage   = errors.New("message is empty")
)

const newThreadTitle = "New chat"

type Thread struct {
	ID        string
	Title     string
	Messages  []*schema.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ThreadSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Active       bool      `json:"active"`
}

type ToolState struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

type ChatOptions struct {
	SystemPrompt string
	Notifier     events.Notifier
}

// ChatService keeps the conversation threads and the tool selection, and
// sends prompts through a transport configured from the store at send time.
type ChatService struct {
	config       ModelConfigReader
	factory      ModelFactory
	systemPrompt string
	notifier     events.Notifier

	mu       sync.Mutex
	threads  map[string]*Thread
	activeID string

	tools     map[string]*schema.ToolInfo
	toolOrder []string
	enabled   map[string]bool
}

func NewChatService(config ModelConfigReader, factory ModelFactory, opts ChatOptions) *ChatService {
	if opts.Notifier == nil {
		opts.Notifier = events.Discard
	}
	return &ChatService{
		config:       config,
		factory:      factory,
		systemPrompt: opts.SystemPrompt,
		notifier:     opts.Notifier,
		threads:      make(map[string]*Thread),
		tools:        make(map[string]*schema.ToolInfo),
		enabled:      make(map[string]bool),
	}
}

// NewThread creates an empty thread and makes it active.
func (s *ChatService) NewThread() ThreadSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary(s.newThreadLocked())
}

func (s *ChatService) newThreadLocked() *Thread {
	now := time.Now()
	th := &Thread{ID: uuid.NewString(), Title: newThreadTitle, CreatedAt: now, UpdatedAt: now}
	s.threads[th.ID] = th
	s.activeID = th.ID
	return th
}

// Threads lists threads, most recently updated first.
func (s *ChatService) Threads() []ThreadSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ThreadSummary, 0, len(s.threads))
	for _, th := range s.threads {
		out = append(out, s.summary(th))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (s *ChatService) SwitchThread(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}
	s.activeID = id
	return nil
}

// ActiveThread returns a copy of the active thread.
func (s *ChatService) ActiveThread() (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[s.activeID]
	if !ok {
		return Thread{}, false
	}
	cp := *th
	cp.Messages = append([]*schema.Message(nil), th.Messages...)
	return cp, true
}

func (s *ChatService) DeleteThread(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}
	delete(s.threads, id)
	if s.activeID == id {
		s.activeID = ""
		var latest *Thread
		for _, th := range s.threads {
			if latest == nil || th.UpdatedAt.After(latest.UpdatedAt) {
				latest = th
			}
		}
		if latest != nil {
			s.activeID = latest.ID
		}
	}
	return nil
}

// RegisterTools adds tools to the selection panel, enabled by default.
// Re-registering a name replaces its description and keeps its toggle.
func (s *ChatService) RegisterTools(infos []*schema.ToolInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, info := range infos {
		if info == nil || strings.TrimSpace(info.Name) == "" {
			continue
		}
		if _, ok := s.tools[info.Name]; !ok {
			s.toolOrder = append(s.toolOrder, info.Name)
			s.enabled[info.Name] = true
		}
		s.tools[info.Name] = info
	}
}

func (s *ChatService) SetToolEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tools[name]; !ok {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	s.enabled[name] = enabled
	return nil
}

func (s *ChatService) Tools() []ToolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ToolState, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		out = append(out, ToolState{Name: name, Description: s.tools[name].Desc, Enabled: s.enabled[name]})
	}
	return out
}

func (s *ChatService) EnabledTools() []*schema.ToolInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabledToolsLocked()
}

func (s *ChatService) enabledToolsLocked() []*schema.ToolInfo {
	var out []*schema.ToolInfo
	for _, name := range s.toolOrder {
		if s.enabled[name] {
			out = append(out, s.tools[name])
		}
	}
	return out
}

// Send posts text to the active thread, creating one if needed, and returns
// the assistant reply. The thread is only extended when the call succeeds.
func (s *ChatService) Send(ctx context.Context, text string) (*schema.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	th, ok := s.threads[s.activeID]
	if !ok {
		th = s.newThreadLocked()
	}
	threadID := th.ID
	history := append([]*schema.Message(nil), th.Messages...)
	tools := s.enabledToolsLocked()
	s.mu.Unlock()

	reply, err := s.generate(ctx, history, text, tools)
	if err != nil {
		s.notifier.Notify(ctx, events.NewError(events.ChatFailed, err.Error()).WithMetadata("thread", threadID))
		return nil, err
	}

	s.mu.Lock()
	if th, ok := s.threads[threadID]; ok {
		th.Messages = append(th.Messages, schema.UserMessage(text), reply)
		th.UpdatedAt = time.Now()
		if th.Title == newThreadTitle {
			th.Title = threadTitle(text)
		}
	}
	s.mu.Unlock()

	s.notifier.Notify(ctx, events.NewInfo(events.ChatReply, "reply received").WithMetadata("thread", threadID))
	return reply, nil
}

func (s *ChatService) generate(ctx context.Context, history []*schema.Message, text string, tools []*schema.ToolInfo) (*schema.Message, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read model config: %w", err)
	}

	chatModel, err := s.factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.ModelProvider, err)
	}
	if len(tools) > 0 {
		chatModel, err = chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("bind tools: %w", err)
		}
	}

	messages := client.PrepareMessages(s.systemPrompt, append(history, schema.UserMessage(text)))
	reply, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate with %s: %w", models.GetModelName(cfg), err)
	}
	if reply == nil {
		return nil, errors.New("model returned no message")
	}
	return reply, nil
}

func (s *ChatService) summary(th *Thread) ThreadSummary {
	return ThreadSummary{
		ID:           th.ID,
		Title:        th.Title,
		MessageCount: len(th.Messages),
		UpdatedAt:    th.UpdatedAt,
		Active:       th.ID == s.activeID,
	}
}

func threadTitle(text string) string {
	const maxTitle = 40
	line := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	runes := []rune(line)
	if len(runes) > maxTitle {
		return string(runes[:maxTitle-1]) + "…"
	}
	return line
}
