package mocks

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelMock records the messages and tools it was called with.
type ChatModelMock struct {
	GenerateFunc func(ctx context.Context, input []*schema.Message) (*schema.Message, error)

	Inputs [][]*schema.Message
	Tools  []*schema.ToolInfo
}

func (m *ChatModelMock) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.Inputs = append(m.Inputs, input)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, input)
	}
	return schema.AssistantMessage("ok", nil), nil
}

func (m *ChatModelMock) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModelMock) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.Tools = tools
	return m, nil
}
