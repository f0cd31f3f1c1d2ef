package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

// JSONModeConfig configures an OpenAI-compatible endpoint driven in JSON mode.
type JSONModeConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float32
	MaxTokens   int
}

// JSONModeChatModel talks to OpenAI-compatible chat completion APIs with
// response_format=json_object. Every completion is a single JSON object, which
// is what the mindmap generators ask for.
type JSONModeChatModel struct {
	client *openai.Client
	cfg    JSONModeConfig
}

var _ model.BaseChatModel = (*JSONModeChatModel)(nil)

// NewJSONModeChatModel creates a JSON-mode chat model.
func NewJSONModeChatModel(cfg JSONModeConfig) *JSONModeChatModel {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &JSONModeChatModel{client: openai.NewClientWithConfig(oc), cfg: cfg}
}

// Generate sends the conversation and returns the assistant message.
func (m *JSONModeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req := m.buildRequest(input, opts...)
	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	choice := resp.Choices[0]
	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

// Stream returns the complete response as a single-chunk stream.
func (m *JSONModeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *JSONModeChatModel) buildRequest(input []*schema.Message, opts ...model.Option) openai.ChatCompletionRequest {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.cfg.Model,
		Temperature: m.cfg.Temperature,
	}, opts...)

	req := openai.ChatCompletionRequest{
		Model:    m.cfg.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(input)),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: m.cfg.MaxTokens,
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	for _, msg := range input {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    roleFor(msg.Role),
			Content: msg.Content,
		})
	}
	return req
}

func roleFor(r schema.RoleType) string {
	switch r {
	case schema.System:
		return openai.ChatMessageRoleSystem
	case schema.Assistant:
		return openai.ChatMessageRoleAssistant
	case schema.Tool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}
