// Package openai adapts the OpenAI Chat Completions API to the model.Model
// interface.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentpipe/agentpipe/model"
)

// Options configures the OpenAI model adapter.
type Options struct {
	// APIKey for the OpenAI API. Falls back to OPENAI_API_KEY when empty.
	APIKey string

	// Model identifier to request.
	Model openai.ChatModel

	// Temperature for sampling. Zero means API default.
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int64

	// ClientOptions are forwarded to the underlying SDK client.
	ClientOptions []option.RequestOption
}

// Model wraps an OpenAI client behind model.Model.
type Model struct {
	client openai.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates an OpenAI-backed model.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:     openai.ChatModelGPT4oMini,
		MaxTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := opts.ClientOptions
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	return &Model{
		client: openai.NewClient(clientOpts...),
		opts:   opts,
	}
}

// NewModelFromClient wraps an existing SDK client.
func NewModelFromClient(client openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:     openai.ChatModelGPT4oMini,
		MaxTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Complete implements model.Model.
func (m *Model) Complete(ctx context.Context, messages []model.Message, optFns ...func(o *model.Options)) (*model.Completion, error) {
	reqOpts := model.Options{
		Temperature: m.opts.Temperature,
		MaxTokens:   m.opts.MaxTokens,
	}
	for _, fn := range optFns {
		fn(&reqOpts)
	}

	params := openai.ChatCompletionNewParams{
		Model:               m.opts.Model,
		MaxCompletionTokens: openai.Int(reqOpts.MaxTokens),
	}
	if reqOpts.Temperature > 0 {
		params.Temperature = openai.Float(reqOpts.Temperature)
	}

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case model.RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		case model.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &model.Completion{
		Message: model.Message{Role: model.RoleAssistant, Content: resp.Choices[0].Message.Content},
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "openai"}
}
