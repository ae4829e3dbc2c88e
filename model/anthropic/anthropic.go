// Package anthropic adapts the Anthropic Messages API to the model.Model
// interface.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentpipe/agentpipe/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	// APIKey for the Anthropic API. Falls back to ANTHROPIC_API_KEY when empty.
	APIKey string

	// Model identifier to request.
	Model anthropic.Model

	// Temperature for sampling. Zero means API default.
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int64

	// ClientOptions are forwarded to the underlying SDK client.
	ClientOptions []option.RequestOption
}

// Model wraps an Anthropic client behind model.Model.
type Model struct {
	client anthropic.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates an Anthropic-backed model.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
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
		client: anthropic.NewClient(clientOpts...),
		opts:   opts,
	}
}

// NewModelFromClient wraps an existing SDK client.
func NewModelFromClient(client anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
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

	params := anthropic.MessageNewParams{
		Model:     m.opts.Model,
		MaxTokens: reqOpts.MaxTokens,
	}
	if reqOpts.Temperature > 0 {
		params.Temperature = anthropic.Float(reqOpts.Temperature)
	}

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case model.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic completion failed: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.AsText().Text
		}
	}

	return &model.Completion{
		Message: model.Message{Role: model.RoleAssistant, Content: content},
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic"}
}
