package model

import (
	"context"
	"fmt"
)

// Role identifies the author of a conversation message.
type Role string

// Message roles in a conversation.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the ordered conversation sent to a backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Usage captures token usage statistics for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the backend's answer to a message list.
type Completion struct {
	Message Message `json:"message"`
	Usage   *Usage  `json:"usage,omitempty"`
}

// Options tune a single completion request. Adapters apply their own
// defaults for zero values.
type Options struct {
	Temperature float64
	MaxTokens   int64
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface the planner requires from a
// text-generation backend.
type Model interface {
	Complete(ctx context.Context, messages []Message, optFns ...func(o *Options)) (*Completion, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
	err       error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith makes every subsequent Complete call return err.
func (m *MockModel) FailWith(err error) { m.err = err }

// Complete implements Model; it matches the last user message against the
// canned responses and falls back to an echoing reply.
func (m *MockModel) Complete(ctx context.Context, messages []Message, _ ...func(o *Options)) (*Completion, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	var input string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			input = messages[i].Content
			break
		}
	}

	full := m.responses[input]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", input)
	}

	return &Completion{
		Message: Message{Role: RoleAssistant, Content: full},
	}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
