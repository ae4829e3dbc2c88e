package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModelCannedResponse(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	mock.AddResponse("plan this", `[{"agent":"jira","action":"get_projects"}]`)

	completion, err := mock.Complete(context.Background(), []Message{
		SystemMessage("you are a planner"),
		UserMessage("plan this"),
	})
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, completion.Message.Role)
	assert.Equal(t, `[{"agent":"jira","action":"get_projects"}]`, completion.Message.Content)
}

func TestMockModelEchoFallback(t *testing.T) {
	mock := NewMockModel("test-model", "mock")

	completion, err := mock.Complete(context.Background(), []Message{UserMessage("hello")})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", completion.Message.Content)
}

func TestMockModelMatchesLastUserMessage(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	mock.AddResponse("second", "matched")

	completion, err := mock.Complete(context.Background(), []Message{
		UserMessage("first"),
		{Role: RoleAssistant, Content: "reply"},
		UserMessage("second"),
	})
	require.NoError(t, err)
	assert.Equal(t, "matched", completion.Message.Content)
}

func TestMockModelFailWith(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	mock.FailWith(errors.New("quota exceeded"))

	_, err := mock.Complete(context.Background(), []Message{UserMessage("x")})
	assert.EqualError(t, err, "quota exceeded")
}

func TestMockModelNoMessages(t *testing.T) {
	mock := NewMockModel("test-model", "mock")

	_, err := mock.Complete(context.Background(), nil)
	assert.Error(t, err)
}

func TestMockModelCancelledContext(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Complete(ctx, []Message{UserMessage("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockModelInfo(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	assert.Equal(t, Info{Name: "test-model", Provider: "mock"}, mock.Info())
}
