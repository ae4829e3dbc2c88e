package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpipe/agentpipe/core"
	"github.com/agentpipe/agentpipe/internal/testutil"
)

func TestRegisterAgentRejectsDuplicates(t *testing.T) {
	eng := New()

	assert.True(t, eng.RegisterAgent("jira", testutil.NewStubAgent("get_issue")))
	assert.False(t, eng.RegisterAgent("jira", testutil.NewStubAgent("get_issue")))
	assert.Equal(t, []string{"jira"}, eng.ListAgents())
}

func TestUnregisterAgent(t *testing.T) {
	eng := New()
	eng.RegisterAgent("jira", testutil.NewStubAgent("get_issue"))

	assert.True(t, eng.UnregisterAgent("jira"))
	assert.False(t, eng.UnregisterAgent("jira"))
	assert.Empty(t, eng.ListAgents())
}

func TestGetAgent(t *testing.T) {
	eng := New()
	stub := testutil.NewStubAgent("get_issue")
	eng.RegisterAgent("jira", stub)

	got, ok := eng.GetAgent("jira")
	assert.True(t, ok)
	assert.Same(t, core.Agent(stub), got)

	_, ok = eng.GetAgent("ghost")
	assert.False(t, ok)
}

func TestExecuteAgentStampsMetadata(t *testing.T) {
	eng := New(func(o *Options) { o.SessionID = "sess-1" })
	stub := testutil.NewStubAgent("get_issue")
	eng.RegisterAgent("jira", stub)

	resp := eng.ExecuteAgent(context.Background(), "jira", "get_issue", map[string]any{"issue_key": "TEST-1"})
	assert.True(t, resp.Success)

	requests := stub.Requests()
	require.Len(t, requests, 1)
	require.NotNil(t, requests[0].Metadata)
	assert.Equal(t, "sess-1", requests[0].Metadata.SessionID)
	assert.Equal(t, "jira", requests[0].Metadata.Agent)
	assert.False(t, requests[0].Metadata.Timestamp.IsZero())
}

func TestExecuteAgentNotFound(t *testing.T) {
	eng := New()

	resp := eng.ExecuteAgent(context.Background(), "ghost", "anything", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "Agent not found: ghost", resp.Error)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, "ghost", resp.Metadata.Agent)
}

func TestExecuteAgentUnsupportedActionFails(t *testing.T) {
	eng := New()
	eng.RegisterAgent("jira", testutil.NewStubAgent("get_issue"))

	resp := eng.ExecuteAgent(context.Background(), "jira", "delete_everything", nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "invalid request")
}

func TestExecuteAgentErrorBecomesFailureResponse(t *testing.T) {
	eng := New()
	eng.RegisterAgent("jira", testutil.NewStubAgent("get_issue").FailWith(errors.New("connection refused")))

	resp := eng.ExecuteAgent(context.Background(), "jira", "get_issue", nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "connection refused")
}

func TestExecuteAgentPanicCaptured(t *testing.T) {
	eng := New()
	eng.RegisterAgent("jira", testutil.NewStubAgent("get_issue").PanicWith("nil map write"))

	resp := eng.ExecuteAgent(context.Background(), "jira", "get_issue", nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "panicked")
}

func TestSessionIDGeneratedWhenUnset(t *testing.T) {
	eng := New()
	assert.NotEmpty(t, eng.SessionID())
}

func TestSessionData(t *testing.T) {
	eng := New()

	_, ok := eng.GetSessionData("user")
	assert.False(t, ok)

	require.NoError(t, eng.SetSessionData("user", "alice"))

	v, ok := eng.GetSessionData("user")
	require.True(t, ok)
	assert.Equal(t, "alice", v)
}
