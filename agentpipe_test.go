package agentpipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpipe/agentpipe/core"
	"github.com/agentpipe/agentpipe/internal/testutil"
	"github.com/agentpipe/agentpipe/model"
	"github.com/agentpipe/agentpipe/workflow"
)

func TestFacadeEndToEnd(t *testing.T) {
	pipe := New()

	jira := testutil.NewStubAgent("get_issue").
		Respond("get_issue", core.Ok(map[string]any{"key": "TEST-1", "status": "Open"}))
	require.True(t, pipe.RegisterAgent("jira", jira))

	require.NoError(t, pipe.RegisterWorkflow(&workflow.Workflow{
		ID: "triage",
		Steps: []workflow.Step{
			{Agent: "jira", Action: "get_issue", Parameters: map[string]any{"issue_key": "TEST-1"}, OutputKey: "issue"},
		},
	}))

	outcome := pipe.ExecuteWorkflow(context.Background(), "triage", nil)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Success)
	require.Len(t, outcome.Results, 1)

	sess, err := pipe.Session()
	require.NoError(t, err)
	assert.Len(t, sess.Executions, 1)
}

func TestFacadePlanAndExecute(t *testing.T) {
	mock := model.NewMockModel("planner", "mock")
	mock.AddResponse("list projects", `[{"agent":"jira","action":"get_projects"}]`)

	pipe := New(WithModel(mock))
	pipe.RegisterAgent("jira", testutil.NewStubAgent("get_projects"))

	plan, err := pipe.PlanWorkflow(context.Background(), "list projects")
	require.NoError(t, err)

	outcome := pipe.ExecuteWorkflow(context.Background(), plan.WorkflowID, nil)
	assert.True(t, outcome.Success)
}

func TestFacadeExecuteAgent(t *testing.T) {
	pipe := New()
	pipe.RegisterAgent("jira", testutil.NewStubAgent("get_projects"))

	resp := pipe.ExecuteAgent(context.Background(), "jira", "get_projects", nil)
	assert.True(t, resp.Success)
}

func TestFacadeAgentLifecycle(t *testing.T) {
	pipe := New()

	assert.True(t, pipe.RegisterAgent("jira", testutil.NewStubAgent("get_issue")))
	assert.Equal(t, []string{"jira"}, pipe.ListAgents())
	assert.True(t, pipe.UnregisterAgent("jira"))
	assert.Empty(t, pipe.ListAgents())
}
