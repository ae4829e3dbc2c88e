package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpipe/agentpipe/internal/testutil"
	"github.com/agentpipe/agentpipe/model"
)

func TestPlanWorkflowRegistersGeneratedWorkflow(t *testing.T) {
	mock := model.NewMockModel("planner-test", "mock")
	mock.AddResponse("find my open tickets", `Here is the plan:
[
  {"agent": "jira", "action": "search_issues", "parameters": {"jql": "assignee = currentUser()"}, "output_key": "issues"}
]`)

	eng := New(func(o *Options) { o.Model = mock })
	eng.RegisterAgent("jira", testutil.NewStubAgent("search_issues"))

	plan, err := eng.PlanWorkflow(context.Background(), "find my open tickets")
	require.NoError(t, err)

	assert.Contains(t, plan.WorkflowID, "generated-")
	assert.Equal(t, "find my open tickets", plan.Query)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "jira", plan.Steps[0].Agent)
	assert.Equal(t, "search_issues", plan.Steps[0].Action)

	wf, ok := eng.GetWorkflow(plan.WorkflowID)
	require.True(t, ok)
	assert.Equal(t, true, wf.Metadata["generated"])
	assert.Equal(t, "find my open tickets", wf.Metadata["query"])
}

func TestPlanWorkflowSingleObjectFallback(t *testing.T) {
	mock := model.NewMockModel("planner-test", "mock")
	mock.AddResponse("one step", `{"agent": "jira", "action": "get_projects"}`)

	eng := New(func(o *Options) { o.Model = mock })
	eng.RegisterAgent("jira", testutil.NewStubAgent("get_projects"))

	plan, err := eng.PlanWorkflow(context.Background(), "one step")
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "get_projects", plan.Steps[0].Action)
}

func TestPlanWorkflowNoJSON(t *testing.T) {
	mock := model.NewMockModel("planner-test", "mock")
	mock.AddResponse("vague request", "I am not sure how to help with that.")

	eng := New(func(o *Options) { o.Model = mock })
	eng.RegisterAgent("jira", testutil.NewStubAgent("get_projects"))

	_, err := eng.PlanWorkflow(context.Background(), "vague request")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract workflow plan")
	assert.Empty(t, eng.ListWorkflows())
}

func TestPlanWorkflowModelError(t *testing.T) {
	mock := model.NewMockModel("planner-test", "mock")
	mock.FailWith(errors.New("rate limited"))

	eng := New(func(o *Options) { o.Model = mock })

	_, err := eng.PlanWorkflow(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to plan workflow")
}

func TestPlanWorkflowUnknownAgentRejected(t *testing.T) {
	mock := model.NewMockModel("planner-test", "mock")
	mock.AddResponse("bad plan", `[{"agent": "ghost", "action": "spook"}]`)

	eng := New(func(o *Options) { o.Model = mock })

	_, err := eng.PlanWorkflow(context.Background(), "bad plan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register generated workflow")
	assert.Empty(t, eng.ListWorkflows())
}

func TestPlanWorkflowNoModel(t *testing.T) {
	eng := New()

	_, err := eng.PlanWorkflow(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model configured")
}

func TestPlannerPromptListsAgents(t *testing.T) {
	eng := New()
	eng.RegisterAgent("jira", testutil.NewStubAgent("get_issue", "search_issues"))
	eng.RegisterAgent("database", testutil.NewStubAgent("execute_query"))

	prompt := eng.plannerPrompt(nil)

	assert.Contains(t, prompt, "- database: execute_query")
	assert.Contains(t, prompt, "- jira: get_issue, search_issues")
}

func TestPlannerPromptAgentSubset(t *testing.T) {
	eng := New()
	eng.RegisterAgent("jira", testutil.NewStubAgent("get_issue"))
	eng.RegisterAgent("database", testutil.NewStubAgent("execute_query"))

	prompt := eng.plannerPrompt([]string{"jira", "ghost"})

	assert.Contains(t, prompt, "- jira: get_issue")
	assert.NotContains(t, prompt, "database")
	assert.NotContains(t, prompt, "ghost")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"bare array", `[{"a":1}]`, `[{"a":1}]`, true},
		{"array in prose", "sure:\n[{\"a\":1}]\ndone", `[{"a":1}]`, true},
		{"object wrapped", `{"a":1}`, `[{"a":1}]`, true},
		{"no json", "no plan here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.content)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
