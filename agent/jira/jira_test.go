package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpipe/agentpipe/core"
)

func newTestAgent(t *testing.T, handler http.HandlerFunc) *Agent {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithCredentials("bot", "token"))
}

func TestValidate(t *testing.T) {
	a := New("https://example.atlassian.net")

	assert.True(t, a.Validate(core.NewRequest(ActionGetIssue, map[string]any{"issue_key": "TEST-1"})))
	assert.False(t, a.Validate(core.NewRequest(ActionGetIssue, nil)))
	assert.False(t, a.Validate(core.NewRequest(ActionAddComment, map[string]any{"issue_key": "TEST-1"})))
	assert.True(t, a.Validate(core.NewRequest(ActionAddComment, map[string]any{"issue_key": "TEST-1", "comment": "hi"})))
	assert.False(t, a.Validate(core.NewRequest(ActionSearchIssues, nil)))
	assert.True(t, a.Validate(core.NewRequest(ActionGetProjects, nil)))
	assert.False(t, a.Validate(core.NewRequest("delete_project", nil)))
}

func TestCapabilities(t *testing.T) {
	a := New("https://example.atlassian.net")
	assert.ElementsMatch(t, []string{
		"get_issue", "create_issue", "update_issue", "search_issues",
		"add_comment", "get_projects", "get_issue_types",
	}, a.Capabilities())
}

func TestGetIssue(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/TEST-1", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot", user)
		json.NewEncoder(w).Encode(map[string]any{"key": "TEST-1", "fields": map[string]any{"summary": "it broke"}})
	})

	resp, err := a.Process(context.Background(), core.NewRequest(ActionGetIssue, map[string]any{"issue_key": "TEST-1"}))
	require.NoError(t, err)
	require.True(t, resp.Success)

	issue, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "TEST-1", issue["key"])
}

func TestCreateIssueFromConvenienceParams(t *testing.T) {
	var payload map[string]any
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/2/issue", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"key": "TEST-2"})
	})

	resp, err := a.Process(context.Background(), core.NewRequest(ActionCreateIssue, map[string]any{
		"project":    "TEST",
		"summary":    "new bug",
		"issue_type": "Bug",
		"labels":     []any{"infra"},
	}))
	require.NoError(t, err)
	require.True(t, resp.Success)

	fields, ok := payload["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "new bug", fields["summary"])
	assert.Equal(t, map[string]any{"key": "TEST"}, fields["project"])
	assert.Equal(t, map[string]any{"name": "Bug"}, fields["issuetype"])
	assert.Equal(t, []any{"infra"}, fields["labels"])
}

func TestCreateIssueRequiresSummary(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("must not reach the server")
	})

	resp, err := a.Process(context.Background(), core.NewRequest(ActionCreateIssue, map[string]any{"project": "TEST"}))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "summary is required")
}

func TestSearchIssuesPassesJQL(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/search", r.URL.Path)
		assert.Equal(t, "project = TEST", r.URL.Query().Get("jql"))
		assert.Equal(t, "10", r.URL.Query().Get("maxResults"))
		json.NewEncoder(w).Encode(map[string]any{"total": float64(0), "issues": []any{}})
	})

	resp, err := a.Process(context.Background(), core.NewRequest(ActionSearchIssues, map[string]any{
		"jql":         "project = TEST",
		"max_results": 10,
	}))
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestAuthenticate(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"name": "bot"})
	})
	assert.True(t, a.Authenticate(context.Background()))

	denied := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	assert.False(t, denied.Authenticate(context.Background()))
}

func TestServiceInfo(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/serverInfo", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"version": "9.4.0", "deploymentType": "Server"})
	})

	info, err := a.ServiceInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9.4.0", info["version"])
}

func TestServerErrorBecomesFailureResponse(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
	})

	resp, err := a.Process(context.Background(), core.NewRequest(ActionGetIssue, map[string]any{"issue_key": "NOPE-1"}))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "404")
}
