// Package jira implements an agent backed by the Jira REST API (v2).
//
// Supported actions cover issue retrieval and mutation, JQL search,
// commenting and project introspection. Credentials use basic auth with a
// username and API token.
package jira

import (
	"context"
	"fmt"
	"net/url"

	"github.com/agentpipe/agentpipe/core"
	"github.com/agentpipe/agentpipe/internal/httputil"
)

// Actions supported by the agent.
const (
	ActionGetIssue      = "get_issue"
	ActionCreateIssue   = "create_issue"
	ActionUpdateIssue   = "update_issue"
	ActionSearchIssues  = "search_issues"
	ActionAddComment    = "add_comment"
	ActionGetProjects   = "get_projects"
	ActionGetIssueTypes = "get_issue_types"
)

var capabilities = []string{
	ActionGetIssue,
	ActionCreateIssue,
	ActionUpdateIssue,
	ActionSearchIssues,
	ActionAddComment,
	ActionGetProjects,
	ActionGetIssueTypes,
}

// Options configures the Jira agent.
type Options struct {
	// Username and Token are the basic auth credentials.
	Username string
	Token    string

	// Client overrides the HTTP client. Useful for tests.
	Client *httputil.Client
}

// Agent talks to a Jira instance.
type Agent struct {
	client *httputil.Client
}

var _ core.Agent = (*Agent)(nil)

// New creates a Jira agent for the given base URL, e.g.
// "https://example.atlassian.net".
func New(baseURL string, optFns ...func(o *Options)) *Agent {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.Client
	if client == nil {
		client = httputil.New(baseURL, httputil.WithBasicAuth(opts.Username, opts.Token))
	}

	return &Agent{client: client}
}

// WithCredentials sets the basic auth username and API token.
func WithCredentials(username, token string) func(o *Options) {
	return func(o *Options) {
		o.Username = username
		o.Token = token
	}
}

// WithClient overrides the HTTP client.
func WithClient(c *httputil.Client) func(o *Options) {
	return func(o *Options) { o.Client = c }
}

// Capabilities implements core.Agent.
func (a *Agent) Capabilities() []string { return capabilities }

// Validate implements core.Agent. It checks the action is supported and the
// parameters the action cannot work without are present.
func (a *Agent) Validate(req core.Request) bool {
	if !core.ActionSupported(capabilities, req.Action) {
		return false
	}

	switch req.Action {
	case ActionGetIssue, ActionUpdateIssue:
		return req.HasParam("issue_key")
	case ActionAddComment:
		return req.HasParam("issue_key") && req.HasParam("comment")
	case ActionSearchIssues:
		return req.HasParam("jql")
	default:
		return true
	}
}

// Process implements core.Agent.
func (a *Agent) Process(ctx context.Context, req core.Request) (core.Response, error) {
	var (
		data any
		err  error
	)

	switch req.Action {
	case ActionGetIssue:
		data, err = a.getIssue(ctx, req)
	case ActionCreateIssue:
		data, err = a.createIssue(ctx, req)
	case ActionUpdateIssue:
		data, err = a.updateIssue(ctx, req)
	case ActionSearchIssues:
		data, err = a.searchIssues(ctx, req)
	case ActionAddComment:
		data, err = a.addComment(ctx, req)
	case ActionGetProjects:
		data, err = a.getProjects(ctx)
	case ActionGetIssueTypes:
		data, err = a.getIssueTypes(ctx)
	default:
		return core.Errorf("unsupported action: %s", req.Action), nil
	}

	if err != nil {
		return core.Errorf("%s failed: %v", req.Action, err), nil
	}

	resp := core.Ok(data)
	resp.Metadata = req.Metadata

	return resp, nil
}

// Authenticate verifies the configured credentials by fetching the current
// user. It returns false on any transport or authorization failure.
func (a *Agent) Authenticate(ctx context.Context) bool {
	var me map[string]any
	return a.client.Get(ctx, "/rest/api/2/myself", nil, &me) == nil
}

// ServiceInfo returns server metadata such as version and deployment type.
func (a *Agent) ServiceInfo(ctx context.Context) (map[string]any, error) {
	var info map[string]any
	if err := a.client.Get(ctx, "/rest/api/2/serverInfo", nil, &info); err != nil {
		return nil, err
	}

	return info, nil
}

func (a *Agent) getIssue(ctx context.Context, req core.Request) (any, error) {
	issueKey := req.StringParam("issue_key", "")

	query := url.Values{}
	if fields := req.StringParam("fields", ""); fields != "" {
		query.Set("fields", fields)
	}

	var issue map[string]any
	if err := a.client.Get(ctx, "/rest/api/2/issue/"+url.PathEscape(issueKey), query, &issue); err != nil {
		return nil, err
	}

	return issue, nil
}

// createIssue accepts either a prebuilt "fields" map or the individual
// convenience parameters summary, description, project, issue_type,
// priority, labels and components.
func (a *Agent) createIssue(ctx context.Context, req core.Request) (any, error) {
	fields := req.MapParam("fields")
	if fields == nil {
		fields = map[string]any{}

		if project := req.StringParam("project", ""); project != "" {
			fields["project"] = map[string]any{"key": project}
		}
		if summary := req.StringParam("summary", ""); summary != "" {
			fields["summary"] = summary
		}
		if description := req.StringParam("description", ""); description != "" {
			fields["description"] = description
		}

		issueType := req.StringParam("issue_type", "Task")
		fields["issuetype"] = map[string]any{"name": issueType}

		if priority := req.StringParam("priority", ""); priority != "" {
			fields["priority"] = map[string]any{"name": priority}
		}
		if labels := req.StringSliceParam("labels"); len(labels) > 0 {
			fields["labels"] = labels
		}
		if components := req.StringSliceParam("components"); len(components) > 0 {
			named := make([]map[string]any, 0, len(components))
			for _, c := range components {
				named = append(named, map[string]any{"name": c})
			}
			fields["components"] = named
		}
	}

	if _, ok := fields["summary"]; !ok {
		return nil, fmt.Errorf("summary is required")
	}

	var created map[string]any
	if err := a.client.Post(ctx, "/rest/api/2/issue", map[string]any{"fields": fields}, &created); err != nil {
		return nil, err
	}

	return created, nil
}

func (a *Agent) updateIssue(ctx context.Context, req core.Request) (any, error) {
	issueKey := req.StringParam("issue_key", "")

	fields := req.MapParam("fields")
	if len(fields) == 0 {
		return nil, fmt.Errorf("fields is required")
	}

	if err := a.client.Put(ctx, "/rest/api/2/issue/"+url.PathEscape(issueKey), map[string]any{"fields": fields}, nil); err != nil {
		return nil, err
	}

	return map[string]any{"issue_key": issueKey, "updated": true}, nil
}

func (a *Agent) searchIssues(ctx context.Context, req core.Request) (any, error) {
	query := url.Values{}
	query.Set("jql", req.StringParam("jql", ""))
	query.Set("maxResults", fmt.Sprintf("%d", req.IntParam("max_results", 50)))
	if fields := req.StringParam("fields", ""); fields != "" {
		query.Set("fields", fields)
	}

	var result map[string]any
	if err := a.client.Get(ctx, "/rest/api/2/search", query, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (a *Agent) addComment(ctx context.Context, req core.Request) (any, error) {
	issueKey := req.StringParam("issue_key", "")
	body := map[string]any{"body": req.StringParam("comment", "")}

	var comment map[string]any
	if err := a.client.Post(ctx, "/rest/api/2/issue/"+url.PathEscape(issueKey)+"/comment", body, &comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (a *Agent) getProjects(ctx context.Context) (any, error) {
	var projects []map[string]any
	if err := a.client.Get(ctx, "/rest/api/2/project", nil, &projects); err != nil {
		return nil, err
	}

	return projects, nil
}

func (a *Agent) getIssueTypes(ctx context.Context) (any, error) {
	var types []map[string]any
	if err := a.client.Get(ctx, "/rest/api/2/issuetype", nil, &types); err != nil {
		return nil, err
	}

	return types, nil
}
