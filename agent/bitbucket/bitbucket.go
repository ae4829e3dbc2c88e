// Package bitbucket implements an agent backed by the Bitbucket Cloud REST
// API (2.0). All actions operate inside a fixed workspace; most of them
// additionally require a repo_slug parameter.
package bitbucket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/agentpipe/agentpipe/core"
	"github.com/agentpipe/agentpipe/internal/httputil"
)

// Actions supported by the agent.
const (
	ActionGetRepositories   = "get_repositories"
	ActionGetRepository     = "get_repository"
	ActionGetBranches       = "get_branches"
	ActionGetPullRequests   = "get_pull_requests"
	ActionGetPullRequest    = "get_pull_request"
	ActionCreatePullRequest = "create_pull_request"
	ActionGetCommits        = "get_commits"
	ActionGetFileContent    = "get_file_content"
)

var capabilities = []string{
	ActionGetRepositories,
	ActionGetRepository,
	ActionGetBranches,
	ActionGetPullRequests,
	ActionGetPullRequest,
	ActionCreatePullRequest,
	ActionGetCommits,
	ActionGetFileContent,
}

// Options configures the Bitbucket agent.
type Options struct {
	// Username and AppPassword are the basic auth credentials.
	Username    string
	AppPassword string

	// BaseURL overrides the Bitbucket Cloud API endpoint.
	BaseURL string

	// Client overrides the HTTP client. Useful for tests.
	Client *httputil.Client
}

// Agent talks to a Bitbucket workspace.
type Agent struct {
	workspace string
	client    *httputil.Client
}

var _ core.Agent = (*Agent)(nil)

// New creates a Bitbucket agent scoped to the given workspace.
func New(workspace string, optFns ...func(o *Options)) *Agent {
	opts := Options{BaseURL: "https://api.bitbucket.org/2.0"}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.Client
	if client == nil {
		client = httputil.New(opts.BaseURL, httputil.WithBasicAuth(opts.Username, opts.AppPassword))
	}

	return &Agent{workspace: workspace, client: client}
}

// WithCredentials sets the basic auth username and app password.
func WithCredentials(username, appPassword string) func(o *Options) {
	return func(o *Options) {
		o.Username = username
		o.AppPassword = appPassword
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) func(o *Options) {
	return func(o *Options) { o.BaseURL = baseURL }
}

// WithClient overrides the HTTP client.
func WithClient(c *httputil.Client) func(o *Options) {
	return func(o *Options) { o.Client = c }
}

// Capabilities implements core.Agent.
func (a *Agent) Capabilities() []string { return capabilities }

// Validate implements core.Agent. Listing repositories is the only action
// that works without a repo_slug.
func (a *Agent) Validate(req core.Request) bool {
	if !core.ActionSupported(capabilities, req.Action) {
		return false
	}

	switch req.Action {
	case ActionGetRepositories:
		return true
	case ActionGetPullRequest:
		return req.HasParam("repo_slug") && req.HasParam("pr_id")
	case ActionCreatePullRequest:
		return req.HasParam("repo_slug") && req.HasParam("title") && req.HasParam("source_branch")
	case ActionGetFileContent:
		return req.HasParam("repo_slug") && req.HasParam("path")
	default:
		return req.HasParam("repo_slug")
	}
}

// Authenticate verifies the configured credentials by fetching the current
// user. It returns false on any transport or authorization failure.
func (a *Agent) Authenticate(ctx context.Context) bool {
	var user map[string]any
	return a.client.Get(ctx, "/user", nil, &user) == nil
}

// ServiceInfo returns metadata about the agent's workspace.
func (a *Agent) ServiceInfo(ctx context.Context) (map[string]any, error) {
	var info map[string]any
	if err := a.client.Get(ctx, "/workspaces/"+url.PathEscape(a.workspace), nil, &info); err != nil {
		return nil, err
	}

	return info, nil
}

// Process implements core.Agent.
func (a *Agent) Process(ctx context.Context, req core.Request) (core.Response, error) {
	var (
		data any
		err  error
	)

	switch req.Action {
	case ActionGetRepositories:
		data, err = a.getRepositories(ctx, req)
	case ActionGetRepository:
		data, err = a.getJSON(ctx, a.repoPath(req, ""), nil)
	case ActionGetBranches:
		data, err = a.getJSON(ctx, a.repoPath(req, "/refs/branches"), pageQuery(req))
	case ActionGetPullRequests:
		data, err = a.getPullRequests(ctx, req)
	case ActionGetPullRequest:
		data, err = a.getJSON(ctx, a.repoPath(req, fmt.Sprintf("/pullrequests/%d", req.IntParam("pr_id", 0))), nil)
	case ActionCreatePullRequest:
		data, err = a.createPullRequest(ctx, req)
	case ActionGetCommits:
		data, err = a.getCommits(ctx, req)
	case ActionGetFileContent:
		data, err = a.getFileContent(ctx, req)
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

func (a *Agent) repoPath(req core.Request, suffix string) string {
	slug := req.StringParam("repo_slug", "")
	return fmt.Sprintf("/repositories/%s/%s%s", url.PathEscape(a.workspace), url.PathEscape(slug), suffix)
}

func (a *Agent) getJSON(ctx context.Context, path string, query url.Values) (any, error) {
	var result map[string]any
	if err := a.client.Get(ctx, path, query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Agent) getRepositories(ctx context.Context, req core.Request) (any, error) {
	path := fmt.Sprintf("/repositories/%s", url.PathEscape(a.workspace))
	return a.getJSON(ctx, path, pageQuery(req))
}

func (a *Agent) getPullRequests(ctx context.Context, req core.Request) (any, error) {
	query := pageQuery(req)
	if state := req.StringParam("state", ""); state != "" {
		query.Set("state", state)
	}
	return a.getJSON(ctx, a.repoPath(req, "/pullrequests"), query)
}

func (a *Agent) createPullRequest(ctx context.Context, req core.Request) (any, error) {
	body := map[string]any{
		"title": req.StringParam("title", ""),
		"source": map[string]any{
			"branch": map[string]any{"name": req.StringParam("source_branch", "")},
		},
		"destination": map[string]any{
			"branch": map[string]any{"name": req.StringParam("destination_branch", "main")},
		},
	}
	if description := req.StringParam("description", ""); description != "" {
		body["description"] = description
	}

	var pr map[string]any
	if err := a.client.Post(ctx, a.repoPath(req, "/pullrequests"), body, &pr); err != nil {
		return nil, err
	}

	return pr, nil
}

func (a *Agent) getCommits(ctx context.Context, req core.Request) (any, error) {
	suffix := "/commits"
	if branch := req.StringParam("branch", ""); branch != "" {
		suffix += "/" + url.PathEscape(branch)
	}
	return a.getJSON(ctx, a.repoPath(req, suffix), pageQuery(req))
}

// getFileContent serves the raw file bytes from the source endpoint. The
// ref defaults to the repository main branch.
func (a *Agent) getFileContent(ctx context.Context, req core.Request) (any, error) {
	ref := req.StringParam("ref", "main")
	path := req.StringParam("path", "")

	content, err := a.client.GetText(ctx, a.repoPath(req, fmt.Sprintf("/src/%s/%s", url.PathEscape(ref), path)), nil)
	if err != nil {
		return nil, err
	}

	return map[string]any{"path": path, "ref": ref, "content": content}, nil
}

func pageQuery(req core.Request) url.Values {
	query := url.Values{}
	if n := req.IntParam("page_len", 0); n > 0 {
		query.Set("pagelen", fmt.Sprintf("%d", n))
	}
	return query
}
