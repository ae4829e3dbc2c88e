// Package agentpipe provides a high-level façade over the orchestration
// engine, enabling rapid construction of agent-driven automation pipelines.
// Most applications interact with this package by:
//  1. Creating an AgentPipe via New() (optionally overriding defaults)
//  2. Registering agents and workflows
//  3. Executing workflows directly or planning them from natural language
//
// The façade delegates orchestration to engine.Engine while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a durable session
// store, a real model backend and a structured logger.
package agentpipe

import (
	"context"

	"github.com/agentpipe/agentpipe/core"
	"github.com/agentpipe/agentpipe/engine"
	"github.com/agentpipe/agentpipe/logging"
	"github.com/agentpipe/agentpipe/model"
	"github.com/agentpipe/agentpipe/session"
	"github.com/agentpipe/agentpipe/workflow"
)

// Options configures the AgentPipe instance.
type Options struct {
	// EngineConfig tunes the underlying engine (planner limits).
	EngineConfig engine.Config

	// SessionStore persists session state and execution history.
	// Defaults to an in-memory implementation if not provided.
	SessionStore session.Store

	// Model is the text-generation backend used for workflow planning.
	// Planning is unavailable when nil.
	Model model.Model

	// SessionID pins the pipe to a fixed session identifier. A random
	// identifier is generated when empty.
	SessionID string

	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// WithModel sets the planning backend.
func WithModel(m model.Model) func(o *Options) {
	return func(o *Options) { o.Model = m }
}

// WithSessionStore sets the session persistence backend.
func WithSessionStore(store session.Store) func(o *Options) {
	return func(o *Options) { o.SessionStore = store }
}

// WithLogger sets the structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// AgentPipe is the high-level façade aggregating the underlying engine.
type AgentPipe struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new AgentPipe instance with optional overrides. Any unset
// dependency is initialized with an in-memory or no-op implementation.
func New(optFns ...func(o *Options)) *AgentPipe {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	eng := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.SessionStore = opts.SessionStore
		o.Model = opts.Model
		o.SessionID = opts.SessionID
		o.Logger = opts.Logger
	})

	return &AgentPipe{opts: opts, engine: eng}
}

// Engine exposes the underlying engine for advanced use cases.
func (p *AgentPipe) Engine() *engine.Engine { return p.engine }

// RegisterAgent adds an agent under the given name. It returns false when
// the name is already taken.
func (p *AgentPipe) RegisterAgent(name string, a core.Agent) bool {
	return p.engine.RegisterAgent(name, a)
}

// UnregisterAgent removes an agent by name.
func (p *AgentPipe) UnregisterAgent(name string) bool {
	return p.engine.UnregisterAgent(name)
}

// ListAgents returns the names of all registered agents.
func (p *AgentPipe) ListAgents() []string { return p.engine.ListAgents() }

// RegisterWorkflow validates and registers a workflow definition.
func (p *AgentPipe) RegisterWorkflow(wf *workflow.Workflow) error {
	return p.engine.RegisterWorkflow(wf)
}

// ExecuteWorkflow runs a registered workflow against the given input.
func (p *AgentPipe) ExecuteWorkflow(ctx context.Context, workflowID string, input map[string]any, optFns ...func(o *engine.ExecuteOptions)) *workflow.Outcome {
	return p.engine.ExecuteWorkflow(ctx, workflowID, input, optFns...)
}

// ExecuteAgent runs a single action against a registered agent outside of
// any workflow.
func (p *AgentPipe) ExecuteAgent(ctx context.Context, agentName, action string, params map[string]any) core.Response {
	return p.engine.ExecuteAgent(ctx, agentName, action, params)
}

// PlanWorkflow turns a natural language query into a registered workflow.
func (p *AgentPipe) PlanWorkflow(ctx context.Context, query string, optFns ...func(o *engine.PlanOptions)) (*engine.Plan, error) {
	return p.engine.PlanWorkflow(ctx, query, optFns...)
}

// Session returns a snapshot of the pipe's session, including execution
// history.
func (p *AgentPipe) Session() (*session.Session, error) {
	return p.engine.GetSession()
}

// SetSessionData stores a value in the session data map.
func (p *AgentPipe) SetSessionData(key string, value any) error {
	return p.engine.SetSessionData(key, value)
}

// GetSessionData reads a value previously stored with SetSessionData.
func (p *AgentPipe) GetSessionData(key string) (any, bool) {
	return p.engine.GetSessionData(key)
}
