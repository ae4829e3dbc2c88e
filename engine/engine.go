package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentpipe/agentpipe/core"
	"github.com/agentpipe/agentpipe/logging"
	"github.com/agentpipe/agentpipe/model"
	"github.com/agentpipe/agentpipe/session"
	"github.com/agentpipe/agentpipe/workflow"
)

// Config defines tuning parameters for the engine's operational behavior.
type Config struct {
	// PlannerMaxTokens caps the completion length for workflow planning
	// requests.
	PlannerMaxTokens int64

	// PlannerTemperature is the sampling temperature for workflow planning.
	// Low values keep the generated step lists deterministic.
	PlannerTemperature float64
}

// DefaultConfig provides production-ready default configuration values.
var DefaultConfig = Config{
	PlannerMaxTokens:   2048,
	PlannerTemperature: 0.2,
}

// Options configures an Engine instance using the functional options pattern.
//
// All dependencies have in-memory or no-op defaults so the engine is
// immediately usable in tests and simple deployments.
//
// Example:
//
//	eng := New(
//	    WithModel(anthropicModel),
//	    WithLogger(myLogger),
//	)
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// SessionStore manages session persistence and execution history.
	// Defaults to an in-memory implementation if not provided.
	SessionStore session.Store

	// Model is the text-generation backend used by PlanWorkflow.
	// Planning is unavailable when nil.
	Model model.Model

	// SessionID identifies the engine's session. A random identifier is
	// generated when empty.
	SessionID string

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// WithConfig overrides the default engine configuration.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithSessionStore sets the session persistence backend.
func WithSessionStore(store session.Store) func(o *Options) {
	return func(o *Options) { o.SessionStore = store }
}

// WithModel sets the text-generation backend used for workflow planning.
func WithModel(m model.Model) func(o *Options) {
	return func(o *Options) { o.Model = m }
}

// WithSessionID pins the engine to a fixed session identifier.
func WithSessionID(id string) func(o *Options) {
	return func(o *Options) { o.SessionID = id }
}

// WithLogger sets the structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Engine coordinates agents and workflows. It owns two registries (agents
// by name, workflows by id), a session recording execution history, and an
// optional model backend for planning.
//
// All public methods are safe for concurrent use.
type Engine struct {
	sessionStore session.Store
	sessionID    string
	model        model.Model
	logger       logging.Logger
	config       Config

	agents   map[string]core.Agent
	agentsMu sync.RWMutex

	workflows   map[string]*workflow.Workflow
	workflowsMu sync.RWMutex
}

// New creates an Engine with sensible defaults and optional configuration.
//
// The engine does not take ownership of provided dependencies; callers
// remain responsible for their lifecycle.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:       DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	return &Engine{
		sessionStore: opts.SessionStore,
		sessionID:    opts.SessionID,
		model:        opts.Model,
		logger:       opts.Logger,
		config:       opts.Config,
		agents:       make(map[string]core.Agent),
		workflows:    make(map[string]*workflow.Workflow),
	}
}

// SessionID returns the identifier of the engine's session.
func (e *Engine) SessionID() string { return e.sessionID }

// RegisterAgent adds an agent under the given name. It returns false when
// the name is already taken; existing registrations are never replaced
// silently.
func (e *Engine) RegisterAgent(name string, a core.Agent) bool {
	e.agentsMu.Lock()
	defer e.agentsMu.Unlock()

	if _, exists := e.agents[name]; exists {
		e.logger.Warn("agent registration rejected, name %s already taken", name)
		return false
	}

	e.agents[name] = a
	e.logger.Info("agent registered name=%s capabilities=%v", name, a.Capabilities())

	return true
}

// UnregisterAgent removes an agent by name. It returns false when no agent
// with that name is registered. Workflows referencing the agent remain
// registered; executing them produces failed steps.
func (e *Engine) UnregisterAgent(name string) bool {
	e.agentsMu.Lock()
	defer e.agentsMu.Unlock()

	if _, exists := e.agents[name]; !exists {
		return false
	}

	delete(e.agents, name)
	e.logger.Info("agent unregistered name=%s", name)

	return true
}

// GetAgent retrieves a registered agent by name.
func (e *Engine) GetAgent(name string) (core.Agent, bool) {
	e.agentsMu.RLock()
	defer e.agentsMu.RUnlock()
	a, ok := e.agents[name]
	return a, ok
}

// ListAgents returns the names of all registered agents.
func (e *Engine) ListAgents() []string {
	e.agentsMu.RLock()
	defer e.agentsMu.RUnlock()

	names := make([]string, 0, len(e.agents))
	for name := range e.agents {
		names = append(names, name)
	}

	return names
}

// ExecuteAgent runs a single action against a registered agent outside of
// any workflow. The request is stamped with session metadata before
// dispatch. All failure modes, a missing agent included, are reported as a
// failed response rather than an error.
func (e *Engine) ExecuteAgent(ctx context.Context, agentName, action string, params map[string]any) core.Response {
	meta := &core.Metadata{
		SessionID: e.sessionID,
		Timestamp: time.Now().UTC(),
		Agent:     agentName,
	}

	agent, ok := e.GetAgent(agentName)
	if !ok {
		resp := core.Errorf("Agent not found: %s", agentName)
		resp.Metadata = meta
		return resp
	}

	req := core.NewRequest(action, params)
	req.Metadata = meta

	start := time.Now()
	resp := e.invokeAgent(ctx, agent, agentName, req)
	e.logger.Debug("agent call completed agent=%s action=%s success=%t duration=%s", agentName, action, resp.Success, time.Since(start))

	return resp
}

// invokeAgent dispatches a request to an agent, turning panics and
// transport errors into failed responses so a misbehaving agent cannot
// take down an execution.
func (e *Engine) invokeAgent(ctx context.Context, agent core.Agent, agentName string, req core.Request) (resp core.Response) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("agent %s panicked during %s: %v", agentName, req.Action, r)
			resp = core.Errorf("agent %s panicked: %v", agentName, r)
			resp.Metadata = req.Metadata
		}
	}()

	if !agent.Validate(req) {
		resp = core.Errorf("invalid request for agent %s: action %s", agentName, req.Action)
		resp.Metadata = req.Metadata
		return resp
	}

	resp, err := agent.Process(ctx, req)
	if err != nil {
		resp = core.Errorf("%s", err.Error())
	}
	if resp.Metadata == nil {
		resp.Metadata = req.Metadata
	}

	return resp
}

// GetSession returns a snapshot of the engine's session, including the
// execution history recorded so far.
func (e *Engine) GetSession() (*session.Session, error) {
	return e.sessionStore.Get(e.sessionID)
}

// SetSessionData stores a value in the engine's session data map. The data
// map outlives individual workflow executions and is not visible to steps;
// it exists for callers tracking state across calls.
func (e *Engine) SetSessionData(key string, value any) error {
	return e.sessionStore.ApplyDelta(e.sessionID, map[string]any{key: value})
}

// GetSessionData reads a value previously stored with SetSessionData. The
// second return value reports whether the key is present.
func (e *Engine) GetSessionData(key string) (any, bool) {
	sess, err := e.sessionStore.Get(e.sessionID)
	if err != nil {
		return nil, false
	}

	v, ok := sess.Data[key]

	return v, ok
}
