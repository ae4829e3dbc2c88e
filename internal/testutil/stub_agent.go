// Package testutil contains helper stubs used across tests to reduce
// boilerplate when constructing agents and asserting engine behavior. These
// helpers are intentionally minimal and not intended for production usage.
package testutil

import (
	"context"
	"sync"

	"github.com/agentpipe/agentpipe/core"
)

// StubAgent is a configurable core.Agent for tests. Responses are keyed by
// action; actions without a canned response succeed with an echo payload.
// Every processed request is recorded for later assertions.
type StubAgent struct {
	mu           sync.Mutex
	capabilities []string
	responses    map[string]core.Response
	processErr   error
	panicMsg     string
	requests     []core.Request
}

// NewStubAgent creates a stub supporting the given actions.
func NewStubAgent(capabilities ...string) *StubAgent {
	return &StubAgent{
		capabilities: capabilities,
		responses:    make(map[string]core.Response),
	}
}

// Respond sets the canned response for an action (chainable).
func (a *StubAgent) Respond(action string, resp core.Response) *StubAgent {
	a.responses[action] = resp
	return a
}

// FailWith makes Process return the given error for every request (chainable).
func (a *StubAgent) FailWith(err error) *StubAgent {
	a.processErr = err
	return a
}

// PanicWith makes Process panic with the given message (chainable).
func (a *StubAgent) PanicWith(msg string) *StubAgent {
	a.panicMsg = msg
	return a
}

// Requests returns a copy of all processed requests in order.
func (a *StubAgent) Requests() []core.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Request, len(a.requests))
	copy(out, a.requests)
	return out
}

// Capabilities implements core.Agent.
func (a *StubAgent) Capabilities() []string { return a.capabilities }

// Validate implements core.Agent.
func (a *StubAgent) Validate(req core.Request) bool {
	return core.ActionSupported(a.capabilities, req.Action)
}

// Process implements core.Agent.
func (a *StubAgent) Process(_ context.Context, req core.Request) (core.Response, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	if a.panicMsg != "" {
		panic(a.panicMsg)
	}
	if a.processErr != nil {
		return core.Response{}, a.processErr
	}
	if resp, ok := a.responses[req.Action]; ok {
		return resp, nil
	}

	return core.Ok(map[string]any{"action": req.Action, "params": req.Params}), nil
}
