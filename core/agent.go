package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cast"
)

// Agent is the core interface every service façade in AgentPipe implements.
//
// An agent wraps exactly one external service (issue tracker, source control
// host, object store, relational database, ...) and exposes a fixed action
// vocabulary. The engine dispatches one Request per workflow step and expects
// a structured Response back.
//
// Implementations must:
//   - Report every supported action name via Capabilities
//   - Reject malformed requests in Validate without side effects
//   - Return service failures as Response{Success:false, Error:...} where
//     possible; returned errors and panics are converted to failure
//     responses at the engine boundary either way
type Agent interface {
	// Process executes a single action request against the backing service.
	Process(ctx context.Context, req Request) (Response, error)

	// Capabilities returns the action names this agent supports.
	Capabilities() []string

	// Validate reports whether the request can be processed by this agent.
	Validate(req Request) bool
}

// Metadata carries execution details attached to requests and responses for
// observability: which engine session issued the call, when, and which
// registered agent name it targeted.
type Metadata struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
}

// Request is the envelope dispatched to an agent for one action.
type Request struct {
	Action   string         `json:"action"`
	Params   map[string]any `json:"params,omitempty"`
	Metadata *Metadata      `json:"metadata,omitempty"`
}

// NewRequest builds a request for the given action. A nil params map is
// replaced with an empty one so agents can index it unconditionally.
func NewRequest(action string, params map[string]any) Request {
	if params == nil {
		params = map[string]any{}
	}
	return Request{Action: action, Params: params}
}

// Param returns the raw parameter value and whether it is present.
func (r Request) Param(key string) (any, bool) {
	v, ok := r.Params[key]
	return v, ok
}

// HasParam reports whether the parameter is present.
func (r Request) HasParam(key string) bool {
	_, ok := r.Params[key]
	return ok
}

// StringParam returns the parameter coerced to string, or def when absent.
func (r Request) StringParam(key, def string) string {
	v, ok := r.Params[key]
	if !ok {
		return def
	}
	return cast.ToString(v)
}

// IntParam returns the parameter coerced to int, or def when absent or not
// coercible.
func (r Request) IntParam(key string, def int) int {
	v, ok := r.Params[key]
	if !ok {
		return def
	}
	if n, err := cast.ToIntE(v); err == nil {
		return n
	}
	return def
}

// StringSliceParam returns the parameter coerced to a string slice, or nil
// when absent or not coercible.
func (r Request) StringSliceParam(key string) []string {
	v, ok := r.Params[key]
	if !ok {
		return nil
	}
	if s, err := cast.ToStringSliceE(v); err == nil {
		return s
	}
	return nil
}

// MapParam returns the parameter as a generic map, or nil when absent or of
// a different shape.
func (r Request) MapParam(key string) map[string]any {
	v, ok := r.Params[key]
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

// Response is the structured result an agent returns for one request.
// Success=false carries a human-readable Error; Data holds the action's
// payload on success.
type Response struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data,omitempty"`
	Error    string    `json:"error,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Ok builds a success response carrying the given payload.
func Ok(data any) Response {
	return Response{Success: true, Data: data}
}

// Errorf builds a failure response with a formatted error message.
func Errorf(format string, args ...any) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}

// ActionSupported reports whether action appears in the capability set.
// Shared by agent Validate implementations.
func ActionSupported(capabilities []string, action string) bool {
	return slices.Contains(capabilities, action)
}
