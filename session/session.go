package session

import (
	"time"

	"github.com/agentpipe/agentpipe/workflow"
)

// Session is the unit of conversational state. Data holds arbitrary
// key/value pairs shared across executions; Executions records every
// workflow outcome produced under this session in order.
type Session struct {
	ID         string             `json:"id"`
	Data       map[string]any     `json:"data"`
	Executions []workflow.Outcome `json:"executions"`
	Created    time.Time          `json:"created"`
	Updated    time.Time          `json:"updated"`
}

// NewSession allocates an empty session with the given id.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:      id,
		Data:    make(map[string]any),
		Created: now,
		Updated: now,
	}
}

// Clone returns a shallow-value copy of the session. The data map and
// execution slice are copied so callers cannot mutate store internals;
// values inside them are shared.
func (s *Session) Clone() *Session {
	data := make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	execs := make([]workflow.Outcome, len(s.Executions))
	copy(execs, s.Executions)
	return &Session{
		ID:         s.ID,
		Data:       data,
		Executions: execs,
		Created:    s.Created,
		Updated:    s.Updated,
	}
}

// MergeData applies a key/value delta to the session data map.
func (s *Session) MergeData(delta map[string]any) {
	for k, v := range delta {
		s.Data[k] = v
	}
	s.Updated = time.Now().UTC()
}

// AddExecution appends a workflow outcome to the session history.
func (s *Session) AddExecution(outcome workflow.Outcome) {
	s.Executions = append(s.Executions, outcome)
	s.Updated = time.Now().UTC()
}

// Store abstracts session persistence. Implementations must be safe for
// concurrent use and must return cloned sessions so callers never hold
// references into internal state.
type Store interface {
	// Get returns an existing session or creates one lazily.
	Get(sessionID string) (*Session, error)

	// Create forces creation (or reset) of a session with the given id.
	Create(sessionID string) (*Session, error)

	// AppendExecution records a workflow outcome on an existing or newly
	// created session.
	AppendExecution(sessionID string, outcome workflow.Outcome) error

	// ApplyDelta merges a key/value delta into the session data map.
	ApplyDelta(sessionID string, delta map[string]any) error
}
