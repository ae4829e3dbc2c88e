package workflow

import (
	"fmt"

	"github.com/agentpipe/agentpipe/core"
)

// FailurePolicy controls what the executor does after a step fails or its
// condition evaluates false.
type FailurePolicy string

const (
	// FailureTerminate stops the workflow; already-recorded results stand.
	FailureTerminate FailurePolicy = "terminate"
	// FailureContinue moves on to the next step.
	FailureContinue FailurePolicy = "continue"
)

// Step is one agent invocation within a workflow. Parameter values may be
// literals or template references of the exact form ${path}, resolved
// against the execution context at dispatch time. The JSON tags match the
// wire format produced by the planner.
type Step struct {
	Agent      string         `json:"agent"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters,omitempty"`
	OutputKey  string         `json:"output_key,omitempty"`
	Condition  *Condition     `json:"condition,omitempty"`
	OnFailure  FailurePolicy  `json:"on_failure,omitempty"`
}

// FailureMode returns the effective failure policy; terminate is the default
// when the step does not declare one.
func (s Step) FailureMode() FailurePolicy {
	if s.OnFailure == "" {
		return FailureTerminate
	}
	return s.OnFailure
}

// Workflow is an ordered, registered list of steps with associated metadata.
// Immutable once registered under a given id.
type Workflow struct {
	ID       string         `json:"id"`
	Steps    []Step         `json:"steps"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StepResult records the outcome of one executed step. The trace of
// StepResults is append-only: never mutated after append, only read.
type StepResult struct {
	Step    int           `json:"step"`
	Agent   string        `json:"agent"`
	Action  string        `json:"action"`
	Success bool          `json:"success"`
	Result  core.Response `json:"result"`
}

// Outcome is the structured result of one workflow execution. Success is the
// logical AND of all recorded step results; steps skipped by early
// termination are simply absent from Results. Error is set only for
// execution-level failures such as an unknown workflow id.
type Outcome struct {
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	ExecutionID string         `json:"execution_id,omitempty"`
	WorkflowID  string         `json:"workflow_id,omitempty"`
	Results     []StepResult   `json:"results"`
	Context     map[string]any `json:"context,omitempty"`
}

// ValidateSteps checks that every step names both an agent and an action and
// references an agent the caller knows about. Used by the registry so that
// registration fails atomically on the first violation.
func ValidateSteps(steps []Step, agentExists func(name string) bool) error {
	for i, step := range steps {
		if step.Agent == "" {
			return fmt.Errorf("step %d: missing agent", i)
		}
		if step.Action == "" {
			return fmt.Errorf("step %d: missing action", i)
		}
		if !agentExists(step.Agent) {
			return fmt.Errorf("step %d: unknown agent %q", i, step.Agent)
		}
	}
	return nil
}
