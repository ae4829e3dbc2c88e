package engine

import (
	"fmt"

	"github.com/agentpipe/agentpipe/workflow"
)

// RegisterWorkflow validates and registers a workflow definition. Validation
// is atomic: the workflow is rejected as a whole when its id is empty or
// already taken, or when any step omits an agent or action or names an
// unregistered agent. A rejected workflow leaves the registry untouched.
func (e *Engine) RegisterWorkflow(wf *workflow.Workflow) error {
	if wf == nil {
		return fmt.Errorf("workflow must not be nil")
	}
	if wf.ID == "" {
		return fmt.Errorf("workflow id must not be empty")
	}

	// Hold both locks so agent registrations cannot race the step check.
	e.agentsMu.RLock()
	defer e.agentsMu.RUnlock()
	e.workflowsMu.Lock()
	defer e.workflowsMu.Unlock()

	if _, exists := e.workflows[wf.ID]; exists {
		return fmt.Errorf("workflow %s already registered", wf.ID)
	}

	agentExists := func(name string) bool {
		_, ok := e.agents[name]
		return ok
	}
	if err := workflow.ValidateSteps(wf.Steps, agentExists); err != nil {
		return fmt.Errorf("invalid workflow %s: %w", wf.ID, err)
	}

	e.workflows[wf.ID] = wf
	e.logger.Info("workflow registered id=%s steps=%d", wf.ID, len(wf.Steps))

	return nil
}

// UnregisterWorkflow removes a workflow by id. It returns false when no
// workflow with that id is registered.
func (e *Engine) UnregisterWorkflow(id string) bool {
	e.workflowsMu.Lock()
	defer e.workflowsMu.Unlock()

	if _, exists := e.workflows[id]; !exists {
		return false
	}

	delete(e.workflows, id)
	e.logger.Info("workflow unregistered id=%s", id)

	return true
}

// GetWorkflow retrieves a registered workflow by id.
func (e *Engine) GetWorkflow(id string) (*workflow.Workflow, bool) {
	e.workflowsMu.RLock()
	defer e.workflowsMu.RUnlock()
	wf, ok := e.workflows[id]
	return wf, ok
}

// ListWorkflows returns the ids of all registered workflows.
func (e *Engine) ListWorkflows() []string {
	e.workflowsMu.RLock()
	defer e.workflowsMu.RUnlock()

	ids := make([]string, 0, len(e.workflows))
	for id := range e.workflows {
		ids = append(ids, id)
	}

	return ids
}
