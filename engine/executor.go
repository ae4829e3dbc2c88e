package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentpipe/agentpipe/core"
	"github.com/agentpipe/agentpipe/internal/util"
	"github.com/agentpipe/agentpipe/workflow"
)

// ExecuteOptions configures a single workflow execution.
type ExecuteOptions struct {
	// InitialContext pre-populates the execution context before the input
	// is seeded. Later steps overwrite colliding keys via their output key.
	InitialContext map[string]any
}

// WithInitialContext seeds extra execution context entries.
func WithInitialContext(initial map[string]any) func(o *ExecuteOptions) {
	return func(o *ExecuteOptions) { o.InitialContext = initial }
}

// ExecuteWorkflow runs a registered workflow against the given input and
// returns the outcome. Failures are reported inside the outcome rather than
// as an error return; the returned outcome is never nil.
//
// Execution maintains a shared context map; caller input, when given, is
// seeded under the "input" key. Step parameters of the form "${path}" are
// resolved against that context before dispatch; each successful step
// publishes its result under its output key for later steps to reference.
// Conditions and failure policies can cut the run short, in which case the
// outcome carries the partial step trace.
//
// The aggregate Success flag is true only when every executed step
// succeeded.
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowID string, input map[string]any, optFns ...func(o *ExecuteOptions)) (outcome *workflow.Outcome) {
	opts := ExecuteOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	executionID := uuid.NewString()

	outcome = &workflow.Outcome{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Results:     []workflow.StepResult{},
	}

	// A panicking condition or template value must not take down the
	// caller; the partial step trace is returned instead.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("workflow %s execution panicked: %v", workflowID, r)
			outcome.Success = false
			outcome.Error = fmt.Sprintf("workflow execution panicked: %v", r)
		}
		e.recordExecution(*outcome)
	}()

	wf, ok := e.GetWorkflow(workflowID)
	if !ok {
		outcome.Error = fmt.Sprintf("Workflow not found: %s", workflowID)
		return outcome
	}

	start := time.Now()

	execContext := make(map[string]any, len(opts.InitialContext)+1)
	for k, v := range opts.InitialContext {
		execContext[k] = v
	}
	if input != nil {
		execContext["input"] = input
	}

	for i, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			outcome.Error = err.Error()
			outcome.Context = execContext
			return outcome
		}

		resp := e.executeStep(ctx, step, execContext)

		outcome.Results = append(outcome.Results, workflow.StepResult{
			Step:    i,
			Agent:   step.Agent,
			Action:  step.Action,
			Success: resp.Success,
			Result:  resp,
		})

		if resp.Success && step.OutputKey != "" {
			execContext[step.OutputKey] = stepOutput(resp)
		}

		if step.Condition != nil && !step.Condition.Evaluate(execContext, resp) &&
			step.FailureMode() == workflow.FailureTerminate {
			e.logger.Debug("workflow %s halted at step %d, condition not met", workflowID, i)
			break
		}

		if !resp.Success && step.FailureMode() == workflow.FailureTerminate {
			e.logger.Debug("workflow %s terminated at step %d after failure", workflowID, i)
			break
		}
	}

	outcome.Success = allSucceeded(outcome.Results)
	outcome.Context = execContext

	e.logger.Info("workflow execution completed id=%s execution_id=%s steps=%d success=%t duration=%s",
		workflowID, executionID, len(outcome.Results), outcome.Success, time.Since(start))

	return outcome
}

// executeStep resolves the step parameters against the execution context and
// dispatches the request to the step's agent. A missing agent produces a
// failed response instead of aborting the run.
func (e *Engine) executeStep(ctx context.Context, step workflow.Step, execContext map[string]any) core.Response {
	meta := &core.Metadata{
		SessionID: e.sessionID,
		Timestamp: time.Now().UTC(),
		Agent:     step.Agent,
	}

	agent, ok := e.GetAgent(step.Agent)
	if !ok {
		resp := core.Errorf("Agent not found: %s", step.Agent)
		resp.Metadata = meta
		return resp
	}

	req := core.NewRequest(step.Action, util.ResolveParams(step.Parameters, execContext))
	req.Metadata = meta

	return e.invokeAgent(ctx, agent, step.Agent, req)
}

// stepOutput picks what a successful step publishes into the execution
// context: the data payload when present, otherwise the full response.
func stepOutput(resp core.Response) any {
	if resp.Data != nil {
		return resp.Data
	}
	return resp
}

func allSucceeded(results []workflow.StepResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

// recordExecution appends the outcome to the engine session history.
func (e *Engine) recordExecution(outcome workflow.Outcome) {
	if err := e.sessionStore.AppendExecution(e.sessionID, outcome); err != nil {
		e.logger.Warn("failed to record execution %s: %v", outcome.ExecutionID, err)
	}
}
