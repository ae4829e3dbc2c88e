package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentpipe/agentpipe/model"
	"github.com/agentpipe/agentpipe/workflow"
)

// Plan describes a workflow generated from a natural language query. The
// workflow is already registered and ready for execution when PlanWorkflow
// returns it.
type Plan struct {
	WorkflowID string          `json:"workflow_id"`
	Steps      []workflow.Step `json:"steps"`
	Query      string          `json:"query"`
}

const plannerInstructions = `You are a workflow planner for an agent orchestration system.
Given a user request, produce a workflow as a JSON array of steps. Each step is an object with:
  "agent":      name of the agent to call (must be one of the available agents)
  "action":     the action to invoke on that agent
  "parameters": object of parameters for the action; a value of the form "${key}" or "${key.path}" references earlier step output
  "output_key": key under which the step result is stored for later steps (optional)
  "on_failure": "terminate" or "continue" (optional, default "terminate")

Respond with ONLY the JSON array, no prose and no code fences.`

// PlanOptions configures a single planning request.
type PlanOptions struct {
	// Agents restricts the prompt to a subset of the registered agents.
	// Empty means all registered agents are offered to the model.
	Agents []string
}

// WithAgents restricts the planner to the named agents.
func WithAgents(agents ...string) func(o *PlanOptions) {
	return func(o *PlanOptions) { o.Agents = agents }
}

// PlanWorkflow asks the model backend to turn a natural language query into
// a workflow, registers the generated workflow under a fresh id and returns
// the plan. The generated workflow goes through the same validation as any
// manually registered one, so plans referencing unknown agents are rejected.
// Planning never executes the workflow.
func (e *Engine) PlanWorkflow(ctx context.Context, query string, optFns ...func(o *PlanOptions)) (*Plan, error) {
	if e.model == nil {
		return nil, fmt.Errorf("no model configured for workflow planning")
	}

	opts := PlanOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	messages := []model.Message{
		model.SystemMessage(e.plannerPrompt(opts.Agents)),
		model.UserMessage(query),
	}

	start := time.Now()
	completion, err := e.model.Complete(ctx, messages, func(o *model.Options) {
		o.Temperature = e.config.PlannerTemperature
		o.MaxTokens = e.config.PlannerMaxTokens
	})
	if err != nil {
		return nil, fmt.Errorf("failed to plan workflow: %w", err)
	}

	e.logger.Debug("planner completion received model=%s duration=%s", e.model.Info().Name, time.Since(start))

	steps, err := extractSteps(completion.Message.Content)
	if err != nil {
		return nil, err
	}

	wf := &workflow.Workflow{
		ID:    fmt.Sprintf("generated-%s", uuid.NewString()[:8]),
		Steps: steps,
		Metadata: map[string]any{
			"generated": true,
			"query":     query,
		},
	}

	if err := e.RegisterWorkflow(wf); err != nil {
		return nil, fmt.Errorf("failed to register generated workflow: %w", err)
	}

	return &Plan{WorkflowID: wf.ID, Steps: steps, Query: query}, nil
}

// plannerPrompt builds the system prompt enumerating registered agents and
// their capabilities, optionally restricted to a subset. Agents are listed
// in stable order so identical registries produce identical prompts.
func (e *Engine) plannerPrompt(subset []string) string {
	e.agentsMu.RLock()
	names := make([]string, 0, len(e.agents))
	if len(subset) > 0 {
		for _, name := range subset {
			if _, ok := e.agents[name]; ok {
				names = append(names, name)
			}
		}
	} else {
		for name := range e.agents {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(plannerInstructions)
	b.WriteString("\n\nAvailable agents:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %s\n", name, strings.Join(e.agents[name].Capabilities(), ", "))
	}
	e.agentsMu.RUnlock()

	return b.String()
}

// extractSteps pulls the step list out of a model completion. Models often
// wrap the JSON in prose or code fences, so the parser takes the outermost
// array delimiters; a single object is accepted and treated as a one step
// plan.
func extractSteps(content string) ([]workflow.Step, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return nil, fmt.Errorf("failed to extract workflow plan: no JSON found in model output")
	}

	var steps []workflow.Step
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("failed to extract workflow plan: %w", err)
	}

	return steps, nil
}

// extractJSON returns the substring spanning the first '[' to the last ']'.
// When no array is present it falls back to the first '{' to the last '}'
// wrapped into a single element array.
func extractJSON(content string) (string, bool) {
	if start := strings.Index(content, "["); start >= 0 {
		if end := strings.LastIndex(content, "]"); end > start {
			return content[start : end+1], true
		}
	}
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			return "[" + content[start:end+1] + "]", true
		}
	}
	return "", false
}
