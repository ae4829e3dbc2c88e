// Package engine implements the orchestration core: a thread-safe registry
// of agents and workflows, a step-by-step workflow executor, and a model
// backed planner that turns natural language queries into executable
// workflows.
//
// The engine treats agent failures as data. A failing step produces a
// failed step result inside the workflow outcome rather than an error
// return; Go errors are reserved for conditions that prevent orchestration
// itself (unknown workflow, planner backend failures, broken session
// storage).
package engine
