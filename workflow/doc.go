// Package workflow defines the declarative workflow model executed by the
// engine: ordered steps with templated parameters, optional conditional
// gating, per-step failure policies, and the structured outcome produced by
// one execution. Conditions are a small fixed vocabulary, deliberately not a
// scripting language, and evaluate fail-closed.
package workflow
