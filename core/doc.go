// Package core defines the contracts shared across the AgentPipe engine:
// the Agent interface that every service façade implements, and the
// Request/Response envelope exchanged between the engine and agents.
//
// Agents are stateless request processors from the engine's point of view.
// They expose a fixed action vocabulary via Capabilities and answer every
// Process call with a structured Response; failures travel as data
// (Response.Success=false plus Error), never as panics reaching the caller.
package core
