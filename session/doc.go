// Package session tracks per-conversation state across workflow executions.
//
// A Session carries a free-form data map plus the ordered history of
// workflow outcomes produced under it. The Store interface abstracts
// persistence; InMemoryStore is the bundled volatile implementation.
package session
