// Package model abstracts the text-generation backend used by the workflow
// planner. The Model interface takes an ordered message list and returns a
// single completion; provider adapters for Anthropic and OpenAI live in the
// respective subpackages. MockModel provides deterministic canned completions
// for tests and examples.
package model
