package workflow

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/agentpipe/agentpipe/core"
	"github.com/agentpipe/agentpipe/internal/util"
)

// Condition types.
const (
	ConditionSimple = "simple"
	ConditionCustom = "custom"
)

// Simple condition operators.
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpGt       = "gt"
	OpLt       = "lt"
	OpContains = "contains"
	OpExists   = "exists"
)

// Custom condition functions.
const (
	FuncAllSuccess = "all_success"
	FuncHasData    = "has_data"
)

// Condition gates a workflow step. A "simple" condition compares a value
// resolved from a dotted path (rooted at result. or context.) against
// Expected using Operator; a "custom" condition names a fixed predicate over
// the step result. Evaluation is fail-closed: unknown types, unknown
// operators and unresolvable paths all evaluate false, never panic.
type Condition struct {
	Type     string `json:"type"`
	Value    string `json:"value,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Operator string `json:"operator,omitempty"`
	Function string `json:"function,omitempty"`
}

// Evaluate is a pure function of (condition, context, step result) with no
// side effects.
func (c *Condition) Evaluate(context map[string]any, result core.Response) bool {
	condType := c.Type
	if condType == "" {
		condType = ConditionSimple
	}

	switch condType {
	case ConditionSimple:
		return c.evaluateSimple(context, result)
	case ConditionCustom:
		return c.evaluateCustom(result)
	default:
		return false
	}
}

func (c *Condition) evaluateSimple(context map[string]any, result core.Response) bool {
	actual, resolved := resolveValue(c.Value, context, result)

	operator := c.Operator
	if operator == "" {
		operator = OpEq
	}

	// A path that named a root but failed to resolve fails the whole
	// condition regardless of operator.
	if !resolved && pathRooted(c.Value) {
		return false
	}

	switch operator {
	case OpEq:
		return looseEqual(actual, c.Expected)
	case OpNe:
		return !looseEqual(actual, c.Expected)
	case OpGt:
		a, aOK := toNumber(actual)
		b, bOK := toNumber(c.Expected)
		return aOK && bOK && a > b
	case OpLt:
		a, aOK := toNumber(actual)
		b, bOK := toNumber(c.Expected)
		return aOK && bOK && a < b
	case OpContains:
		return containsValue(actual, c.Expected)
	case OpExists:
		return actual != nil
	default:
		return false
	}
}

func (c *Condition) evaluateCustom(result core.Response) bool {
	switch c.Function {
	case FuncAllSuccess:
		return result.Success
	case FuncHasData:
		return hasData(result.Data)
	default:
		return false
	}
}

func pathRooted(path string) bool {
	return strings.HasPrefix(path, "result.") || strings.HasPrefix(path, "context.")
}

// resolveValue walks a condition value path. result.<path> navigates the
// current step's result object, context.<path> the execution context; any
// other path yields no value.
func resolveValue(path string, context map[string]any, result core.Response) (any, bool) {
	switch {
	case strings.HasPrefix(path, "result."):
		return util.Lookup(resultTree(result), strings.TrimPrefix(path, "result."))
	case strings.HasPrefix(path, "context."):
		return util.Lookup(context, strings.TrimPrefix(path, "context."))
	default:
		return nil, false
	}
}

// resultTree exposes a step result as a navigable map so dotted paths like
// result.data.key work uniformly.
func resultTree(r core.Response) map[string]any {
	return map[string]any{
		"success": r.Success,
		"data":    r.Data,
		"error":   r.Error,
	}
}

// looseEqual compares values the way JSON-shaped data wants to be compared:
// numerically when both operands are numbers (so int 5 equals float64 5),
// deep equality otherwise.
func looseEqual(a, b any) bool {
	if fa, ok := toNumber(a); ok {
		if fb, ok := toNumber(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toNumber(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return cast.ToFloat64(v), true
	default:
		return 0, false
	}
}

// containsValue implements the contains operator: substring when both sides
// are strings, element membership for slices, key membership for maps.
func containsValue(actual, expected any) bool {
	switch a := actual.(type) {
	case string:
		e, ok := expected.(string)
		return ok && strings.Contains(a, e)
	case []any:
		for _, item := range a {
			if looseEqual(item, expected) {
				return true
			}
		}
		return false
	case []string:
		e, err := cast.ToStringE(expected)
		if err != nil {
			return false
		}
		for _, item := range a {
			if item == e {
				return true
			}
		}
		return false
	case map[string]any:
		e, err := cast.ToStringE(expected)
		if err != nil {
			return false
		}
		_, ok := a[e]
		return ok
	default:
		return false
	}
}

// hasData reports whether a result payload is present and non-empty.
func hasData(data any) bool {
	switch d := data.(type) {
	case nil:
		return false
	case string:
		return d != ""
	case map[string]any:
		return len(d) > 0
	case []any:
		return len(d) > 0
	default:
		rv := reflect.ValueOf(data)
		switch rv.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array:
			return rv.Len() > 0
		}
		return true
	}
}
