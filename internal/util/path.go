// Package util holds small internal helpers shared by the engine: safe
// dotted-path navigation over generic map trees and workflow parameter
// template resolution. This lives in internal to avoid committing to public
// API stability prematurely.
package util

import "strings"

// Lookup walks a dotted path through nested map[string]any values starting
// at root. It returns the resolved value and true, or nil and false as soon
// as a segment is missing or the current node is not a map. It never panics;
// absence is an explicit result, not an error.
func Lookup(root map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = root
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
