package util

import "strings"

// IsTemplateRef reports whether a parameter value is a template reference:
// a string whose entire value has the form ${path}. Partial interpolation
// ("prefix-${x}") is not supported and is passed through as a literal.
func IsTemplateRef(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return "", false
	}
	return s[2 : len(s)-1], true
}

// ResolveParams resolves template references in params against the execution
// context, returning a fresh map. Each ${path} value is tried first as a
// direct context key, then as a dotted walk from the context root. Unresolved
// references keep their literal template string; resolution is best effort
// and never fails a step.
func ResolveParams(params map[string]any, context map[string]any) map[string]any {
	resolved := make(map[string]any, len(params))

	for key, value := range params {
		path, ok := IsTemplateRef(value)
		if !ok {
			resolved[key] = value
			continue
		}

		if v, ok := context[path]; ok {
			resolved[key] = v
			continue
		}

		if strings.Contains(path, ".") {
			if v, ok := Lookup(context, path); ok {
				resolved[key] = v
				continue
			}
		}

		resolved[key] = value
	}

	return resolved
}
