package database

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	identifier   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Statement keywords that mutate data or schema. Matched as whole words so
// column names like created_at stay legal.
var forbiddenKeywords = []string{
	"insert", "update", "delete", "replace", "drop", "alter", "create",
	"truncate", "grant", "revoke", "lock", "call", "set", "load",
}

// SanitizeQuery enforces the read-only contract on raw SQL. It strips
// comments, rejects stacked statements and anything that is not a single
// SELECT, and returns the cleaned query.
func SanitizeQuery(query string) (string, error) {
	cleaned := lineComment.ReplaceAllString(query, " ")
	cleaned = blockComment.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, ";")

	if cleaned == "" {
		return "", fmt.Errorf("query is empty")
	}
	if strings.Contains(cleaned, ";") {
		return "", fmt.Errorf("multiple statements are not allowed")
	}

	lowered := strings.ToLower(cleaned)
	if !strings.HasPrefix(lowered, "select") && !strings.HasPrefix(lowered, "with") && !strings.HasPrefix(lowered, "show") && !strings.HasPrefix(lowered, "describe") {
		return "", fmt.Errorf("only SELECT queries are allowed")
	}

	for _, kw := range forbiddenKeywords {
		pattern := regexp.MustCompile(`(?i)\b` + kw + `\b`)
		if pattern.MatchString(lowered) {
			return "", fmt.Errorf("forbidden keyword in query: %s", kw)
		}
	}

	return cleaned, nil
}

// validIdentifier guards table and column names interpolated into SQL.
func validIdentifier(name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("invalid identifier: %q", name)
	}
	return nil
}
