// Package strings provides small string-slice utilities shared by the
// engines.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and blank entries from a slice, trimming
// whitespace from each element. Order of first occurrence is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}
