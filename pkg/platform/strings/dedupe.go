// Package strings provides normalization helpers for user-supplied string
// lists on request DTOs.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  CS-101 ", "MATH-200", "CS-101", ""})
//	// Returns: []string{"CS-101", "MATH-200"}
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower is like DedupeAndTrim but also lowercases each element.
// Certificate identifiers are hex tokens whose parser accepts either case,
// so batch endpoints lower them first: two case-variant spellings of the
// same identifier must collapse to one entry.
//
// Example:
//
//	DedupeAndTrimLower([]string{"  AB12 ", "cd34", "ab12"})
//	// Returns: []string{"ab12", "cd34"}
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

func dedupe(values []string, canon func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		c := canon(v)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			result = append(result, c)
		}
	}

	return result
}
