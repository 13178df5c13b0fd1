package domain

import "strings"

// ValidationError reports rejected input. Fields holds one human-readable
// entry per failing field, surfaced verbatim in error response details.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// Invalid builds a ValidationError from field messages.
func Invalid(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}
