package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator validates a parsed value after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

// ExtractJSON extracts a JSON object of type T from raw model output.
// The text is parsed directly first; if that fails, the greedy brace
// span from the first '{' through the last '}' is parsed instead.
// Providers wrap structured output in prose often enough that the
// salvage path is mandatory even under a strict schema directive.
// If validator is non-nil, the extracted value is validated before return.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	text := strings.TrimSpace(raw)

	var result T
	err := json.Unmarshal([]byte(text), &result)
	if err != nil {
		span := braceSpan(text)
		if span == "" {
			return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
		}
		if err := json.Unmarshal([]byte(span), &result); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
		}
	}

	return result, nil
}

// braceSpan returns the greedy substring from the first '{' to the last
// '}', or "" when no such span exists.
func braceSpan(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
