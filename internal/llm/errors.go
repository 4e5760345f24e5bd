package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey indicates no provider credential is configured.
	// This is a configuration error: fail fast, no retry.
	ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY")

	// ErrInvalidOutput indicates the model response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid model output format")
)

// TransportError reports a non-success HTTP status from the provider.
// The raw response body is preserved for diagnostics; it is never parsed.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}
