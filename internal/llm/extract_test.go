package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Guidance    string   `json:"guidance"`
	HintBullets []string `json:"hintBullets"`
}

func TestExtractJSON_CleanJSON(t *testing.T) {
	raw := `{"guidance":"breathe","hintBullets":["a","b"]}`
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "breathe", result.Guidance)
	assert.Equal(t, []string{"a", "b"}, result.HintBullets)
}

func TestExtractJSON_SurroundingText(t *testing.T) {
	raw := "prefix noise {\"guidance\":\"x\",\"hintBullets\":[\"a\",\"b\"]} trailing"
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", result.Guidance)
	assert.Len(t, result.HintBullets, 2)
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	type nested struct {
		Outer map[string]string `json:"outer"`
	}
	raw := "note:\n{\"outer\":{\"k\":\"v\"}}\ndone"
	result, err := ExtractJSON[nested](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "v", result.Outer["k"])
}

func TestExtractJSON_NoBracePair(t *testing.T) {
	_, err := ExtractJSON[testPayload]("no object here at all", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_InvalidJSON(t *testing.T) {
	_, err := ExtractJSON[testPayload](`{"guidance": broken}`, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidatorRejects(t *testing.T) {
	raw := `{"guidance":"","hintBullets":[]}`
	validator := func(p testPayload) error {
		if p.Guidance == "" {
			return fmt.Errorf("guidance is required")
		}
		return nil
	}
	_, err := ExtractJSON(raw, validator)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestExtractJSON_ValidatorAccepts(t *testing.T) {
	raw := `{"guidance":"ok","hintBullets":["a","b"]}`
	validator := func(p testPayload) error {
		if p.Guidance == "" {
			return fmt.Errorf("guidance is required")
		}
		return nil
	}
	result, err := ExtractJSON(raw, validator)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Guidance)
}

func TestBraceSpan_Greedy(t *testing.T) {
	// The span runs from the first '{' to the last '}', so trailing
	// objects are absorbed into one candidate rather than truncated.
	assert.Equal(t, `{"a":1}`, braceSpan(`x {"a":1} y`))
	assert.Equal(t, `{"a":{"b":2}}`, braceSpan(`{"a":{"b":2}}`))
	assert.Equal(t, "", braceSpan("nothing"))
	assert.Equal(t, "", braceSpan("} reversed {"))
}
