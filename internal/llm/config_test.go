package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "gpt-5-nano", cfg.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, 60000, cfg.TimeoutMs)
	assert.False(t, cfg.LogCalls)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-5-mini")
	t.Setenv("UNMASK_OPENAI_BASE_URL", "http://localhost:8081/v1")
	t.Setenv("UNMASK_LLM_TIMEOUT_MS", "2500")
	t.Setenv("UNMASK_LLM_LOG_CALLS", "true")

	cfg := LoadConfig()
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "gpt-5-mini", cfg.Model)
	assert.Equal(t, "http://localhost:8081/v1", cfg.BaseURL)
	assert.Equal(t, 2500, cfg.TimeoutMs)
	assert.True(t, cfg.LogCalls)
}

func TestLoadConfig_InvalidTimeoutIgnored(t *testing.T) {
	t.Setenv("UNMASK_LLM_TIMEOUT_MS", "not-a-number")
	cfg := LoadConfig()
	assert.Equal(t, 60000, cfg.TimeoutMs)

	t.Setenv("UNMASK_LLM_TIMEOUT_MS", "-5")
	cfg = LoadConfig()
	assert.Equal(t, 60000, cfg.TimeoutMs)
}
