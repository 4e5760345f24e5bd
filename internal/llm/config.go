package llm

import (
	"os"
	"strconv"
)

// Config holds all configuration for the model client.
type Config struct {
	// APIKey authenticates against the provider. An empty key is a
	// configuration error surfaced on the first call, never retried.
	APIKey string

	// Model is the provider model name.
	Model string

	// BaseURL is the provider API root, without a trailing slash.
	// Overridable for tests and compatible gateways.
	BaseURL string

	// TimeoutMs bounds the whole HTTP exchange. This is a transport
	// default, not a managed per-call deadline.
	TimeoutMs int

	// LogCalls enables call telemetry on stderr.
	LogCalls bool
}

// DefaultConfig returns a Config with production defaults and no key.
func DefaultConfig() Config {
	return Config{
		Model:     "gpt-5-nano",
		BaseURL:   "https://api.openai.com/v1",
		TimeoutMs: 60000,
	}
}

// LoadConfig reads client configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("UNMASK_OPENAI_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("UNMASK_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("UNMASK_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}

	return cfg
}
