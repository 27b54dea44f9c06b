package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LLM_MAX_ATTEMPTS", "LLM_RETRY_DELAY", "LLM_ATTEMPT_TIMEOUT", "SESSION_BACKEND", "LLM_PROVIDER", "DB_CONNECT_ATTEMPTS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, 10, cfg.Ai.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Ai.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.Ai.AttemptTimeout)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.Equal(t, "postgres", cfg.Session.Backend)
	assert.Equal(t, "gemini", cfg.Ai.LLMProvider)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_MAX_ATTEMPTS", "3")
	t.Setenv("LLM_RETRY_DELAY", "250ms")
	t.Setenv("LLM_ATTEMPT_TIMEOUT", "5")
	t.Setenv("SESSION_BACKEND", "Memory")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_MODEL", "qwen2.5")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 3, cfg.Ai.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Ai.RetryDelay)
	assert.Equal(t, 5*time.Second, cfg.Ai.AttemptTimeout)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "qwen2.5", cfg.Ai.Model())
	assert.True(t, cfg.Tracing.Enabled)
}
