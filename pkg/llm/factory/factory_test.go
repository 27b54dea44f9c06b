package factory

import (
	"testing"

	"virtual-doctor-be/pkg/llm/gemini"
	"virtual-doctor-be/pkg/llm/mock"
	"virtual-doctor-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    interface{}
		wantErr bool
	}{
		{name: "gemini", cfg: Config{Provider: "gemini", GeminiAPIKey: "k"}, want: &gemini.GeminiProvider{}},
		{name: "gemini without key", cfg: Config{Provider: "gemini"}, wantErr: true},
		{name: "ollama", cfg: Config{Provider: "ollama", Model: "llama3"}, want: &ollama.OllamaProvider{}},
		{name: "mock", cfg: Config{Provider: "mock"}, want: &mock.MockProvider{}},
		{name: "unknown", cfg: Config{Provider: "openai"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLLMProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}
