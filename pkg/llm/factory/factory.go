package factory

import (
	"fmt"

	"virtual-doctor-be/pkg/llm"
	"virtual-doctor-be/pkg/llm/gemini"
	"virtual-doctor-be/pkg/llm/mock"
	"virtual-doctor-be/pkg/llm/ollama"
)

type Config struct {
	Provider      string // "gemini", "ollama" or "mock"
	Model         string
	GeminiAPIKey  string
	GeminiBaseURL string
	OllamaBaseURL string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.Model), nil
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
