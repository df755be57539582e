package ai

import (
	"fmt"
	"strings"
)

// ProviderConfig selects and configures a generation backend.
type ProviderConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
}

// NewGenerator builds a Generator for model on the configured provider.
// Supported providers: gemini (default), ollama, openai, anthropic.
func NewGenerator(cfg ProviderConfig, model string) (Generator, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("generation model required")
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "gemini"
	}
	switch provider {
	case "gemini":
		client, err := NewGeminiClient(cfg.APIKey, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return NewGeminiGenerator(client, model), nil
	case "ollama":
		return NewOllamaGenerator(NewOllamaClient(cfg.BaseURL), model), nil
	case "openai", "openai-compat":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("openai-compat base url required")
		}
		return NewOpenAICompatGenerator(cfg.BaseURL, cfg.APIKey, model), nil
	case "anthropic":
		return NewAnthropicGenerator(cfg.APIKey, cfg.BaseURL, model)
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", provider)
	}
}
