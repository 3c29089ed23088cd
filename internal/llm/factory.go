package llm

import (
	"fmt"
	"time"

	"brainvoice/internal/config"
)

// NewProvider creates an LLM provider from config.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	switch cfg.Provider {
	case "openai", "openrouter", "local":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    timeout,
			MaxRetries: 2,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// NewChain builds the primary provider and, when configured, wraps it with a fallback.
func NewChain(primary config.LLMConfig, fallback *config.LLMConfig) (Provider, error) {
	p, err := NewProvider(primary)
	if err != nil {
		return nil, err
	}
	if fallback == nil || fallback.Provider == "" {
		return p, nil
	}
	fb, err := NewProvider(*fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return NewFallbackProvider(p, fb), nil
}
