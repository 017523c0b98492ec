package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrMissingAPIKey = errors.New("llm api key is empty")

// Generator sends a single prompt to a language model and returns its reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string, onChunk func(string) error) (string, error)
}

type ProviderConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

func NewGenerator(ctx context.Context, cfg ProviderConfig) (Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAICompatibleClient(ChatConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
