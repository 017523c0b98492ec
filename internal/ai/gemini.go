package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the official GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, userContent(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return resp.Text(), nil
}

func (c *GeminiClient) GenerateStream(ctx context.Context, prompt string, onChunk func(string) error) (string, error) {
	var full strings.Builder
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, userContent(prompt), nil) {
		if err != nil {
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		full.WriteString(text)
		if onChunk != nil {
			if err := onChunk(text); err != nil {
				return "", err
			}
		}
	}
	return full.String(), nil
}

func userContent(prompt string) []*genai.Content {
	return []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
}
