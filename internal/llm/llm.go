// Package llm wraps the generative text API behind a small interface so the
// drafting layer can be tested with a fake.
package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Provider is the interface for LLM providers.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

// OpenAIProvider calls the OpenAI chat completion API, trying an ordered
// list of models and stopping at the first that returns usable text. A
// later model in the list is only reached when the one before it errors or
// returns an empty completion.
type OpenAIProvider struct {
	client *openai.Client
	models []string
	apiKey string
}

// NewOpenAIProvider creates a provider over the given model fallback list.
// baseURL overrides the API endpoint; empty means the real API.
func NewOpenAIProvider(apiKey string, models []string, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		models: models,
		apiKey: apiKey,
	}
}

// IsConfigured reports whether an API key is present.
func (p *OpenAIProvider) IsConfigured() bool {
	return p.apiKey != ""
}

// Generate sends the prompt through the model fallback list. Every attempt
// is logged so a fallback is visible in the run log.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if len(p.models) == 0 {
		return "", fmt.Errorf("no models configured")
	}

	var lastErr error
	for _, model := range p.models {
		text, err := p.generateWith(ctx, model, prompt, maxTokens)
		if err != nil {
			log.Printf("Model %s failed: %v", model, err)
			lastErr = err
			continue
		}
		log.Printf("Model %s produced %d chars", model, len(text))
		return text, nil
	}

	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func (p *OpenAIProvider) generateWith(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.8,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}
