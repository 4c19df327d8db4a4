package llm

import (
	"context"
	"fmt"

	"github.com/jaajung-kjs/kepco-survey/schema"
	"google.golang.org/genai"
)

// googleNarrator talks to the Gemini generateContent API.
type googleNarrator struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

func newGoogleNarrator(cfg Config) (*googleNarrator, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &googleNarrator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Narrate implements contract.Narrator.
func (n *googleNarrator) Narrate(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(n.temperature)),
		MaxOutputTokens: int32(n.maxTokens),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := n.client.Models.GenerateContent(ctx, n.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("google request failed: %w", err)
	}
	content := resp.Text()
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// Name implements contract.Narrator.
func (n *googleNarrator) Name() string {
	return providerName(schema.GoogleProvider, n.model)
}
