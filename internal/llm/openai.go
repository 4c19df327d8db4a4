package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaajung-kjs/kepco-survey/schema"
	openai "github.com/sashabaranov/go-openai"
)

// openAINarrator talks to the OpenAI chat completions API.
type openAINarrator struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

func newOpenAINarrator(cfg Config) (*openAINarrator, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = httpClient(cfg.Timeout)

	return &openAINarrator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Narrate implements contract.Narrator.
func (n *openAINarrator) Narrate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       n.model,
		Messages:    messages,
		Temperature: float32(n.temperature),
		MaxTokens:   n.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai API error (%d): %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Name implements contract.Narrator.
func (n *openAINarrator) Name() string {
	return providerName(schema.OpenAIProvider, n.model)
}
