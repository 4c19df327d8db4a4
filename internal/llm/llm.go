// Package llm has the narrative report providers behind contract.Narrator.
// Each provider is wrapped with rate limiting and request metrics.
package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds one provider request.
const DefaultTimeout = 2 * time.Minute

var (
	// ErrNoProvider is returned by New for the "none" provider.
	ErrNoProvider = errors.New("llm provider disabled")

	// ErrEmptyAPIKey is returned when a provider is selected without a key.
	ErrEmptyAPIKey = errors.New("llm api key cannot be empty")

	// ErrEmptyResponse is returned when a provider answers without text.
	ErrEmptyResponse = errors.New("llm returned an empty response")
)

// Config selects and tunes a provider.
type Config struct {
	Provider    schema.LLMProvider
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	RateLimit   float64 // Requests per second, 0 disables pacing
	Timeout     time.Duration
}

// ConfigFrom maps the validated runtime config onto a provider config.
func ConfigFrom(cfg *contract.Config) Config {
	return Config{
		Provider:    cfg.LLMProvider,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		BaseURL:     cfg.LLMBaseURL,
		Temperature: contract.DefaultLLMTemperature,
		MaxTokens:   contract.DefaultLLMMaxTokens,
		RateLimit:   cfg.LLMRateLimit,
		Timeout:     DefaultTimeout,
	}
}

// New builds the provider named in cfg with its middleware. reg may be nil, in which
// case request metrics are collected but not exported.
func New(cfg Config, reg prometheus.Registerer, logger *zap.Logger) (contract.Narrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = contract.DefaultModels[cfg.Provider]
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = contract.DefaultLLMMaxTokens
	}

	var (
		narrator contract.Narrator
		err      error
	)
	switch cfg.Provider {
	case schema.NoProvider:
		return nil, ErrNoProvider
	case schema.OpenAIProvider, "":
		narrator, err = newOpenAINarrator(cfg)
	case schema.AnthropicProvider:
		narrator, err = newAnthropicNarrator(cfg)
	case schema.GoogleProvider:
		narrator, err = newGoogleNarrator(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		narrator = WithRateLimit(narrator, rate.Limit(cfg.RateLimit), 1)
	}
	return WithMetrics(narrator, NewMetrics(reg), logger), nil
}

// httpClient returns the client providers use for their requests.
func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// providerName formats Name() for logs and metric labels.
func providerName(provider schema.LLMProvider, model string) string {
	return string(provider) + "/" + model
}
