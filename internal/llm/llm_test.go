package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/store"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// TestNew tests provider selection.
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		want    string
	}{
		{"none", Config{Provider: schema.NoProvider}, ErrNoProvider, ""},
		{"openai without key", Config{Provider: schema.OpenAIProvider}, ErrEmptyAPIKey, ""},
		{"anthropic without key", Config{Provider: schema.AnthropicProvider}, ErrEmptyAPIKey, ""},
		{"google without key", Config{Provider: schema.GoogleProvider}, ErrEmptyAPIKey, ""},
		{"openai default model", Config{Provider: schema.OpenAIProvider, APIKey: "k"}, nil, "openai/gpt-4o-mini"},
		{"anthropic custom model", Config{Provider: schema.AnthropicProvider, APIKey: "k", Model: "claude-x"}, nil, "anthropic/claude-x"},
		{"google rate limited", Config{Provider: schema.GoogleProvider, APIKey: "k", RateLimit: 2}, nil, "google/gemini-2.0-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(tt.cfg, nil, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, n)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.Name())
		})
	}

	_, err := New(Config{Provider: "bedrock", APIKey: "k"}, nil, nil)
	assert.Error(t, err)
}

// TestConfigFrom tests the mapping from runtime config.
func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(&contract.Config{
		LLMProvider:  schema.AnthropicProvider,
		LLMAPIKey:    "secret",
		LLMModel:     "claude-3-5-haiku-latest",
		LLMRateLimit: 0.5,
	})
	assert.Equal(t, schema.AnthropicProvider, cfg.Provider)
	assert.Equal(t, contract.DefaultLLMTemperature, cfg.Temperature)
	assert.Equal(t, contract.DefaultLLMMaxTokens, cfg.MaxTokens)
	assert.Equal(t, 0.5, cfg.RateLimit)
}

// TestOpenAINarrate tests the chat completion request and response handling.
func TestOpenAINarrate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"## 요약"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`)
	}))
	defer server.Close()

	n, err := newOpenAINarrator(Config{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1", Temperature: 0.7, MaxTokens: 2000})
	require.NoError(t, err)

	content, err := n.Narrate(context.Background(), "system persona", "prompt body")
	require.NoError(t, err)
	assert.Equal(t, "## 요약", content)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 2000, got["max_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-6)
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "prompt body", messages[1].(map[string]any)["content"])
}

// TestOpenAINarrateErrors tests API errors and empty responses.
func TestOpenAINarrateErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
		}))
		defer server.Close()

		n, err := newOpenAINarrator(Config{APIKey: "k", Model: "m", BaseURL: server.URL})
		require.NoError(t, err)
		_, err = n.Narrate(context.Background(), "", "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[]}`)
		}))
		defer server.Close()

		n, err := newOpenAINarrator(Config{APIKey: "k", Model: "m", BaseURL: server.URL})
		require.NoError(t, err)
		_, err = n.Narrate(context.Background(), "", "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

// TestAnthropicNarrate tests the messages request and text block handling.
func TestAnthropicNarrate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-x",
			"content":[{"type":"text","text":"첫 문단"},{"type":"text","text":" 둘째 문단"}],
			"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":4}}`)
	}))
	defer server.Close()

	n, err := newAnthropicNarrator(Config{APIKey: "test-key", Model: "claude-x", BaseURL: server.URL, Temperature: 0.7, MaxTokens: 2000})
	require.NoError(t, err)

	content, err := n.Narrate(context.Background(), "system persona", "prompt body")
	require.NoError(t, err)
	assert.Equal(t, "첫 문단 둘째 문단", content)
	assert.Equal(t, "claude-x", got["model"])
	assert.EqualValues(t, 2000, got["max_tokens"])
	system := got["system"].([]any)
	assert.Equal(t, "system persona", system[0].(map[string]any)["text"])
}

// TestAnthropicNarrateError tests that API errors carry the status code.
func TestAnthropicNarrateError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	}))
	defer server.Close()

	n, err := newAnthropicNarrator(Config{APIKey: "k", Model: "m", BaseURL: server.URL, MaxTokens: 10})
	require.NoError(t, err)
	_, err = n.Narrate(context.Background(), "", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

// TestGoogleNarrate tests the generateContent request and response handling.
func TestGoogleNarrate(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"분석 결과"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2}}`)
	}))
	defer server.Close()

	n, err := newGoogleNarrator(Config{APIKey: "k", Model: "gemini-2.0-flash", BaseURL: server.URL, Temperature: 0.7, MaxTokens: 2000})
	require.NoError(t, err)

	content, err := n.Narrate(context.Background(), "system persona", "prompt body")
	require.NoError(t, err)
	assert.Equal(t, "분석 결과", content)
	assert.True(t, strings.HasSuffix(path, "models/gemini-2.0-flash:generateContent"), path)
}

// TestWithRateLimit tests that the limiter honors context cancellation.
func TestWithRateLimit(t *testing.T) {
	next := &store.MockNarrator{}
	next.On("Name").Return("mock/m")
	next.On("Narrate", mock.Anything, "s", "p").Return("ok", nil).Once()

	n := WithRateLimit(next, rate.Every(time.Hour), 1)
	assert.Equal(t, "mock/m", n.Name())

	content, err := n.Narrate(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", content)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = n.Narrate(ctx, "s", "p")
	assert.Error(t, err, "the second token is an hour away")
	next.AssertExpectations(t)
}

// TestWithMetrics tests that outcomes are counted per provider and status.
func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	next := &store.MockNarrator{}
	next.On("Name").Return("mock/m")
	next.On("Narrate", mock.Anything, mock.Anything, "good").Return("text", nil)
	next.On("Narrate", mock.Anything, mock.Anything, "bad").Return("", errors.New("boom"))

	n := WithMetrics(next, metrics, nil)
	_, err := n.Narrate(context.Background(), "", "good")
	require.NoError(t, err)
	_, err = n.Narrate(context.Background(), "", "bad")
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	statuses := make(map[string]float64)
	var observed uint64
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "survey_llm_requests_total":
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "status" {
						statuses[lp.GetValue()] = m.GetCounter().GetValue()
					}
				}
			case "survey_llm_request_duration_seconds":
				observed += m.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, map[string]float64{"success": 1, "error": 1}, statuses)
	assert.Equal(t, uint64(2), observed)
}
