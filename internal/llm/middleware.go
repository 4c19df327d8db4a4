package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/jaajung-kjs/kepco-survey/internal/llm")

// rateLimitedNarrator paces requests with a token bucket.
type rateLimitedNarrator struct {
	next    contract.Narrator
	limiter *rate.Limiter
}

// WithRateLimit wraps next so that it is called at most limit times per second.
func WithRateLimit(next contract.Narrator, limit rate.Limit, burst int) contract.Narrator {
	return &rateLimitedNarrator{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Narrate waits for a token before forwarding the request.
func (r *rateLimitedNarrator) Narrate(ctx context.Context, system, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Narrate(ctx, system, prompt)
}

// Name returns the wrapped provider's name.
func (r *rateLimitedNarrator) Name() string { return r.next.Name() }

// Metrics holds the LLM request collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the LLM collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "survey_llm_requests_total",
				Help: "Total number of narrative report requests sent to the LLM provider.",
			},
			[]string{"provider", "status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "survey_llm_request_duration_seconds",
				Help:    "Latency of narrative report requests.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"provider"},
		),
	}
}

// metricsNarrator records a span, a log line and request metrics per call.
type metricsNarrator struct {
	next    contract.Narrator
	metrics *Metrics
	logger  *zap.Logger
}

// WithMetrics wraps next with tracing, logging and request metrics.
func WithMetrics(next contract.Narrator, metrics *Metrics, logger *zap.Logger) contract.Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &metricsNarrator{next: next, metrics: metrics, logger: logger}
}

// Narrate forwards the request and records its outcome.
func (m *metricsNarrator) Narrate(ctx context.Context, system, prompt string) (string, error) {
	name := m.next.Name()
	ctx, span := tracer.Start(ctx, "Narrator.Narrate")
	span.SetAttributes(attribute.String("llm.provider", name), attribute.Int("llm.prompt_length", len(prompt)))
	defer span.End()

	start := time.Now()
	content, err := m.next.Narrate(ctx, system, prompt)
	elapsed := time.Since(start)

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case errors.Is(err, context.Canceled):
		status = "canceled"
	default:
		status = "error"
	}

	if m.metrics != nil {
		m.metrics.requests.WithLabelValues(name, status).Inc()
		m.metrics.latency.WithLabelValues(name).Observe(elapsed.Seconds())
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Warn("llm request failed", zap.String("provider", name), zap.String("status", status), zap.Duration("duration", elapsed), zap.Error(err))
		return "", err
	}
	m.logger.Debug("llm request completed", zap.String("provider", name), zap.Duration("duration", elapsed), zap.Int("length", len(content)))
	return content, nil
}

// Name returns the wrapped provider's name.
func (m *metricsNarrator) Name() string { return m.next.Name() }
