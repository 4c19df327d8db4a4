package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "session"

type ctxKey int

const sessionKey ctxKey = iota

// sessionFrom returns the session attached by requireSession.
func sessionFrom(ctx context.Context) (schema.Session, bool) {
	session, ok := ctx.Value(sessionKey).(schema.Session)
	return session, ok
}

// Metrics holds the HTTP and submission collectors.
type Metrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	submissions *prometheus.CounterVec
}

// NewMetrics creates the server collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "survey_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "survey_http_request_duration_seconds",
				Help:    "HTTP request latency by route and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "survey_submissions_total",
				Help: "Survey submissions by outcome.",
			},
			[]string{"status"},
		),
	}
}

// observe records one request. Unmatched paths share a single route label.
func (m *Metrics) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// submission counts one submission outcome.
func (m *Metrics) submission(err error) {
	status := "accepted"
	switch {
	case err == nil:
	case errors.Is(err, contract.ErrAlreadyCompleted):
		status = "duplicate"
	case errors.Is(err, contract.ErrInvalidInput):
		status = "rejected"
	default:
		status = "error"
	}
	m.submissions.WithLabelValues(status).Inc()
}

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// requireSession rejects requests without a live session cookie.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			s.writeError(w, r, errLoginRequired)
			return
		}
		session, err := s.store.GetSession(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, contract.ErrNotFound) {
				s.writeError(w, r, errLoginRequired)
				return
			}
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// requireAdmin must run after requireSession.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFrom(r.Context())
		if !ok || !session.IsAdmin {
			s.writeError(w, r, errAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
