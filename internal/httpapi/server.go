// Package httpapi serves the survey, score and admin endpoints over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jaajung-kjs/kepco-survey/core"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Config   *contract.Config
	Store    contract.SurveyStore
	Catalog  *schema.Catalog      // defaults to schema.DefaultCatalog()
	Narrator contract.Narrator    // nil serves cached reports only
	Registry *prometheus.Registry // defaults to a fresh registry
	Logger   *zap.Logger
}

// Server wires the services behind the HTTP routes.
type Server struct {
	cfg         *contract.Config
	store       contract.SurveyStore
	catalog     *schema.Catalog
	aggregator  *core.Aggregator
	submissions *core.SubmissionService
	reports     *core.ReportService
	registry    *prometheus.Registry
	metrics     *Metrics
	logger      *zap.Logger
	now         func() time.Time
	handler     http.Handler
}

// NewServer builds a Server and its router.
func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = &contract.Config{}
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = contract.DefaultSessionTTL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = contract.DefaultListenAddr
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = schema.DefaultCatalog()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	limit := cfg.KeywordLimit
	if limit <= 0 {
		limit = contract.DefaultKeywordLimit
	}
	aggregator := core.NewAggregator(opts.Store, catalog)
	s := &Server{
		cfg:         cfg,
		store:       opts.Store,
		catalog:     catalog,
		aggregator:  aggregator,
		submissions: core.NewSubmissionService(opts.Store, catalog, logger),
		reports: core.NewReportService(aggregator, opts.Store, opts.Store, opts.Narrator,
			core.NewKeywordExtractor(limit, cfg.KeywordMergeDistance), cfg.AnalysisTTL, logger),
		registry: registry,
		metrics:  NewMetrics(registry),
		logger:   logger,
		now:      time.Now,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.observe)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/survey/questions", s.handleQuestions)
			r.Post("/survey/submit", s.handleSubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession, s.requireAdmin)

			r.Get("/scores/department", s.handleDepartmentScores)
			r.Get("/scores/organization", s.handleOrganizationScores)
			r.Get("/scores/management", s.handleOrganizationScores)

			r.Get("/admin/stats", s.handleStats)
			r.Get("/admin/keywords", s.handleKeywords)
			r.Get("/admin/ai-analysis", s.handleGetAnalysis)
			r.Post("/admin/ai-analysis", s.handleSaveAnalysis)
			r.Delete("/admin/ai-analysis", s.handleDeleteAnalysis)
			r.Post("/admin/ai-analysis/department", s.handleDepartmentReport)
			r.Post("/admin/ai-analysis/organization", s.handleOrganizationReport)
			r.Post("/admin/ai-analysis/management", s.handleOrganizationReport)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), contract.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
