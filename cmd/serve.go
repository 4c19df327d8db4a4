package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/httpapi"
	"github.com/jaajung-kjs/kepco-survey/internal/llm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd runs the survey HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the survey HTTP server",
	Long: `Serve the survey form API, the admin score endpoints and /metrics.

Narrative reports use the configured LLM provider. Without a provider or API key
the server still starts and serves cached reports only.

Examples:
  # Local SQLite store
  kepco-survey serve --listen-addr :8080

  # PostgreSQL with Anthropic reports
  KEPCO_SURVEY_STORE_BACKEND=postgresql \
  KEPCO_SURVEY_STORE_DB_CONNECT="host=localhost dbname=survey" \
  KEPCO_SURVEY_LLM_PROVIDER=anthropic KEPCO_SURVEY_LLM_API_KEY=... kepco-survey serve`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		registry := prometheus.NewRegistry()
		narrator, err := llm.New(llm.ConfigFrom(cfg), registry, logger)
		switch {
		case errors.Is(err, llm.ErrNoProvider):
			logger.Info("narrative reports disabled")
		case err != nil:
			logger.Warn("narrative reports unavailable", zap.Error(err))
		}

		srv := httpapi.NewServer(httpapi.Options{
			Config:   cfg,
			Store:    surveyStore(),
			Catalog:  catalog,
			Narrator: narrator,
			Registry: registry,
			Logger:   logger,
		})

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting server",
			zap.String("addr", cfg.ListenAddr),
			zap.String("store", string(cfg.StoreBackend)),
			zap.String("version", version))
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		logger.Info("server stopped", zap.Duration("grace", contract.DefaultShutdownTimeout))
		return nil
	},
}
