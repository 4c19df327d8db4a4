package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/store"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// envFiles are loaded before anything else. Variables already set win.
var envFiles = []string{".env.local", ".env"}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "kepco-survey",
	Short: "Collect and rank the KEPCO employee survey.",
	Long: `kepco-survey serves the employee survey, aggregates the answers into
per-department category scores and ranks departments against each other.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// loadEnvFiles reads the dotenv files that exist in the working directory.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			contract.LogWarn("Failed to load "+name, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	loadEnvFiles()

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".kepco-survey")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("KEPCO_SURVEY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("listen-addr", contract.DefaultListenAddr)
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("log-format", contract.DefaultLogFormat)
	viper.SetDefault("llm-provider", schema.OpenAIProvider)
	viper.SetDefault("llm-rate-limit", contract.DefaultLLMRateLimit)
	viper.SetDefault("keyword-limit", contract.DefaultKeywordLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
}

// loadConfigFile reads the config file if there is one.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// resolveConfig merges defaults, file, env and flags into cfg.
func resolveConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return contract.ProcessAndValidate(cfg, input)
}

// sharedSetup validates the config and opens the configured store.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	if err := resolveConfig(); err != nil {
		return err
	}
	if err := store.InitStores(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// surveyStore returns the store opened by sharedSetup.
func surveyStore() contract.SurveyStore {
	return store.Manager.GetSurveyStore()
}

// loadCatalog returns the catalog named by --catalog, or the embedded one.
func loadCatalog() (*schema.Catalog, error) {
	path := viper.GetString("catalog")
	if path == "" {
		return schema.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return schema.LoadCatalog(data)
}

// newLogger builds the zap logger from the validated config.
func newLogger() (*zap.Logger, error) {
	return contract.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
