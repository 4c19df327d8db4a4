// Package cmd defines the command-line interface for kepco-survey.
package cmd

import (
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	scoresCmd.AddCommand(scoresDepartmentCmd)
	scoresCmd.AddCommand(scoresOrganizationCmd)
	scoresCmd.AddCommand(scoresQuestionsCmd)

	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("catalog", "", "Path to a question catalog YAML (defaults to the embedded catalog)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: json or console")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for scores (1 or 2)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen-addr", contract.DefaultListenAddr, "Address the HTTP server listens on")
	serveCmd.Flags().String("cookie-secure", "", "Mark the session cookie Secure (yes/no)")
	serveCmd.Flags().String("session-ttl", "", "Session lifetime (e.g., 168h)")
	serveCmd.Flags().String("llm-provider", string(schema.OpenAIProvider), "Narrative report provider: openai or anthropic or google or none")
	serveCmd.Flags().String("llm-api-key", "", "API key of the report provider (prefer KEPCO_SURVEY_LLM_API_KEY)")
	serveCmd.Flags().String("llm-model", "", "Model name (defaults per provider)")
	serveCmd.Flags().String("llm-base-url", "", "Override the provider base URL")
	serveCmd.Flags().Float64("llm-rate-limit", contract.DefaultLLMRateLimit, "Provider requests per second")
	serveCmd.Flags().String("analysis-ttl", "", "Regenerate cached reports older than this (0 = never)")
	serveCmd.Flags().Int("keyword-limit", contract.DefaultKeywordLimit, "Keywords returned per free-text question")
	serveCmd.Flags().Int("keyword-merge-distance", 0, "Merge keyword spellings within this edit distance (0 = off)")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}

	// usersAddCmd flags are read directly; they are not configuration.
	usersAddCmd.Flags().Bool("admin", false, "Grant access to scores and reports")
	usersAddCmd.Flags().String("password", "", "Account password (prefer KEPCO_SURVEY_USER_PASSWORD)")
}
