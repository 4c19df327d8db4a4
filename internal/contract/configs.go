package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/jaajung-kjs/kepco-survey/schema"
)

// Default values for configuration.
const (
	DefaultListenAddr      = ":8080"
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultLLMRateLimit    = 1.0
	DefaultKeywordLimit    = 30
	MaxKeywordLimit        = 200
	DefaultPrecision       = 1
	DefaultLLMTemperature  = 0.7
	DefaultLLMMaxTokens    = 2000
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultModels maps each provider to the model used when llm-model is empty.
var DefaultModels = map[schema.LLMProvider]string{
	schema.OpenAIProvider:    "gpt-4o-mini",
	schema.AnthropicProvider: "claude-3-5-haiku-latest",
	schema.GoogleProvider:    "gemini-2.0-flash",
}

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	ListenAddr   string
	CookieSecure bool
	SessionTTL   time.Duration

	LogLevel  string
	LogFormat string

	LLMProvider  schema.LLMProvider
	LLMAPIKey    string // Please use env var as this is plaintext
	LLMModel     string
	LLMBaseURL   string
	LLMRateLimit float64 // Requests per second
	AnalysisTTL  time.Duration

	KeywordLimit         int
	KeywordMergeDistance int

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Persistence ---
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`

	// --- HTTP server ---
	ListenAddr   string `mapstructure:"listen-addr"`
	CookieSecure string `mapstructure:"cookie-secure"`
	SessionTTL   string `mapstructure:"session-ttl"`

	// --- Logging ---
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// --- Narrative reports ---
	LLMProvider  string  `mapstructure:"llm-provider"`
	LLMAPIKey    string  `mapstructure:"llm-api-key"`
	LLMModel     string  `mapstructure:"llm-model"`
	LLMBaseURL   string  `mapstructure:"llm-base-url"`
	LLMRateLimit float64 `mapstructure:"llm-rate-limit"`
	AnalysisTTL  string  `mapstructure:"analysis-ttl"`

	// --- Keywords ---
	KeywordLimit         int `mapstructure:"keyword-limit"`
	KeywordMergeDistance int `mapstructure:"keyword-merge-distance"`

	// --- CLI output ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateStoreConfig(cfg, input); err != nil {
		return err
	}
	if err := validateServerConfig(cfg, input); err != nil {
		return err
	}
	if err := validateLogConfig(cfg, input); err != nil {
		return err
	}
	if err := validateLLMConfig(cfg, input); err != nil {
		return err
	}
	if err := validateOutputConfig(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateStoreConfig validates the persistence backend.
func validateStoreConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateServerConfig validates the HTTP listener and session settings.
func validateServerConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.ListenAddr = input.ListenAddr
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	cfg.CookieSecure = false
	if input.CookieSecure != "" {
		secure, err := ParseBoolString(input.CookieSecure)
		if err != nil {
			return fmt.Errorf("invalid cookie-secure value: %w", err)
		}
		cfg.CookieSecure = secure
	}

	cfg.SessionTTL = DefaultSessionTTL
	if input.SessionTTL != "" {
		ttl, err := time.ParseDuration(input.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session-ttl %q: %w", input.SessionTTL, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("session-ttl must be positive, got %s", ttl)
		}
		cfg.SessionTTL = ttl
	}
	return nil
}

// validateLogConfig validates level and encoder.
func validateLogConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level '%s'. must be debug, info, warn, error", input.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("invalid log-format '%s'. must be json or console", input.LogFormat)
	}
	return nil
}

// validateLLMConfig validates the narrative report provider and keyword extraction.
func validateLLMConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.LLMProvider = schema.LLMProvider(strings.ToLower(input.LLMProvider))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = schema.OpenAIProvider
	}
	if _, ok := schema.ValidLLMProviders[cfg.LLMProvider]; !ok {
		return fmt.Errorf("invalid llm-provider '%s'. must be openai, anthropic, google, none", input.LLMProvider)
	}
	cfg.LLMAPIKey = input.LLMAPIKey
	cfg.LLMBaseURL = input.LLMBaseURL
	cfg.LLMModel = input.LLMModel
	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultModels[cfg.LLMProvider]
	}

	cfg.LLMRateLimit = input.LLMRateLimit
	if cfg.LLMRateLimit == 0 {
		cfg.LLMRateLimit = DefaultLLMRateLimit
	}
	if cfg.LLMRateLimit < 0 {
		return fmt.Errorf("llm-rate-limit must be positive, got %v", input.LLMRateLimit)
	}

	cfg.AnalysisTTL = 0
	if input.AnalysisTTL != "" && input.AnalysisTTL != "0" {
		ttl, err := time.ParseDuration(input.AnalysisTTL)
		if err != nil {
			return fmt.Errorf("invalid analysis-ttl %q: %w", input.AnalysisTTL, err)
		}
		if ttl < 0 {
			return fmt.Errorf("analysis-ttl cannot be negative, got %s", ttl)
		}
		cfg.AnalysisTTL = ttl
	}

	cfg.KeywordLimit = input.KeywordLimit
	if cfg.KeywordLimit == 0 {
		cfg.KeywordLimit = DefaultKeywordLimit
	}
	if cfg.KeywordLimit < 1 || cfg.KeywordLimit > MaxKeywordLimit {
		return fmt.Errorf("keyword-limit must be between 1 and %d", MaxKeywordLimit)
	}
	if input.KeywordMergeDistance < 0 || input.KeywordMergeDistance > 3 {
		return fmt.Errorf("keyword-merge-distance must be between 0 and 3")
	}
	cfg.KeywordMergeDistance = input.KeywordMergeDistance
	return nil
}

// validateOutputConfig validates CLI rendering options.
func validateOutputConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}
	cfg.OutputFile = input.OutputFile

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2")
	}
	cfg.Precision = input.Precision

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative")
	}
	cfg.Width = input.Width

	cfg.UseColors = true
	if input.Color != "" {
		useColors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid color value: %w", err)
		}
		cfg.UseColors = useColors
	}
	return nil
}
