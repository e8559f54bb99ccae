// Package config loads and manages capitalens configuration.
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. Built-in defaults
//  2. The YAML config file at $CAPITALENS_HOME/config.yaml
//     (default ~/.capitalens/config.yaml)
//  3. Environment variables (CAPITALENS_*, AZ_OPENAI_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default values applied before any file or environment override.
const (
	DefaultAPIBaseURL     = "http://localhost:8000"
	DefaultListenAddr     = ":8000"
	DefaultClientTimeout  = 30
	DefaultQuoteTimeout   = 15
	DefaultJPXTimeout     = 15
	DefaultSummaryTTL     = 86400
	DefaultShutdownGrace  = 10
	DefaultOutputFormat   = "table"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultLLMAPIVersion  = "2024-06-01"
	DefaultSummaryPageCap = 5
)

// Config is the root configuration for both the capitalens client commands
// and the aggregation server.
type Config struct {
	// Client configures the CLI and dashboard HTTP client.
	Client ClientConfig `yaml:"client"`
	// Server configures `capitalens serve`.
	Server ServerConfig `yaml:"server"`
	// Market configures upstream quote fetching.
	Market MarketConfig `yaml:"market"`
	// JPX configures the new-listings source.
	JPX JPXConfig `yaml:"jpx"`
	// LLM configures the summary generation backend.
	LLM LLMConfig `yaml:"llm"`
	// Cache configures the server-side summary cache.
	Cache CacheConfig `yaml:"cache"`
	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`
	// Output configures CLI rendering.
	Output OutputConfig `yaml:"output"`
}

// ClientConfig configures how CLI commands reach the aggregation server.
type ClientConfig struct {
	// APIBaseURL is the base URL of the aggregation server.
	APIBaseURL string `yaml:"api_base_url"`
	// TimeoutSeconds bounds each API request.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// SkipVersionCheck disables the API version handshake.
	SkipVersionCheck bool `yaml:"skip_version_check,omitempty"`
}

// ServerConfig configures the aggregation server process.
type ServerConfig struct {
	// Listen is the address the HTTP server binds, e.g. ":8000".
	Listen string `yaml:"listen"`
	// ShutdownGraceSeconds bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds"`
}

// MarketConfig configures upstream market quote fetching.
type MarketConfig struct {
	// QuoteTimeoutSeconds bounds each per-symbol quote request.
	QuoteTimeoutSeconds int `yaml:"quote_timeout_seconds"`
}

// JPXConfig configures scraping of the exchange's new-listings pages.
type JPXConfig struct {
	// TimeoutSeconds bounds each listings page or document request.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// LLMConfig configures the Azure OpenAI-compatible summary backend.
// When Endpoint or APIKey is empty the server falls back to a deterministic
// notice instead of calling out.
type LLMConfig struct {
	// Endpoint is the Azure OpenAI resource endpoint.
	Endpoint string `yaml:"endpoint,omitempty"`
	// APIKey authenticates against Endpoint.
	APIKey string `yaml:"api_key,omitempty"`
	// Deployment is the model deployment name.
	Deployment string `yaml:"deployment,omitempty"`
	// APIVersion selects the Azure OpenAI REST API version.
	APIVersion string `yaml:"api_version,omitempty"`
}

// Configured reports whether the LLM backend has enough settings to be called.
func (c LLMConfig) Configured() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// CacheConfig configures the in-process summary cache on the server.
type CacheConfig struct {
	// SummaryTTLSeconds is how long a generated summary stays fresh.
	SummaryTTLSeconds int `yaml:"summary_ttl_seconds"`
}

// OutputConfig configures CLI rendering.
type OutputConfig struct {
	// DefaultFormat selects the default output format: table or json.
	DefaultFormat string `yaml:"default_format"`
}

// New builds a Config from defaults, the user config file, and environment
// overrides. File and environment problems never fail construction; the
// affected layer is skipped.
func New() *Config {
	cfg := defaults()

	if path, err := configFilePath(); err == nil {
		loadFile(cfg, path)
	}
	applyEnv(cfg)

	return cfg
}

// NewFromFile builds a Config like New, but from the YAML file at path
// instead of the default location. Unlike the default layer, an explicitly
// named file that is missing or malformed is an error.
func NewFromFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the --config flag.
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	applyEnv(cfg)

	return cfg, nil
}

// defaults returns a Config populated with built-in defaults.
func defaults() *Config {
	return &Config{
		Client: ClientConfig{
			APIBaseURL:     DefaultAPIBaseURL,
			TimeoutSeconds: DefaultClientTimeout,
		},
		Server: ServerConfig{
			Listen:               DefaultListenAddr,
			ShutdownGraceSeconds: DefaultShutdownGrace,
		},
		Market: MarketConfig{
			QuoteTimeoutSeconds: DefaultQuoteTimeout,
		},
		JPX: JPXConfig{
			TimeoutSeconds: DefaultJPXTimeout,
		},
		LLM: LLMConfig{
			APIVersion: DefaultLLMAPIVersion,
		},
		Cache: CacheConfig{
			SummaryTTLSeconds: DefaultSummaryTTL,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Output: OutputConfig{
			DefaultFormat: DefaultOutputFormat,
		},
	}
}

// configFilePath returns the path of the user config file.
func configFilePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// loadFile merges the YAML file at path into cfg. A missing or malformed
// file leaves cfg unchanged.
func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the user's home directory.
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, cfg)
}

// applyEnv applies environment variable overrides to cfg. The AZ_OPENAI_*
// names match the deployment convention for Azure OpenAI credentials so the
// server picks them up without a config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CAPITALENS_API_URL"); v != "" {
		cfg.Client.APIBaseURL = v
	}
	if v := os.Getenv("CAPITALENS_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("CAPITALENS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CAPITALENS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CAPITALENS_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v, ok := envSeconds("YFINANCE_TIMEOUT"); ok {
		cfg.Market.QuoteTimeoutSeconds = v
	}
	if v, ok := envSeconds("JPX_TIMEOUT"); ok {
		cfg.JPX.TimeoutSeconds = v
	}
	if v := os.Getenv("AZ_OPENAI_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("AZ_OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("AZ_OPENAI_DEPLOYMENT"); v != "" {
		cfg.LLM.Deployment = v
	}
	if v := os.Getenv("AZ_OPENAI_API_VERSION"); v != "" {
		cfg.LLM.APIVersion = v
	}
}

// envSeconds parses the named environment variable as a positive integer
// second count.
func envSeconds(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
