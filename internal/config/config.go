// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultLogLevel         = "INFO"
	DefaultSearchLimit      = 10
	DefaultBatchSize        = 16
	DefaultMinScore         = 0.0
	DefaultThemeMinCount    = 2
	DefaultMaxThemes        = 5
	DefaultModelSubdir      = "models"
	DefaultEmbeddingTimeout = 60 * time.Second
	DefaultMaxRetries       = 5
	DefaultInitialDelay     = 2 * time.Second
	DefaultBackoffFactor    = 2.0
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// ParseLogFormat parses a log format string, defaulting to pretty.
func ParseLogFormat(s string) LogFormat {
	if strings.EqualFold(s, "json") {
		return LogFormatJSON
	}
	return LogFormatPretty
}

// Endpoint configures a remote embedding API.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates an Endpoint with defaults.
func NewEndpoint(opts ...EndpointOption) Endpoint {
	e := Endpoint{
		timeout:       DefaultEmbeddingTimeout,
		maxRetries:    DefaultMaxRetries,
		initialDelay:  DefaultInitialDelay,
		backoffFactor: DefaultBackoffFactor,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true if the endpoint has an API key set.
func (e Endpoint) IsConfigured() bool { return e.apiKey != "" }

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	dataDir           string
	dbURL             string
	modelDir          string
	logLevel          string
	logFormat         LogFormat
	searchLimit       int
	batchSize         int
	embeddingEndpoint *Endpoint
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".daybook"
	}
	return filepath.Join(home, ".daybook")
}

// DefaultDBURL returns the default database URL for a data directory.
func DefaultDBURL(dataDir string) string {
	return "sqlite:///" + filepath.Join(dataDir, "daybook.db")
}

// PrepareDataDir creates the data directory if it does not exist and
// returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig(opts ...AppConfigOption) AppConfig {
	dataDir := DefaultDataDir()
	c := AppConfig{
		dataDir:     dataDir,
		dbURL:       DefaultDBURL(dataDir),
		logLevel:    DefaultLogLevel,
		logFormat:   LogFormatPretty,
		searchLimit: DefaultSearchLimit,
		batchSize:   DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// ModelDir returns the directory holding local model files, defaulting to
// {dataDir}/models.
func (c AppConfig) ModelDir() string {
	if c.modelDir != "" {
		return c.modelDir
	}
	return filepath.Join(c.dataDir, DefaultModelSubdir)
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// BatchSize returns how many texts go into one embedding batch.
func (c AppConfig) BatchSize() int { return c.batchSize }

// EmbeddingEndpoint returns the remote embedding endpoint config, or nil
// when the local model is used.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// The API key is reported only by presence.
func (c AppConfig) LogAttrs() []slog.Attr {
	endpointModel := "(local)"
	if c.embeddingEndpoint != nil {
		endpointModel = c.embeddingEndpoint.Model()
	}
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("model_dir", c.ModelDir()),
		slog.String("log_level", c.logLevel),
		slog.String("embedding_model", endpointModel),
		slog.Int("search_limit", c.searchLimit),
		slog.Int("batch_size", c.batchSize),
	}
}

func (c AppConfig) maskedDBURL() string {
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithDataDir sets the data directory, moving the default database with it.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if c.dbURL == "" || strings.Contains(c.dbURL, "daybook.db") {
			c.dbURL = DefaultDBURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithSearchLimit sets the default search result limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithBatchSize sets the embedding batch size.
func WithBatchSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithEmbeddingEndpoint sets the remote embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}
