package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces all environment variables (DAYBOOK_DATA_DIR etc).
const envPrefix = "DAYBOOK"

// EnvConfig holds all environment-based configuration. Field names map to
// environment variables under the DAYBOOK_ prefix; nested structs use an
// underscore delimiter (e.g. DAYBOOK_EMBEDDING_API_KEY).
type EnvConfig struct {
	// DataDir is the data directory path.
	// Env: DAYBOOK_DATA_DIR (default: ~/.daybook)
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DAYBOOK_DB_URL (default: sqlite:///{data_dir}/daybook.db)
	DBURL string `envconfig:"DB_URL"`

	// ModelDir is the directory for local model files.
	// Env: DAYBOOK_MODEL_DIR (default: {data_dir}/models)
	ModelDir string `envconfig:"MODEL_DIR"`

	// LogLevel is the log verbosity level.
	// Env: DAYBOOK_LOG_LEVEL (default: INFO)
	// Left blank here so file-config values survive the merge.
	LogLevel string `envconfig:"LOG_LEVEL"`

	// LogFormat is the log output format (pretty or json).
	// Env: DAYBOOK_LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT"`

	// SearchLimit is the default search result limit.
	// Env: DAYBOOK_SEARCH_LIMIT (default: 10)
	SearchLimit int `envconfig:"SEARCH_LIMIT"`

	// BatchSize is the number of texts per embedding batch.
	// Env: DAYBOOK_BATCH_SIZE (default: 16)
	BatchSize int `envconfig:"BATCH_SIZE"`

	// Embedding configures the remote embedding endpoint. When no API key
	// is present the local model is used instead.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`
}

// EmbeddingEnv holds environment configuration for the remote embedding
// endpoint.
type EmbeddingEnv struct {
	// BaseURL is the endpoint base URL.
	// Env: DAYBOOK_EMBEDDING_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the embedding model identifier.
	// Env: DAYBOOK_EMBEDDING_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: DAYBOOK_EMBEDDING_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: DAYBOOK_EMBEDDING_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: DAYBOOK_EMBEDDING_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: DAYBOOK_EMBEDDING_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: DAYBOOK_EMBEDDING_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// LoadFromEnv loads configuration from DAYBOOK_-prefixed environment
// variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// IsConfigured returns true if a remote embedding endpoint is usable.
func (e EmbeddingEnv) IsConfigured() bool {
	return e.APIKey != ""
}

// ToEndpoint converts EmbeddingEnv to an Endpoint.
func (e EmbeddingEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.Model != "" {
		opts = append(opts, WithModel(e.Model))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	return NewEndpoint(opts...)
}

// ToAppConfig converts EnvConfig to AppConfig, applying only the values
// that were actually set.
func (e EnvConfig) ToAppConfig() AppConfig {
	opts := []AppConfigOption{}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.ModelDir != "" {
		opts = append(opts, WithModelDir(e.ModelDir))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(ParseLogFormat(e.LogFormat)))
	}
	if e.SearchLimit > 0 {
		opts = append(opts, WithSearchLimit(e.SearchLimit))
	}
	if e.BatchSize > 0 {
		opts = append(opts, WithBatchSize(e.BatchSize))
	}
	if e.Embedding.IsConfigured() {
		opts = append(opts, WithEmbeddingEndpoint(e.Embedding.ToEndpoint()))
	}
	return NewAppConfig(opts...)
}
