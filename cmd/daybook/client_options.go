package main

import (
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/daybook-dev/daybook"
	"github.com/daybook-dev/daybook/infrastructure/provider"
	"github.com/daybook-dev/daybook/internal/config"
	"github.com/daybook-dev/daybook/internal/log"
)

// clientOptions maps the shared parts of AppConfig to daybook.Options:
// storage, embedding provider, batching, and logging. Callers append
// command-specific options before passing the slice to daybook.New.
func clientOptions(cfg config.AppConfig) []daybook.Option {
	opts := []daybook.Option{
		daybook.WithDataDir(cfg.DataDir()),
		daybook.WithModelDir(cfg.ModelDir()),
		daybook.WithBatchSize(cfg.BatchSize()),
		daybook.WithSearchLimit(cfg.SearchLimit()),
		daybook.WithLogger(log.Configure(cfg).Slog()),
	}

	opts = append(opts, storageOptions(cfg)...)
	opts = append(opts, embeddingOptions(cfg)...)

	return opts
}

// storageOptions returns the daybook.Option for the configured database.
func storageOptions(cfg config.AppConfig) []daybook.Option {
	dbURL := cfg.DBURL()

	if dbURL != "" && !isSQLite(dbURL) {
		return []daybook.Option{daybook.WithPostgres(dbURL)}
	}

	dbPath := cfg.DataDir() + "/daybook.db"
	if dbURL != "" && isSQLite(dbURL) {
		dbPath = strings.TrimPrefix(dbURL, "sqlite://")
		dbPath = strings.TrimPrefix(dbPath, "/")
	}

	return []daybook.Option{daybook.WithSQLite(dbPath)}
}

// embeddingOptions returns the daybook.Option for the OpenAI-compatible
// embedding endpoint when one is fully configured, or an empty slice so
// the built-in local model is used.
func embeddingOptions(cfg config.AppConfig) []daybook.Option {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil
	}

	clientCfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		clientCfg.BaseURL = endpoint.BaseURL()
	}
	if endpoint.Timeout() > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: endpoint.Timeout()}
	}

	var providerOpts []provider.OpenAIOption
	if endpoint.Model() != "" {
		providerOpts = append(providerOpts, provider.WithOpenAIModel(endpoint.Model()))
	}
	if endpoint.MaxRetries() > 0 {
		providerOpts = append(providerOpts, provider.WithMaxRetries(endpoint.MaxRetries()))
	}
	if endpoint.InitialDelay() > 0 {
		providerOpts = append(providerOpts, provider.WithInitialDelay(endpoint.InitialDelay()))
	}
	if endpoint.BackoffFactor() > 0 {
		providerOpts = append(providerOpts, provider.WithBackoffFactor(endpoint.BackoffFactor()))
	}

	generator := provider.NewOpenAIGeneratorWithConfig(clientCfg, providerOpts...)
	return []daybook.Option{daybook.WithGenerator(generator)}
}

// isSQLite checks whether the database URL is for SQLite.
func isSQLite(url string) bool {
	return strings.HasPrefix(url, "sqlite:")
}
