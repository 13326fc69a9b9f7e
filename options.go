package daybook

import (
	"io"
	"log/slog"
	"math/rand"

	"github.com/daybook-dev/daybook/infrastructure/provider"
	"github.com/daybook-dev/daybook/internal/config"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database    databaseType
	dbPath      string
	dbDSN       string
	dataDir     string
	modelDir    string
	generator   provider.Generator
	logger      *slog.Logger
	batchSize   int
	parallelism int
	searchLimit int
	rng         *rand.Rand
	closers     []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:     config.DefaultDataDir(),
		batchSize:   config.DefaultBatchSize,
		parallelism: 1,
		searchLimit: config.DefaultSearchLimit,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database. The default is a SQLite
// database inside the data directory.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL as the database.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithOpenAI uses the OpenAI embeddings API instead of the built-in local
// model.
func WithOpenAI(apiKey string, opts ...provider.OpenAIOption) Option {
	return func(c *clientConfig) {
		c.generator = provider.NewOpenAIGenerator(apiKey, opts...)
	}
}

// WithGenerator sets a custom embedding generator.
func WithGenerator(g provider.Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithDataDir sets the data directory for database and model storage.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithModelDir sets the directory where built-in model files are stored.
// If not specified, defaults to {dataDir}/models.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) {
		c.modelDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithBatchSize sets how many texts go into one embedding batch.
// Values <= 0 are ignored.
func WithBatchSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithBatchParallelism sets how many embedding batches are dispatched
// concurrently. Defaults to 1. Values <= 0 are ignored.
func WithBatchParallelism(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithSearchLimit sets the default result limit for searches.
// Values <= 0 are ignored.
func WithSearchLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithRandSeed seeds the random source used for theme clustering, making
// cluster assignments reproducible. Intended for tests.
func WithRandSeed(seed int64) Option {
	return func(c *clientConfig) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
