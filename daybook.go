// Package daybook provides a personal journal with long-term memory:
// entries are embedded into a semantic index that answers natural-language
// searches and surfaces recurring themes.
//
// Basic usage:
//
//	client, err := daybook.New(ctx,
//	    daybook.WithSQLite(".daybook/daybook.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record an entry; indexing happens in the background
//	msg, err := client.AddMessage(ctx, "2026-08-27", "Coffee with Dana, talked about the move")
//
//	// Recall
//	results, err := client.Memory.Search(ctx, search.NewRequest("plans about moving"))
//	for _, r := range results {
//	    fmt.Println(r.Day(), r.Excerpt())
//	}
package daybook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/daybook-dev/daybook/application/service"
	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/repository"
	"github.com/daybook-dev/daybook/infrastructure/persistence"
	"github.com/daybook-dev/daybook/infrastructure/provider"
	"github.com/daybook-dev/daybook/internal/config"
	"github.com/daybook-dev/daybook/internal/database"
	"github.com/daybook-dev/daybook/internal/log"
)

// ErrClientClosed is returned by operations on a closed Client.
var ErrClientClosed = errors.New("client is closed")

// Client is the main entry point for the daybook library. Journal writes
// go through AddMessage/AddNote (or the store fields directly); recall and
// index management go through Memory.
type Client struct {
	// Memory answers searches, mines themes, and manages the index.
	Memory *service.Memory

	// Messages and Notes give direct access to the journal stores.
	Messages journal.MessageStore
	Notes    journal.NoteStore

	db        database.Database
	indexer   *service.Indexer
	generator provider.Generator
	closers   []io.Closer

	logger  *slog.Logger
	dataDir string
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a Client. With no database option the journal lives in a
// SQLite file inside the data directory. With no generator option the
// built-in local embedding model is used; it must be present on disk.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.Default().Slog()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	// Fall back to the built-in local model when no generator is
	// configured. Initialization stays lazy; only presence is checked here.
	generator := cfg.generator
	if generator == nil {
		modelDir := cfg.modelDir
		if modelDir == "" {
			modelDir = config.NewAppConfig(config.WithDataDir(dataDir)).ModelDir()
		}
		hugot := provider.NewHugotGenerator(modelDir)
		if !hugot.Available() {
			return nil, fmt.Errorf("no embedding model found in %s — download one or configure the OpenAI provider", modelDir)
		}
		generator = hugot
		logger.Info("built-in embedding model enabled", slog.String("model_dir", modelDir))
	}

	dbURL, err := buildDatabaseURL(cfg, dataDir)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.Migrate(ctx, db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), errClose)
	}

	embeddings := persistence.NewEmbeddingStore(db, logger)
	queueStore := persistence.NewQueueStore(db, logger)
	messages := persistence.NewMessageStore(db, logger)
	notes := persistence.NewNoteStore(db, logger)

	indexer := service.NewIndexer(queueStore, embeddings, messages, notes, generator, logger,
		service.WithBatchSize(cfg.batchSize),
		service.WithBatchParallelism(cfg.parallelism),
	)
	if err := indexer.Restore(ctx); err != nil {
		errClose := db.Close()
		return nil, errors.Join(err, errClose)
	}

	memoryOpts := []service.MemoryOption{service.WithSearchLimit(cfg.searchLimit)}
	if cfg.rng != nil {
		memoryOpts = append(memoryOpts, service.WithRand(cfg.rng))
	}
	memorySvc := service.NewMemory(indexer, embeddings, messages, notes, generator, logger, memoryOpts...)

	client := &Client{
		Memory:    memorySvc,
		Messages:  messages,
		Notes:     notes,
		db:        db,
		indexer:   indexer,
		generator: generator,
		closers:   cfg.closers,
		logger:    logger,
		dataDir:   dataDir,
	}

	// Work left over from a previous run resumes in the background.
	if indexer.QueueLength() > 0 {
		go func() {
			if err := indexer.DrainQueue(context.Background()); err != nil {
				logger.Error("startup drain failed", slog.Any("error", err))
			}
		}()
	}

	return client, nil
}

// AddMessage records a journal message and queues it for indexing.
func (c *Client) AddMessage(ctx context.Context, day, text string) (journal.Message, error) {
	if c.closed.Load() {
		return journal.Message{}, ErrClientClosed
	}
	if !journal.ValidDay(day) {
		return journal.Message{}, fmt.Errorf("invalid day %q, want YYYY-MM-DD", day)
	}
	message := journal.NewMessage(day, text)
	if err := c.Messages.Save(ctx, message); err != nil {
		return journal.Message{}, err
	}
	if err := c.Memory.IndexMessage(ctx, message.ID()); err != nil {
		return journal.Message{}, err
	}
	return message, nil
}

// AddNote records a journal note and queues it for indexing.
func (c *Client) AddNote(ctx context.Context, day, title, body string) (journal.Note, error) {
	if c.closed.Load() {
		return journal.Note{}, ErrClientClosed
	}
	if !journal.ValidDay(day) {
		return journal.Note{}, fmt.Errorf("invalid day %q, want YYYY-MM-DD", day)
	}
	note := journal.NewNote(day, title, body)
	if err := c.Notes.Save(ctx, note); err != nil {
		return journal.Note{}, err
	}
	if err := c.Memory.IndexNote(ctx, note.ID()); err != nil {
		return journal.Note{}, err
	}
	return note, nil
}

// DeleteMessage soft-deletes a message and drops it from the index.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	message, err := c.Messages.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return err
	}
	if err := c.Messages.Save(ctx, message.WithDeleted(true)); err != nil {
		return err
	}
	return c.Memory.RemoveFromIndex(ctx, id)
}

// DeleteNote soft-deletes a note and drops it from the index.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	note, err := c.Notes.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return err
	}
	if err := c.Notes.Save(ctx, note.WithDeleted(true)); err != nil {
		return err
	}
	return c.Memory.RemoveNoteFromIndex(ctx, id)
}

// Close releases all resources. Further calls return ErrClientClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.generator.Close(); err != nil {
		c.logger.Error("failed to close embedding generator", slog.Any("error", err))
	}

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("daybook client closed")
	return nil
}

// DataDir returns the resolved data directory.
func (c *Client) DataDir() string {
	return c.dataDir
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// buildDatabaseURL maps the configured database to a URL the database
// layer understands.
func buildDatabaseURL(cfg *clientConfig, dataDir string) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		if cfg.dbPath == "" {
			return "", fmt.Errorf("sqlite database path is empty")
		}
		return "sqlite://" + cfg.dbPath, nil
	case databasePostgres:
		if cfg.dbDSN == "" {
			return "", fmt.Errorf("postgres dsn is empty")
		}
		return cfg.dbDSN, nil
	default:
		return config.DefaultDBURL(dataDir), nil
	}
}
