package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/memory"
	"github.com/daybook-dev/daybook/domain/repository"
	"github.com/daybook-dev/daybook/domain/search"
	"github.com/daybook-dev/daybook/domain/theme"
	"github.com/daybook-dev/daybook/infrastructure/provider"
	vecsearch "github.com/daybook-dev/daybook/infrastructure/search"
)

// Theme mining defaults.
const (
	DefaultThemeMinCount = 2
	DefaultMaxThemes     = 5
)

// overFetchFactor is how many more matches than requested the search pulls
// before applying day and type filters, so filtering rarely starves the
// result set.
const overFetchFactor = 2

// Memory is the journal's long-term recall: it indexes entries as they
// arrive, answers semantic searches, and mines recurring themes.
type Memory struct {
	indexer    *Indexer
	embeddings memory.EmbeddingStore
	messages   journal.MessageStore
	notes      journal.NoteStore
	generator  provider.Generator
	logger     *slog.Logger

	searchLimit int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// MemoryOption configures a Memory service.
type MemoryOption func(*Memory)

// WithRand sets the random source used for theme clustering. Tests pass a
// seeded source for reproducible clusters.
func WithRand(rng *rand.Rand) MemoryOption {
	return func(m *Memory) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithSearchLimit sets the result limit used when a search request does
// not carry its own. Values <= 0 are ignored and search.DefaultLimit
// applies.
func WithSearchLimit(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.searchLimit = n
		}
	}
}

// NewMemory creates a Memory service on top of an Indexer and its stores.
func NewMemory(
	indexer *Indexer,
	embeddings memory.EmbeddingStore,
	messages journal.MessageStore,
	notes journal.NoteStore,
	generator provider.Generator,
	logger *slog.Logger,
	opts ...MemoryOption,
) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Memory{
		indexer:    indexer,
		embeddings: embeddings,
		messages:   messages,
		notes:      notes,
		generator:  generator,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Indexer exposes the underlying indexer for queue-level operations.
func (m *Memory) Indexer() *Indexer { return m.indexer }

// IndexMessage queues a message for embedding and starts an asynchronous
// drain. The queue write is durable before this returns; the embedding
// itself lands in the background.
func (m *Memory) IndexMessage(ctx context.Context, id string) error {
	return m.index(ctx, memory.MessageRef(id))
}

// IndexNote queues a note for embedding and starts an asynchronous drain.
func (m *Memory) IndexNote(ctx context.Context, id string) error {
	return m.index(ctx, memory.NoteRef(id))
}

func (m *Memory) index(ctx context.Context, ref memory.Ref) error {
	if err := m.indexer.Enqueue(ctx, ref); err != nil {
		return err
	}
	go func() {
		if err := m.indexer.DrainQueue(context.Background()); err != nil {
			m.logger.Error("background drain failed", "error", err)
		}
	}()
	return nil
}

// ReindexMessage re-embeds a message immediately, replacing any stored
// vector. The message must exist and not be deleted.
func (m *Memory) ReindexMessage(ctx context.Context, id string) error {
	return m.indexer.Reindex(ctx, memory.MessageRef(id))
}

// ReindexNote re-embeds a note immediately, replacing any stored vector.
func (m *Memory) ReindexNote(ctx context.Context, id string) error {
	return m.indexer.Reindex(ctx, memory.NoteRef(id))
}

// RemoveFromIndex deletes a message's embeddings and drops it from the
// queue. Removing an unindexed message is a no-op.
func (m *Memory) RemoveFromIndex(ctx context.Context, id string) error {
	return m.indexer.RemoveFromIndex(ctx, memory.MessageRef(id))
}

// RemoveNoteFromIndex deletes a note's embeddings and drops it from the
// queue.
func (m *Memory) RemoveNoteFromIndex(ctx context.Context, id string) error {
	return m.indexer.RemoveFromIndex(ctx, memory.NoteRef(id))
}

// DrainQueue runs one synchronous drain pass.
func (m *Memory) DrainQueue(ctx context.Context) error {
	return m.indexer.DrainQueue(ctx)
}

// CleanupOrphans removes embeddings whose entry no longer exists and
// returns how many were removed.
func (m *Memory) CleanupOrphans(ctx context.Context) (int, error) {
	return m.indexer.CleanupOrphans(ctx)
}

// RebuildIndex drops and rebuilds the whole index. onProgress may be nil.
func (m *Memory) RebuildIndex(ctx context.Context, onProgress func(done, total int)) error {
	if err := m.ensureReady(ctx); err != nil {
		return err
	}
	return m.indexer.Rebuild(ctx, onProgress)
}

// Stats snapshots index coverage and queue state.
func (m *Memory) Stats(ctx context.Context) (memory.IndexStats, error) {
	return m.indexer.Stats(ctx)
}

// Search embeds the query and returns the best-matching journal entries,
// ranked by cosine similarity. Day and type filters apply after scoring;
// entries deleted since indexing are skipped. Rank is 1-based and dense
// over the returned set.
func (m *Memory) Search(ctx context.Context, req search.Request) ([]search.Result, error) {
	if err := m.ensureReady(ctx); err != nil {
		return nil, err
	}

	query, err := m.generator.Embed(ctx, req.Text())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := m.embeddings.Find(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	limit := req.LimitOr(m.searchLimit)
	matches, err := vecsearch.TopK(query.Vector, candidates, limit*overFetchFactor)
	if err != nil {
		return nil, err
	}

	results := make([]search.Result, 0, limit)
	for _, match := range matches {
		if match.Score() < req.MinScore() {
			break
		}
		if !req.WantsType(match.Ref().EntityType()) {
			continue
		}
		result, ok, err := m.resolve(ctx, match)
		if err != nil {
			return nil, err
		}
		if !ok || !req.Matches(result.Day()) {
			continue
		}
		results = append(results, result.WithRank(len(results)+1))
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// resolve loads the matched entry and builds an unranked result. ok is
// false when the entry vanished or was deleted after indexing.
func (m *Memory) resolve(ctx context.Context, match vecsearch.Match) (search.Result, bool, error) {
	ref := match.Ref()
	switch ref.EntityType() {
	case journal.EntityTypeMessage:
		message, err := m.messages.FindOne(ctx, repository.WithID(ref.EntityID()))
		if err != nil {
			if isNotFound(err) {
				return search.Result{}, false, nil
			}
			return search.Result{}, false, err
		}
		if message.Deleted() {
			return search.Result{}, false, nil
		}
		text := message.Text()
		excerpt := search.Excerpt(text, search.ExcerptLength)
		return search.NewResult(0, match.Score(), ref, message.Day(), "", excerpt, text), true, nil
	case journal.EntityTypeNote:
		note, err := m.notes.FindOne(ctx, repository.WithID(ref.EntityID()))
		if err != nil {
			if isNotFound(err) {
				return search.Result{}, false, nil
			}
			return search.Result{}, false, err
		}
		if note.Deleted() {
			return search.Result{}, false, nil
		}
		text := note.EmbeddingText()
		excerpt := search.Excerpt(note.Body(), search.ExcerptLength)
		if excerpt == "" {
			excerpt = search.Excerpt(text, search.ExcerptLength)
		}
		return search.NewResult(0, match.Score(), ref, note.Day(), note.Title(), excerpt, text), true, nil
	default:
		return search.Result{}, false, nil
	}
}

// Analysis bundles the outcome of one theme-mining pass.
type Analysis struct {
	themes   []theme.Theme
	insights []string
	summary  string
}

// Themes returns the identified themes, largest first.
func (a Analysis) Themes() []theme.Theme { return a.themes }

// Insights returns one observation per theme.
func (a Analysis) Insights() []string { return a.insights }

// Summary returns a one-line overview.
func (a Analysis) Summary() string { return a.summary }

// AnalyzeRecurringThemes clusters all indexed entries and reports topics
// that recur at least minFrequency times. With nothing indexed yet the
// analysis is empty rather than an error.
func (m *Memory) AnalyzeRecurringThemes(ctx context.Context, minFrequency, maxThemes int) (Analysis, error) {
	if minFrequency < 1 {
		minFrequency = DefaultThemeMinCount
	}
	if maxThemes < 1 {
		maxThemes = DefaultMaxThemes
	}

	stored, err := m.embeddings.Find(ctx)
	if err != nil {
		return Analysis{}, err
	}

	var vectors [][]float64
	var texts []string
	for _, embedding := range stored {
		text, found, err := m.indexer.entityText(ctx, embedding.Ref())
		if err != nil {
			return Analysis{}, err
		}
		if !found {
			continue
		}
		vectors = append(vectors, embedding.Vector())
		texts = append(texts, text)
	}
	if len(vectors) == 0 {
		return Analysis{summary: theme.Summary(nil)}, nil
	}

	m.rngMu.Lock()
	themes, err := theme.IdentifyRecurringThemes(vectors, texts, minFrequency, maxThemes, m.rng)
	m.rngMu.Unlock()
	if err != nil {
		return Analysis{}, err
	}

	return Analysis{
		themes:   themes,
		insights: theme.Insights(themes),
		summary:  theme.Summary(themes),
	}, nil
}

// ensureReady initializes the generator on first use. Once it comes up,
// any drain that was deferred while it was down is kicked off.
func (m *Memory) ensureReady(ctx context.Context) error {
	if m.generator.Status().Ready {
		m.indexer.KickDeferred()
		return nil
	}
	if err := m.generator.Initialize(ctx); err != nil {
		return fmt.Errorf("embedding generator: %w", err)
	}
	m.indexer.KickDeferred()
	return nil
}
