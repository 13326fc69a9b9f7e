package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/memory"
	"github.com/daybook-dev/daybook/domain/repository"
	"github.com/daybook-dev/daybook/infrastructure/provider"
	"github.com/daybook-dev/daybook/internal/database"
)

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// Indexer defaults.
const (
	DefaultBatchSize        = 16
	DefaultBatchParallelism = 1
)

// Indexer keeps the embedding index in sync with the journal through a
// durable FIFO work queue. Every queue mutation is mirrored to the queue
// store before the mutating call returns, so a crash never loses pending
// work — at worst an item is processed twice, which the dedup check
// absorbs.
type Indexer struct {
	queue      *refQueue
	queueStore memory.QueueStore
	embeddings memory.EmbeddingStore
	messages   journal.MessageStore
	notes      journal.NoteStore
	generator  provider.Generator
	logger     *slog.Logger

	// draining makes drain passes single-flight: the CompareAndSwap
	// either wins and runs the pass or loses and returns immediately.
	draining atomic.Bool
	// deferred records that a drain was requested while the generator was
	// not ready, so the next ready moment can pick it up.
	deferred atomic.Bool

	batchSize   int
	parallelism int
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithBatchSize sets how many texts go into one embedding batch.
// Values <= 0 are ignored.
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithBatchParallelism sets how many embedding batches are dispatched
// concurrently. Values <= 0 are ignored.
func WithBatchParallelism(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.parallelism = n
		}
	}
}

// NewIndexer creates an Indexer.
func NewIndexer(
	queueStore memory.QueueStore,
	embeddings memory.EmbeddingStore,
	messages journal.MessageStore,
	notes journal.NoteStore,
	generator provider.Generator,
	logger *slog.Logger,
	opts ...IndexerOption,
) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Indexer{
		queue:       newRefQueue(),
		queueStore:  queueStore,
		embeddings:  embeddings,
		messages:    messages,
		notes:       notes,
		generator:   generator,
		logger:      logger,
		batchSize:   DefaultBatchSize,
		parallelism: DefaultBatchParallelism,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Restore loads the persisted queue into memory. Called once at startup.
func (ix *Indexer) Restore(ctx context.Context) error {
	refs, err := ix.queueStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore queue: %w", err)
	}
	ix.queue.Reset(refs)
	if len(refs) > 0 {
		ix.logger.Info("restored work queue", "pending", len(refs))
	}
	return nil
}

// Enqueue adds a reference to the work queue. Idempotent: re-enqueueing a
// queued reference changes nothing. The durable mirror is updated before
// returning.
func (ix *Indexer) Enqueue(ctx context.Context, ref memory.Ref) error {
	if !ix.queue.Add(ref) {
		return nil
	}
	return ix.persistQueue(ctx)
}

// Dequeue removes a reference from the work queue and persists the change.
func (ix *Indexer) Dequeue(ctx context.Context, ref memory.Ref) error {
	if !ix.queue.Remove(ref) {
		return nil
	}
	return ix.persistQueue(ctx)
}

// QueueLength returns the number of pending references.
func (ix *Indexer) QueueLength() int {
	return ix.queue.Len()
}

// Draining reports whether a drain pass is currently running.
func (ix *Indexer) Draining() bool {
	return ix.draining.Load()
}

// DrainQueue processes the queue front to back, at most one pass at a
// time. When the generator is not ready the pass is deferred rather than
// failed: the queue stays intact and KickDeferred retries once the
// generator comes up. A failing item is logged and retained for the next
// pass; the drain moves on.
func (ix *Indexer) DrainQueue(ctx context.Context) error {
	if !ix.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer ix.draining.Store(false)

	if !ix.generator.Status().Ready {
		if err := ix.generator.Initialize(ctx); err != nil {
			ix.deferred.Store(true)
			ix.logger.Info("drain deferred: generator not ready", "error", err)
			return nil
		}
	}
	ix.deferred.Store(false)

	for _, ref := range ix.queue.Items() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ix.indexOne(ctx, ref); err != nil {
			ix.logger.Warn("indexing failed, item retained", "ref", ref.String(), "error", err)
			continue
		}
		if err := ix.Dequeue(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

// KickDeferred starts an asynchronous drain pass if one was deferred while
// the generator was down.
func (ix *Indexer) KickDeferred() {
	if !ix.deferred.Load() {
		return
	}
	go func() {
		if err := ix.DrainQueue(context.Background()); err != nil {
			ix.logger.Error("deferred drain failed", "error", err)
		}
	}()
}

// DrainBatch indexes the given references through the generator's batch
// API, batchSize texts per call, with at most the configured number of
// batches in flight. Already-indexed and vanished entries are skipped.
// Failed batches are logged and their items retained; the combined error
// is returned after all batches ran.
func (ix *Indexer) DrainBatch(ctx context.Context, refs []memory.Ref, batchSize int) error {
	if batchSize <= 0 {
		batchSize = ix.batchSize
	}

	type pending struct {
		ref  memory.Ref
		text string
	}
	var work []pending
	for _, ref := range refs {
		exists, err := ix.embeddings.Exists(ctx, ref)
		if err != nil {
			return err
		}
		if exists {
			ix.queue.Remove(ref)
			continue
		}
		text, found, err := ix.entityText(ctx, ref)
		if err != nil {
			return err
		}
		if !found {
			ix.queue.Remove(ref)
			continue
		}
		work = append(work, pending{ref: ref, text: text})
	}

	var mu sync.Mutex
	var batchErrors []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.parallelism)

	for start := 0; start < len(work); start += batchSize {
		end := min(start+batchSize, len(work))
		chunk := work[start:end]
		g.Go(func() error {
			texts := make([]string, len(chunk))
			for i, item := range chunk {
				texts[i] = item.text
			}
			results, err := ix.generator.EmbedBatch(gctx, texts)
			if err != nil {
				mu.Lock()
				batchErrors = append(batchErrors, fmt.Errorf("embed batch of %d: %w", len(chunk), err))
				mu.Unlock()
				return nil
			}
			embeddings := make([]memory.Embedding, len(results))
			for i, result := range results {
				embeddings[i] = memory.NewEmbedding(chunk[i].ref, result.Vector, result.ModelVersion)
			}
			if err := ix.embeddings.SaveAll(gctx, embeddings); err != nil {
				mu.Lock()
				batchErrors = append(batchErrors, err)
				mu.Unlock()
				return nil
			}
			for _, item := range chunk {
				ix.queue.Remove(item.ref)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ix.persistQueue(ctx); err != nil {
		return err
	}
	if len(batchErrors) > 0 {
		for _, err := range batchErrors {
			ix.logger.Warn("batch indexing failed, items retained", "error", err)
		}
		return errors.Join(batchErrors...)
	}
	return nil
}

// Reindex drops any stored embeddings for the reference and indexes it
// again immediately, outside the queue. A missing or deleted entity is
// memory.ErrEntityNotFound.
func (ix *Indexer) Reindex(ctx context.Context, ref memory.Ref) error {
	text, found, err := ix.entityText(ctx, ref)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("reindex %s: %w", ref, memory.ErrEntityNotFound)
	}

	if err := ix.embeddings.DeleteBy(ctx, memory.WithRef(ref)); err != nil {
		return err
	}

	result, err := ix.generator.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("reindex %s: %w", ref, err)
	}
	if err := ix.embeddings.Save(ctx, memory.NewEmbedding(ref, result.Vector, result.ModelVersion)); err != nil {
		return err
	}
	return ix.Dequeue(ctx, ref)
}

// RemoveFromIndex deletes all stored embeddings for the reference and
// drops it from the queue.
func (ix *Indexer) RemoveFromIndex(ctx context.Context, ref memory.Ref) error {
	if err := ix.embeddings.DeleteBy(ctx, memory.WithRef(ref)); err != nil {
		return err
	}
	return ix.Dequeue(ctx, ref)
}

// CleanupOrphans removes embeddings whose journal entry no longer exists
// (or was soft-deleted) and returns how many were removed.
func (ix *Indexer) CleanupOrphans(ctx context.Context) (int, error) {
	stored, err := ix.embeddings.Find(ctx)
	if err != nil {
		return 0, err
	}
	if len(stored) == 0 {
		return 0, nil
	}

	live := make(map[string]struct{})
	for _, entityType := range journal.EntityTypes() {
		ids, err := ix.liveIDs(ctx, entityType)
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			live[memory.NewRef(entityType, id).String()] = struct{}{}
		}
	}

	removed := 0
	for _, embedding := range stored {
		if _, ok := live[embedding.Ref().String()]; ok {
			continue
		}
		if err := ix.embeddings.DeleteBy(ctx, repository.WithID(embedding.ID())); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		ix.logger.Info("cleaned up orphaned embeddings", "removed", removed)
	}
	return removed, nil
}

// Rebuild drops the whole index and re-indexes every live entry through
// the batch path. onProgress, when non-nil, is called after each batch
// with the number of processed entries and the total.
func (ix *Indexer) Rebuild(ctx context.Context, onProgress func(done, total int)) error {
	if err := ix.embeddings.DeleteBy(ctx); err != nil {
		return err
	}

	var refs []memory.Ref
	for _, entityType := range journal.EntityTypes() {
		ids, err := ix.liveIDs(ctx, entityType)
		if err != nil {
			return err
		}
		for _, id := range ids {
			refs = append(refs, memory.NewRef(entityType, id))
		}
	}

	total := len(refs)
	done := 0
	for start := 0; start < total; start += ix.batchSize {
		end := min(start+ix.batchSize, total)
		if err := ix.DrainBatch(ctx, refs[start:end], ix.batchSize); err != nil {
			return err
		}
		done = end
		if onProgress != nil {
			onProgress(done, total)
		}
	}
	return nil
}

// Stats snapshots index coverage and queue state.
func (ix *Indexer) Stats(ctx context.Context) (memory.IndexStats, error) {
	messageTotal, err := ix.messages.Count(ctx, journal.WithNotDeleted())
	if err != nil {
		return memory.IndexStats{}, err
	}
	messageIndexed, err := ix.embeddings.Count(ctx, memory.WithEntityType(journal.EntityTypeMessage))
	if err != nil {
		return memory.IndexStats{}, err
	}
	noteTotal, err := ix.notes.Count(ctx, journal.WithNotDeleted())
	if err != nil {
		return memory.IndexStats{}, err
	}
	noteIndexed, err := ix.embeddings.Count(ctx, memory.WithEntityType(journal.EntityTypeNote))
	if err != nil {
		return memory.IndexStats{}, err
	}
	return memory.NewIndexStats(
		memory.NewTypeStats(messageTotal, messageIndexed),
		memory.NewTypeStats(noteTotal, noteIndexed),
		ix.queue.Len(),
		ix.draining.Load(),
	), nil
}

// indexOne brings one reference into the index: skip if already stored,
// drop silently if the entry vanished, otherwise embed and save.
func (ix *Indexer) indexOne(ctx context.Context, ref memory.Ref) error {
	exists, err := ix.embeddings.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	text, found, err := ix.entityText(ctx, ref)
	if err != nil {
		return err
	}
	if !found {
		ix.logger.Debug("queued entry no longer exists, dropping", "ref", ref.String())
		return nil
	}

	result, err := ix.generator.Embed(ctx, text)
	if err != nil {
		return err
	}
	return ix.embeddings.Save(ctx, memory.NewEmbedding(ref, result.Vector, result.ModelVersion))
}

// entityText resolves the embedding text for a reference. found is false
// when the entry does not exist or is soft-deleted.
func (ix *Indexer) entityText(ctx context.Context, ref memory.Ref) (string, bool, error) {
	switch ref.EntityType() {
	case journal.EntityTypeMessage:
		message, err := ix.messages.FindOne(ctx, repository.WithID(ref.EntityID()))
		if err != nil {
			if isNotFound(err) {
				return "", false, nil
			}
			return "", false, err
		}
		if message.Deleted() {
			return "", false, nil
		}
		return message.EmbeddingText(), true, nil
	case journal.EntityTypeNote:
		note, err := ix.notes.FindOne(ctx, repository.WithID(ref.EntityID()))
		if err != nil {
			if isNotFound(err) {
				return "", false, nil
			}
			return "", false, err
		}
		if note.Deleted() {
			return "", false, nil
		}
		return note.EmbeddingText(), true, nil
	default:
		return "", false, fmt.Errorf("entity text: unknown entity type %q", ref.EntityType())
	}
}

// liveIDs returns the ids of all non-deleted entries of one type.
func (ix *Indexer) liveIDs(ctx context.Context, entityType journal.EntityType) ([]string, error) {
	switch entityType {
	case journal.EntityTypeMessage:
		messages, err := ix.messages.Find(ctx, journal.WithNotDeleted())
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(messages))
		for i, message := range messages {
			ids[i] = message.ID()
		}
		return ids, nil
	case journal.EntityTypeNote:
		notes, err := ix.notes.Find(ctx, journal.WithNotDeleted())
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(notes))
		for i, note := range notes {
			ids[i] = note.ID()
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("live ids: unknown entity type %q", entityType)
	}
}

func (ix *Indexer) persistQueue(ctx context.Context) error {
	return ix.queueStore.Replace(ctx, ix.queue.Items())
}
