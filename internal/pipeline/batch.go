package pipeline

import (
	"context"
	"log/slog"
	"time"

	sonarerr "github.com/akodali/logsonar/internal/errors"
	"github.com/akodali/logsonar/internal/embed"
	"github.com/akodali/logsonar/internal/store"
)

// Item is one unit of text queued for embedding: a forwarded first
// occurrence or a repeat summary, stamped with its arrival time.
type Item struct {
	Text      string
	Timestamp time.Time
}

// BatchEmbedder drains the item queue, accumulates items into batches, and
// writes each embedded batch to the store in a single append. A partial
// batch is flushed when no new item arrives within the batch timeout, so a
// quiet stream never strands items in memory.
type BatchEmbedder struct {
	queue     <-chan Item
	embedder  embed.Embedder
	store     *store.Store
	batchSize int
	timeout   time.Duration
	logger    *slog.Logger
}

// NewBatchEmbedder builds the consumer side of the queue.
func NewBatchEmbedder(queue <-chan Item, embedder embed.Embedder, st *store.Store, batchSize int, timeout time.Duration, logger *slog.Logger) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = embed.DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchEmbedder{
		queue:     queue,
		embedder:  embedder,
		store:     st,
		batchSize: batchSize,
		timeout:   timeout,
		logger:    logger,
	}
}

// Run consumes the queue until it closes. Cancellation is driven by the
// producers: once they stop and the queue is closed, any buffered items are
// flushed and Run returns. Only a fatal store failure aborts early.
func (b *BatchEmbedder) Run(ctx context.Context) error {
	batch := make([]Item, 0, b.batchSize)
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	for {
		select {
		case it, ok := <-b.queue:
			if !ok {
				return b.flush(ctx, &batch)
			}
			batch = append(batch, it)
			if len(batch) >= b.batchSize {
				if err := b.flush(ctx, &batch); err != nil {
					return err
				}
				resetTimer(timer, b.timeout)
			}
		case <-timer.C:
			if err := b.flush(ctx, &batch); err != nil {
				return err
			}
			timer.Reset(b.timeout)
		}
	}
}

// flush embeds and indexes the accumulated batch. Embedding failures drop
// the batch and keep the loop alive; the returned error is non-nil only for
// unrecoverable store corruption.
func (b *BatchEmbedder) flush(ctx context.Context, batch *[]Item) error {
	items := *batch
	if len(items) == 0 {
		return nil
	}
	*batch = (*batch)[:0]

	// A shutdown flush still embeds: the parent context is already
	// cancelled by the time the closed queue drains.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	texts := make([]string, len(items))
	records := make([]store.Record, len(items))
	for i, it := range items {
		texts[i] = it.Text
		records[i] = store.Record{Timestamp: it.Timestamp, Text: it.Text}
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		b.logger.Warn("embedding batch failed, dropping batch",
			"items", len(items), "error", err)
		return nil
	}

	if err := b.store.Append(vectors, records); err != nil {
		if sonarerr.IsFatal(err) {
			b.logger.Error("index append failed fatally", "error", err)
			return err
		}
		b.logger.Warn("index append failed, dropping batch",
			"items", len(items), "error", err)
		return nil
	}

	b.logger.Debug("batch indexed", "items", len(items), "indexed_total", b.store.Size())
	return nil
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
