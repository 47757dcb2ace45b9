// Package pipeline wires the ingestion path together: raw lines from a
// source pass through the repeat cache, first occurrences and flushed
// summaries go onto a bounded queue, and a batch embedder drains the queue
// into the vector store. Backpressure is the queue itself: when the
// embedder falls behind, producers block rather than drop lines.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akodali/logsonar/internal/config"
	"github.com/akodali/logsonar/internal/dedup"
	"github.com/akodali/logsonar/internal/embed"
	"github.com/akodali/logsonar/internal/source"
	"github.com/akodali/logsonar/internal/store"
)

// Service runs the full ingestion pipeline until its context is cancelled.
type Service struct {
	cfg      *config.Config
	source   source.Source
	embedder embed.Embedder
	store    *store.Store
	logger   *slog.Logger

	cache *dedup.Cache
	queue chan Item
}

// New assembles a pipeline over an already-constructed source, embedder,
// and store. The caller keeps ownership of all three.
func New(cfg *config.Config, src source.Source, embedder embed.Embedder, st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	capacity := cfg.Index.QueueCapacity
	if capacity <= 0 {
		capacity = config.DefaultQueueCapacity
	}
	return &Service{
		cfg:      cfg,
		source:   src,
		embedder: embedder,
		store:    st,
		logger:   logger,
		cache:    dedup.NewCache(),
		queue:    make(chan Item, capacity),
	}
}

// Run starts the source, the periodic repeat flusher, and the batch
// embedder, and blocks until the context is cancelled or a component fails.
// Shutdown is ordered: producers stop first, the flusher emits its final
// summaries, the queue closes, and the embedder drains whatever remains
// before Run returns.
func (s *Service) Run(ctx context.Context) error {
	lines, err := s.source.Lines(ctx)
	if err != nil {
		return err
	}
	defer s.source.Stop()

	s.logger.Info("pipeline started",
		"queue_capacity", cap(s.queue),
		"batch_size", s.cfg.Embeddings.BatchSize,
		"flush_interval", s.cfg.Dedup.FlushInterval,
		"max_index_size", s.cfg.Index.MaxSize)

	flusher := dedup.NewFlusher(s.cache, s.cfg.Dedup.FlushInterval, s.emitSummary)
	batcher := NewBatchEmbedder(s.queue, s.embedder, s.store,
		s.cfg.Embeddings.BatchSize, s.cfg.Index.BatchTimeout, s.logger)

	g, gctx := errgroup.WithContext(ctx)

	// Producers share a group so the queue closes only after both the
	// ingest loop and the flusher's final flush have finished.
	producers, pctx := errgroup.WithContext(gctx)
	producers.Go(func() error { return s.ingest(pctx, lines) })
	producers.Go(func() error { return flusher.Run(pctx) })

	g.Go(func() error {
		defer close(s.queue)
		return producers.Wait()
	})
	g.Go(func() error { return batcher.Run(gctx) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	s.logger.Info("pipeline stopped", "indexed_total", s.store.Size())
	return err
}

// ingest forwards each line's first occurrence onto the queue; repeats only
// bump the cache and surface later as flush summaries.
func (s *Service) ingest(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			now := time.Now()
			if !s.cache.Observe(line, now) {
				continue
			}
			if err := s.enqueue(ctx, Item{Text: line, Timestamp: now}); err != nil {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// emitSummary is the flusher's sink. The final flush runs on a detached
// context, so summaries produced during shutdown still reach the queue
// before it closes.
func (s *Service) emitSummary(ctx context.Context, text string, ts time.Time) error {
	return s.enqueue(ctx, Item{Text: text, Timestamp: ts})
}

func (s *Service) enqueue(ctx context.Context, it Item) error {
	select {
	case s.queue <- it:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
