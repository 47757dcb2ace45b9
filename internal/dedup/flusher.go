package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// summaryTimeFormat matches the original system's flush timestamps.
const summaryTimeFormat = "2006-01-02 15:04:05"

// defaultFinalFlushTimeout bounds the shutdown flush. The consumer normally
// drains the queue during shutdown, but if it has already died the final
// emit must not block forever.
const defaultFinalFlushTimeout = 5 * time.Second

// EmitFunc forwards a summary line downstream. It may block on channel
// backpressure; a cancelled context aborts the send.
type EmitFunc func(ctx context.Context, text string, ts time.Time) error

// Flusher periodically drains the repeat cache into summary lines.
type Flusher struct {
	cache    *Cache
	interval time.Duration
	emit     EmitFunc

	// now and finalFlushTimeout are swappable for tests.
	now               func() time.Time
	finalFlushTimeout time.Duration
}

// NewFlusher creates a flusher draining cache every interval.
func NewFlusher(cache *Cache, interval time.Duration, emit EmitFunc) *Flusher {
	return &Flusher{
		cache:             cache,
		interval:          interval,
		emit:              emit,
		now:               time.Now,
		finalFlushTimeout: defaultFinalFlushTimeout,
	}
}

// Run loops until the context is cancelled, flushing on a fixed interval,
// then performs one final drain so pending repeats are not lost on
// shutdown. Always returns nil after the final flush.
func (f *Flusher) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush runs detached from the cancelled context so
			// summaries can still drain into the channel, but with its
			// own deadline in case the consumer is already gone.
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.finalFlushTimeout)
			f.FlushOnce(fctx)
			cancel()
			return nil
		case <-ticker.C:
			f.FlushOnce(ctx)
		}
	}
}

// FlushOnce drains repeats accumulated since the previous flush and emits
// one summary per repeated fingerprint. An empty cache does no work and
// takes no lock. The flush timestamp is formatted once and shared by every
// summary in the tick; formatting and channel sends happen outside the
// cache lock.
func (f *Flusher) FlushOnce(ctx context.Context) {
	if f.cache.Empty() {
		return
	}

	repeats := f.cache.DrainRepeats()
	if len(repeats) == 0 {
		return
	}

	now := f.now()
	stamp := now.Format(summaryTimeFormat)

	for _, e := range repeats {
		summary := fmt.Sprintf("%s | '%s' repeated %dx", stamp, e.Raw, e.Count)
		if err := f.emit(ctx, summary, now); err != nil {
			slog.Warn("dropping repeat summary",
				slog.String("fingerprint", e.Fingerprint),
				slog.String("error", err.Error()))
			return
		}
	}
}
