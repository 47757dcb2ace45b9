package dedup

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_FirstOccurrenceForwarded(t *testing.T) {
	c := NewCache()
	now := time.Now()

	assert.True(t, c.Observe("Nov 04 10:00:00 host app[1]: something broke", now))
	// Same message, different timestamp and PID: suppressed.
	assert.False(t, c.Observe("Nov 04 10:00:05 host app[2]: something broke", now.Add(5*time.Second)))
	assert.False(t, c.Observe("Nov 04 10:00:09 host app[3]: something broke", now.Add(9*time.Second)))
}

func TestCache_DistinctFingerprintsIndependent(t *testing.T) {
	c := NewCache()
	now := time.Now()

	assert.True(t, c.Observe("disk full on /var", now))
	assert.True(t, c.Observe("network unreachable", now))
	assert.False(t, c.Observe("disk full on /var", now))
}

func TestCache_DrainRepeatsCountConvention(t *testing.T) {
	// Given: N identical lines within one window
	const n = 5
	c := NewCache()
	now := time.Now()

	forwarded := 0
	for i := 0; i < n; i++ {
		if c.Observe("repeated message", now.Add(time.Duration(i)*time.Second)) {
			forwarded++
		}
	}

	// Then: exactly one immediate forward occurred
	assert.Equal(t, 1, forwarded)

	// And: the drained entry counts all N occurrences, first included
	repeats := c.DrainRepeats()
	require.Len(t, repeats, 1)
	assert.Equal(t, n, repeats[0].Count)
	assert.Equal(t, "repeated message", repeats[0].Raw)
	assert.Equal(t, now, repeats[0].FirstSeen)
	assert.Equal(t, now.Add((n-1)*time.Second), repeats[0].LastSeen)
}

func TestCache_SingletonsDroppedSilently(t *testing.T) {
	c := NewCache()
	now := time.Now()

	c.Observe("seen once", now)
	c.Observe("seen twice", now)
	c.Observe("seen twice", now)

	repeats := c.DrainRepeats()
	require.Len(t, repeats, 1)
	assert.Equal(t, "seen twice", repeats[0].Raw)

	// The drain reset every fingerprint to unseen.
	assert.True(t, c.Empty())
	assert.True(t, c.Observe("seen twice", now))
}

func TestCache_EmptyFastPath(t *testing.T) {
	c := NewCache()
	assert.True(t, c.Empty())
	assert.Nil(t, c.DrainRepeats())

	c.Observe("line", time.Now())
	assert.False(t, c.Empty())
}

func TestCache_ConcurrentObserve(t *testing.T) {
	c := NewCache()
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	forwarded := 0

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if c.Observe("hammered message", now) {
					mu.Lock()
					forwarded++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	// Exactly one goroutine won the first observation.
	assert.Equal(t, 1, forwarded)

	repeats := c.DrainRepeats()
	require.Len(t, repeats, 1)
	assert.Equal(t, 800, repeats[0].Count)
}

func TestFlusher_SummaryFormatAndSharedTimestamp(t *testing.T) {
	c := NewCache()
	base := time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		c.Observe("alpha failed", base)
	}
	for i := 0; i < 2; i++ {
		c.Observe("beta failed", base)
	}

	var mu sync.Mutex
	var got []string
	var stamps []time.Time
	f := NewFlusher(c, time.Minute, func(ctx context.Context, text string, ts time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, text)
		stamps = append(stamps, ts)
		return nil
	})
	flushTime := time.Date(2026, 8, 28, 12, 30, 10, 0, time.UTC)
	f.now = func() time.Time { return flushTime }

	f.FlushOnce(context.Background())

	require.Len(t, got, 2)
	assert.Contains(t, got, "2026-08-28 12:30:10 | 'alpha failed' repeated 3x")
	assert.Contains(t, got, "2026-08-28 12:30:10 | 'beta failed' repeated 2x")

	// One timestamp per flush tick, shared by all summaries.
	for _, ts := range stamps {
		assert.Equal(t, flushTime, ts)
	}
}

func TestFlusher_EmptyCacheEmitsNothing(t *testing.T) {
	c := NewCache()
	calls := 0
	f := NewFlusher(c, time.Minute, func(ctx context.Context, text string, ts time.Time) error {
		calls++
		return nil
	})

	f.FlushOnce(context.Background())
	assert.Zero(t, calls)
}

func TestFlusher_RunFinalFlushOnCancel(t *testing.T) {
	c := NewCache()
	now := time.Now()
	c.Observe("pending repeat", now)
	c.Observe("pending repeat", now)

	emitted := make(chan string, 4)
	f := NewFlusher(c, time.Hour, func(ctx context.Context, text string, ts time.Time) error {
		emitted <- text
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)

	select {
	case text := <-emitted:
		assert.Contains(t, text, "'pending repeat' repeated 2x")
	default:
		t.Fatal("final flush did not emit pending summary")
	}
}

func TestFlusher_FinalFlushBoundedWhenConsumerGone(t *testing.T) {
	c := NewCache()
	now := time.Now()
	c.Observe("stranded repeat", now)
	c.Observe("stranded repeat", now)

	// Emit imitates a send into a full channel whose consumer has died:
	// it only returns once the emit context expires.
	f := NewFlusher(c, time.Hour, func(ctx context.Context, text string, ts time.Time) error {
		<-ctx.Done()
		return ctx.Err()
	})
	f.finalFlushTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("final flush hung with no consumer")
	}
}

func TestFlusher_PeriodicFlush(t *testing.T) {
	c := NewCache()
	emitted := make(chan string, 16)
	f := NewFlusher(c, 20*time.Millisecond, func(ctx context.Context, text string, ts time.Time) error {
		emitted <- text
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Run(ctx) }()

	now := time.Now()
	c.Observe("tick message", now)
	c.Observe("tick message", now)

	select {
	case text := <-emitted:
		assert.Contains(t, text, fmt.Sprintf("'%s' repeated 2x", "tick message"))
	case <-time.After(2 * time.Second):
		t.Fatal("flusher never ticked")
	}
}
