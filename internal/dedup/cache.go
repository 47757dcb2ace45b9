// Package dedup suppresses repeated log lines. The first occurrence of a
// fingerprint is forwarded immediately; repeats within a flush window are
// counted and later emitted as a single "repeated Nx" summary.
package dedup

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akodali/logsonar/internal/normalize"
)

// Entry tracks repeats of one fingerprint within the current flush window.
// Owned exclusively by the Cache; mutated only under its lock.
type Entry struct {
	Fingerprint string
	Raw         string // representative raw text (first occurrence)
	Count       int    // total occurrences observed, including the first
	FirstSeen   time.Time
	LastSeen    time.Time
}

// Cache is the repeat-detection cache keyed by fingerprint.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry

	// size mirrors len(entries) so the flusher's empty fast-path never
	// takes the lock.
	size atomic.Int64
}

// NewCache creates an empty repeat cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// Observe records one raw line. It returns true when the line must be
// forwarded downstream (first occurrence of its fingerprint in this window)
// and false when it is suppressed as a repeat. The critical section covers
// only the map mutation; fingerprinting happens outside the lock.
func (c *Cache) Observe(raw string, now time.Time) bool {
	fp := normalize.Fingerprint(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[fp]; ok {
		e.Count++
		e.LastSeen = now
		return false
	}

	c.entries[fp] = &Entry{
		Fingerprint: fp,
		Raw:         raw,
		Count:       1,
		FirstSeen:   now,
		LastSeen:    now,
	}
	c.size.Store(int64(len(c.entries)))
	return true
}

// Empty reports whether the cache holds no entries, without locking.
func (c *Cache) Empty() bool {
	return c.size.Load() == 0
}

// DrainRepeats atomically snapshots and clears the cache, returning the
// entries that repeated (count > 1). Entries seen exactly once were already
// forwarded on arrival and are dropped silently. Summary formatting belongs
// to the caller, outside the lock.
func (c *Cache) DrainRepeats() []Entry {
	c.mu.Lock()
	if len(c.entries) == 0 {
		c.mu.Unlock()
		return nil
	}

	snapshot := c.entries
	c.entries = make(map[string]*Entry)
	c.size.Store(0)
	c.mu.Unlock()

	var repeats []Entry
	for _, e := range snapshot {
		if e.Count > 1 {
			repeats = append(repeats, *e)
		}
	}
	return repeats
}
