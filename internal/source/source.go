// Package source supplies raw log lines to the pipeline. Two producers are
// provided: a subprocess follower (journalctl -f and friends) and a file
// tailer. Both honor context cancellation and guarantee their underlying
// resources are released - a spawned process is always signaled and reaped,
// never left as a zombie.
package source

import (
	"context"
)

// Source produces newline-delimited raw log lines indefinitely.
type Source interface {
	// Lines starts the producer and returns its output channel. The
	// channel closes when the source terminates (end of stream after
	// retries, or context cancellation).
	Lines(ctx context.Context) (<-chan string, error)

	// Stop terminates the producer and releases its resources. For
	// subprocess sources this signals the process and waits for it.
	// Safe to call more than once.
	Stop() error
}
