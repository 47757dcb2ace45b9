// Package store provides the bounded in-memory vector index: an HNSW graph
// and a metadata window kept in lockstep, with FIFO eviction once the
// configured capacity is exceeded.
package store

import (
	"fmt"
	"time"
)

// Record is the metadata half of an indexed log entry. The i-th live vector
// and the i-th live record (by logical insertion order) always describe the
// same log entry.
type Record struct {
	// Timestamp is when the entry was enqueued (arrival or flush time).
	Timestamp time.Time

	// Text is the display text: the raw line or a repeat summary.
	Text string
}

// Result is one search hit, ordered ascending by distance.
type Result struct {
	Distance float32
	Record   Record
}

// Config configures the vector index.
type Config struct {
	// Dimensions is the embedding dimension; all appended vectors must match.
	Dimensions int

	// MaxSize caps live entries. Exceeding it evicts oldest-first.
	MaxSize int

	// Metric selects the distance function: "cos" (default) or "l2".
	Metric string

	// M is the HNSW connectivity parameter (default 16).
	M int

	// EfSearch is the HNSW search expansion factor (default 20).
	EfSearch int
}

// DefaultConfig returns a config for the given dimension using the
// original system's capacity.
func DefaultConfig(dims int) Config {
	return Config{
		Dimensions: dims,
		MaxSize:    100000,
		Metric:     "cos",
	}
}

// ErrDimensionMismatch is returned when vector dimensions don't match the
// configured index dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
