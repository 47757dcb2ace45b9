package store

import (
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"

	sonarerr "github.com/akodali/logsonar/internal/errors"
)

// Store is the bounded vector index. Vectors live in a coder/hnsw graph
// keyed by a monotonically increasing logical id; metadata lives in a map
// over the same ids. The live window is [base, next).
//
// Eviction strategy: stale-id filtering. The graph only supports cheap
// append, so evicted entries are removed lazily - the metadata is dropped
// and the advancing base offset marks the graph node as an orphan that
// search results filter out. Once orphans accumulate past the capacity
// bound the graph is rebuilt from the live window, keeping total memory
// proportional to MaxSize.
//
// A single mutex guards both append and search: the graph is not safe for
// concurrent mutation and read, so this is a single-writer-blocks-readers
// resource rather than a lock-free structure.
type Store struct {
	mu     sync.Mutex
	graph  *hnsw.Graph[uint64]
	cfg    Config
	closed bool

	entries map[uint64]entry
	base    uint64 // oldest live logical id
	next    uint64 // next logical id to assign
}

// entry pairs a metadata record with its (normalized) vector. The vector is
// retained so orphan compaction can rebuild the graph without a re-embed.
type entry struct {
	record Record
	vec    []float32
}

// Stats describes store occupancy, used by tests and the status banner.
type Stats struct {
	Live       int    // live entries (metadata records == live vectors)
	GraphNodes int    // nodes in the HNSW graph, including orphans
	Orphans    int    // lazily evicted nodes awaiting compaction
	Evicted    uint64 // total entries evicted since start
}

// New creates a vector index for the given config.
func New(cfg Config) (*Store, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("max size must be positive, got %d", cfg.MaxSize)
	}
	if cfg.Metric == "" {
		cfg.Metric = "cos"
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	return &Store{
		graph:   newGraph(cfg),
		cfg:     cfg,
		entries: make(map[uint64]entry),
	}, nil
}

func newGraph(cfg Config) *hnsw.Graph[uint64] {
	graph := hnsw.NewGraph[uint64]()
	switch cfg.Metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25
	return graph
}

// Append inserts vectors with their paired metadata records as one atomic
// operation, then applies FIFO eviction if the bound is exceeded. The i-th
// vector and the i-th record must describe the same log entry.
func (s *Store) Append(vectors [][]float32, records []Record) error {
	if len(vectors) != len(records) {
		return fmt.Errorf("vectors and records length mismatch: %d vs %d", len(vectors), len(records))
	}
	if len(vectors) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return sonarerr.New(sonarerr.ErrCodeStoreClosed, "store is closed", nil)
	}

	// Validate before mutating anything so a bad batch leaves the store
	// untouched.
	for _, v := range vectors {
		if len(v) != s.cfg.Dimensions {
			return ErrDimensionMismatch{Expected: s.cfg.Dimensions, Got: len(v)}
		}
	}

	for i, v := range vectors {
		vec := make([]float32, len(v))
		copy(vec, v)
		if s.cfg.Metric == "cos" {
			normalizeInPlace(vec)
		}

		id := s.next
		s.next++
		s.graph.Add(hnsw.MakeNode(id, vec))
		s.entries[id] = entry{record: records[i], vec: vec}
	}

	// FIFO eviction: drop oldest ids until back under the bound. Graph
	// nodes stay behind as orphans until compaction.
	for len(s.entries) > s.cfg.MaxSize {
		delete(s.entries, s.base)
		s.base++
	}

	s.maybeCompact()

	return s.checkInvariant()
}

// Search returns up to min(k, size) results ordered ascending by distance.
// k <= 0 or an empty store yields an empty slice, not an error. Evicted
// entries never surface: orphaned graph nodes are filtered by id.
func (s *Store) Search(query []float32, k int) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, sonarerr.New(sonarerr.ErrCodeStoreClosed, "store is closed", nil)
	}
	if len(query) != s.cfg.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.cfg.Dimensions, Got: len(query)}
	}

	live := len(s.entries)
	if k <= 0 || live == 0 {
		return []Result{}, nil
	}
	if k > live {
		k = live
	}

	q := make([]float32, len(query))
	copy(q, query)
	if s.cfg.Metric == "cos" {
		normalizeInPlace(q)
	}

	// Over-fetch by the orphan count so filtering stale ids still leaves
	// k live candidates.
	fetch := k + (s.graph.Len() - live)
	if fetch > s.graph.Len() {
		fetch = s.graph.Len()
	}

	nodes := s.graph.Search(q, fetch)

	results := make([]Result, 0, k)
	for _, node := range nodes {
		ent, ok := s.entries[node.Key]
		if !ok {
			// Evicted before compaction caught up.
			continue
		}

		results = append(results, Result{
			Distance: s.graph.Distance(q, node.Value),
			Record:   ent.record,
		})
		if len(results) == k {
			break
		}
	}

	return results, nil
}

// Size returns the number of live entries.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}
	return len(s.entries)
}

// Stats returns occupancy counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Stats{}
	}

	live := len(s.entries)
	return Stats{
		Live:       live,
		GraphNodes: s.graph.Len(),
		Orphans:    s.graph.Len() - live,
		Evicted:    s.base,
	}
}

// Close releases the graph. Further operations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	s.entries = nil
	return nil
}

// maybeCompact rebuilds the graph from the live window once orphans exceed
// the capacity bound, so graph memory never exceeds ~2x MaxSize. Caller
// holds the mutex.
func (s *Store) maybeCompact() {
	orphans := s.graph.Len() - len(s.entries)
	if orphans <= s.cfg.MaxSize {
		return
	}

	graph := newGraph(s.cfg)
	for id := s.base; id < s.next; id++ {
		ent, ok := s.entries[id]
		if !ok {
			continue
		}
		graph.Add(hnsw.MakeNode(id, ent.vec))
	}
	s.graph = graph
}

// checkInvariant verifies the metadata/vector pairing bound after a
// completed mutation. A violation indicates a logic bug and is fatal.
// Caller holds the mutex.
func (s *Store) checkInvariant() error {
	live := len(s.entries)
	if uint64(live) != s.next-s.base || live > s.cfg.MaxSize {
		return sonarerr.Newf(sonarerr.ErrCodeIndexCorrupt,
			"index corrupt: %d records in window [%d,%d) with bound %d",
			live, s.base, s.next, s.cfg.MaxSize)
	}
	return nil
}

// normalizeInPlace normalizes a vector to unit length in place.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
