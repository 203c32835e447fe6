// Package memory provides in-memory implementations of driven ports.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
)

var (
	_ driven.IndexStorage = (*Storage)(nil)
	_ driven.VectorStore  = (*VectorStore)(nil)
)

// Storage keeps one VectorStore per path for the life of the process.
// Reopening a path returns the same data, as a persisted store would.
type Storage struct {
	mu     sync.Mutex
	stores map[string]*VectorStore
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{stores: make(map[string]*VectorStore)}
}

// Open returns the store for path, creating it if needed.
func (s *Storage) Open(_ context.Context, path string) (driven.VectorStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, ok := s.stores[path]
	if !ok {
		vs = NewVectorStore()
		s.stores[path] = vs
	}
	return vs, nil
}

// Exists reports whether path has been opened before.
func (s *Storage) Exists(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stores[path]
	return ok, nil
}

// Destroy forgets the store at path.
func (s *Storage) Destroy(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stores, path)
	return nil
}

// VectorStore is an in-memory driven.VectorStore.
type VectorStore struct {
	mu      sync.RWMutex
	entries []domain.IndexEntry
	ids     map[string]struct{}
	skipped map[string]domain.SkippedSource
}

// NewVectorStore creates an empty store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		ids:     make(map[string]struct{}),
		skipped: make(map[string]domain.SkippedSource),
	}
}

// Count returns the number of entries.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// ListSources returns the distinct source names, sorted.
func (s *VectorStore) ListSources(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var sources []string
	for _, e := range s.entries {
		if _, ok := seen[e.Chunk.Source]; ok {
			continue
		}
		seen[e.Chunk.Source] = struct{}{}
		sources = append(sources, e.Chunk.Source)
	}
	sort.Strings(sources)
	return sources, nil
}

// Dimensions returns the size of the first stored vector, or 0.
func (s *VectorStore) Dimensions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return 0, nil
	}
	return len(s.entries[0].Embedding), nil
}

// Insert adds all entries, or none if any id is already present.
func (s *VectorStore) Insert(_ context.Context, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		_, dup := batch[e.ID]
		if _, exists := s.ids[e.ID]; exists || dup {
			return fmt.Errorf("entry %s: %w", e.ID, domain.ErrInvalidInput)
		}
		batch[e.ID] = struct{}{}
	}
	for _, e := range entries {
		s.entries = append(s.entries, e)
		s.ids[e.ID] = struct{}{}
	}
	return nil
}

// Nearest ranks entries passing the filter by cosine similarity.
func (s *VectorStore) Nearest(_ context.Context, query []float32, opts domain.SearchOptions) ([]domain.ScoredEntry, error) {
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) > 0 && len(s.entries[0].Embedding) != len(query) {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), len(s.entries[0].Embedding), domain.ErrInvalidInput)
	}
	var cands []domain.ScoredEntry
	for _, e := range s.entries {
		if !opts.Filter.Matches(e.Chunk) {
			continue
		}
		cands = append(cands, domain.ScoredEntry{
			IndexEntry: e,
			Relevance:  domain.CosineSimilarity(query, e.Embedding),
		})
	}
	return domain.RankCandidates(cands, opts), nil
}

// Skipped returns the recorded skipped documents sorted by name.
func (s *VectorStore) Skipped(_ context.Context) ([]domain.SkippedSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SkippedSource, 0, len(s.skipped))
	for _, d := range s.skipped {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MarkSkipped records docs, replacing earlier records of the same name.
func (s *VectorStore) MarkSkipped(_ context.Context, docs []domain.SkippedSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		s.skipped[d.Name] = d
	}
	return nil
}

// Close is a no-op; data stays available to later Opens.
func (s *VectorStore) Close() error { return nil }
