package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
	"github.com/custodia-labs/normsqa/internal/logger"
)

// Ensure EmbeddingIndex implements the interface.
var _ driving.IndexHandle = (*EmbeddingIndex)(nil)

// EmbeddingIndex is an open vector store paired with the embedding model
// that produced its vectors.
type EmbeddingIndex struct {
	path     string
	store    driven.VectorStore
	embedder driven.EmbeddingService
	newID    func() string
}

// NewEmbeddingIndex wraps an open store.
func NewEmbeddingIndex(path string, store driven.VectorStore, embedder driven.EmbeddingService) *EmbeddingIndex {
	return &EmbeddingIndex{
		path:     path,
		store:    store,
		embedder: embedder,
		newID:    uuid.NewString,
	}
}

// OpenIndex loads the persisted index at path without creating anything.
// It returns a handle only if the index holds at least one entry; otherwise
// the error wraps domain.ErrEmptyOrMissing. An index built by a different
// embedding model is a *domain.ConfigError.
func OpenIndex(ctx context.Context, storage driven.IndexStorage, embedder driven.EmbeddingService,
	path string) (*EmbeddingIndex, error) {
	exists, err := storage.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmptyOrMissing, path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyOrMissing, path)
	}

	store, err := storage.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}

	n, err := store.Count(ctx)
	if err != nil || n == 0 {
		_ = store.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmptyOrMissing, path, err)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyOrMissing, path)
	}

	idx := NewEmbeddingIndex(path, store, embedder)
	if err := idx.checkDimensions(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return idx, nil
}

// checkDimensions compares the stored vector size with the embedder's.
// Models missing from domain.EmbeddingDimensions are not checked here;
// the store rejects mismatched queries at search time.
func (x *EmbeddingIndex) checkDimensions(ctx context.Context) error {
	want, known := domain.EmbeddingDimensions()[x.embedder.ModelName()]
	if !known {
		return nil
	}
	have, err := x.store.Dimensions(ctx)
	if err != nil {
		logger.Warn("reading vector size of %s: %v", x.path, err)
		return nil
	}
	if have == 0 || have == want {
		return nil
	}
	return &domain.ConfigError{
		Field: "embedding.model",
		Reason: fmt.Sprintf("index %s holds %d-dimensional vectors but %s produces %d; rebuild the index",
			x.path, have, x.embedder.ModelName(), want),
	}
}

// Path returns the persisted location.
func (x *EmbeddingIndex) Path() string {
	return x.path
}

// Count returns the number of stored entries.
func (x *EmbeddingIndex) Count(ctx context.Context) (int, error) {
	return x.store.Count(ctx)
}

// ListSources returns the distinct indexed source names, or an empty slice
// if the store cannot be read.
func (x *EmbeddingIndex) ListSources(ctx context.Context) []string {
	sources, err := x.store.ListSources(ctx)
	if err != nil {
		logger.Warn("listing indexed documents in %s: %v", x.path, err)
		return []string{}
	}
	if sources == nil {
		return []string{}
	}
	return sources
}

// skipped returns the recorded skipped documents, or nil if the store
// cannot be read.
func (x *EmbeddingIndex) skipped(ctx context.Context) []domain.SkippedSource {
	docs, err := x.store.Skipped(ctx)
	if err != nil {
		logger.Warn("listing skipped documents in %s: %v", x.path, err)
		return nil
	}
	return docs
}

// markSkipped records documents that gave nothing to index.
func (x *EmbeddingIndex) markSkipped(ctx context.Context, docs []domain.SkippedSource) {
	if len(docs) == 0 {
		return
	}
	if err := x.store.MarkSkipped(ctx, docs); err != nil {
		logger.Warn("recording skipped documents in %s: %v", x.path, err)
	}
}

// AddBatch embeds the chunks in one request and inserts them in one
// transaction.
func (x *EmbeddingIndex) AddBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed batch: got %d vectors for %d chunks: %w",
			len(vectors), len(chunks), domain.ErrEmbeddingUnavailable)
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexEntry{
			ID:        x.newID(),
			Chunk:     c,
			Embedding: vectors[i],
		}
	}

	if err := x.store.Insert(ctx, entries); err != nil {
		return fmt.Errorf("store batch: %w", err)
	}
	return nil
}

// Search embeds the query, fetches opts.FetchK candidates that pass the
// filter and score threshold, and selects opts.K of them by MMR.
func (x *EmbeddingIndex) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Chunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}
	if opts.FetchK < opts.K {
		opts.FetchK = opts.K
	}

	vector, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	cands, err := x.store.Nearest(ctx, vector, opts)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbours: %w", err)
	}

	picked := selectMMR(cands, opts.K, opts.Lambda)
	logger.Debug("search %q: %d candidates, %d selected", query, len(cands), len(picked))

	chunks := make([]domain.Chunk, len(picked))
	for i, p := range picked {
		chunks[i] = p.Chunk
	}
	return chunks, nil
}

// Close releases the store. The embedder is shared and stays open.
func (x *EmbeddingIndex) Close() error {
	return x.store.Close()
}
