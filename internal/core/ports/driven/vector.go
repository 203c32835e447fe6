package driven

import (
	"context"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// VectorStore persists index entries at one location.
// A single process is assumed to write to a location at a time.
type VectorStore interface {
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// ListSources returns the distinct source names across all entries.
	ListSources(ctx context.Context) ([]string, error)

	// Dimensions returns the vector size of stored entries, or 0 when empty.
	Dimensions(ctx context.Context) (int, error)

	// Insert stores entries atomically: all of them or none.
	Insert(ctx context.Context, entries []domain.IndexEntry) error

	// Nearest returns up to opts.FetchK entries matching opts.Filter with
	// relevance of at least opts.ScoreThreshold, most relevant first.
	// Selection among them (MMR) is left to the caller. A query whose size
	// differs from the stored vectors wraps domain.ErrInvalidInput.
	Nearest(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.ScoredEntry, error)

	// Skipped returns the documents recorded as giving nothing to index.
	Skipped(ctx context.Context) ([]domain.SkippedSource, error)

	// MarkSkipped records documents that gave nothing to index, replacing
	// earlier records with the same name.
	MarkSkipped(ctx context.Context, docs []domain.SkippedSource) error

	// Close releases resources.
	Close() error
}

// IndexStorage opens and destroys persisted index locations.
type IndexStorage interface {
	// Open loads or creates the store at path.
	Open(ctx context.Context, path string) (VectorStore, error)

	// Exists reports whether a store has been created at path. It never
	// creates anything.
	Exists(path string) (bool, error)

	// Destroy irrecoverably deletes everything at path. A missing location
	// is not an error.
	Destroy(path string) error
}
