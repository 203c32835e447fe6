package driving

import (
	"context"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// IndexHandle is an open, persisted index. It is passed explicitly into
// every catalog and query operation; nothing in core holds one between calls.
type IndexHandle interface {
	// Path is the persisted location.
	Path() string

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// ListSources returns the distinct indexed source names. It never fails:
	// on a read error it logs a warning and returns an empty slice.
	ListSources(ctx context.Context) []string

	// AddBatch embeds and persists chunks. Either all of them are stored
	// or none are.
	AddBatch(ctx context.Context, chunks []domain.Chunk) error

	// Search returns up to opts.K chunks selected by maximal marginal
	// relevance from opts.FetchK candidates.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Chunk, error)

	// Close releases the underlying store.
	Close() error
}

// IndexBuilder decides between reusing, extending and rebuilding an index.
type IndexBuilder interface {
	// Open returns the populated index at persistDir without building
	// anything. An absent or empty index yields domain.ErrEmptyOrMissing.
	Open(ctx context.Context, persistDir string) (IndexHandle, error)

	// GetOrCreate returns a handle to the index at persistDir, built from
	// the PDFs in pdfDir as needed. The report describes what was done and
	// carries contained per-file and per-batch failures.
	GetOrCreate(ctx context.Context, pdfDir, persistDir string, forceRebuild bool) (IndexHandle, *domain.BuildReport, error)
}
