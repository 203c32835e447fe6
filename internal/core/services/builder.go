package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
	"github.com/custodia-labs/normsqa/internal/logger"
)

// Ensure IndexBuilder implements the interface.
var _ driving.IndexBuilder = (*IndexBuilder)(nil)

// IndexBuilder reuses, extends or rebuilds the persisted index.
//
// New files are processed FilesPerGroup at a time so only one group's
// chunks are held in memory. Each group's chunks are embedded in batches
// of BatchSize, spaced at least BatchInterval apart. A batch that still
// fails after retries is recorded in the report and the run continues.
type IndexBuilder struct {
	mu sync.Mutex

	storage   driven.IndexStorage
	embedder  driven.EmbeddingService
	lister    driven.CorpusLister
	extractor driven.TextExtractor
	splitter  driven.Splitter

	ingest     domain.IngestSettings
	openRetry  RetryPolicy
	batchRetry RetryPolicy
	progress   domain.ProgressFunc
}

// BuilderOption configures an IndexBuilder.
type BuilderOption func(*IndexBuilder)

// WithIngestSettings sets batch sizing, pacing, grouping and batch retries.
func WithIngestSettings(s domain.IngestSettings) BuilderOption {
	return func(b *IndexBuilder) {
		b.ingest = s
		b.batchRetry.MaxAttempts = s.MaxAttempts
		b.batchRetry.Backoff = FixedBackoff(s.Backoff)
	}
}

// WithOpenRetry overrides the retry policy for opening the store.
func WithOpenRetry(p RetryPolicy) BuilderOption {
	return func(b *IndexBuilder) { b.openRetry = p }
}

// WithBatchRetry overrides the retry policy for embedding batches.
func WithBatchRetry(p RetryPolicy) BuilderOption {
	return func(b *IndexBuilder) { b.batchRetry = p }
}

// WithProgress registers a callback invoked after every batch.
func WithProgress(fn domain.ProgressFunc) BuilderOption {
	return func(b *IndexBuilder) { b.progress = fn }
}

// NewIndexBuilder creates a builder with default ingest settings.
func NewIndexBuilder(
	storage driven.IndexStorage,
	embedder driven.EmbeddingService,
	lister driven.CorpusLister,
	extractor driven.TextExtractor,
	splitter driven.Splitter,
	opts ...BuilderOption,
) *IndexBuilder {
	b := &IndexBuilder{
		storage:    storage,
		embedder:   embedder,
		lister:     lister,
		extractor:  extractor,
		splitter:   splitter,
		ingest:     domain.DefaultAppSettings().Ingest,
		openRetry:  DefaultOpenRetry(),
		batchRetry: DefaultBatchRetry(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open returns the populated index at persistDir.
func (b *IndexBuilder) Open(ctx context.Context, persistDir string) (driving.IndexHandle, error) {
	idx, err := OpenIndex(ctx, b.storage, b.embedder, persistDir)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// GetOrCreate returns the index at persistDir, building or extending it
// from pdfDir when needed.
//
//   - With forceRebuild the location is destroyed first and rebuilt.
//   - A populated index with nothing new in pdfDir is reused without any
//     extraction or embedding.
//   - Otherwise every PDF whose name is not yet indexed is ingested.
//
// Files that were read before but gave nothing to index (corrupt, or no
// page with enough text) are recorded in the store. While the index is
// populated they are left out until their size or modification time
// changes. A fresh build tries them again.
//
// The error is non-nil only when no usable index can be returned: the
// corpus is empty and nothing is indexed, the store cannot be opened, or
// ctx was cancelled.
func (b *IndexBuilder) GetOrCreate(
	ctx context.Context, pdfDir, persistDir string, forceRebuild bool,
) (driving.IndexHandle, *domain.BuildReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := &domain.BuildReport{}

	if forceRebuild {
		logger.Info("Removing index at %s for rebuild", persistDir)
		if err := b.storage.Destroy(persistDir); err != nil {
			return nil, report, fmt.Errorf("remove index %s: %w", persistDir, err)
		}
	}

	idx, err := b.open(ctx, persistDir)
	if err != nil {
		return nil, report, err
	}

	entries, err := idx.Count(ctx)
	if err != nil {
		logger.Warn("counting entries in %s: %v", persistDir, err)
		entries = 0
	}
	if entries > 0 {
		if err := idx.checkDimensions(ctx); err != nil {
			_ = idx.Close()
			return nil, report, err
		}
	}

	docs, err := b.lister.List(pdfDir)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		if entries > 0 {
			logger.Warn("listing %s: %v; using existing index", pdfDir, err)
			return b.reuse(idx, entries, report)
		}
		_ = idx.Close()
		return nil, report, fmt.Errorf("list documents: %w", err)
	}
	report.FilesSeen = len(docs)

	existing := idx.ListSources(ctx)
	if entries > 0 && len(existing) == 0 {
		// Sources unreadable; ingesting now would duplicate everything.
		return b.reuse(idx, entries, report)
	}

	indexed := make(map[string]bool, len(existing))
	for _, name := range existing {
		indexed[name] = true
	}
	skipped := make(map[string]domain.SkippedSource)
	if entries > 0 {
		for _, s := range idx.skipped(ctx) {
			skipped[s.Name] = s
		}
	}
	var pending []domain.SourceDocument
	for _, d := range docs {
		if indexed[d.Name] {
			continue
		}
		if s, ok := skipped[d.Name]; ok && s.Covers(d) {
			report.UnchangedSkipped++
			logger.Debug("leaving out %s: %s", d.Name, s.Reason)
			continue
		}
		pending = append(pending, d)
	}
	report.NewFiles = len(pending)

	switch {
	case entries > 0 && len(pending) == 0:
		return b.reuse(idx, entries, report)
	case len(existing) == 0 && len(docs) == 0:
		_ = idx.Close()
		return nil, report, fmt.Errorf("%w: %s is empty", domain.ErrNoDocuments, pdfDir)
	case len(existing) == 0:
		report.State = domain.BuildFresh
		logger.Info("Building index at %s from %d files", persistDir, len(docs))
	default:
		report.State = domain.BuildIncremental
		logger.Info("Index has %d documents, %d new", len(existing), len(pending))
	}

	if err := b.ingestFiles(ctx, idx, pending, report); err != nil {
		_ = idx.Close()
		return nil, report, err
	}

	if n, err := idx.Count(ctx); err == nil && n == 0 {
		_ = idx.Close()
		return nil, report, fmt.Errorf("nothing indexed from %s: %w",
			pdfDir, errors.Join(domain.ErrNoDocuments, report.Err()))
	}

	logger.Info("Indexed %d chunks from %d pages (%d failed batches)",
		report.Chunks, report.Pages, report.FailedBatches)
	return idx, report, nil
}

func (b *IndexBuilder) reuse(
	idx *EmbeddingIndex, entries int, report *domain.BuildReport,
) (driving.IndexHandle, *domain.BuildReport, error) {
	report.State = domain.BuildReuse
	logger.Info("Loaded existing index at %s (%d entries)", idx.Path(), entries)
	return idx, report, nil
}

// open opens the store with retries.
func (b *IndexBuilder) open(ctx context.Context, path string) (*EmbeddingIndex, error) {
	var store driven.VectorStore
	attempts, err := b.openRetry.Do(ctx, func(ctx context.Context) error {
		s, err := b.storage.Open(ctx, path)
		if err != nil {
			logger.Warn("opening index %s: %v", path, err)
			return err
		}
		store = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open index %s after %d attempts: %w", path, attempts, err)
	}
	return NewEmbeddingIndex(path, store, b.embedder), nil
}

// ingestFiles extracts, splits and stores docs group by group. Only
// cancellation aborts it; everything else lands in the report.
func (b *IndexBuilder) ingestFiles(
	ctx context.Context, idx *EmbeddingIndex, docs []domain.SourceDocument, report *domain.BuildReport,
) error {
	perGroup := max(b.ingest.FilesPerGroup, 1)
	batchSize := max(b.ingest.BatchSize, 1)
	limiter := newBatchLimiter(b.ingest)

	groups := (len(docs) + perGroup - 1) / perGroup
	batchNo := 0
	added := 0

	for g := range groups {
		group := docs[g*perGroup : min((g+1)*perGroup, len(docs))]
		logger.Info("Processing files %d-%d of %d", g*perGroup+1, g*perGroup+len(group), len(docs))

		chunks, skipped, err := b.extractGroup(ctx, group, report)
		if err != nil {
			return err
		}
		idx.markSkipped(ctx, skipped)
		report.Chunks += len(chunks)

		batches := (len(chunks) + batchSize - 1) / batchSize
		for i := range batches {
			batch := chunks[i*batchSize : min((i+1)*batchSize, len(chunks))]
			batchNo++

			if err := limiter.Wait(ctx); err != nil {
				return err
			}

			attempts, err := b.batchRetry.Do(ctx, func(ctx context.Context) error {
				return idx.AddBatch(ctx, batch)
			})

			p := domain.BuildProgress{Group: g + 1, Groups: groups, Batch: batchNo, Batches: batches}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				ierr := &domain.IngestionError{Batch: batchNo, Size: len(batch), Attempts: attempts, Err: err}
				logger.Error("%v", ierr)
				report.Errors = append(report.Errors, ierr)
				report.FailedBatches++
				p.Failed = true
			} else {
				added += len(batch)
				report.BatchesAdded++
				logger.Debug("batch %d: added %d chunks", batchNo, len(batch))
			}
			p.ChunksAdded = added
			if b.progress != nil {
				b.progress(p)
			}
		}
	}
	return nil
}

// extractGroup returns the chunks of every usable file in group, and the
// files to record as giving nothing to index. Files that failed to open for
// other reasons are reported but not recorded, so the next run retries them.
func (b *IndexBuilder) extractGroup(
	ctx context.Context, group []domain.SourceDocument, report *domain.BuildReport,
) ([]domain.Chunk, []domain.SkippedSource, error) {
	var (
		chunks  []domain.Chunk
		skipped []domain.SkippedSource
	)
	for _, doc := range group {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		ext, err := b.extractor.Extract(ctx, doc.Path, doc.Name)
		if err != nil {
			logger.Warn("skipping %s: %v", doc.Name, err)
			report.Errors = append(report.Errors, err)
			report.SkippedFiles = append(report.SkippedFiles, doc.Name)
			if errors.Is(err, domain.ErrCorruptDocument) {
				skipped = append(skipped, doc.Skip("not a readable PDF"))
			}
			continue
		}
		report.Errors = append(report.Errors, ext.Warnings...)

		if len(ext.Pages) == 0 {
			logger.Warn("skipping %s: no pages with text (%d of %d too short)",
				doc.Name, ext.ShortPages, ext.TotalPages)
			report.SkippedFiles = append(report.SkippedFiles, doc.Name)
			skipped = append(skipped, doc.Skip(fmt.Sprintf("no pages with text (%d of %d too short)",
				ext.ShortPages, ext.TotalPages)))
			continue
		}

		report.Pages += len(ext.Pages)
		chunks = append(chunks, b.splitter.Split(ext.Pages)...)
	}
	return chunks, skipped, ctx.Err()
}

// newBatchLimiter spaces batch requests BatchInterval apart. The first
// batch goes out immediately.
func newBatchLimiter(s domain.IngestSettings) *rate.Limiter {
	if s.BatchInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(s.BatchInterval), 1)
}
