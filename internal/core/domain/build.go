package domain

import "errors"

// BuildState is the path IndexBuilder took.
type BuildState string

// Build states.
const (
	// BuildReuse means a populated index was returned untouched because
	// the corpus held no files it was missing.
	BuildReuse BuildState = "reuse"

	// BuildIncremental means only files missing from the index were added.
	BuildIncremental BuildState = "incremental"

	// BuildFresh means the index was built from an empty location.
	BuildFresh BuildState = "fresh"
)

// BuildReport summarises one getOrCreate run.
type BuildReport struct {
	State BuildState

	// FilesSeen is the number of PDFs found in the corpus directory.
	FilesSeen int

	// NewFiles is the number of PDFs not yet in the index.
	NewFiles int

	Pages  int
	Chunks int

	// BatchesAdded and FailedBatches count embedding batches.
	BatchesAdded  int
	FailedBatches int

	// SkippedFiles lists files that yielded no pages in this run.
	SkippedFiles []string

	// UnchangedSkipped counts files left out because an earlier run found
	// nothing to index in them and they have not changed since.
	UnchangedSkipped int

	// Errors holds the contained failures of the run: corrupt documents,
	// extraction warnings and IngestionErrors.
	Errors []error
}

// Err joins the contained failures, or returns nil if there were none.
func (r *BuildReport) Err() error {
	return errors.Join(r.Errors...)
}

// BuildProgress is reported after each embedding batch.
type BuildProgress struct {
	// Group and Groups count file groups.
	Group  int
	Groups int

	// Batch is the global batch number; Batches counts batches in the group.
	Batch   int
	Batches int

	// ChunksAdded is the running total of persisted chunks.
	ChunksAdded int

	// Failed is set when the batch was given up on.
	Failed bool
}

// ProgressFunc receives build progress.
type ProgressFunc func(BuildProgress)
