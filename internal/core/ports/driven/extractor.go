package driven

import (
	"context"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// TextExtractor reads page text out of one document.
type TextExtractor interface {
	// Extract returns the usable pages of the file at path, tagged with
	// name as their source. Page-level problems are reported in
	// Extraction.Warnings; an error means the whole file was unusable and
	// is a *domain.CorruptDocumentError or *domain.ExtractionWarning.
	Extract(ctx context.Context, path, name string) (*Extraction, error)
}

// Extraction is the result of extracting one document.
type Extraction struct {
	Pages []domain.PageRecord

	// TotalPages is the page count of the document.
	TotalPages int

	// ShortPages counts pages dropped for having too little text.
	ShortPages int

	// Warnings are contained per-page failures (*domain.ExtractionWarning).
	Warnings []error
}

// Splitter turns page records into chunks.
type Splitter interface {
	Split(records []domain.PageRecord) []domain.Chunk
}

// CorpusLister enumerates the source documents of a corpus directory.
type CorpusLister interface {
	// List returns the PDF files in dir, sorted by name.
	List(dir string) ([]domain.SourceDocument, error)
}
