package domain

import (
	"strconv"
	"time"
)

// Metadata keys stored with every chunk.
const (
	MetaSource = "source"
	MetaPage   = "page"
)

// SourceDocument is a PDF file in the corpus directory.
// Its identity is the file name; Path is where it was read from.
type SourceDocument struct {
	// Name is the file name, e.g. "СН РК 2.04-01-2011.pdf".
	Name string

	// Path is the on-disk location.
	Path string

	// Size and ModTime identify the file version. Zero when unknown.
	Size    int64
	ModTime time.Time
}

// SkippedSource records a document that was read but gave nothing to
// index, so later builds can leave it alone until the file changes.
type SkippedSource struct {
	Name    string
	Size    int64
	ModTime time.Time

	// Reason is a short description of why nothing was indexed.
	Reason string
}

// Skip records doc as skipped for reason.
func (d SourceDocument) Skip(reason string) SkippedSource {
	return SkippedSource{Name: d.Name, Size: d.Size, ModTime: d.ModTime, Reason: reason}
}

// Covers reports whether s was recorded for this version of doc.
func (s SkippedSource) Covers(doc SourceDocument) bool {
	return s.Name == doc.Name && s.Size == doc.Size && s.ModTime.Equal(doc.ModTime)
}

// PageRecord is the extracted text of one page of a source document.
// It is discarded once split into chunks.
type PageRecord struct {
	// Source is the SourceDocument name.
	Source string

	// Page is the 1-based page number.
	Page int

	// Text is the extracted plain text.
	Text string
}

// Chunk is a bounded span of page text, the unit stored in the index.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Source is the SourceDocument name the chunk was split from.
	Source string

	// Page is the page number of the originating PageRecord.
	Page int
}

// Metadata returns the chunk metadata as stored alongside its vector.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		MetaSource: c.Source,
		MetaPage:   c.Page,
	}
}

// IndexEntry is a chunk with its embedding, keyed by a generated id.
// Entries are never updated in place.
type IndexEntry struct {
	ID        string
	Chunk     Chunk
	Embedding []float32
}

// ScoredEntry is a search candidate with its relevance to the query.
type ScoredEntry struct {
	IndexEntry

	// Relevance is the cosine similarity to the query vector.
	Relevance float64
}

// Filter restricts search to entries whose metadata field equals Value.
// The zero Filter matches everything.
type Filter struct {
	Field string
	Value string
}

// SourceFilter returns a filter matching chunks from one document.
func SourceFilter(name string) Filter {
	return Filter{Field: MetaSource, Value: name}
}

// IsZero reports whether the filter is empty.
func (f Filter) IsZero() bool {
	return f.Field == ""
}

// Validate checks that the filter names a known metadata field.
func (f Filter) Validate() error {
	switch f.Field {
	case "", MetaSource:
		return nil
	case MetaPage:
		if _, err := strconv.Atoi(f.Value); err != nil {
			return &FilterError{Filter: f, Reason: "page value must be an integer"}
		}
		return nil
	default:
		return &FilterError{Filter: f, Reason: "unknown field"}
	}
}

// Matches reports whether the chunk satisfies the filter.
func (f Filter) Matches(c Chunk) bool {
	switch f.Field {
	case "":
		return true
	case MetaSource:
		return c.Source == f.Value
	case MetaPage:
		return strconv.Itoa(c.Page) == f.Value
	default:
		return false
	}
}
