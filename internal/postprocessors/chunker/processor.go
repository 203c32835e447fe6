// Package chunker splits page text into fixed-size overlapping chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// Processor splits page records with a sliding window measured in
// characters (runes). Windows of chunkSize advance by chunkSize-overlap, so
// consecutive chunks of a page share exactly overlap characters.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker. It fails with a *domain.ConfigError unless
// 0 <= overlap < chunkSize.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}

	switch {
	case p.chunkSize <= 0:
		return nil, &domain.ConfigError{Field: "chunk_size", Reason: "must be positive"}
	case p.overlap < 0:
		return nil, &domain.ConfigError{Field: "chunk_overlap", Reason: "must not be negative"}
	case p.overlap >= p.chunkSize:
		return nil, &domain.ConfigError{
			Field:  "chunk_overlap",
			Reason: fmt.Sprintf("overlap %d must be smaller than chunk size %d", p.overlap, p.chunkSize),
		}
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the window size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the window overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Split chunks every record. Each chunk carries the source and page of the
// record it came from. Windows that are only whitespace are dropped.
func (p *Processor) Split(records []domain.PageRecord) []domain.Chunk {
	var chunks []domain.Chunk
	for _, rec := range records {
		for _, text := range p.windows(rec.Text) {
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				Text:   text,
				Source: rec.Source,
				Page:   rec.Page,
			})
		}
	}
	return chunks
}

func (p *Processor) windows(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := p.chunkSize - p.overlap
	out := make([]string, 0, n/step+1)
	for start := 0; ; start += step {
		end := min(start+p.chunkSize, n)
		out = append(out, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return out
}
