// Package pdf extracts per-page plain text from PDF files.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
	"github.com/custodia-labs/normsqa/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// DefaultMinChars is the minimum number of non-whitespace characters a
// page needs to be kept. Scanned pages and separators fall below it.
const DefaultMinChars = 20

var errNullPage = errors.New("page object missing")

// document is the part of a parsed PDF the extractor needs.
type document interface {
	NumPage() int
	PageText(n int) (string, error)
}

// openFunc opens path as a document. A *domain.CorruptDocumentError must be
// returned when the file is not a PDF.
type openFunc func(path, name string) (document, func() error, error)

// Extractor implements driven.TextExtractor.
type Extractor struct {
	minChars int
	open     openFunc
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinChars sets the minimum non-whitespace characters per page.
func WithMinChars(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.minChars = n
		}
	}
}

// New creates an extractor backed by github.com/ledongthuc/pdf.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		minChars: DefaultMinChars,
		open:     openPDF,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads every page of the file and keeps those with enough text.
// Page numbers are 1-based.
func (e *Extractor) Extract(ctx context.Context, path, name string) (*driven.Extraction, error) {
	doc, closeFn, err := e.open(path, name)
	if err != nil {
		return nil, err
	}
	defer closeFn() //nolint:errcheck // read-only file

	total := doc.NumPage()
	logger.Debug("%s: %d pages", name, total)

	result := &driven.Extraction{TotalPages: total}
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, &domain.ExtractionWarning{Source: name, Err: err}
		}

		text, err := pageText(doc, n)
		if err != nil {
			warn := &domain.ExtractionWarning{Source: name, Page: n, Err: err}
			logger.Warn("%v", warn)
			result.Warnings = append(result.Warnings, warn)
			continue
		}

		if countVisible(text) < e.minChars {
			logger.Debug("%s: page %d dropped, too little text", name, n)
			result.ShortPages++
			continue
		}

		result.Pages = append(result.Pages, domain.PageRecord{
			Source: name,
			Page:   n,
			Text:   text,
		})
	}

	return result, nil
}

// pageText shields the caller from panics in the PDF parser.
func pageText(doc document, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return doc.PageText(n)
}

func countVisible(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// ledongthucDoc adapts *pdf.Reader.
type ledongthucDoc struct {
	r *pdf.Reader
}

func (d ledongthucDoc) NumPage() int {
	return d.r.NumPage()
}

func (d ledongthucDoc) PageText(n int) (string, error) {
	page := d.r.Page(n)
	if page.V.IsNull() {
		return "", errNullPage
	}
	return page.GetPlainText(nil)
}

func openPDF(path, name string) (doc document, closeFn func() error, err error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the corpus listing
	if err != nil {
		return nil, nil, &domain.ExtractionWarning{Source: name, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck,gosec
		return nil, nil, &domain.ExtractionWarning{Source: name, Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			f.Close() //nolint:errcheck,gosec
			doc, closeFn = nil, nil
			err = &domain.CorruptDocumentError{Source: name, Path: path, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		f.Close() //nolint:errcheck,gosec
		return nil, nil, &domain.CorruptDocumentError{Source: name, Path: path, Err: err}
	}

	return ledongthucDoc{r: reader}, f.Close, nil
}
