// Package filesystem lists and watches the PDF corpus on local disk.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
	"github.com/custodia-labs/normsqa/internal/logger"
)

// Ensure Corpus implements the interfaces.
var (
	_ driven.CorpusLister  = (*Corpus)(nil)
	_ driven.CorpusWatcher = (*Corpus)(nil)
)

// Corpus is a flat directory of PDF files. Subdirectories and hidden
// files are ignored.
type Corpus struct{}

// New creates a filesystem corpus.
func New() *Corpus {
	return &Corpus{}
}

// List returns the *.pdf files in dir (extension matched case-insensitively)
// sorted by name, with their size and modification time. A missing directory wraps domain.ErrNotFound.
func (c *Corpus) List(dir string) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("pdf directory %s: %w", dir, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read pdf directory: %w", err)
	}

	var docs []domain.SourceDocument
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isHidden(name) || !isPDF(name) {
			continue
		}
		doc := domain.SourceDocument{Name: name, Path: filepath.Join(dir, name)}
		if info, err := e.Info(); err == nil {
			doc.Size = info.Size()
			doc.ModTime = info.ModTime()
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Watch streams PDF changes in dir until ctx is done.
func (c *Corpus) Watch(ctx context.Context, dir string) (<-chan domain.CorpusEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("watch %s: %w", dir, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	events := make(chan domain.CorpusEvent)
	go func() {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				change := handleFsEvent(ev)
				if change == nil {
					continue
				}
				select {
				case events <- *change:
				case <-ctx.Done():
					return
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watching %s: %v", dir, werr)
			}
		}
	}()

	return events, nil
}

// handleFsEvent converts an fsnotify event into a corpus event, or nil if
// the event does not concern a visible PDF file.
func handleFsEvent(ev fsnotify.Event) *domain.CorpusEvent {
	name := filepath.Base(ev.Name)
	if isHidden(name) || !isPDF(name) {
		return nil
	}

	doc := domain.SourceDocument{Name: name, Path: ev.Name}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return &domain.CorpusEvent{Op: domain.CorpusRemoved, Document: doc}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		op := domain.CorpusChanged
		if ev.Has(fsnotify.Create) {
			op = domain.CorpusCreated
		}
		return &domain.CorpusEvent{Op: op, Document: doc}
	default:
		return nil
	}
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
