package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
	"github.com/custodia-labs/normsqa/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.CorpusMonitor = (*WatchService)(nil)

// DefaultDebounce is how long the corpus must be quiet before a rebuild.
const DefaultDebounce = 2 * time.Second

// BuildFunc receives the outcome of each build run.
type BuildFunc func(report *domain.BuildReport, err error)

// WatchService rebuilds the index when PDFs are added to the corpus.
// Bursts of events (a copy of many files) are coalesced into one run.
type WatchService struct {
	builder  driving.IndexBuilder
	watcher  driven.CorpusWatcher
	pdfDir   string
	indexDir string

	debounce time.Duration
	interval time.Duration
	onBuild  BuildFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// WatchOption configures a WatchService.
type WatchOption func(*WatchService)

// WithDebounce sets the quiet period before a rebuild.
func WithDebounce(d time.Duration) WatchOption {
	return func(s *WatchService) { s.debounce = d }
}

// WithRescanInterval also rebuilds on a timer. Zero disables it.
func WithRescanInterval(d time.Duration) WatchOption {
	return func(s *WatchService) { s.interval = d }
}

// WithBuildCallback registers a callback for every run.
func WithBuildCallback(fn BuildFunc) WatchOption {
	return func(s *WatchService) { s.onBuild = fn }
}

// NewWatchService creates a watch service for one corpus and index.
func NewWatchService(
	builder driving.IndexBuilder,
	watcher driven.CorpusWatcher,
	pdfDir, indexDir string,
	opts ...WatchOption,
) *WatchService {
	s := &WatchService{
		builder:  builder,
		watcher:  watcher,
		pdfDir:   pdfDir,
		indexDir: indexDir,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run builds once and then follows the corpus directory.
func (s *WatchService) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := s.watcher.Watch(ctx, s.pdfDir)
	if err != nil {
		return err
	}

	s.build(ctx)

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// pending fires once the corpus has been quiet for the debounce period.
	var pending <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case ev, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if !s.relevant(ev) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(s.debounce)
			pending = timer.C
		case <-pending:
			pending = nil
			s.build(ctx)
		case <-tick:
			s.build(ctx)
		}
	}
}

// Stop ends Run.
func (s *WatchService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)
	return nil
}

// relevant reports whether ev can change what is indexed. Indexed
// documents are identified by name, so only new names matter.
func (s *WatchService) relevant(ev domain.CorpusEvent) bool {
	switch ev.Op {
	case domain.CorpusCreated:
		logger.Debug("watch: %s added", ev.Document.Name)
		return true
	case domain.CorpusChanged:
		logger.Debug("watch: %s changed", ev.Document.Name)
		return true
	case domain.CorpusRemoved:
		logger.Warn("%s was removed from %s; its chunks stay indexed until a forced rebuild",
			ev.Document.Name, s.pdfDir)
		return false
	default:
		return false
	}
}

func (s *WatchService) build(ctx context.Context) {
	idx, report, err := s.builder.GetOrCreate(ctx, s.pdfDir, s.indexDir, false)
	if idx != nil {
		if cerr := idx.Close(); cerr != nil {
			logger.Warn("closing index: %v", cerr)
		}
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("watch: build failed: %v", err)
	}
	if s.onBuild != nil {
		s.onBuild(report, err)
	}
}
