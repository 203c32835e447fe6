package driving

import "context"

// CorpusMonitor keeps an index in step with its corpus directory.
type CorpusMonitor interface {
	// Run builds the index once, then rebuilds incrementally whenever new
	// PDFs appear. It blocks until ctx is done or Stop is called.
	Run(ctx context.Context) error

	// Stop ends a running Run.
	Stop() error
}
