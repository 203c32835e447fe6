package driven

import (
	"context"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// CorpusWatcher reports changes to PDFs in a directory.
type CorpusWatcher interface {
	// Watch streams events for dir until ctx is done, then closes the
	// channel.
	Watch(ctx context.Context, dir string) (<-chan domain.CorpusEvent, error)
}
