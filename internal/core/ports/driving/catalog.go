package driving

import "context"

// DocumentCatalog lists the documents present in an index.
type DocumentCatalog interface {
	// List returns sorted distinct source names. It never fails.
	List(ctx context.Context, index IndexHandle) []string
}
