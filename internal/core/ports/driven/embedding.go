package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations classify failures: transient ones wrap
// domain.ErrRateLimited or domain.ErrEmbeddingUnavailable so that ingestion
// retries them, permanent ones wrap domain.ErrInvalidInput.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
