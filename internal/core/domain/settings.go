package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API (LLM only).
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embeddings API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// PathSettings locates the corpus and the persisted index.
type PathSettings struct {
	// PDFDir is the directory scanned for *.pdf files.
	PDFDir string

	// IndexDir is the directory holding the persisted index.
	IndexDir string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is required for cloud providers.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	return !e.Provider.RequiresAPIKey() || e.APIKey != ""
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	return !l.Provider.RequiresAPIKey() || l.APIKey != ""
}

// Ingestion defaults.
const (
	DefaultChunkSize     = 500
	DefaultChunkOverlap  = 100
	DefaultBatchSize     = 64
	DefaultBatchInterval = 500 * time.Millisecond
	DefaultFilesPerGroup = 8
	DefaultMaxAttempts   = 3
	DefaultBackoff       = time.Second
)

// IngestSettings controls index building.
type IngestSettings struct {
	ChunkSize    int
	ChunkOverlap int

	// BatchSize is the number of chunks embedded per request.
	BatchSize int

	// BatchInterval is the minimum spacing between batch requests.
	BatchInterval time.Duration

	// FilesPerGroup bounds how many files are held in memory at once.
	FilesPerGroup int

	// MaxAttempts and Backoff configure per-batch and open retries.
	MaxAttempts int
	Backoff     time.Duration
}

// RetrievalSettings controls question answering.
type RetrievalSettings struct {
	K              int
	FetchK         int
	ScoreThreshold float64
	MMRLambda      float64
}

// SearchOptions converts the settings into search options with no filter.
func (r RetrievalSettings) SearchOptions() SearchOptions {
	return SearchOptions{
		K:              r.K,
		FetchK:         r.FetchK,
		ScoreThreshold: r.ScoreThreshold,
		Lambda:         r.MMRLambda,
	}
}

// AppSettings holds all application settings.
type AppSettings struct {
	Paths     PathSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Ingest    IngestSettings
	Retrieval RetrievalSettings
}

// DefaultAppSettings returns the settings used when nothing is configured.
// API keys are left empty and normally come from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Paths: PathSettings{
			PDFDir:   "downloaded_pdfs",
			IndexDir: "vectordb",
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		Ingest: IngestSettings{
			ChunkSize:     DefaultChunkSize,
			ChunkOverlap:  DefaultChunkOverlap,
			BatchSize:     DefaultBatchSize,
			BatchInterval: DefaultBatchInterval,
			FilesPerGroup: DefaultFilesPerGroup,
			MaxAttempts:   DefaultMaxAttempts,
			Backoff:       DefaultBackoff,
		},
		Retrieval: RetrievalSettings{
			K:              DefaultK,
			FetchK:         DefaultFetchK,
			ScoreThreshold: DefaultScoreThreshold,
			MMRLambda:      DefaultMMRLambda,
		},
	}
}

// Validate checks the settings for values the pipeline cannot run with.
// The returned error is a *ConfigError.
func (s AppSettings) Validate() error {
	in := s.Ingest
	switch {
	case in.ChunkSize <= 0:
		return &ConfigError{Field: "ingest.chunk_size", Reason: "must be positive"}
	case in.ChunkOverlap < 0:
		return &ConfigError{Field: "ingest.chunk_overlap", Reason: "must not be negative"}
	case in.ChunkOverlap >= in.ChunkSize:
		return &ConfigError{
			Field:  "ingest.chunk_overlap",
			Reason: fmt.Sprintf("overlap %d must be smaller than chunk size %d", in.ChunkOverlap, in.ChunkSize),
		}
	case in.BatchSize <= 0:
		return &ConfigError{Field: "ingest.batch_size", Reason: "must be positive"}
	case in.FilesPerGroup <= 0:
		return &ConfigError{Field: "ingest.files_per_group", Reason: "must be positive"}
	case in.MaxAttempts <= 0:
		return &ConfigError{Field: "ingest.max_attempts", Reason: "must be positive"}
	}

	r := s.Retrieval
	switch {
	case r.K <= 0:
		return &ConfigError{Field: "retrieval.k", Reason: "must be positive"}
	case r.FetchK < r.K:
		return &ConfigError{Field: "retrieval.fetch_k", Reason: "must be at least k"}
	case r.ScoreThreshold < 0 || r.ScoreThreshold > 1:
		return &ConfigError{Field: "retrieval.score_threshold", Reason: "must be within [0, 1]"}
	case r.MMRLambda < 0 || r.MMRLambda > 1:
		return &ConfigError{Field: "retrieval.mmr_lambda", Reason: "must be within [0, 1]"}
	}

	if s.Paths.PDFDir == "" {
		return &ConfigError{Field: "paths.pdf_dir", Reason: "is required"}
	}
	if s.Paths.IndexDir == "" {
		return &ConfigError{Field: "paths.index_dir", Reason: "is required"}
	}
	if !s.Embedding.IsConfigured() {
		return &ConfigError{Field: "embedding", Reason: providerProblem(s.Embedding.Provider, s.Embedding.APIKey)}
	}
	if !s.LLM.IsConfigured() {
		return &ConfigError{Field: "llm", Reason: providerProblem(s.LLM.Provider, s.LLM.APIKey)}
	}
	return nil
}

func providerProblem(p AIProvider, apiKey string) string {
	if !p.IsValid() {
		return fmt.Sprintf("unknown provider %q", p)
	}
	if p.RequiresAPIKey() && apiKey == "" {
		return fmt.Sprintf("%s requires an API key", p.Description())
	}
	return fmt.Sprintf("%s is not supported here", p.Description())
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOllama,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-ada-002",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
