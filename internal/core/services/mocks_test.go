package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
)

// vocabulary gives mockEmbedder its dimensions: one per keyword.
var vocabulary = []string{"фундамент", "кровля", "стена", "окно", "лестница"}

// mockEmbedder embeds text as keyword counts over vocabulary, with a
// small constant component so no vector has zero norm.
type mockEmbedder struct {
	mu sync.Mutex

	// batchErrs fails the n-th EmbedBatch call (1-based).
	batchErrs map[int]error
	// embedErr fails every Embed call.
	embedErr error

	batchCalls int
	batchSizes []int
}

func (m *mockEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(vocabulary)+1)
	for i, word := range vocabulary {
		v[i] = float32(strings.Count(text, word))
	}
	v[len(vocabulary)] = 0.1
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	call := m.batchCalls
	m.batchSizes = append(m.batchSizes, len(texts))
	m.mu.Unlock()

	if err, ok := m.batchErrs[call]; ok {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(vocabulary) + 1 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// resizedEmbedder stands in for a different embedding model: it reports
// its own name and returns vectors of its own size.
type resizedEmbedder struct {
	mockEmbedder
	model string
	dims  int
}

func (m *resizedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	v := make([]float32, m.dims)
	v[0] = 1
	return v, nil
}

func (m *resizedEmbedder) Dimensions() int   { return m.dims }
func (m *resizedEmbedder) ModelName() string { return m.model }

// mockLLM records prompts and returns a canned answer.
type mockLLM struct {
	answer  string
	err     error
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockLister returns a fixed corpus.
type mockLister struct {
	docs []domain.SourceDocument
	err  error
}

func (m *mockLister) List(_ string) ([]domain.SourceDocument, error) {
	return m.docs, m.err
}

// mockExtractor serves page texts keyed by document name.
type mockExtractor struct {
	pages map[string][]string
	errs  map[string]error

	calls []string
}

func (m *mockExtractor) Extract(_ context.Context, _, name string) (*driven.Extraction, error) {
	m.calls = append(m.calls, name)
	if err, ok := m.errs[name]; ok {
		return nil, err
	}
	texts := m.pages[name]
	ext := &driven.Extraction{TotalPages: len(texts)}
	for i, t := range texts {
		if t == "" {
			ext.ShortPages++
			continue
		}
		ext.Pages = append(ext.Pages, domain.PageRecord{Source: name, Page: i + 1, Text: t})
	}
	return ext, nil
}

// pageSplitter makes one chunk per page.
type pageSplitter struct{}

func (pageSplitter) Split(records []domain.PageRecord) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(records))
	for _, r := range records {
		chunks = append(chunks, domain.Chunk{Text: r.Text, Source: r.Source, Page: r.Page})
	}
	return chunks
}

// flakyStorage fails Open a number of times before delegating. Stores it
// opens fail their first insertFailures inserts with a busy error.
type flakyStorage struct {
	driven.IndexStorage
	failures       int
	opens          int
	insertFailures int
	destroyed      []string
}

func (s *flakyStorage) Open(ctx context.Context, path string) (driven.VectorStore, error) {
	s.opens++
	if s.opens <= s.failures {
		return nil, errors.New("database is locked")
	}
	store, err := s.IndexStorage.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &flakyStore{VectorStore: store, storage: s}, nil
}

// flakyStore is a VectorStore whose inserts can fail as if locked.
type flakyStore struct {
	driven.VectorStore
	storage *flakyStorage
}

func (s *flakyStore) Insert(ctx context.Context, entries []domain.IndexEntry) error {
	if s.storage.insertFailures > 0 {
		s.storage.insertFailures--
		return fmt.Errorf("saving entry: %w: database is locked", domain.ErrStorageBusy)
	}
	return s.VectorStore.Insert(ctx, entries)
}

func (s *flakyStorage) Destroy(path string) error {
	s.destroyed = append(s.destroyed, path)
	return s.IndexStorage.Destroy(path)
}

// mockIndex is a canned IndexHandle.
type mockIndex struct {
	sources   []string
	chunks    []domain.Chunk
	searchErr error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockIndex) Path() string                         { return "mock" }
func (m *mockIndex) Count(_ context.Context) (int, error) { return len(m.chunks), nil }
func (m *mockIndex) ListSources(_ context.Context) []string {
	return m.sources
}
func (m *mockIndex) AddBatch(_ context.Context, chunks []domain.Chunk) error {
	m.chunks = append(m.chunks, chunks...)
	return nil
}
func (m *mockIndex) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.Chunk, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.chunks, nil
}
func (m *mockIndex) Close() error { return nil }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}
