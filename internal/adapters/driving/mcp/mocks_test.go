package mcp

import (
	"context"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
)

// mockQAEngine is a mock implementation of driving.QAEngine.
type mockQAEngine struct {
	result *domain.QueryResult
	err    error

	gotQuestion string
	gotScope    string
}

func (m *mockQAEngine) Answer(
	_ context.Context,
	_ driving.IndexHandle,
	question, scope string,
) (*domain.QueryResult, error) {
	m.gotQuestion = question
	m.gotScope = scope
	return m.result, m.err
}

// mockCatalog is a mock implementation of driving.DocumentCatalog.
type mockCatalog struct {
	docs []string
}

func (m *mockCatalog) List(_ context.Context, _ driving.IndexHandle) []string {
	return m.docs
}

// mockIndex is a mock implementation of driving.IndexHandle.
type mockIndex struct {
	path     string
	count    int
	countErr error
}

func (m *mockIndex) Path() string { return m.path }

func (m *mockIndex) Count(_ context.Context) (int, error) { return m.count, m.countErr }

func (m *mockIndex) ListSources(_ context.Context) []string { return []string{} }

func (m *mockIndex) AddBatch(_ context.Context, _ []domain.Chunk) error { return nil }

func (m *mockIndex) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockIndex) Close() error { return nil }

func validPorts() *Ports {
	return &Ports{
		QA:      &mockQAEngine{result: &domain.QueryResult{}},
		Catalog: &mockCatalog{},
		Index:   &mockIndex{path: "vectordb"},
	}
}
