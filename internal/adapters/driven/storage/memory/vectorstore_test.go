package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

func entry(id, source string, vec ...float32) domain.IndexEntry {
	return domain.IndexEntry{ID: id, Chunk: domain.Chunk{Text: id, Source: source, Page: 1}, Embedding: vec}
}

func TestVectorStore_InsertCountSources(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	require.NoError(t, store.Insert(ctx, []domain.IndexEntry{
		entry("1", "b.pdf", 1, 0),
		entry("2", "a.pdf", 0, 1),
	}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sources, err := store.ListSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, sources)
}

func TestVectorStore_InsertAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()
	require.NoError(t, store.Insert(ctx, []domain.IndexEntry{entry("1", "a.pdf", 1, 0)}))

	err := store.Insert(ctx, []domain.IndexEntry{entry("2", "a.pdf", 1, 0), entry("1", "a.pdf", 1, 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	n, _ := store.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestVectorStore_Nearest(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()
	require.NoError(t, store.Insert(ctx, []domain.IndexEntry{
		entry("a1", "a.pdf", 1, 0),
		entry("b1", "b.pdf", 1, 0.1),
		entry("b2", "b.pdf", 0, 1),
	}))

	got, err := store.Nearest(ctx, []float32{1, 0}, domain.SearchOptions{FetchK: 5, ScoreThreshold: 0.4})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, "b1", got[1].ID)

	got, err = store.Nearest(ctx, []float32{1, 0}, domain.SearchOptions{FetchK: 5, Filter: domain.SourceFilter("b.pdf")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].ID)

	_, err = store.Nearest(ctx, []float32{1, 0}, domain.SearchOptions{Filter: domain.Filter{Field: "x"}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFilter)
}

func TestStorage_OpenReturnsSameStore(t *testing.T) {
	ctx := context.Background()
	storage := NewStorage()

	exists, err := storage.Exists("/idx")
	require.NoError(t, err)
	assert.False(t, exists)

	first, err := storage.Open(ctx, "/idx")
	require.NoError(t, err)
	require.NoError(t, first.Insert(ctx, []domain.IndexEntry{entry("1", "a.pdf", 1)}))
	require.NoError(t, first.Close())

	second, err := storage.Open(ctx, "/idx")
	require.NoError(t, err)
	n, _ := second.Count(ctx)
	assert.Equal(t, 1, n)

	exists, err = storage.Exists("/idx")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, storage.Destroy("/idx"))
	third, err := storage.Open(ctx, "/idx")
	require.NoError(t, err)
	n, _ = third.Count(ctx)
	assert.Zero(t, n)
}

func TestVectorStore_Dimensions(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	dims, err := store.Dimensions(ctx)
	require.NoError(t, err)
	assert.Zero(t, dims)

	// Nothing stored yet: any query size is accepted.
	got, err := store.Nearest(ctx, []float32{1, 0, 0, 0}, domain.SearchOptions{FetchK: 5})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Insert(ctx, []domain.IndexEntry{entry("1", "a.pdf", 1, 0, 0)}))
	dims, err = store.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dims)

	_, err = store.Nearest(ctx, []float32{1, 0, 0, 0}, domain.SearchOptions{FetchK: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_Skipped(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()
	mod := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.MarkSkipped(ctx, []domain.SkippedSource{
		{Name: "scan.pdf", Size: 10, ModTime: mod, Reason: "no text"},
		{Name: "bad.pdf", Size: 5, ModTime: mod, Reason: "corrupt"},
	}))
	require.NoError(t, store.MarkSkipped(ctx, []domain.SkippedSource{
		{Name: "scan.pdf", Size: 20, ModTime: mod, Reason: "no text"},
	}))

	got, err := store.Skipped(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bad.pdf", got[0].Name)
	assert.Equal(t, "scan.pdf", got[1].Name)
	assert.Equal(t, int64(20), got[1].Size)
}
