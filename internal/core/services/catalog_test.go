package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogService_List(t *testing.T) {
	svc := NewCatalogService()
	ctx := context.Background()

	t.Run("sorted and distinct", func(t *testing.T) {
		idx := &mockIndex{sources: []string{"СН РК 3.02.pdf", "A.pdf", "СН РК 1.01.pdf", "A.pdf"}}
		assert.Equal(t, []string{"A.pdf", "СН РК 1.01.pdf", "СН РК 3.02.pdf"}, svc.List(ctx, idx))
	})

	t.Run("does not reorder the index slice", func(t *testing.T) {
		sources := []string{"b.pdf", "a.pdf"}
		svc.List(ctx, &mockIndex{sources: sources})
		assert.Equal(t, []string{"b.pdf", "a.pdf"}, sources)
	})

	t.Run("nil sources", func(t *testing.T) {
		got := svc.List(ctx, &mockIndex{})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("nil index", func(t *testing.T) {
		got := svc.List(ctx, nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
