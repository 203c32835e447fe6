package services

import (
	"context"
	"slices"

	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
	"github.com/custodia-labs/normsqa/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.DocumentCatalog = (*CatalogService)(nil)

// CatalogService lists indexed documents.
type CatalogService struct{}

// NewCatalogService creates a new catalog service.
func NewCatalogService() *CatalogService {
	return &CatalogService{}
}

// List returns the sorted distinct source names in index. A nil index
// yields an empty list.
func (s *CatalogService) List(ctx context.Context, index driving.IndexHandle) []string {
	if index == nil {
		logger.Warn("listing documents: no index")
		return []string{}
	}

	names := slices.Clone(index.ListSources(ctx))
	if names == nil {
		return []string{}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
