package repositories

import (
	"context"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/search"
)

// DocumentSearchRepository defines the interface for executing compiled
// queries against the search document store
type DocumentSearchRepository interface {
	// Execute runs a compiled query and returns one page of documents plus
	// the cursor of the last row, nil when the page is not full
	Execute(ctx context.Context, query *search.Query) ([]*entities.SearchDocument, *search.Cursor, error)

	// GetByIDs retrieves documents by ID, preserving the given order and
	// skipping IDs that do not exist
	GetByIDs(ctx context.Context, ids []string) ([]*entities.SearchDocument, error)

	// Index inserts or replaces a document
	Index(ctx context.Context, doc *entities.SearchDocument) error

	// IndexBatch inserts or replaces documents in one round trip
	IndexBatch(ctx context.Context, docs []*entities.SearchDocument) error

	// Delete removes a document from the store
	Delete(ctx context.Context, id string) error

	// DistinctValues lists the distinct values of a filterable field,
	// scoped to a document type ("all" spans every type)
	DistinctValues(ctx context.Context, docType entities.SearchType, field string) ([]string, error)
}
