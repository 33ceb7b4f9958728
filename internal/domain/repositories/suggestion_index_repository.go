package repositories

import (
	"context"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

// SuggestionIndexRepository defines the interface for the external
// suggestion index (e.g. Typesense)
type SuggestionIndexRepository interface {
	// Suggest returns ranked completions for a prefix, scoped to a search
	// type ("all" spans every type)
	Suggest(ctx context.Context, prefix string, docType entities.SearchType, limit int) ([]entities.Suggestion, error)

	// Index inserts or replaces a document in the suggestion index
	Index(ctx context.Context, doc *entities.SearchDocument) error

	// IndexBatch inserts or replaces documents in one round trip
	IndexBatch(ctx context.Context, docs []*entities.SearchDocument) error

	// Delete removes a document from the suggestion index
	Delete(ctx context.Context, id string) error

	// EnsureCollection creates the backing collection when it is missing
	EnsureCollection(ctx context.Context) error
}
