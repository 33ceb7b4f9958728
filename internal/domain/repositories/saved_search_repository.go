package repositories

import (
	"context"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

// SavedSearchRepository defines the interface for storing a user's saved
// searches. The whole collection is read and written as a unit; the
// service layer owns the cap and duplicate rules
type SavedSearchRepository interface {
	// GetAll retrieves every saved search of a user, empty when none exist
	GetAll(ctx context.Context, userID string) ([]*entities.SavedSearch, error)

	// SaveAll replaces the user's saved searches with the given set
	SaveAll(ctx context.Context, userID string, searches []*entities.SavedSearch) error

	// DeleteAll removes all saved searches of a user
	DeleteAll(ctx context.Context, userID string) error
}
