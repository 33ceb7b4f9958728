package cache

import (
	"context"
	"sync"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/repositories"
)

// MemorySavedSearchAdapter implements SavedSearchRepository on a process
// local map. It backs the saved search endpoints when Redis is not
// available; contents are lost on restart.
type MemorySavedSearchAdapter struct {
	mu       sync.RWMutex
	searches map[string][]*entities.SavedSearch
}

var _ repositories.SavedSearchRepository = (*MemorySavedSearchAdapter)(nil)

// NewMemorySavedSearchAdapter creates a new in-memory saved search adapter
func NewMemorySavedSearchAdapter() *MemorySavedSearchAdapter {
	return &MemorySavedSearchAdapter{searches: make(map[string][]*entities.SavedSearch)}
}

// GetAll retrieves every saved search of a user
func (a *MemorySavedSearchAdapter) GetAll(ctx context.Context, userID string) ([]*entities.SavedSearch, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stored := a.searches[userID]
	out := make([]*entities.SavedSearch, len(stored))
	for i, s := range stored {
		copied := *s
		out[i] = &copied
	}
	return out, nil
}

// SaveAll replaces the user's saved searches with the given set
func (a *MemorySavedSearchAdapter) SaveAll(ctx context.Context, userID string, searches []*entities.SavedSearch) error {
	stored := make([]*entities.SavedSearch, len(searches))
	for i, s := range searches {
		copied := *s
		stored[i] = &copied
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.searches[userID] = stored
	return nil
}

// DeleteAll removes all saved searches of a user
func (a *MemorySavedSearchAdapter) DeleteAll(ctx context.Context, userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.searches, userID)
	return nil
}
