package entities

import "time"

const (
	// MaxSavedSearches caps the number of saved searches per user.
	MaxSavedSearches = 50

	// MaxSavedSearchNameLength caps the length of a saved search name.
	MaxSavedSearchNameLength = 100
)

// SavedSearch is a named search query persisted per user, with usage
// accounting for frequency ranking.
type SavedSearch struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Query     SearchQuery `json:"query"`
	CreatedAt time.Time   `json:"created_at"`
	LastUsed  *time.Time  `json:"last_used,omitempty"`
	UseCount  int         `json:"use_count"`
}
