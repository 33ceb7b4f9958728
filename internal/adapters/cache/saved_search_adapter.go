package cache

import (
	"context"
	"encoding/json"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	redisclient "github.com/amaplayer/search-service/internal/infrastructure/clients/redis"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const savedSearchKeyPrefix = "saved_searches:"

// SavedSearchAdapter implements SavedSearchRepository on Redis. Each user's
// searches live under one key as a JSON array; keys never expire.
type SavedSearchAdapter struct {
	client *redisclient.Client
}

var _ repositories.SavedSearchRepository = (*SavedSearchAdapter)(nil)

// NewSavedSearchAdapter creates a new saved search adapter
func NewSavedSearchAdapter(client *redisclient.Client) *SavedSearchAdapter {
	return &SavedSearchAdapter{client: client}
}

// GetAll retrieves every saved search of a user
func (a *SavedSearchAdapter) GetAll(ctx context.Context, userID string) ([]*entities.SavedSearch, error) {
	raw, err := a.client.Client().Get(ctx, savedSearchKey(userID)).Bytes()
	if err == redis.Nil {
		return []*entities.SavedSearch{}, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load saved searches", err)
	}

	var searches []*entities.SavedSearch
	if err := json.Unmarshal(raw, &searches); err != nil {
		return nil, apperrors.NewInternalError("failed to decode saved searches", err)
	}
	return searches, nil
}

// SaveAll replaces the user's saved searches with the given set
func (a *SavedSearchAdapter) SaveAll(ctx context.Context, userID string, searches []*entities.SavedSearch) error {
	raw, err := json.Marshal(searches)
	if err != nil {
		return apperrors.NewInternalError("failed to encode saved searches", err)
	}

	if err := a.client.Client().Set(ctx, savedSearchKey(userID), raw, 0).Err(); err != nil {
		return apperrors.NewInternalError("failed to store saved searches", err)
	}
	return nil
}

// DeleteAll removes all saved searches of a user
func (a *SavedSearchAdapter) DeleteAll(ctx context.Context, userID string) error {
	if err := a.client.Client().Del(ctx, savedSearchKey(userID)).Err(); err != nil {
		return apperrors.NewInternalError("failed to delete saved searches", err)
	}
	return nil
}

func savedSearchKey(userID string) string {
	return savedSearchKeyPrefix + userID
}
