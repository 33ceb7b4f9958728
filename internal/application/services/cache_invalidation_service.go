package services

import (
	"context"
	"fmt"

	"github.com/amaplayer/search-service/internal/domain/providers"
	"github.com/rs/zerolog/log"
)

// CacheInvalidationService clears cached HTTP responses when the search
// corpus changes. The indexer calls it after a reindex completes; individual
// searches never invalidate anything because response TTLs are short and
// live updates reach connected clients over SSE.
type CacheInvalidationService struct {
	cache providers.CacheProvider
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider) *CacheInvalidationService {
	return &CacheInvalidationService{cache: cache}
}

// InvalidateSearchResponses drops cached search and suggest responses.
func (s *CacheInvalidationService) InvalidateSearchResponses(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	patterns := []string{
		"http:cache:GET:/api/search:*",
		"http:cache:GET:/api/search/suggest:*",
	}

	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
		log.Info().Str("pattern", pattern).Msg("invalidated cached responses")
	}

	return nil
}

// InvalidateAnalyticsResponses drops cached analytics responses. Analytics
// aggregates shift with every tracked search, so a fresh reindex is a good
// moment to let readers see current numbers.
func (s *CacheInvalidationService) InvalidateAnalyticsResponses(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	pattern := "http:cache:GET:/api/analytics/*"
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
	}
	log.Info().Str("pattern", pattern).Msg("invalidated cached responses")
	return nil
}

// InvalidateAll drops every cached HTTP response. This should only be called
// during maintenance or major data updates.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	if err := s.cache.DeletePattern(ctx, "http:cache:*"); err != nil {
		return fmt.Errorf("failed to invalidate response cache: %w", err)
	}
	log.Info().Msg("invalidated all cached responses")
	return nil
}
