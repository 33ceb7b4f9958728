package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/providers"
	"github.com/rs/zerolog/log"
)

const (
	// warmedTermLimit caps how many popular terms get re-executed per cycle.
	warmedTermLimit = 10

	// warmedResponseTTLSeconds matches the middleware TTL for /api/search so
	// warmed entries age out on the same schedule as organic ones.
	warmedResponseTTLSeconds = 60
)

// CacheWarmingService pre-populates the HTTP response cache with the
// searches users run most, so popular terms stay warm across TTL expiry.
// The search service handed to it must not track analytics: warming traffic
// is not user traffic, and tracked warming would feed its own top-terms list.
type CacheWarmingService struct {
	search    *SearchService
	analytics *SearchAnalyticsService
	cache     providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	search *SearchService,
	analytics *SearchAnalyticsService,
	cache providers.CacheProvider,
) *CacheWarmingService {
	return &CacheWarmingService{
		search:    search,
		analytics: analytics,
		cache:     cache,
	}
}

// WarmCache re-executes the most popular recent searches and stores their
// responses under the keys the caching middleware will look up.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	if s.cache == nil || s.analytics == nil {
		return nil
	}

	log.Debug().Msg("starting cache warming")

	now := time.Now().UTC()
	analytics := s.analytics.GetSearchAnalytics(ctx, entities.DateRange{
		Start: now.AddDate(0, 0, -7),
		End:   now,
	})

	terms := analytics.TopSearchTerms
	if len(terms) > warmedTermLimit {
		terms = terms[:warmedTermLimit]
	}
	if len(terms) == 0 {
		log.Debug().Msg("no popular search terms to warm")
		return nil
	}

	warmed := 0
	for _, term := range terms {
		if err := s.warmSearchResponse(ctx, term.Term); err != nil {
			log.Warn().Err(err).Str("term", term.Term).Msg("failed to warm response")
			continue
		}
		warmed++
	}

	log.Info().Int("warmed", warmed).Int("candidates", len(terms)).Msg("cache warming completed")
	return nil
}

// warmSearchResponse runs one search and caches the response body the way
// the handler would have written it.
func (s *CacheWarmingService) warmSearchResponse(ctx context.Context, term string) error {
	response, err := s.search.Search(ctx, entities.SearchQuery{Term: term}, "")
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(response); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	rawQuery := url.Values{"term": {term}}.Encode()
	key := providers.ResponseCacheKey("GET", "/api/search", rawQuery)
	if err := s.cache.Set(ctx, key, body.Bytes(), warmedResponseTTLSeconds); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// StartPeriodicWarming starts a background goroutine that re-warms the
// popular set on the response TTL cadence so it never goes cold.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	// Initial warming
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming")
				return
			case <-ticker.C:
				if err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
