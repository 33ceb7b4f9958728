package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/amaplayer/search-service/internal/domain/providers"
	"github.com/amaplayer/search-service/internal/infrastructure/observability"
	"github.com/rs/zerolog/log"
)

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware provides HTTP response caching. Saved-search routes are
// never cached: their responses are scoped to the X-User-ID header, which
// is not part of the cache key.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics) *CacheMiddleware {
	return &CacheMiddleware{
		cache:   cache,
		metrics: metrics,
		routeConfigs: map[string]CacheConfig{
			"/api/search":                {TTLSeconds: 60, Enabled: true},  // 1 minute
			"/api/search/suggest":        {TTLSeconds: 180, Enabled: true}, // 3 minutes
			"/api/analytics/search":      {TTLSeconds: 300, Enabled: true}, // 5 minutes
			"/api/analytics/performance": {TTLSeconds: 300, Enabled: true}, // 5 minutes
		},
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only cache GET requests
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		// Check if caching is disabled
		if m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		// Get cache config for this route
		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		// Generate cache key
		cacheKey := m.generateCacheKey(r)

		// Try to get from cache
		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			log.Debug().Str("key", cacheKey).Msg("response cache hit")
			m.recordHit(r)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		// Cache miss - capture response
		log.Debug().Str("key", cacheKey).Msg("response cache miss")
		m.recordMiss(r)
		w.Header().Set("X-Cache", "MISS")

		// Create response recorder
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}

		// Call next handler
		next.ServeHTTP(recorder, r)

		// Only cache successful responses
		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
			} else {
				log.Debug().Str("key", cacheKey).Int("ttl_seconds", config.TTLSeconds).Msg("response cached")
			}
		}
	})
}

func (m *CacheMiddleware) recordHit(r *http.Request) {
	if m.metrics != nil {
		observability.RecordCacheHit(r.Context(), m.metrics, r.URL.Path)
	}
}

func (m *CacheMiddleware) recordMiss(r *http.Request) {
	if m.metrics != nil {
		observability.RecordCacheMiss(r.Context(), m.metrics, r.URL.Path)
	}
}

// getRouteConfig gets the cache configuration for a route
func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	// Exact match first
	if config, exists := m.routeConfigs[path]; exists {
		return config
	}

	// Prefix match for dynamic routes
	for pattern, config := range m.routeConfigs {
		if strings.HasPrefix(path, pattern+"/") {
			return config
		}
	}

	// Default: no caching
	return CacheConfig{Enabled: false}
}

// generateCacheKey generates a cache key from the request
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	return providers.ResponseCacheKey(r.Method, r.URL.Path, r.URL.RawQuery)
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}

	// Write to buffer for caching
	r.body.Write(data)

	// Write to client
	return r.ResponseWriter.Write(data)
}
