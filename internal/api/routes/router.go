package routes

import (
	"net/http"

	"github.com/amaplayer/search-service/internal/api/handlers"
	"github.com/amaplayer/search-service/internal/api/middleware"
	"github.com/amaplayer/search-service/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler      *handlers.SearchHandler
	savedSearchHandler *handlers.SavedSearchHandler
	analyticsHandler   *handlers.AnalyticsHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	corsOrigins     []string
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	savedSearchHandler *handlers.SavedSearchHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
	corsOrigins []string,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		searchHandler:      searchHandler,
		savedSearchHandler: savedSearchHandler,
		analyticsHandler:   analyticsHandler,
		cacheMiddleware:    cacheMiddleware,
		metrics:            metrics,
		corsOrigins:        corsOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Search endpoints
	r.mux.HandleFunc("GET /api/search", r.searchHandler.HandleSearch)
	r.mux.HandleFunc("GET /api/search/suggest", r.searchHandler.HandleSuggest)
	r.mux.HandleFunc("POST /api/search/validate", r.searchHandler.HandleValidate)

	// Saved search endpoints
	r.mux.HandleFunc("GET /api/saved-searches", r.savedSearchHandler.ListSavedSearches)
	r.mux.HandleFunc("POST /api/saved-searches", r.savedSearchHandler.CreateSavedSearch)
	r.mux.HandleFunc("DELETE /api/saved-searches", r.savedSearchHandler.ClearSavedSearches)
	r.mux.HandleFunc("GET /api/saved-searches/frequent", r.savedSearchHandler.ListFrequentSavedSearches)
	r.mux.HandleFunc("GET /api/saved-searches/export", r.savedSearchHandler.ExportSavedSearches)
	r.mux.HandleFunc("POST /api/saved-searches/import", r.savedSearchHandler.ImportSavedSearches)
	r.mux.HandleFunc("GET /api/saved-searches/{id}", r.savedSearchHandler.GetSavedSearch)
	r.mux.HandleFunc("PATCH /api/saved-searches/{id}", r.savedSearchHandler.UpdateSavedSearch)
	r.mux.HandleFunc("DELETE /api/saved-searches/{id}", r.savedSearchHandler.DeleteSavedSearch)
	r.mux.HandleFunc("POST /api/saved-searches/{id}/used", r.savedSearchHandler.MarkSavedSearchUsed)
	r.mux.HandleFunc("GET /api/saved-searches/{id}/compatibility", r.savedSearchHandler.GetSavedSearchCompatibility)
	r.mux.HandleFunc("POST /api/saved-searches/{id}/repair", r.savedSearchHandler.RepairSavedSearch)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/analytics/search", r.analyticsHandler.GetSearchAnalytics)
	r.mux.HandleFunc("GET /api/analytics/performance", r.analyticsHandler.GetPerformanceMetrics)
	r.mux.HandleFunc("GET /api/analytics/export", r.analyticsHandler.ExportAnalytics)
	r.mux.HandleFunc("POST /api/analytics/suggestion-click", r.analyticsHandler.TrackSuggestionClick)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.corsOrigins)(handler)

	return handler
}
