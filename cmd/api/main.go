package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaplayer/search-service/internal/adapters/cache"
	"github.com/amaplayer/search-service/internal/adapters/database"
	"github.com/amaplayer/search-service/internal/adapters/events"
	searchadapter "github.com/amaplayer/search-service/internal/adapters/search"
	"github.com/amaplayer/search-service/internal/api/handlers"
	"github.com/amaplayer/search-service/internal/api/middleware"
	"github.com/amaplayer/search-service/internal/api/routes"
	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/domain/providers"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/postgres"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/redis"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/typesense"
	"github.com/amaplayer/search-service/internal/infrastructure/observability"
	"github.com/amaplayer/search-service/internal/search"
	"github.com/amaplayer/search-service/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without caching")
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable")
	}

	// Initialize adapters

	documentAdapter := database.NewDocumentSearchAdapter(pgClient)
	searchEventAdapter := database.NewSearchEventAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("Event bus initialized")
	} else {
		log.Info().Msg("Event bus disabled (Redis not available)")
	}

	// The suggestion index is optional: without it, autocomplete falls back
	// to prefix queries against PostgreSQL.
	var suggestionIndex repositories.SuggestionIndexRepository
	if typesenseClient != nil && cfg.Search.SuggestSource == "typesense" {
		adapter := searchadapter.NewTypesenseAdapter(typesenseClient)

		// Ensure schema exists
		if err := adapter.EnsureCollection(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense collection")
		}

		suggestionIndex = adapter
		log.Info().Msg("✓ Autocomplete backed by Typesense")
	} else {
		log.Info().Msg("⚠ Autocomplete backed by PostgreSQL prefix queries")
	}

	// Saved searches live in Redis; fall back to process memory so the
	// endpoints keep working when Redis is down.
	var savedSearchRepo repositories.SavedSearchRepository
	if redisClient != nil {
		savedSearchRepo = cache.NewSavedSearchAdapter(redisClient)
	} else {
		savedSearchRepo = cache.NewMemorySavedSearchAdapter()
		log.Warn().Msg("Saved searches stored in memory; contents are lost on restart")
	}

	// Initialize services

	// Analytics always serves the reporting endpoints; the flag only
	// controls whether new searches are recorded.
	analyticsService := services.NewSearchAnalyticsService(searchEventAdapter, eventBus)
	var trackingService *services.SearchAnalyticsService
	if cfg.Search.AnalyticsEnabled {
		trackingService = analyticsService
	} else {
		log.Info().Msg("Search analytics tracking disabled")
	}

	searchService := services.NewSearchService(
		search.NewBuilder(),
		documentAdapter,
		suggestionIndex,
		search.NewMatcher(search.ProfileDefault),
		trackingService,
	)

	savedSearchService := services.NewSavedSearchService(savedSearchRepo, documentAdapter)
	exportService := services.NewAnalyticsExportService(analyticsService)

	// Initialize handlers

	searchHandler := handlers.NewSearchHandler(searchService)
	savedSearchHandler := handlers.NewSavedSearchHandler(savedSearchService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, exportService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
	}

	// Keep popular search responses warm. The warmer gets its own untracked
	// search service so warming runs never count as user searches.
	if cacheProvider != nil {
		warmingSearch := services.NewSearchService(
			search.NewBuilder(),
			documentAdapter,
			suggestionIndex,
			search.NewMatcher(search.ProfileDefault),
			nil,
		)
		warmingService := services.NewCacheWarmingService(warmingSearch, analyticsService, cacheProvider)
		warmingService.StartPeriodicWarming(ctx, time.Minute)
	}

	// Set up router

	router := routes.NewRouter(
		searchHandler,
		savedSearchHandler,
		analyticsHandler,
		cacheMiddleware,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
