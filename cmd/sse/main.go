package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaplayer/search-service/internal/adapters/events"
	"github.com/amaplayer/search-service/internal/api/handlers"
	"github.com/amaplayer/search-service/internal/api/middleware"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/redis"
	"github.com/amaplayer/search-service/internal/infrastructure/observability"
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

	observability.InitLogger(cfg.OTEL.ServiceName+"-sse", cfg.Environment, cfg.LogLevel)

	// Initialize Redis client (required: the event bus has no fallback)
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()

	// Initialize event bus for real-time updates
	eventBus := events.NewRedisEventBus(redisClient)

	// Initialize SSE handler
	sseHandler := handlers.NewSSEHandler(eventBus)

	// Set up router
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// SSE streaming endpoints
	mux.HandleFunc("GET /api/stream/search", sseHandler.StreamSearchEvents)
	mux.HandleFunc("GET /api/stream/search/{type}", sseHandler.StreamSearchTypeEvents)

	// SSE stats endpoint
	mux.HandleFunc("GET /api/stream/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"connected_clients": %d}`, sseHandler.GetClientCount())
	})

	// Apply middleware
	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(cfg.Server.AllowedOrigins)(handler)

	// Create HTTP server. WriteTimeout stays zero so streams are never cut.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.SSEPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("SSE server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("SSE server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("SSE server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("SSE server stopped")
}
