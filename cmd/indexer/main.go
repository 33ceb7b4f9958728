package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amaplayer/search-service/internal/adapters/cache"
	"github.com/amaplayer/search-service/internal/adapters/database"
	searchadapter "github.com/amaplayer/search-service/internal/adapters/search"
	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/postgres"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/redis"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/typesense"
	"github.com/amaplayer/search-service/internal/infrastructure/observability"
	"github.com/amaplayer/search-service/internal/search"
	"github.com/amaplayer/search-service/pkg/config"
	"github.com/rs/zerolog/log"
)

const indexBatchSize = 250

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Environment, cfg.LogLevel)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	documents := database.NewDocumentSearchAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("Deleting search_documents collection before reindex")
		_, err := tsClient.Client().Collection(typesense.DocumentsCollection).Delete(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	index := searchadapter.NewTypesenseAdapter(tsClient)
	if err := index.EnsureCollection(ctx); err != nil {
		return err
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return err
	}

	// Walk the whole store in keyset pages so a large backfill never
	// holds every document in memory at once.
	scan := &search.Query{
		DocType: entities.SearchTypeAll,
		Sort:    search.Sort{Field: "created_at"},
		Limit:   indexBatchSize,
	}

	indexed := 0
	failed := 0
	for {
		docs, next, err := documents.Execute(ctx, scan)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			break
		}

		if err := index.IndexBatch(ctx, docs); err != nil {
			log.Warn().Err(err).Str("last_id", docs[len(docs)-1].ID).Msg("Failed to index batch")
			failed += len(docs)
		} else {
			indexed += len(docs)
			observability.RecordIndexedDocuments(ctx, metrics, len(docs))
		}

		if next == nil {
			break
		}
		scan.Cursor = next
	}

	log.Info().Int("indexed", indexed).Int("failed", failed).Msg("Indexing complete")

	// A reindex changes what searches return, so cached responses are stale.
	// Redis being unavailable costs cache freshness, not the reindex.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Skipping cache invalidation (Redis unavailable)")
		return nil
	}
	defer redisClient.Close()

	invalidation := services.NewCacheInvalidationService(cache.NewRedisAdapter(redisClient))
	if err := invalidation.InvalidateSearchResponses(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate cached search responses")
	}
	return nil
}
