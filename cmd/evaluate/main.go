package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/amaplayer/search-service/internal/adapters/database"
	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/evaluation"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/postgres"
	"github.com/amaplayer/search-service/internal/search"
	"github.com/amaplayer/search-service/pkg/config"
)

func main() {
	goldenPath := flag.String("golden", "config/golden_queries.json", "path to the golden query set")
	minRecall := flag.Float64("min-recall", 0, "fail if average recall@10 drops below this (0 disables)")
	minMRR := flag.Float64("min-mrr", 0, "fail if average mrr@10 drops below this (0 disables)")
	maxLatency := flag.Duration("max-latency", 0, "fail if average query latency exceeds this (0 disables)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	// Evaluation runs are not user traffic: no suggestion index, no
	// analytics tracking, just the store-backed retrieval path.
	documentAdapter := database.NewDocumentSearchAdapter(pgClient)
	searchService := services.NewSearchService(
		search.NewBuilder(),
		documentAdapter,
		nil,
		search.NewMatcher(search.ProfileDefault),
		nil,
	)

	queries, err := evaluation.LoadGoldenQueries(*goldenPath)
	if err != nil {
		log.Fatalf("Failed to load golden queries: %v", err)
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatalf("Invalid golden queries: %v", err)
	}

	runner := evaluation.NewRunner(searchService)
	summary, err := runner.Run(context.Background(), queries)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	// Output results as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	gates := evaluation.CheckGates(summary, evaluation.GateConfig{
		MinAvgRecallAt10: *minRecall,
		MinAvgMRRAt10:    *minMRR,
		MaxAvgLatency:    *maxLatency,
	})
	if !gates.Passed {
		for _, violation := range gates.Violations {
			fmt.Fprintln(os.Stderr, "gate violation: "+violation)
		}
		os.Exit(1)
	}
}
