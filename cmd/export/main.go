package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/amaplayer/search-service/internal/adapters/database"
	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/postgres"
	"github.com/amaplayer/search-service/pkg/config"
)

func main() {
	var format string
	var startFlag, endFlag string
	var days int
	var outDir string
	var includePerformance bool
	flag.StringVar(&format, "format", "csv", "export format: csv or json")
	flag.StringVar(&startFlag, "start", "", "range start (RFC3339 or YYYY-MM-DD)")
	flag.StringVar(&endFlag, "end", "", "range end (RFC3339 or YYYY-MM-DD)")
	flag.IntVar(&days, "days", 7, "trailing window in days when no explicit range is given")
	flag.StringVar(&outDir, "out", ".", "directory the report is written to")
	flag.BoolVar(&includePerformance, "performance", true, "include the performance metrics section")
	flag.Parse()

	end := time.Now().UTC()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	if startFlag != "" {
		start = parseTimeFlag(startFlag, "start")
	}
	if endFlag != "" {
		end = parseTimeFlag(endFlag, "end")
	}
	if !end.After(start) {
		log.Fatalf("Range end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	analytics := services.NewSearchAnalyticsService(database.NewSearchEventAdapter(pgClient), nil)
	exporter := services.NewAnalyticsExportService(analytics)

	artifact, err := exporter.Export(context.Background(), services.ExportOptions{
		Format:    format,
		DateRange: entities.DateRange{Start: start, End: end},
		Sections: services.SectionFlags{
			SummaryMetrics:    true,
			TopSearchTerms:    true,
			ZeroResultQueries: true,
			SearchTrends:      true,
		},
		IncludePerformanceMetrics: includePerformance,
		IncludeDetailedBreakdown:  true,
	}, func(p services.ExportProgress) {
		log.Printf("%3d%% %s", p.Percent, p.Stage)
	})
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	path := filepath.Join(outDir, artifact.Filename)
	if err := os.WriteFile(path, artifact.Data, 0644); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	log.Printf("Wrote %s (%d bytes)", path, len(artifact.Data))
}

func parseTimeFlag(value, name string) time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		log.Fatalf("Invalid %s %q: expected RFC3339 or YYYY-MM-DD", name, value)
	}
	return t
}
