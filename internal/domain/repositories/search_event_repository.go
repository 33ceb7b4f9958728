package repositories

import (
	"context"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

// SearchEventStats holds the scalar aggregates of a window of search
// events. Search figures cover executed and zero-result searches only;
// event figures cover every event type in the window.
type SearchEventStats struct {
	TotalSearches           int64
	SearchAvgResponseTimeMs float64
	TotalEvents             int64
	EventAvgResponseTimeMs  float64
	ErrorCount              int64
	CacheHits               int64
}

// SearchEventRepository defines the interface for persisting and
// aggregating search events
type SearchEventRepository interface {
	// LogEvent persists a search event
	LogEvent(ctx context.Context, event *entities.SearchEvent) error

	// AggregateStats computes the scalar aggregates over a date range
	AggregateStats(ctx context.Context, dateRange entities.DateRange) (*SearchEventStats, error)

	// TopTerms lists the most frequent normalized terms of executed searches
	TopTerms(ctx context.Context, dateRange entities.DateRange, limit int) ([]entities.TermCount, error)

	// ZeroResultTerms lists the most frequent terms that returned nothing
	ZeroResultTerms(ctx context.Context, dateRange entities.DateRange, limit int) ([]entities.TermCount, error)

	// FilterUsage counts how often each filter dimension was used
	FilterUsage(ctx context.Context, dateRange entities.DateRange, limit int) ([]entities.FilterUsage, error)

	// DailyCounts returns per-day event counts for the days that had
	// events, ascending; empty days produce no entry
	DailyCounts(ctx context.Context, dateRange entities.DateRange) ([]entities.TrendPoint, error)

	// SlowQueries lists queries slower than thresholdMs, slowest first
	SlowQueries(ctx context.Context, dateRange entities.DateRange, thresholdMs int64, limit int) ([]entities.SlowQuery, error)

	// ListByDateRange streams the raw events of a range in ascending
	// creation order, for exports
	ListByDateRange(ctx context.Context, dateRange entities.DateRange) ([]*entities.SearchEvent, error)
}
