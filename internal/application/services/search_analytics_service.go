package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/providers"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// slowQueryThresholdMs marks a search as slow in the performance report.
	slowQueryThresholdMs = 1000

	topTermsLimit       = 10
	zeroResultTermLimit = 10
	popularFilterLimit  = 10
	slowQueryLimit      = 10

	trackWriteTimeout = 5 * time.Second
)

type contextKey string

const userAgentContextKey contextKey = "userAgent"

// WithUserAgent returns a context carrying the caller's user agent, used
// to classify the platform of tracked events.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey, userAgent)
}

// SearchAnalyticsService records search interactions and aggregates them
// into usage and performance reports. Tracking is fire-and-forget and
// never fails the calling search flow.
type SearchAnalyticsService struct {
	repo      repositories.SearchEventRepository
	bus       providers.EventBus
	sessionID string
}

// NewSearchAnalyticsService creates an analytics service. One session ID is
// generated per instance and stamped on every event it records. The event
// bus is optional; pass nil to skip publishing.
func NewSearchAnalyticsService(repo repositories.SearchEventRepository, bus providers.EventBus) *SearchAnalyticsService {
	return &SearchAnalyticsService{
		repo:      repo,
		bus:       bus,
		sessionID: uuid.New().String(),
	}
}

// TrackSearch records a completed search. Searches with no results are
// classified as zero_results events.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, query entities.SearchQuery, responseTime time.Duration, resultCount int, cached, errorOccurred bool) {
	eventType := entities.EventSearchExecuted
	if resultCount == 0 {
		eventType = entities.EventZeroResults
	}

	event := s.newEvent(ctx, eventType, query)
	event.ResultCount = resultCount
	event.ResponseTimeMs = responseTime.Milliseconds()
	event.Cached = cached
	event.ErrorOccurred = errorOccurred

	s.record(event)
}

// TrackSearchFailure records a search that errored before producing
// results.
func (s *SearchAnalyticsService) TrackSearchFailure(ctx context.Context, query entities.SearchQuery, responseTime time.Duration, searchErr error) {
	event := s.newEvent(ctx, entities.EventSearchFailed, query)
	event.ResponseTimeMs = responseTime.Milliseconds()
	event.ErrorOccurred = true
	if searchErr != nil {
		event.ErrorType = string(apperrors.TypeOf(searchErr))
		event.ErrorMessage = searchErr.Error()
	}

	s.record(event)
}

// TrackSuggestionClick records a user picking one of the offered
// suggestions.
func (s *SearchAnalyticsService) TrackSuggestionClick(ctx context.Context, originalQuery, selectedSuggestion string, allSuggestions []string) {
	event := s.newEvent(ctx, entities.EventSuggestionClicked, entities.SearchQuery{
		Term:       originalQuery,
		SearchType: entities.SearchTypeAll,
	})
	event.SelectedSuggestion = selectedSuggestion
	event.ResultCount = len(allSuggestions)

	s.record(event)
}

func (s *SearchAnalyticsService) newEvent(ctx context.Context, eventType entities.SearchEventType, query entities.SearchQuery) *entities.SearchEvent {
	return &entities.SearchEvent{
		ID:          uuid.New().String(),
		EventType:   eventType,
		SearchTerm:  normalizeSearchTerm(query.Term),
		SearchType:  query.SearchType,
		FilterCount: query.ActiveFilterCount(),
		Filters:     query.Filters,
		SessionID:   s.sessionID,
		Platform:    platformFromUserAgent(userAgentFrom(ctx)),
		CreatedAt:   time.Now(),
	}
}

// record writes the event in the background so the search flow is never
// blocked or failed by analytics.
func (s *SearchAnalyticsService) record(event *entities.SearchEvent) {
	recordSearchCounters(event)

	// Execute in background to not block the user request
	go func() {
		// Use a fresh context since the request context might be cancelled
		bgCtx, cancel := context.WithTimeout(context.Background(), trackWriteTimeout)
		defer cancel()

		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			log.Warn().Err(err).Str("event_type", string(event.EventType)).Msg("failed to log search event")
		}

		if s.bus != nil {
			if err := s.bus.Publish(bgCtx, providers.EventChannelSearchEvents, event); err != nil {
				log.Warn().Err(err).Msg("failed to publish search event")
			}
			if event.SearchType.IsValid() {
				if err := s.bus.Publish(bgCtx, providers.GetSearchTypeChannel(event.SearchType), event); err != nil {
					log.Warn().Err(err).Msg("failed to publish typed search event")
				}
			}
		}
	}()
}

// GetSearchAnalytics aggregates search usage over a date range. Fetch
// failures degrade to a zeroed report so dashboards still render.
func (s *SearchAnalyticsService) GetSearchAnalytics(ctx context.Context, dateRange entities.DateRange) *entities.SearchAnalytics {
	analytics, err := s.searchAnalytics(ctx, dateRange)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to empty search analytics")
		return &entities.SearchAnalytics{
			TopSearchTerms:    []entities.TermCount{},
			ZeroResultQueries: []entities.TermCount{},
			PopularFilters:    []entities.FilterUsage{},
			SearchTrends:      []entities.TrendPoint{},
		}
	}
	return analytics
}

func (s *SearchAnalyticsService) searchAnalytics(ctx context.Context, dateRange entities.DateRange) (*entities.SearchAnalytics, error) {
	stats, err := s.repo.AggregateStats(ctx, dateRange)
	if err != nil {
		return nil, err
	}
	topTerms, err := s.repo.TopTerms(ctx, dateRange, topTermsLimit)
	if err != nil {
		return nil, err
	}
	zeroResultTerms, err := s.repo.ZeroResultTerms(ctx, dateRange, zeroResultTermLimit)
	if err != nil {
		return nil, err
	}
	filterUsage, err := s.repo.FilterUsage(ctx, dateRange, popularFilterLimit)
	if err != nil {
		return nil, err
	}
	daily, err := s.repo.DailyCounts(ctx, dateRange)
	if err != nil {
		return nil, err
	}

	return &entities.SearchAnalytics{
		TotalSearches:         int(stats.TotalSearches),
		AverageResponseTimeMs: stats.SearchAvgResponseTimeMs,
		TopSearchTerms:        topTerms,
		ZeroResultQueries:     zeroResultTerms,
		PopularFilters:        filterUsage,
		SearchTrends:          fillDailyTrends(dateRange, daily),
	}, nil
}

// GetPerformanceMetrics aggregates search health over a date range, across
// every event type in range. Fetch failures degrade to a zeroed report.
func (s *SearchAnalyticsService) GetPerformanceMetrics(ctx context.Context, dateRange entities.DateRange) *entities.SearchPerformanceMetrics {
	metrics, err := s.performanceMetrics(ctx, dateRange)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to empty performance metrics")
		return &entities.SearchPerformanceMetrics{
			SlowQueries:        []entities.SlowQuery{},
			PopularSearchTerms: []entities.TermCount{},
		}
	}
	return metrics
}

func (s *SearchAnalyticsService) performanceMetrics(ctx context.Context, dateRange entities.DateRange) (*entities.SearchPerformanceMetrics, error) {
	stats, err := s.repo.AggregateStats(ctx, dateRange)
	if err != nil {
		return nil, err
	}
	slowQueries, err := s.repo.SlowQueries(ctx, dateRange, slowQueryThresholdMs, slowQueryLimit)
	if err != nil {
		return nil, err
	}
	popularTerms, err := s.repo.TopTerms(ctx, dateRange, topTermsLimit)
	if err != nil {
		return nil, err
	}

	metrics := &entities.SearchPerformanceMetrics{
		TotalSearches:         int(stats.TotalEvents),
		AverageResponseTimeMs: stats.EventAvgResponseTimeMs,
		SlowQueries:           slowQueries,
		PopularSearchTerms:    popularTerms,
	}
	if stats.TotalEvents > 0 {
		metrics.ErrorRate = float64(stats.ErrorCount) / float64(stats.TotalEvents)
		metrics.CacheHitRate = float64(stats.CacheHits) / float64(stats.TotalEvents)
	}
	return metrics, nil
}

// ExportAnalyticsData composes the usage and performance aggregates into a
// CSV report. Unlike the dashboard getters, fetch errors propagate to the
// caller.
func (s *SearchAnalyticsService) ExportAnalyticsData(ctx context.Context, dateRange entities.DateRange) (string, error) {
	analytics, err := s.searchAnalytics(ctx, dateRange)
	if err != nil {
		return "", err
	}
	performance, err := s.performanceMetrics(ctx, dateRange)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search Analytics Report\n")
	fmt.Fprintf(&b, "Period,%s,%s\n\n", dateRange.Start.Format("2006-01-02"), dateRange.End.Format("2006-01-02"))

	fmt.Fprintf(&b, "Summary\n")
	fmt.Fprintf(&b, "Total Searches,%d\n", analytics.TotalSearches)
	fmt.Fprintf(&b, "Average Response Time (ms),%.2f\n\n", analytics.AverageResponseTimeMs)

	fmt.Fprintf(&b, "Top Search Terms\nTerm,Count\n")
	for _, term := range analytics.TopSearchTerms {
		fmt.Fprintf(&b, "%s,%d\n", term.Term, term.Count)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Zero Result Queries\nTerm,Count\n")
	for _, term := range analytics.ZeroResultQueries {
		fmt.Fprintf(&b, "%s,%d\n", term.Term, term.Count)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Performance\n")
	fmt.Fprintf(&b, "Total Events,%d\n", performance.TotalSearches)
	fmt.Fprintf(&b, "Average Response Time (ms),%.2f\n", performance.AverageResponseTimeMs)
	fmt.Fprintf(&b, "Error Rate,%.4f\n", performance.ErrorRate)
	fmt.Fprintf(&b, "Cache Hit Rate,%.4f\n", performance.CacheHitRate)

	return b.String(), nil
}

// normalizeSearchTerm folds a term for aggregation so case and whitespace
// variants group together.
func normalizeSearchTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func userAgentFrom(ctx context.Context) string {
	if userAgent, ok := ctx.Value(userAgentContextKey).(string); ok {
		return userAgent
	}
	return ""
}

// platformFromUserAgent classifies a user agent string. Requests without
// one, such as internal jobs, count as server traffic.
func platformFromUserAgent(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return "server"
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return "tablet"
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "iphone"):
		return "mobile"
	default:
		return "desktop"
	}
}

// fillDailyTrends expands sparse per-day counts into one point per calendar
// day of the range, zero for days without events.
func fillDailyTrends(dateRange entities.DateRange, points []entities.TrendPoint) []entities.TrendPoint {
	counts := make(map[string]int, len(points))
	for _, p := range points {
		counts[p.Date] = p.Count
	}

	start := time.Date(dateRange.Start.Year(), dateRange.Start.Month(), dateRange.Start.Day(), 0, 0, 0, 0, dateRange.Start.Location())
	trends := []entities.TrendPoint{}
	for day := start; !day.After(dateRange.End); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		trends = append(trends, entities.TrendPoint{Date: date, Count: counts[date]})
	}
	return trends
}

var (
	searchCountersOnce sync.Once
	searchCounter      metric.Int64Counter
	zeroResultCounter  metric.Int64Counter
)

func initSearchCounters() {
	meter := otel.Meter("github.com/amaplayer/search-service/search_analytics")
	if counter, err := meter.Int64Counter(
		"search.executed.count",
		metric.WithDescription("Count of searches recorded by analytics"),
	); err == nil {
		searchCounter = counter
	}
	if counter, err := meter.Int64Counter(
		"search.zero_results.count",
		metric.WithDescription("Count of searches that returned no results"),
	); err == nil {
		zeroResultCounter = counter
	}
}

func recordSearchCounters(event *entities.SearchEvent) {
	searchCountersOnce.Do(initSearchCounters)

	attrs := metric.WithAttributes(attribute.String("search.type", string(event.SearchType)))
	switch event.EventType {
	case entities.EventSearchExecuted:
		if searchCounter != nil {
			searchCounter.Add(context.Background(), 1, attrs)
		}
	case entities.EventZeroResults:
		if searchCounter != nil {
			searchCounter.Add(context.Background(), 1, attrs)
		}
		if zeroResultCounter != nil {
			zeroResultCounter.Add(context.Background(), 1, attrs)
		}
	}
}
