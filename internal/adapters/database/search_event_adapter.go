package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/postgres"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// searchEventTypes are the event types counted as searches in usage
// aggregates; failures and suggestion clicks are excluded.
const searchEventTypes = "('search_executed', 'zero_results')"

// SearchEventAdapter implements SearchEventRepository on PostgreSQL
type SearchEventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.SearchEventRepository = (*SearchEventAdapter)(nil)

// NewSearchEventAdapter creates a new search event adapter
func NewSearchEventAdapter(client *postgres.Client) *SearchEventAdapter {
	return &SearchEventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// LogEvent persists a search event
func (a *SearchEventAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	filters, err := json.Marshal(event.Filters)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal event filters", err)
	}

	record := goqu.Record{
		"id":                  event.ID,
		"event_type":          string(event.EventType),
		"search_term":         event.SearchTerm,
		"search_type":         string(event.SearchType),
		"filter_count":        event.FilterCount,
		"result_count":        event.ResultCount,
		"response_time_ms":    event.ResponseTimeMs,
		"cached":              event.Cached,
		"error_occurred":      event.ErrorOccurred,
		"error_type":          event.ErrorType,
		"error_message":       event.ErrorMessage,
		"selected_suggestion": event.SelectedSuggestion,
		"session_id":          event.SessionID,
		"platform":            event.Platform,
		"filters":             filters,
		"created_at":          event.CreatedAt,
	}

	query, args, err := a.db.Insert("search_events").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

// AggregateStats computes the scalar aggregates over a date range. Search
// figures exclude failures and suggestion clicks; event figures span every
// event type in the window.
func (a *SearchEventAdapter) AggregateStats(ctx context.Context, dateRange entities.DateRange) (*repositories.SearchEventStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE event_type IN ` + searchEventTypes + `),
			COALESCE(AVG(response_time_ms) FILTER (WHERE event_type IN ` + searchEventTypes + `), 0),
			COUNT(*),
			COALESCE(AVG(response_time_ms), 0),
			COUNT(*) FILTER (WHERE error_occurred),
			COUNT(*) FILTER (WHERE cached)
		FROM search_events
		WHERE created_at BETWEEN $1 AND $2`

	stats := &repositories.SearchEventStats{}
	err := a.client.DB().QueryRowContext(ctx, query, dateRange.Start, dateRange.End).Scan(
		&stats.TotalSearches,
		&stats.SearchAvgResponseTimeMs,
		&stats.TotalEvents,
		&stats.EventAvgResponseTimeMs,
		&stats.ErrorCount,
		&stats.CacheHits,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate search stats", err)
	}
	return stats, nil
}

// TopTerms lists the most frequent normalized terms of executed searches
func (a *SearchEventAdapter) TopTerms(ctx context.Context, dateRange entities.DateRange, limit int) ([]entities.TermCount, error) {
	query := `
		SELECT search_term, COUNT(*) AS uses
		FROM search_events
		WHERE created_at BETWEEN $1 AND $2
		  AND search_term <> ''
		  AND event_type = 'search_executed'
		GROUP BY search_term
		ORDER BY uses DESC, search_term ASC
		LIMIT $3`

	return a.queryTermCounts(ctx, query, dateRange.Start, dateRange.End, limit)
}

// ZeroResultTerms lists the most frequent terms that returned nothing
func (a *SearchEventAdapter) ZeroResultTerms(ctx context.Context, dateRange entities.DateRange, limit int) ([]entities.TermCount, error) {
	query := `
		SELECT search_term, COUNT(*) AS uses
		FROM search_events
		WHERE created_at BETWEEN $1 AND $2
		  AND search_term <> ''
		  AND event_type = 'zero_results'
		GROUP BY search_term
		ORDER BY uses DESC, search_term ASC
		LIMIT $3`

	return a.queryTermCounts(ctx, query, dateRange.Start, dateRange.End, limit)
}

// FilterUsage counts how often each filter dimension was used. Filters are
// stored as a JSON object whose keys are the active dimensions, so the
// keys themselves carry the usage signal.
func (a *SearchEventAdapter) FilterUsage(ctx context.Context, dateRange entities.DateRange, limit int) ([]entities.FilterUsage, error) {
	query := `
		SELECT k, COUNT(*) AS uses
		FROM search_events, LATERAL jsonb_object_keys(filters) AS k
		WHERE created_at BETWEEN $1 AND $2
		GROUP BY k
		ORDER BY uses DESC, k ASC
		LIMIT $3`

	rows, err := a.client.DB().QueryContext(ctx, query, dateRange.Start, dateRange.End, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate filter usage", err)
	}
	defer rows.Close()

	var usages []entities.FilterUsage
	for rows.Next() {
		var u entities.FilterUsage
		if err := rows.Scan(&u.Filter, &u.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan filter usage", err)
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating filter usage", err)
	}
	return usages, nil
}

// DailyCounts returns per-day event counts for the days that had events,
// ascending. Days without events produce no row; callers zero-fill.
func (a *SearchEventAdapter) DailyCounts(ctx context.Context, dateRange entities.DateRange) ([]entities.TrendPoint, error) {
	query := `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM search_events
		WHERE created_at BETWEEN $1 AND $2
		GROUP BY day
		ORDER BY day ASC`

	rows, err := a.client.DB().QueryContext(ctx, query, dateRange.Start, dateRange.End)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate daily counts", err)
	}
	defer rows.Close()

	var points []entities.TrendPoint
	for rows.Next() {
		var p entities.TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan trend point", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating trend points", err)
	}
	return points, nil
}

// SlowQueries lists queries slower than thresholdMs, slowest first
func (a *SearchEventAdapter) SlowQueries(ctx context.Context, dateRange entities.DateRange, thresholdMs int64, limit int) ([]entities.SlowQuery, error) {
	query := `
		SELECT search_term, response_time_ms, created_at
		FROM search_events
		WHERE created_at BETWEEN $1 AND $2
		  AND response_time_ms > $3
		ORDER BY response_time_ms DESC, created_at DESC
		LIMIT $4`

	rows, err := a.client.DB().QueryContext(ctx, query, dateRange.Start, dateRange.End, thresholdMs, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list slow queries", err)
	}
	defer rows.Close()

	var slow []entities.SlowQuery
	for rows.Next() {
		var s entities.SlowQuery
		if err := rows.Scan(&s.Term, &s.ResponseTimeMs, &s.OccurredAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan slow query", err)
		}
		slow = append(slow, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating slow queries", err)
	}
	return slow, nil
}

// ListByDateRange streams the raw events of a range in ascending creation
// order. Rows that fail to scan are skipped with a warning instead of
// aborting the export.
func (a *SearchEventAdapter) ListByDateRange(ctx context.Context, dateRange entities.DateRange) ([]*entities.SearchEvent, error) {
	query := `
		SELECT id, event_type, search_term, search_type, filter_count,
		       result_count, response_time_ms, cached, error_occurred,
		       error_type, error_message, selected_suggestion, session_id,
		       platform, filters, created_at
		FROM search_events
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at ASC`

	rows, err := a.client.DB().QueryContext(ctx, query, dateRange.Start, dateRange.End)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list search events", err)
	}
	defer rows.Close()

	var events []*entities.SearchEvent
	for rows.Next() {
		e := &entities.SearchEvent{}
		var filters []byte
		err := rows.Scan(
			&e.ID,
			&e.EventType,
			&e.SearchTerm,
			&e.SearchType,
			&e.FilterCount,
			&e.ResultCount,
			&e.ResponseTimeMs,
			&e.Cached,
			&e.ErrorOccurred,
			&e.ErrorType,
			&e.ErrorMessage,
			&e.SelectedSuggestion,
			&e.SessionID,
			&e.Platform,
			&filters,
			&e.CreatedAt,
		)
		if err != nil {
			log.Warn().Err(err).Msg("skipping unreadable search event row")
			continue
		}
		if len(filters) > 0 {
			if err := json.Unmarshal(filters, &e.Filters); err != nil {
				log.Warn().Err(err).Str("event_id", e.ID).Msg("skipping event with malformed filters")
				continue
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating search events", err)
	}
	return events, nil
}

func (a *SearchEventAdapter) queryTermCounts(ctx context.Context, query string, args ...interface{}) ([]entities.TermCount, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate search terms", err)
	}
	defer rows.Close()

	var terms []entities.TermCount
	for rows.Next() {
		var tc entities.TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan term count", err)
		}
		terms = append(terms, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating term counts", err)
	}
	return terms, nil
}
