package entities

import "time"

// DateRange is the inclusive reporting period analytics are aggregated over.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TermCount pairs a normalized search term with its occurrence count.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// FilterUsage pairs a filter dimension with how often searches used it.
type FilterUsage struct {
	Filter string `json:"filter"`
	Count  int    `json:"count"`
}

// TrendPoint is the search volume of one calendar day (date as YYYY-MM-DD).
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SlowQuery describes one search whose response time exceeded the slow
// query threshold.
type SlowQuery struct {
	Term           string    `json:"term"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// SearchAnalytics is the usage aggregate over a reporting period. It is
// derived from stored events and never persisted itself.
type SearchAnalytics struct {
	TotalSearches         int           `json:"total_searches"`
	AverageResponseTimeMs float64       `json:"average_response_time_ms"`
	TopSearchTerms        []TermCount   `json:"top_search_terms"`
	ZeroResultQueries     []TermCount   `json:"zero_result_queries"`
	PopularFilters        []FilterUsage `json:"popular_filters"`
	SearchTrends          []TrendPoint  `json:"search_trends"`
}

// SearchPerformanceMetrics is the health aggregate over a reporting period,
// computed across every event type in range.
type SearchPerformanceMetrics struct {
	TotalSearches         int         `json:"total_searches"`
	AverageResponseTimeMs float64     `json:"average_response_time_ms"`
	ErrorRate             float64     `json:"error_rate"`
	CacheHitRate          float64     `json:"cache_hit_rate"`
	SlowQueries           []SlowQuery `json:"slow_queries"`
	PopularSearchTerms    []TermCount `json:"popular_search_terms"`
}
