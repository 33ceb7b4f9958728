package entities

import (
	"time"
)

// SearchEventType classifies an analytics event.
type SearchEventType string

const (
	// EventSearchExecuted records a search that returned at least one result.
	EventSearchExecuted SearchEventType = "search_executed"

	// EventZeroResults records a search that completed with no results.
	EventZeroResults SearchEventType = "zero_results"

	// EventSearchFailed records a search that errored before producing results.
	EventSearchFailed SearchEventType = "search_failed"

	// EventSuggestionClicked records a user picking an offered suggestion.
	EventSuggestionClicked SearchEventType = "suggestion_clicked"
)

// IsValid returns true if the event type is one of the known values.
func (t SearchEventType) IsValid() bool {
	switch t {
	case EventSearchExecuted, EventZeroResults, EventSearchFailed, EventSuggestionClicked:
		return true
	}
	return false
}

// SearchEvent represents a single search interaction for analytics. Events
// are append-only; the search term is stored normalized (trimmed and
// lowercased) so aggregation groups case variants together.
type SearchEvent struct {
	ID                 string          `json:"id" db:"id"`
	EventType          SearchEventType `json:"event_type" db:"event_type"`
	SearchTerm         string          `json:"search_term" db:"search_term"`
	SearchType         SearchType      `json:"search_type" db:"search_type"`
	FilterCount        int             `json:"filter_count" db:"filter_count"`
	ResultCount        int             `json:"result_count" db:"result_count"`
	ResponseTimeMs     int64           `json:"response_time_ms" db:"response_time_ms"`
	Cached             bool            `json:"cached" db:"cached"`
	ErrorOccurred      bool            `json:"error_occurred" db:"error_occurred"`
	ErrorType          string          `json:"error_type,omitempty" db:"error_type"`
	ErrorMessage       string          `json:"error_message,omitempty" db:"error_message"`
	SelectedSuggestion string          `json:"selected_suggestion,omitempty" db:"selected_suggestion"`
	SessionID          string          `json:"session_id,omitempty" db:"session_id"`
	Platform           string          `json:"platform" db:"platform"`
	Filters            SearchFilters   `json:"filters" db:"filters"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}
