package entities

import (
	"strings"
)

// SearchType identifies which part of the platform a search targets.
type SearchType string

const (
	SearchTypeAll    SearchType = "all"
	SearchTypeUsers  SearchType = "users"
	SearchTypeVideos SearchType = "videos"
	SearchTypeEvents SearchType = "events"
)

// IsValid returns true if the search type is one of the known values.
func (t SearchType) IsValid() bool {
	switch t {
	case SearchTypeAll, SearchTypeUsers, SearchTypeVideos, SearchTypeEvents:
		return true
	}
	return false
}

// SortField identifies the field search results are ordered by.
type SortField string

const (
	SortByRelevance SortField = "relevance"
	SortByName      SortField = "name"
	SortByDate      SortField = "date"
	SortByStatus    SortField = "status"
)

// IsValid returns true if the sort field is one of the known values.
func (f SortField) IsValid() bool {
	switch f {
	case SortByRelevance, SortByName, SortByDate, SortByStatus:
		return true
	}
	return false
}

// SortOrder is the direction results are sorted in.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// IsValid returns true if the sort order is one of the known values.
func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

const (
	// DefaultSearchLimit is applied when a query does not specify a limit.
	DefaultSearchLimit = 20

	// MaxSearchLimit caps the page size of a single search request.
	MaxSearchLimit = 100
)

// SearchQuery describes one search request: the free-text term, the corpus
// it targets, structured filters and paging/ordering parameters.
type SearchQuery struct {
	Term          string        `json:"term"`
	SearchType    SearchType    `json:"search_type"`
	Filters       SearchFilters `json:"filters"`
	Limit         int           `json:"limit"`
	Offset        int           `json:"offset"`
	SortBy        SortField     `json:"sort_by"`
	SortOrder     SortOrder     `json:"sort_order"`
	FuzzyMatching *bool         `json:"fuzzy_matching,omitempty"`
}

// FuzzyEnabled reports whether fuzzy matching applies to this query.
// Unset defaults to enabled.
func (q SearchQuery) FuzzyEnabled() bool {
	return q.FuzzyMatching == nil || *q.FuzzyMatching
}

// Sanitize returns a normalized copy of the query. Whitespace is collapsed,
// out-of-range paging values are clamped and unknown enum values fall back
// to their defaults. Sanitizing an already sanitized query changes nothing.
func (q SearchQuery) Sanitize() SearchQuery {
	out := q
	out.Term = collapseWhitespace(q.Term)

	if !out.SearchType.IsValid() {
		out.SearchType = SearchTypeAll
	}
	if !out.SortBy.IsValid() {
		out.SortBy = SortByRelevance
	}
	if !out.SortOrder.IsValid() {
		out.SortOrder = SortDesc
	}

	if out.Limit <= 0 {
		out.Limit = DefaultSearchLimit
	} else if out.Limit > MaxSearchLimit {
		out.Limit = MaxSearchLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}

	if out.FuzzyMatching == nil {
		enabled := true
		out.FuzzyMatching = &enabled
	}

	out.Filters = q.Filters.Sanitize()
	return out
}

// HasActiveFilters reports whether any structured filter is set.
func (q SearchQuery) HasActiveFilters() bool {
	return q.Filters.ActiveCount() > 0
}

// ActiveFilterCount returns the number of filter dimensions in use.
func (q SearchQuery) ActiveFilterCount() int {
	return q.Filters.ActiveCount()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
