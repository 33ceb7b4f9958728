package entities

import (
	"fmt"
	"strings"
)

const (
	// MaxSavedTermLength bounds the term of a query that can be saved.
	MaxSavedTermLength = 500

	// MaxSuggestedNameLength bounds generated saved-search names.
	MaxSuggestedNameLength = 50
)

// FilterOptions lists the values currently valid for each array filter.
// The sets are dynamic: roles and categories grow with the platform, so
// compatibility of a stored query is checked against them at load time.
type FilterOptions struct {
	Roles                []string `json:"roles"`
	Statuses             []string `json:"statuses"`
	VerificationStatuses []string `json:"verification_statuses"`
	Categories           []string `json:"categories"`
	EventStatuses        []string `json:"event_statuses"`
}

// EquivalentTo reports whether two queries describe the same search: same
// term, target, filters and ordering. Paging fields are ignored.
func (q SearchQuery) EquivalentTo(other SearchQuery) bool {
	return q.Term == other.Term &&
		q.SearchType == other.SearchType &&
		q.SortBy == other.SortBy &&
		q.SortOrder == other.SortOrder &&
		q.Filters.Equal(other.Filters)
}

// Merge overlays the set fields of override onto q. Top-level fields
// replace wholesale; filters merge per dimension.
func (q SearchQuery) Merge(override SearchQuery) SearchQuery {
	out := q
	if override.Term != "" {
		out.Term = override.Term
	}
	if override.SearchType != "" && override.SearchType.IsValid() {
		out.SearchType = override.SearchType
	}
	if override.Limit > 0 {
		out.Limit = override.Limit
	}
	if override.Offset > 0 {
		out.Offset = override.Offset
	}
	if override.SortBy != "" && override.SortBy.IsValid() {
		out.SortBy = override.SortBy
	}
	if override.SortOrder != "" && override.SortOrder.IsValid() {
		out.SortOrder = override.SortOrder
	}
	if override.FuzzyMatching != nil {
		out.FuzzyMatching = override.FuzzyMatching
	}
	out.Filters = q.Filters.Merge(override.Filters)
	return out
}

// Description renders the query for display, e.g.
// `"messi" in videos • 2 filters`. Clauses that do not apply are omitted.
func (q SearchQuery) Description() string {
	var parts []string
	if term := strings.TrimSpace(q.Term); term != "" {
		parts = append(parts, fmt.Sprintf("%q", term))
	}
	if q.SearchType != "" && q.SearchType != SearchTypeAll {
		parts = append(parts, "in "+string(q.SearchType))
	}
	switch n := q.ActiveFilterCount(); {
	case n == 1:
		parts = append(parts, "• 1 filter")
	case n > 1:
		parts = append(parts, fmt.Sprintf("• %d filters", n))
	}
	if len(parts) == 0 {
		return "Empty search"
	}
	return strings.Join(parts, " ")
}

// SuggestedName derives a default name for saving this query: the term, or
// the active filter values, or "{type} search". Over-long names are cut
// with an ellipsis so the result never exceeds MaxSuggestedNameLength runes.
func (q SearchQuery) SuggestedName() string {
	base := strings.TrimSpace(q.Term)
	if base == "" {
		base = strings.Join(q.activeFilterValues(), ", ")
	}
	if base == "" {
		if q.SearchType == "" {
			return "all search"
		}
		return string(q.SearchType) + " search"
	}

	suffix := ""
	if q.SearchType != "" && q.SearchType != SearchTypeAll {
		suffix = fmt.Sprintf(" (%s)", q.SearchType)
	}

	budget := MaxSuggestedNameLength - len([]rune(suffix))
	if runes := []rune(base); len(runes) > budget {
		base = string(runes[:budget-3]) + "..."
	}
	return base + suffix
}

// ValidForSaving reports whether the query carries enough content to be
// saved: a term no longer than MaxSavedTermLength runes, or at least one
// active filter.
func (q SearchQuery) ValidForSaving() bool {
	term := strings.TrimSpace(q.Term)
	if len([]rune(term)) > MaxSavedTermLength {
		return false
	}
	return term != "" || q.HasActiveFilters()
}

// CheckCompatibility returns one issue per filter dimension whose values no
// longer exist in the current options. An empty option set skips the check
// for that dimension.
func (q SearchQuery) CheckCompatibility(options FilterOptions) []string {
	var issues []string
	checks := []struct {
		name   string
		values []string
		valid  []string
	}{
		{"role", q.Filters.Role, options.Roles},
		{"status", q.Filters.Status, options.Statuses},
		{"verification status", q.Filters.VerificationStatus, options.VerificationStatuses},
		{"category", q.Filters.Category, options.Categories},
		{"event status", q.Filters.EventStatus, options.EventStatuses},
	}
	for _, c := range checks {
		if len(c.values) == 0 || len(c.valid) == 0 {
			continue
		}
		if unknown := missingFrom(c.values, c.valid); len(unknown) > 0 {
			issues = append(issues, fmt.Sprintf("unknown %s values: %s", c.name, strings.Join(unknown, ", ")))
		}
	}
	return issues
}

// FixCompatibility returns a copy of the query with filter values that are
// no longer offered stripped out. Dimensions left empty are dropped; all
// other fields are untouched.
func (q SearchQuery) FixCompatibility(options FilterOptions) SearchQuery {
	out := q
	out.Filters.Role = retainKnown(q.Filters.Role, options.Roles)
	out.Filters.Status = retainKnown(q.Filters.Status, options.Statuses)
	out.Filters.VerificationStatus = retainKnown(q.Filters.VerificationStatus, options.VerificationStatuses)
	out.Filters.Category = retainKnown(q.Filters.Category, options.Categories)
	out.Filters.EventStatus = retainKnown(q.Filters.EventStatus, options.EventStatuses)
	return out
}

func (q SearchQuery) activeFilterValues() []string {
	var values []string
	values = append(values, q.Filters.Role...)
	values = append(values, q.Filters.Status...)
	values = append(values, q.Filters.VerificationStatus...)
	values = append(values, q.Filters.Category...)
	values = append(values, q.Filters.EventStatus...)
	if q.Filters.Location != "" {
		values = append(values, q.Filters.Location)
	}
	if q.Filters.Sport != "" {
		values = append(values, q.Filters.Sport)
	}
	return values
}

func missingFrom(values, valid []string) []string {
	validSet := make(map[string]struct{}, len(valid))
	for _, v := range valid {
		validSet[v] = struct{}{}
	}
	var unknown []string
	for _, v := range values {
		if _, ok := validSet[v]; !ok {
			unknown = append(unknown, v)
		}
	}
	return unknown
}

func retainKnown(values, valid []string) []string {
	if len(values) == 0 || len(valid) == 0 {
		return values
	}
	validSet := make(map[string]struct{}, len(valid))
	for _, v := range valid {
		validSet[v] = struct{}{}
	}
	var kept []string
	for _, v := range values {
		if _, ok := validSet[v]; ok {
			kept = append(kept, v)
		}
	}
	return kept
}

