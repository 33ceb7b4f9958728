package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/search"
)

// SearchProvider defines the search operations used by the handler.
type SearchProvider interface {
	Search(ctx context.Context, query entities.SearchQuery, cursorToken string) (*entities.SearchResponse, error)
	Suggest(ctx context.Context, prefix string, t entities.SearchType, limit int) ([]entities.Suggestion, error)
	Validate(q entities.SearchQuery) (search.ValidationResult, float64)
}

// SearchHandler handles search HTTP requests.
type SearchHandler struct {
	service SearchProvider
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchProvider) *SearchHandler {
	return &SearchHandler{service: service}
}

// HandleSearch handles GET /api/search
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query, err := searchQueryFromParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := services.WithUserAgent(r.Context(), r.UserAgent())
	resp, err := h.service.Search(ctx, query, r.URL.Query().Get("cursor"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// HandleSuggest handles GET /api/search/suggest
func (h *SearchHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	limit := 0
	if raw := params.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	searchType := entities.SearchTypeAll
	if raw := params.Get("type"); raw != "" {
		searchType = entities.SearchType(raw)
	}

	suggestions, err := h.service.Suggest(r.Context(), params.Get("prefix"), searchType, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []entities.Suggestion{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// HandleValidate handles POST /api/search/validate
func (h *SearchHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var query entities.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, cost := h.service.Validate(query)
	if result.Errors == nil {
		result.Errors = []string{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  result.Valid,
		"errors": result.Errors,
		"cost":   cost,
	})
}

// searchQueryFromParams builds a search query from URL query parameters.
// Enum-like values pass through as sent; the service sanitizes them.
// Numeric and date parameters that fail to parse are an error rather than
// silently dropped filters.
func searchQueryFromParams(r *http.Request) (entities.SearchQuery, error) {
	params := r.URL.Query()

	query := entities.SearchQuery{
		Term:       params.Get("term"),
		SearchType: entities.SearchType(params.Get("type")),
		SortBy:     entities.SortField(params.Get("sort_by")),
		SortOrder:  entities.SortOrder(params.Get("sort_order")),
		Filters: entities.SearchFilters{
			Role:               splitCSV(params.Get("role")),
			Status:             splitCSV(params.Get("status")),
			VerificationStatus: splitCSV(params.Get("verification_status")),
			Category:           splitCSV(params.Get("category")),
			EventStatus:        splitCSV(params.Get("event_status")),
			Location:           params.Get("location"),
			Sport:              params.Get("sport"),
		},
	}

	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return query, errors.New("limit must be a number")
		}
		query.Limit = n
	}

	if raw := params.Get("fuzzy"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return query, errors.New("fuzzy must be a boolean")
		}
		query.FuzzyMatching = &enabled
	}

	minRaw, maxRaw := params.Get("min_age"), params.Get("max_age")
	if minRaw != "" || maxRaw != "" {
		ageRange := &entities.AgeRange{Min: 0, Max: 150}
		if minRaw != "" {
			n, err := strconv.Atoi(minRaw)
			if err != nil {
				return query, errors.New("min_age must be a number")
			}
			ageRange.Min = n
		}
		if maxRaw != "" {
			n, err := strconv.Atoi(maxRaw)
			if err != nil {
				return query, errors.New("max_age must be a number")
			}
			ageRange.Max = n
		}
		query.Filters.AgeRange = ageRange
	}

	startRaw, endRaw := params.Get("start_date"), params.Get("end_date")
	if startRaw != "" || endRaw != "" {
		dateRange := &entities.DateRangeFilter{Field: params.Get("date_field")}
		if startRaw != "" {
			t, ok := parseTimeParam(startRaw)
			if !ok {
				return query, errors.New("start_date must be an RFC3339 timestamp or YYYY-MM-DD")
			}
			dateRange.Start = t
		}
		if endRaw != "" {
			t, ok := parseTimeParam(endRaw)
			if !ok {
				return query, errors.New("end_date must be an RFC3339 timestamp or YYYY-MM-DD")
			}
			dateRange.End = t
		}
		query.Filters.DateRange = dateRange
	}

	return query, nil
}

// splitCSV splits a comma-separated parameter into trimmed values.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseTimeParam accepts RFC3339 timestamps and bare dates.
func parseTimeParam(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
