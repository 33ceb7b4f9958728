package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/domain/entities"
)

// defaultAnalyticsWindow is the reporting range when the caller gives none.
const defaultAnalyticsWindow = 7 * 24 * time.Hour

// AnalyticsProvider defines the analytics operations used by the handler.
type AnalyticsProvider interface {
	GetSearchAnalytics(ctx context.Context, dateRange entities.DateRange) *entities.SearchAnalytics
	GetPerformanceMetrics(ctx context.Context, dateRange entities.DateRange) *entities.SearchPerformanceMetrics
	TrackSuggestionClick(ctx context.Context, originalQuery, selectedSuggestion string, allSuggestions []string)
}

// AnalyticsExporter produces downloadable analytics reports.
type AnalyticsExporter interface {
	Export(ctx context.Context, opts services.ExportOptions, onProgress services.ProgressFunc) (*services.ExportArtifact, error)
}

// AnalyticsHandler handles analytics HTTP requests.
type AnalyticsHandler struct {
	analytics AnalyticsProvider
	exporter  AnalyticsExporter
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics AnalyticsProvider, exporter AnalyticsExporter) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, exporter: exporter}
}

// GetSearchAnalytics handles GET /api/analytics/search
func (h *AnalyticsHandler) GetSearchAnalytics(w http.ResponseWriter, r *http.Request) {
	dateRange, err := dateRangeFromParams(r.URL.Query())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, h.analytics.GetSearchAnalytics(r.Context(), dateRange))
}

// GetPerformanceMetrics handles GET /api/analytics/performance
func (h *AnalyticsHandler) GetPerformanceMetrics(w http.ResponseWriter, r *http.Request) {
	dateRange, err := dateRangeFromParams(r.URL.Query())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, h.analytics.GetPerformanceMetrics(r.Context(), dateRange))
}

// ExportAnalytics handles GET /api/analytics/export
func (h *AnalyticsHandler) ExportAnalytics(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	dateRange, err := dateRangeFromParams(params)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := params.Get("format")
	if format == "" {
		format = "csv"
	}

	opts := services.ExportOptions{
		Format:    format,
		DateRange: dateRange,
		Sections:  sectionsFromParam(params.Get("sections")),
	}
	if raw := params.Get("include_performance"); raw != "" {
		opts.IncludePerformanceMetrics, _ = strconv.ParseBool(raw)
	}
	if raw := params.Get("include_breakdown"); raw != "" {
		opts.IncludeDetailedBreakdown, _ = strconv.ParseBool(raw)
	}

	artifact, err := h.exporter.Export(r.Context(), opts, nil)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

type suggestionClickRequest struct {
	OriginalQuery      string   `json:"original_query"`
	SelectedSuggestion string   `json:"selected_suggestion"`
	Suggestions        []string `json:"suggestions"`
}

// TrackSuggestionClick handles POST /api/analytics/suggestion-click
func (h *AnalyticsHandler) TrackSuggestionClick(w http.ResponseWriter, r *http.Request) {
	var payload suggestionClickRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(payload.SelectedSuggestion) == "" {
		respondWithError(w, http.StatusBadRequest, "selected_suggestion is required")
		return
	}

	ctx := services.WithUserAgent(r.Context(), r.UserAgent())
	h.analytics.TrackSuggestionClick(ctx, payload.OriginalQuery, payload.SelectedSuggestion, payload.Suggestions)

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// dateRangeFromParams reads the start/end reporting range, defaulting to
// the trailing week. A bare end date covers that whole day.
func dateRangeFromParams(params url.Values) (entities.DateRange, error) {
	now := time.Now().UTC()
	dateRange := entities.DateRange{Start: now.Add(-defaultAnalyticsWindow), End: now}

	if raw := params.Get("start"); raw != "" {
		t, ok := parseTimeParam(raw)
		if !ok {
			return dateRange, errors.New("start must be an RFC3339 timestamp or YYYY-MM-DD")
		}
		dateRange.Start = t
	}
	if raw := params.Get("end"); raw != "" {
		t, ok := parseTimeParam(raw)
		if !ok {
			return dateRange, errors.New("end must be an RFC3339 timestamp or YYYY-MM-DD")
		}
		if len(raw) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		dateRange.End = t
	}
	return dateRange, nil
}

// sectionsFromParam parses the comma-separated section list; an empty
// parameter selects every section.
func sectionsFromParam(raw string) services.SectionFlags {
	if strings.TrimSpace(raw) == "" {
		return services.SectionFlags{
			SummaryMetrics:    true,
			TopSearchTerms:    true,
			ZeroResultQueries: true,
			SearchTrends:      true,
		}
	}

	var flags services.SectionFlags
	for _, section := range strings.Split(raw, ",") {
		switch strings.TrimSpace(section) {
		case "summary":
			flags.SummaryMetrics = true
		case "top_terms":
			flags.TopSearchTerms = true
		case "zero_results":
			flags.ZeroResultQueries = true
		case "trends":
			flags.SearchTrends = true
		}
	}
	return flags
}
