package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
)

// Export progress stages, reported in a fixed order.
const (
	StagePreparing   = "preparing"
	StageFetching    = "fetching"
	StageProcessing  = "processing"
	StageGenerating  = "generating"
	StageDownloading = "downloading"
	StageComplete    = "complete"
)

// Severity thresholds for the CSV report tiers.
const (
	zeroResultHighCount   = 10
	zeroResultMediumCount = 5
	criticalLatencyMs     = 3000
)

// SectionFlags selects which sections the CSV report includes.
type SectionFlags struct {
	SummaryMetrics    bool `json:"summary_metrics"`
	TopSearchTerms    bool `json:"top_search_terms"`
	ZeroResultQueries bool `json:"zero_result_queries"`
	SearchTrends      bool `json:"search_trends"`
}

// ExportOptions controls one analytics export.
type ExportOptions struct {
	Format                    string
	DateRange                 entities.DateRange
	Sections                  SectionFlags
	IncludePerformanceMetrics bool
	IncludeDetailedBreakdown  bool
}

// ExportArtifact is a generated report ready to be written to disk or
// served as a download.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportProgress is one progress notification of a running export.
type ExportProgress struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// ProgressFunc receives export progress notifications.
type ProgressFunc func(ExportProgress)

// AnalyticsExportService renders analytics aggregates into downloadable
// CSV or JSON reports.
type AnalyticsExportService struct {
	analytics *SearchAnalyticsService
}

// NewAnalyticsExportService creates a new analytics export service
func NewAnalyticsExportService(analytics *SearchAnalyticsService) *AnalyticsExportService {
	return &AnalyticsExportService{analytics: analytics}
}

// Export generates a report in the requested format, reporting progress
// through the stages preparing, fetching, processing, generating,
// downloading and complete. A fetch or generation failure is reported via
// a final complete notification before the error returns. onProgress may
// be nil.
func (s *AnalyticsExportService) Export(ctx context.Context, opts ExportOptions, onProgress ProgressFunc) (*ExportArtifact, error) {
	report := func(stage string, percent int, message string) {
		if onProgress != nil {
			onProgress(ExportProgress{Stage: stage, Percent: percent, Message: message})
		}
	}
	fail := func(err error) (*ExportArtifact, error) {
		report(StageComplete, 100, fmt.Sprintf("Export failed: %v", err))
		return nil, err
	}

	report(StagePreparing, 0, "Preparing export")

	switch opts.Format {
	case "csv", "json", "xlsx":
	default:
		return fail(apperrors.NewValidationError(fmt.Sprintf("unsupported export format %q", opts.Format)))
	}

	report(StageFetching, 20, "Fetching analytics data")

	analytics, err := s.analytics.searchAnalytics(ctx, opts.DateRange)
	if err != nil {
		return fail(err)
	}

	var performance *entities.SearchPerformanceMetrics
	if opts.IncludePerformanceMetrics {
		performance, err = s.analytics.performanceMetrics(ctx, opts.DateRange)
		if err != nil {
			return fail(err)
		}
	}

	report(StageProcessing, 50, "Processing analytics data")

	var breakdown *detailedBreakdown
	if opts.IncludeDetailedBreakdown {
		breakdown = buildDetailedBreakdown(analytics, performance)
	}

	report(StageGenerating, 80, "Generating report")

	var data []byte
	contentType := "text/csv"
	extension := "csv"
	switch opts.Format {
	case "json":
		data, err = renderJSONReport(opts, analytics, performance, breakdown)
		contentType = "application/json"
		extension = "json"
	default:
		// xlsx currently emits CSV bytes under a csv name and mime type.
		data, err = renderCSVReport(opts, analytics, performance)
	}
	if err != nil {
		return fail(err)
	}

	report(StageDownloading, 90, "Preparing download")

	artifact := &ExportArtifact{
		Filename: fmt.Sprintf("search-analytics-%s-to-%s.%s",
			opts.DateRange.Start.Format("2006-01-02"),
			opts.DateRange.End.Format("2006-01-02"),
			extension),
		ContentType: contentType,
		Data:        data,
	}

	report(StageComplete, 100, "Export complete")
	return artifact, nil
}

// renderCSVReport writes the selected sections as a CSV document with one
// blank line between sections.
func renderCSVReport(opts ExportOptions, analytics *entities.SearchAnalytics, performance *entities.SearchPerformanceMetrics) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	writeRows := func(rows [][]string) {
		for _, row := range rows {
			_ = w.Write(row)
		}
	}

	writeRows([][]string{
		{"Search Analytics Report"},
		{"Period", opts.DateRange.Start.Format("2006-01-02"), opts.DateRange.End.Format("2006-01-02")},
		{},
	})

	if opts.Sections.SummaryMetrics {
		writeRows([][]string{
			{"Summary Metrics"},
			{"Metric", "Value"},
			{"Total Searches", strconv.Itoa(analytics.TotalSearches)},
			{"Average Response Time (ms)", fmt.Sprintf("%.2f", analytics.AverageResponseTimeMs)},
			{},
		})
	}

	if opts.Sections.TopSearchTerms {
		rows := [][]string{
			{"Top Search Terms"},
			{"Rank", "Term", "Count", "Percentage"},
		}
		for i, term := range analytics.TopSearchTerms {
			percentage := 0.0
			if analytics.TotalSearches > 0 {
				percentage = float64(term.Count) / float64(analytics.TotalSearches) * 100
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1), term.Term, strconv.Itoa(term.Count), fmt.Sprintf("%.1f%%", percentage),
			})
		}
		rows = append(rows, []string{})
		writeRows(rows)
	}

	if opts.Sections.ZeroResultQueries {
		rows := [][]string{
			{"Zero Result Queries"},
			{"Rank", "Query", "Count", "Severity"},
		}
		for i, term := range analytics.ZeroResultQueries {
			rows = append(rows, []string{
				strconv.Itoa(i + 1), term.Term, strconv.Itoa(term.Count), zeroResultSeverity(term.Count),
			})
		}
		rows = append(rows, []string{})
		writeRows(rows)
	}

	if opts.Sections.SearchTrends {
		rows := [][]string{
			{"Search Trends"},
			{"Date", "Count", "Day of Week"},
		}
		for _, point := range analytics.SearchTrends {
			rows = append(rows, []string{point.Date, strconv.Itoa(point.Count), dayOfWeek(point.Date)})
		}
		rows = append(rows, []string{})
		writeRows(rows)
	}

	if performance != nil {
		writeRows([][]string{
			{"Performance Metrics"},
			{"Metric", "Value"},
			{"Total Events", strconv.Itoa(performance.TotalSearches)},
			{"Average Response Time (ms)", fmt.Sprintf("%.2f", performance.AverageResponseTimeMs)},
			{"Error Rate", fmt.Sprintf("%.2f%%", performance.ErrorRate*100)},
			{"Cache Hit Rate", fmt.Sprintf("%.2f%%", performance.CacheHitRate*100)},
			{},
			{"Slow Queries"},
			{"Query", "Response Time (ms)", "Severity"},
		})
		for _, slow := range performance.SlowQueries {
			_ = w.Write([]string{slow.Term, strconv.FormatInt(slow.ResponseTimeMs, 10), slowQuerySeverity(slow.ResponseTimeMs)})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.NewInternalError("failed to write csv report", err)
	}
	return buf.Bytes(), nil
}

type exportInfo struct {
	GeneratedAt string       `json:"generated_at"`
	Format      string       `json:"format"`
	RangeStart  string       `json:"range_start"`
	RangeEnd    string       `json:"range_end"`
	Sections    SectionFlags `json:"sections"`
}

type jsonReport struct {
	ExportInfo         exportInfo                         `json:"export_info"`
	Analytics          *entities.SearchAnalytics          `json:"analytics"`
	PerformanceMetrics *entities.SearchPerformanceMetrics `json:"performance_metrics"`
	DetailedBreakdown  *detailedBreakdown                 `json:"detailed_breakdown"`
}

func renderJSONReport(opts ExportOptions, analytics *entities.SearchAnalytics, performance *entities.SearchPerformanceMetrics, breakdown *detailedBreakdown) ([]byte, error) {
	body := jsonReport{
		ExportInfo: exportInfo{
			GeneratedAt: time.Now().Format(time.RFC3339),
			Format:      opts.Format,
			RangeStart:  opts.DateRange.Start.Format("2006-01-02"),
			RangeEnd:    opts.DateRange.End.Format("2006-01-02"),
			Sections:    opts.Sections,
		},
		Analytics:          analytics,
		PerformanceMetrics: performance,
		DetailedBreakdown:  breakdown,
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode json report", err)
	}
	return data, nil
}

func zeroResultSeverity(count int) string {
	switch {
	case count >= zeroResultHighCount:
		return "High"
	case count >= zeroResultMediumCount:
		return "Medium"
	default:
		return "Low"
	}
}

func slowQuerySeverity(responseTimeMs int64) string {
	if responseTimeMs > criticalLatencyMs {
		return "Critical"
	}
	return "Slow"
}

func dayOfWeek(date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return parsed.Weekday().String()
}

// Detailed breakdown, computed from the fetched aggregates.

type termLengthDistribution struct {
	Short  int `json:"short"`
	Medium int `json:"medium"`
	Long   int `json:"long"`
}

type termAnalysis struct {
	UniqueTerms            int                    `json:"unique_terms"`
	AverageSearchesPerTerm float64                `json:"average_searches_per_term"`
	TopTermsConcentration  float64                `json:"top_terms_concentration"`
	TermLengthDistribution termLengthDistribution `json:"term_length_distribution"`
	SearchPatterns         string                 `json:"search_patterns"`
}

type temporalAnalysis struct {
	AverageDailySearches float64        `json:"average_daily_searches"`
	PeakDailySearches    int            `json:"peak_daily_searches"`
	MinDailySearches     int            `json:"min_daily_searches"`
	Volatility           float64        `json:"volatility"`
	WeekdayPattern       map[string]int `json:"weekday_pattern"`
	GrowthTrend          string         `json:"growth_trend"`
}

type performanceAnalysis struct {
	Grade           string   `json:"grade"`
	Bottlenecks     []string `json:"bottlenecks"`
	Recommendations []string `json:"recommendations"`
}

type detailedBreakdown struct {
	SearchTermAnalysis  termAnalysis         `json:"search_term_analysis"`
	TemporalAnalysis    temporalAnalysis     `json:"temporal_analysis"`
	PerformanceAnalysis *performanceAnalysis `json:"performance_analysis"`
}

func buildDetailedBreakdown(analytics *entities.SearchAnalytics, performance *entities.SearchPerformanceMetrics) *detailedBreakdown {
	breakdown := &detailedBreakdown{
		SearchTermAnalysis: buildTermAnalysis(analytics),
		TemporalAnalysis:   buildTemporalAnalysis(analytics.SearchTrends),
	}
	if performance != nil {
		breakdown.PerformanceAnalysis = buildPerformanceAnalysis(performance)
	}
	return breakdown
}

func buildTermAnalysis(analytics *entities.SearchAnalytics) termAnalysis {
	terms := analytics.TopSearchTerms
	analysis := termAnalysis{UniqueTerms: len(terms)}
	if len(terms) == 0 {
		analysis.SearchPatterns = "no data"
		return analysis
	}

	topTotal := 0
	for _, term := range terms {
		topTotal += term.Count
		switch length := len(term.Term); {
		case length <= 4:
			analysis.TermLengthDistribution.Short++
		case length <= 12:
			analysis.TermLengthDistribution.Medium++
		default:
			analysis.TermLengthDistribution.Long++
		}
	}

	analysis.AverageSearchesPerTerm = float64(topTotal) / float64(len(terms))
	if analytics.TotalSearches > 0 {
		analysis.TopTermsConcentration = float64(topTotal) / float64(analytics.TotalSearches) * 100
	}

	dist := analysis.TermLengthDistribution
	half := len(terms) / 2
	switch {
	case dist.Short > half:
		analysis.SearchPatterns = "mostly short queries"
	case dist.Medium > half:
		analysis.SearchPatterns = "mostly medium queries"
	case dist.Long > half:
		analysis.SearchPatterns = "mostly long queries"
	default:
		analysis.SearchPatterns = "mixed query lengths"
	}
	return analysis
}

func buildTemporalAnalysis(trends []entities.TrendPoint) temporalAnalysis {
	analysis := temporalAnalysis{
		WeekdayPattern: map[string]int{},
		GrowthTrend:    "stable",
	}
	if len(trends) == 0 {
		return analysis
	}

	total := 0
	peak := trends[0].Count
	minCount := trends[0].Count
	for _, point := range trends {
		total += point.Count
		if point.Count > peak {
			peak = point.Count
		}
		if point.Count < minCount {
			minCount = point.Count
		}
		if day := dayOfWeek(point.Date); day != "" {
			analysis.WeekdayPattern[day] += point.Count
		}
	}

	mean := float64(total) / float64(len(trends))
	analysis.AverageDailySearches = mean
	analysis.PeakDailySearches = peak
	analysis.MinDailySearches = minCount

	if mean > 0 {
		variance := 0.0
		for _, point := range trends {
			diff := float64(point.Count) - mean
			variance += diff * diff
		}
		analysis.Volatility = math.Sqrt(variance/float64(len(trends))) / mean
	}

	half := len(trends) / 2
	if half > 0 {
		firstHalf, secondHalf := 0, 0
		for _, point := range trends[:half] {
			firstHalf += point.Count
		}
		for _, point := range trends[len(trends)-half:] {
			secondHalf += point.Count
		}
		base := math.Max(float64(firstHalf), 1)
		change := (float64(secondHalf) - float64(firstHalf)) / base
		switch {
		case change > 0.1:
			analysis.GrowthTrend = "increasing"
		case change < -0.1:
			analysis.GrowthTrend = "decreasing"
		}
	}
	return analysis
}

func buildPerformanceAnalysis(performance *entities.SearchPerformanceMetrics) *performanceAnalysis {
	score := 100.0
	var bottlenecks, recommendations []string

	if performance.AverageResponseTimeMs > 1000 {
		score -= 30
		bottlenecks = append(bottlenecks, "High average response time")
		recommendations = append(recommendations, "Add database indexes for the most common sort orders or tighten query constraints")
	} else if performance.AverageResponseTimeMs > 500 {
		score -= 15
	}

	if performance.ErrorRate > 0.10 {
		score -= 30
		bottlenecks = append(bottlenecks, "High error rate")
		recommendations = append(recommendations, "Investigate recurring search failures in the event log")
	} else if performance.ErrorRate > 0.05 {
		score -= 15
	}

	if performance.CacheHitRate < 0.2 {
		score -= 20
		bottlenecks = append(bottlenecks, "Low cache hit rate")
		recommendations = append(recommendations, "Increase cache coverage or expiry for popular queries")
	} else if performance.CacheHitRate < 0.5 {
		score -= 10
	}

	if len(performance.SlowQueries) >= 3 {
		score -= 10
		bottlenecks = append(bottlenecks, "Multiple slow queries detected")
		recommendations = append(recommendations, "Review the slowest queries for missing indexes or oversized result sets")
	}

	analysis := &performanceAnalysis{
		Bottlenecks:     bottlenecks,
		Recommendations: recommendations,
	}
	switch {
	case score >= 90:
		analysis.Grade = "A"
	case score >= 80:
		analysis.Grade = "B"
	case score >= 70:
		analysis.Grade = "C"
	case score >= 60:
		analysis.Grade = "D"
	default:
		analysis.Grade = "F"
	}
	return analysis
}
