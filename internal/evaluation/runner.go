package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

// evalDepth is the K every ranking metric is computed at.
const evalDepth = 10

// SearchProvider is the slice of the search service the runner needs.
type SearchProvider interface {
	Search(ctx context.Context, query entities.SearchQuery, cursorToken string) (*entities.SearchResponse, error)
}

// Runner scores a search backend against a set of golden queries.
type Runner struct {
	search SearchProvider
}

func NewRunner(search SearchProvider) *Runner {
	return &Runner{search: search}
}

// Run executes every golden query and aggregates ranking metrics. Queries
// that fail to execute count toward FailedQueries and stay out of the
// averages. Retrieved and expected texts are compared case-insensitively.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByType:       make(map[entities.SearchType]*TypeSummary),
	}

	for _, gq := range queries {
		start := time.Now()
		response, err := r.search.Search(ctx, entities.SearchQuery{
			Term:       gq.Query,
			SearchType: gq.SearchType,
			Limit:      evalDepth,
		}, "")
		latency := time.Since(start)

		if err != nil {
			summary.FailedQueries++
			continue
		}

		retrieved := make([]string, 0, len(response.Results))
		for _, doc := range response.Results {
			retrieved = append(retrieved, strings.ToLower(doc.SearchText()))
		}
		expected := lowerAll(gq.Expected)

		r.updateSummary(summary, EvalResult{
			QueryID:     gq.ID,
			Query:       gq.Query,
			SearchType:  gq.SearchType,
			RecallAt10:  RecallAtK(expected, retrieved, evalDepth),
			MRRAt10:     MRRAtK(expected, retrieved, evalDepth),
			NDCGAt10:    NDCGAtK(expected, retrieved, evalDepth),
			ResultCount: response.Count,
			Retrieved:   retrieved,
			Latency:     latency,
		})
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgRecallAt10 += res.RecallAt10
	s.AvgMRRAt10 += res.MRRAt10
	s.AvgNDCGAt10 += res.NDCGAt10
	s.AvgLatency += res.Latency
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}

	if _, ok := s.ByType[res.SearchType]; !ok {
		s.ByType[res.SearchType] = &TypeSummary{}
	}
	ts := s.ByType[res.SearchType]
	ts.Count++
	ts.AvgRecallAt10 += res.RecallAt10
	ts.AvgMRRAt10 += res.MRRAt10
	ts.AvgNDCGAt10 += res.NDCGAt10
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	scored := s.TotalQueries - s.FailedQueries
	if scored > 0 {
		n := float64(scored)
		s.AvgRecallAt10 /= n
		s.AvgMRRAt10 /= n
		s.AvgNDCGAt10 /= n
		s.AvgLatency /= time.Duration(scored)
	}

	for _, ts := range s.ByType {
		if ts.Count > 0 {
			n := float64(ts.Count)
			ts.AvgRecallAt10 /= n
			ts.AvgMRRAt10 /= n
			ts.AvgNDCGAt10 /= n
		}
	}
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}
