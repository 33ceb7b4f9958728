package evaluation

import (
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

// GoldenQuery is one labeled query with the results it should surface.
// Expected results name documents by display text rather than ID, because
// document IDs are generated at seed time and change across reseeds.
type GoldenQuery struct {
	ID         string              `json:"id"`
	Query      string              `json:"query"`
	SearchType entities.SearchType `json:"search_type"`
	Expected   []string            `json:"expected_results"`
	Difficulty string              `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID     string
	Query       string
	SearchType  entities.SearchType
	RecallAt10  float64
	MRRAt10     float64
	NDCGAt10    float64
	ResultCount int
	Retrieved   []string
	Latency     time.Duration
}

// EvalSummary holds aggregate metrics across all golden queries. Averages
// cover scored queries only; failed ones are counted separately.
type EvalSummary struct {
	TotalQueries    int
	FailedQueries   int
	AvgRecallAt10   float64
	AvgMRRAt10      float64
	AvgNDCGAt10     float64
	AvgLatency      time.Duration
	QueriesWithHits int // queries that returned at least 1 result
	ByType          map[entities.SearchType]*TypeSummary
}

// TypeSummary holds metrics grouped by search type.
type TypeSummary struct {
	Count         int
	AvgRecallAt10 float64
	AvgMRRAt10    float64
	AvgNDCGAt10   float64
}
