package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	"github.com/amaplayer/search-service/internal/search"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
)

// fuzzyRerankFields are the document fields fuzzy re-ranking scores
// against: display name for users, title for videos and events.
var fuzzyRerankFields = []string{"display_name", "title"}

// SearchService orchestrates search execution: it compiles queries through
// the builder, runs them against the document store and records every
// outcome with the analytics service.
type SearchService struct {
	builder     *search.Builder
	documents   repositories.DocumentSearchRepository
	suggestions repositories.SuggestionIndexRepository
	matcher     *search.Matcher
	analytics   *SearchAnalyticsService
}

// NewSearchService creates a new search service. suggestions may be nil;
// autocomplete then runs prefix queries against the document store.
func NewSearchService(
	builder *search.Builder,
	documents repositories.DocumentSearchRepository,
	suggestions repositories.SuggestionIndexRepository,
	matcher *search.Matcher,
	analytics *SearchAnalyticsService,
) *SearchService {
	return &SearchService{
		builder:     builder,
		documents:   documents,
		suggestions: suggestions,
		matcher:     matcher,
		analytics:   analytics,
	}
}

// Search runs a sanitized query against the document store and returns one
// page of results. Boolean terms fan out into one query per branch and are
// combined client-side, so they never carry a next cursor. Every search is
// tracked in the background, failures included.
func (s *SearchService) Search(ctx context.Context, query entities.SearchQuery, cursorToken string) (*entities.SearchResponse, error) {
	query = query.Sanitize()
	started := time.Now()

	docs, nextCursor, err := s.execute(ctx, query, cursorToken)
	if err != nil {
		if s.analytics != nil {
			s.analytics.TrackSearchFailure(ctx, query, time.Since(started), err)
		}
		return nil, err
	}

	if query.SortBy == entities.SortByRelevance && query.FuzzyEnabled() && strings.TrimSpace(query.Term) != "" {
		docs = s.rerank(query.Term, docs)
	}

	next := ""
	if nextCursor != nil {
		next = search.EncodeCursor(*nextCursor)
	}

	took := time.Since(started)
	if s.analytics != nil {
		s.analytics.TrackSearch(ctx, query, took, len(docs), false, false)
	}

	results := make([]entities.SearchDocument, len(docs))
	for i, doc := range docs {
		results[i] = *doc
	}
	return &entities.SearchResponse{
		Results:    results,
		Count:      len(results),
		NextCursor: next,
		TookMs:     took.Milliseconds(),
	}, nil
}

func (s *SearchService) execute(ctx context.Context, query entities.SearchQuery, cursorToken string) ([]*entities.SearchDocument, *search.Cursor, error) {
	cursor, err := search.DecodeCursor(cursorToken)
	if err != nil {
		return nil, nil, apperrors.NewValidationError("invalid cursor token")
	}

	if search.ContainsBooleanOperators(query.Term) {
		docs, err := s.executeBoolean(ctx, query)
		return docs, nil, err
	}

	compiled, err := s.builder.Build(query, cursor)
	if err != nil {
		return nil, nil, err
	}
	return s.documents.Execute(ctx, compiled)
}

// executeBoolean runs every branch of a boolean query and folds the result
// IDs left to right: OR unions, AND intersects, NOT subtracts. The
// combined page is fetched by ID afterwards so documents come back in fold
// order regardless of which branch produced them.
func (s *SearchService) executeBoolean(ctx context.Context, query entities.SearchQuery) ([]*entities.SearchDocument, error) {
	branches, err := s.builder.BuildBoolean(query)
	if err != nil {
		return nil, err
	}

	var ids []string
	members := make(map[string]struct{})
	for _, branch := range branches {
		docs, _, err := s.documents.Execute(ctx, branch.Query)
		if err != nil {
			return nil, err
		}
		branchIDs := make(map[string]struct{}, len(docs))
		for _, doc := range docs {
			branchIDs[doc.ID] = struct{}{}
		}

		switch branch.Op {
		case search.BoolAnd:
			kept := ids[:0]
			for _, id := range ids {
				if _, ok := branchIDs[id]; ok {
					kept = append(kept, id)
				} else {
					delete(members, id)
				}
			}
			ids = kept
		case search.BoolNot:
			kept := ids[:0]
			for _, id := range ids {
				if _, ok := branchIDs[id]; !ok {
					kept = append(kept, id)
				} else {
					delete(members, id)
				}
			}
			ids = kept
		default:
			for _, doc := range docs {
				if _, ok := members[doc.ID]; ok {
					continue
				}
				members[doc.ID] = struct{}{}
				ids = append(ids, doc.ID)
			}
		}
	}

	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > query.Limit {
		ids = ids[:query.Limit]
	}
	return s.documents.GetByIDs(ctx, ids)
}

// rerank reorders a result page by fuzzy score against the query term.
// Documents the matcher rejects keep their store order at the tail; the
// page already passed the store's own matching, so nothing is dropped.
func (s *SearchService) rerank(term string, docs []*entities.SearchDocument) []*entities.SearchDocument {
	if s.matcher == nil || len(docs) < 2 {
		return docs
	}

	matches := search.SearchObjects(s.matcher, term, docs, fuzzyRerankFields)
	ranked := make([]*entities.SearchDocument, 0, len(docs))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		ranked = append(ranked, match.Item)
		seen[match.Item.ID] = struct{}{}
	}
	for _, doc := range docs {
		if _, ok := seen[doc.ID]; !ok {
			ranked = append(ranked, doc)
		}
	}
	return ranked
}

// Suggest returns ranked completions for a prefix. The suggestion index
// serves when wired; otherwise a prefix query runs against the document
// store and completions are scored by similarity to the prefix.
func (s *SearchService) Suggest(ctx context.Context, prefix string, t entities.SearchType, limit int) ([]entities.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if limit <= 0 || limit > search.AutoCompleteLimit {
		limit = search.AutoCompleteLimit
	}

	// BuildAutoComplete validates the prefix and type for both paths.
	compiled, err := s.builder.BuildAutoComplete(prefix, t)
	if err != nil {
		return nil, err
	}

	if s.suggestions != nil {
		out, serr := s.suggestions.Suggest(ctx, prefix, t, limit)
		if serr == nil {
			return out, nil
		}
		log.Warn().Err(serr).Msg("Suggestion index unavailable, falling back to document store")
	}

	docs, _, err := s.documents.Execute(ctx, compiled)
	if err != nil {
		return nil, err
	}

	out := make([]entities.Suggestion, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		text := doc.SearchText()
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		score := 1.0
		if s.matcher != nil {
			score = s.matcher.Similarity(prefix, text)
		}
		out = append(out, entities.Suggestion{Text: text, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Validate checks a query without executing it and estimates its cost for
// client-side hinting. The query is validated as sent, not sanitized.
func (s *SearchService) Validate(q entities.SearchQuery) (search.ValidationResult, float64) {
	return s.builder.Validate(q), s.builder.Cost(q)
}
