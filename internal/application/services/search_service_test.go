package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	"github.com/amaplayer/search-service/internal/search"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentSearchRepository is a mock implementation of DocumentSearchRepository
type MockDocumentSearchRepository struct {
	mock.Mock
}

func (m *MockDocumentSearchRepository) Execute(ctx context.Context, query *search.Query) ([]*entities.SearchDocument, *search.Cursor, error) {
	args := m.Called(ctx, query)
	var docs []*entities.SearchDocument
	if args.Get(0) != nil {
		docs = args.Get(0).([]*entities.SearchDocument)
	}
	var cursor *search.Cursor
	if args.Get(1) != nil {
		cursor = args.Get(1).(*search.Cursor)
	}
	return docs, cursor, args.Error(2)
}

func (m *MockDocumentSearchRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.SearchDocument, error) {
	args := m.Called(ctx, ids)
	var docs []*entities.SearchDocument
	if args.Get(0) != nil {
		docs = args.Get(0).([]*entities.SearchDocument)
	}
	return docs, args.Error(1)
}

func (m *MockDocumentSearchRepository) Index(ctx context.Context, doc *entities.SearchDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentSearchRepository) IndexBatch(ctx context.Context, docs []*entities.SearchDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockDocumentSearchRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentSearchRepository) DistinctValues(ctx context.Context, docType entities.SearchType, field string) ([]string, error) {
	args := m.Called(ctx, docType, field)
	var values []string
	if args.Get(0) != nil {
		values = args.Get(0).([]string)
	}
	return values, args.Error(1)
}

// MockSuggestionIndexRepository is a mock implementation of SuggestionIndexRepository
type MockSuggestionIndexRepository struct {
	mock.Mock
}

func (m *MockSuggestionIndexRepository) Suggest(ctx context.Context, prefix string, docType entities.SearchType, limit int) ([]entities.Suggestion, error) {
	args := m.Called(ctx, prefix, docType, limit)
	var out []entities.Suggestion
	if args.Get(0) != nil {
		out = args.Get(0).([]entities.Suggestion)
	}
	return out, args.Error(1)
}

func (m *MockSuggestionIndexRepository) Index(ctx context.Context, doc *entities.SearchDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockSuggestionIndexRepository) IndexBatch(ctx context.Context, docs []*entities.SearchDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockSuggestionIndexRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSuggestionIndexRepository) EnsureCollection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestSearchService(documents repositories.DocumentSearchRepository, suggestions repositories.SuggestionIndexRepository) (*services.SearchService, *memoryEventRepository) {
	events := &memoryEventRepository{}
	analytics := services.NewSearchAnalyticsService(events, nil)
	svc := services.NewSearchService(search.NewBuilder(), documents, suggestions, search.NewMatcher(search.ProfileDefault), analytics)
	return svc, events
}

func userDoc(id, name string) *entities.SearchDocument {
	return &entities.SearchDocument{ID: id, DocType: entities.SearchTypeUsers, DisplayName: name, IsActive: true}
}

// withPrefix matches a compiled query carrying a prefix constraint with the
// given value, regardless of its other constraints.
func withPrefix(value string) interface{} {
	return mock.MatchedBy(func(q *search.Query) bool {
		for _, c := range q.Constraints {
			if c.Op == search.OpPrefix && c.Value == value {
				return true
			}
		}
		return false
	})
}

func resultIDs(resp *entities.SearchResponse) []string {
	ids := make([]string, len(resp.Results))
	for i, doc := range resp.Results {
		ids[i] = doc.ID
	}
	return ids
}

func TestSearchService_Search(t *testing.T) {
	t.Run("returns one page with an encoded next cursor", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, events := newTestSearchService(documents, nil)

		page := []*entities.SearchDocument{userDoc("u1", "Messi"), userDoc("u2", "Mesut")}
		last := &search.Cursor{SortValue: "2026-05-01T00:00:00Z", ID: "u2"}
		documents.On("Execute", mock.Anything, withPrefix("mes")).Return(page, last, nil)

		resp, err := svc.Search(context.Background(), entities.SearchQuery{Term: "mes", SearchType: entities.SearchTypeUsers}, "")

		require.NoError(t, err)
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, []string{"u1", "u2"}, resultIDs(resp))
		assert.Equal(t, search.EncodeCursor(*last), resp.NextCursor)
		assert.GreaterOrEqual(t, resp.TookMs, int64(0))

		logged := events.await(t, 1)[0]
		assert.Equal(t, entities.EventSearchExecuted, logged.EventType)
		assert.Equal(t, "mes", logged.SearchTerm)
		assert.Equal(t, 2, logged.ResultCount)
		documents.AssertExpectations(t)
	})

	t.Run("reranks relevance pages by fuzzy score keeping unmatched rows at the tail", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, _ := newTestSearchService(documents, nil)

		page := []*entities.SearchDocument{
			userDoc("u1", "Mesi"),
			userDoc("u2", "Messi"),
			userDoc("u3", "Messy"),
			userDoc("u4", "Cristiano Ronaldo"),
		}
		documents.On("Execute", mock.Anything, withPrefix("messi")).Return(page, nil, nil)

		resp, err := svc.Search(context.Background(), entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeUsers}, "")

		require.NoError(t, err)
		// Exact match first, the two distance-1 names keep store order,
		// the unmatched name closes the page.
		assert.Equal(t, []string{"u2", "u1", "u3", "u4"}, resultIDs(resp))
		assert.Empty(t, resp.NextCursor)
	})

	t.Run("keeps store order when fuzzy matching is disabled", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, _ := newTestSearchService(documents, nil)

		page := []*entities.SearchDocument{
			userDoc("u1", "Mesi"),
			userDoc("u2", "Messi"),
		}
		documents.On("Execute", mock.Anything, withPrefix("messi")).Return(page, nil, nil)

		fuzzyOff := false
		query := entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeUsers, FuzzyMatching: &fuzzyOff}
		resp, err := svc.Search(context.Background(), query, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, resultIDs(resp))
	})

	t.Run("rejects a malformed cursor before hitting the store", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, events := newTestSearchService(documents, nil)

		resp, err := svc.Search(context.Background(), entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeUsers}, "%%%")

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.Nil(t, resp)
		documents.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)

		failure := events.await(t, 1)[0]
		assert.Equal(t, entities.EventSearchFailed, failure.EventType)
		assert.Equal(t, string(apperrors.ErrorTypeValidation), failure.ErrorType)
	})

	t.Run("tracks zero result pages", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, events := newTestSearchService(documents, nil)

		documents.On("Execute", mock.Anything, withPrefix("nobody")).Return([]*entities.SearchDocument{}, nil, nil)

		resp, err := svc.Search(context.Background(), entities.SearchQuery{Term: "nobody", SearchType: entities.SearchTypeUsers}, "")

		require.NoError(t, err)
		assert.Equal(t, 0, resp.Count)
		assert.Empty(t, resp.Results)

		logged := events.await(t, 1)[0]
		assert.Equal(t, entities.EventZeroResults, logged.EventType)
	})

	t.Run("tracks failures and propagates the error", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, events := newTestSearchService(documents, nil)

		documents.On("Execute", mock.Anything, mock.Anything).Return(nil, nil, errors.New("connection refused"))

		_, err := svc.Search(context.Background(), entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeUsers}, "")

		require.Error(t, err)
		failure := events.await(t, 1)[0]
		assert.Equal(t, entities.EventSearchFailed, failure.EventType)
		assert.Equal(t, string(apperrors.ErrorTypeInternal), failure.ErrorType)
		assert.Contains(t, failure.ErrorMessage, "connection refused")
	})
}

func TestSearchService_Search_Boolean(t *testing.T) {
	t.Run("folds OR, AND and NOT branches left to right", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, events := newTestSearchService(documents, nil)

		documents.On("Execute", mock.Anything, withPrefix("messi")).
			Return([]*entities.SearchDocument{userDoc("u1", "Messi"), userDoc("u2", "Messi Jr")}, nil, nil)
		documents.On("Execute", mock.Anything, withPrefix("ronaldo")).
			Return([]*entities.SearchDocument{userDoc("u2", "Messi Jr"), userDoc("u3", "Ronaldo")}, nil, nil)
		documents.On("Execute", mock.Anything, withPrefix("injured")).
			Return([]*entities.SearchDocument{userDoc("u3", "Ronaldo")}, nil, nil)
		documents.On("GetByIDs", mock.Anything, []string{"u1", "u2"}).
			Return([]*entities.SearchDocument{userDoc("u1", "Messi"), userDoc("u2", "Messi Jr")}, nil)

		query := entities.SearchQuery{Term: "messi OR ronaldo NOT injured", SearchType: entities.SearchTypeUsers}
		resp, err := svc.Search(context.Background(), query, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, resultIDs(resp))
		assert.Empty(t, resp.NextCursor)
		documents.AssertNumberOfCalls(t, "Execute", 3)

		logged := events.await(t, 1)[0]
		assert.Equal(t, entities.EventSearchExecuted, logged.EventType)
		assert.Equal(t, 2, logged.ResultCount)
		documents.AssertExpectations(t)
	})

	t.Run("intersects AND branches", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, _ := newTestSearchService(documents, nil)

		documents.On("Execute", mock.Anything, withPrefix("messi")).
			Return([]*entities.SearchDocument{userDoc("u1", "Messi"), userDoc("u2", "Messi Jr")}, nil, nil)
		documents.On("Execute", mock.Anything, withPrefix("ronaldo")).
			Return([]*entities.SearchDocument{userDoc("u2", "Messi Jr"), userDoc("u3", "Ronaldo")}, nil, nil)
		documents.On("GetByIDs", mock.Anything, []string{"u2"}).
			Return([]*entities.SearchDocument{userDoc("u2", "Messi Jr")}, nil)

		query := entities.SearchQuery{Term: "messi AND ronaldo", SearchType: entities.SearchTypeUsers}
		resp, err := svc.Search(context.Background(), query, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"u2"}, resultIDs(resp))
	})

	t.Run("returns an empty page when branches cancel out", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, events := newTestSearchService(documents, nil)

		documents.On("Execute", mock.Anything, withPrefix("messi")).
			Return([]*entities.SearchDocument{userDoc("u1", "Messi")}, nil, nil)

		query := entities.SearchQuery{Term: "messi NOT messi", SearchType: entities.SearchTypeUsers}
		resp, err := svc.Search(context.Background(), query, "")

		require.NoError(t, err)
		assert.Equal(t, 0, resp.Count)
		documents.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)

		logged := events.await(t, 1)[0]
		assert.Equal(t, entities.EventZeroResults, logged.EventType)
	})

	t.Run("caps combined results at the query limit", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, _ := newTestSearchService(documents, nil)

		documents.On("Execute", mock.Anything, withPrefix("messi")).
			Return([]*entities.SearchDocument{userDoc("u1", "Messi"), userDoc("u2", "Messi Jr")}, nil, nil)
		documents.On("Execute", mock.Anything, withPrefix("ronaldo")).
			Return([]*entities.SearchDocument{userDoc("u2", "Messi Jr"), userDoc("u3", "Ronaldo")}, nil, nil)
		documents.On("GetByIDs", mock.Anything, []string{"u1", "u2"}).
			Return([]*entities.SearchDocument{userDoc("u1", "Messi"), userDoc("u2", "Messi Jr")}, nil)

		query := entities.SearchQuery{Term: "messi OR ronaldo", SearchType: entities.SearchTypeUsers, Limit: 2}
		resp, err := svc.Search(context.Background(), query, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, resultIDs(resp))
		documents.AssertExpectations(t)
	})
}

func TestSearchService_Suggest(t *testing.T) {
	t.Run("serves from the suggestion index when wired", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		suggestions := new(MockSuggestionIndexRepository)
		svc, _ := newTestSearchService(documents, suggestions)

		want := []entities.Suggestion{{Text: "messi", Score: 42}}
		suggestions.On("Suggest", mock.Anything, "mes", entities.SearchTypeUsers, 5).Return(want, nil)

		out, err := svc.Suggest(context.Background(), " mes ", entities.SearchTypeUsers, 5)

		require.NoError(t, err)
		assert.Equal(t, want, out)
		documents.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("clamps the limit to the autocomplete cap", func(t *testing.T) {
		suggestions := new(MockSuggestionIndexRepository)
		svc, _ := newTestSearchService(new(MockDocumentSearchRepository), suggestions)

		suggestions.On("Suggest", mock.Anything, "mes", entities.SearchTypeAll, search.AutoCompleteLimit).Return(nil, nil)

		out, err := svc.Suggest(context.Background(), "mes", entities.SearchTypeAll, 50)

		require.NoError(t, err)
		assert.Empty(t, out)
		suggestions.AssertExpectations(t)
	})

	t.Run("falls back to the document store when the index errors", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		suggestions := new(MockSuggestionIndexRepository)
		svc, _ := newTestSearchService(documents, suggestions)

		suggestions.On("Suggest", mock.Anything, "mes", entities.SearchTypeUsers, 10).Return(nil, errors.New("typesense unreachable"))
		documents.On("Execute", mock.Anything, withPrefix("mes")).Return([]*entities.SearchDocument{
			userDoc("u1", "Messi"),
			userDoc("u2", "Mesi"),
			userDoc("u3", "messi"),
			userDoc("u4", "Messy Day"),
		}, nil, nil)

		out, err := svc.Suggest(context.Background(), "mes", entities.SearchTypeUsers, 10)

		require.NoError(t, err)
		require.Len(t, out, 3)
		// Deduplicated case-insensitively, then ordered by similarity to
		// the prefix: shorter completions rank first.
		assert.Equal(t, "Mesi", out[0].Text)
		assert.Equal(t, "Messi", out[1].Text)
		assert.Equal(t, "Messy Day", out[2].Text)
		assert.InDelta(t, 0.75, out[0].Score, 0.0001)
		assert.InDelta(t, 0.6, out[1].Score, 0.0001)
		assert.InDelta(t, 0.3333, out[2].Score, 0.001)
	})

	t.Run("serves from the document store when no index is wired", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		svc, _ := newTestSearchService(documents, nil)

		documents.On("Execute", mock.Anything, withPrefix("mes")).Return([]*entities.SearchDocument{userDoc("u1", "Mesi")}, nil, nil)

		out, err := svc.Suggest(context.Background(), "mes", entities.SearchTypeUsers, 10)

		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Mesi", out[0].Text)
	})

	t.Run("rejects a blank prefix", func(t *testing.T) {
		documents := new(MockDocumentSearchRepository)
		suggestions := new(MockSuggestionIndexRepository)
		svc, _ := newTestSearchService(documents, suggestions)

		_, err := svc.Suggest(context.Background(), "   ", entities.SearchTypeUsers, 10)

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		suggestions.AssertNotCalled(t, "Suggest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		documents.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})
}

func TestSearchService_Validate(t *testing.T) {
	svc, _ := newTestSearchService(new(MockDocumentSearchRepository), nil)

	t.Run("flags every violation without sanitizing", func(t *testing.T) {
		result, _ := svc.Validate(entities.SearchQuery{SearchType: "playlists", Limit: 500})

		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 3)
	})

	t.Run("prices boolean terms above plain ones", func(t *testing.T) {
		plain := entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeUsers, Limit: 20}
		boolean := plain
		boolean.Term = "messi AND ronaldo"

		plainResult, plainCost := svc.Validate(plain)
		boolResult, boolCost := svc.Validate(boolean)

		assert.True(t, plainResult.Valid)
		assert.True(t, boolResult.Valid)
		assert.InDelta(t, 3.2, plainCost, 0.0001)
		assert.InDelta(t, 6.2, boolCost, 0.0001)
	})
}
