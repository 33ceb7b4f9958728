package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amaplayer/search-service/internal/api/handlers"
	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/domain/entities"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSavedSearchService struct {
	saved         *entities.SavedSearch
	searches      []*entities.SavedSearch
	exported      string
	imported      int
	compatibility *services.SavedSearchCompatibility
	err           error

	lastUserID    string
	lastID        string
	lastName      string
	lastQuery     entities.SearchQuery
	lastUpdate    services.SavedSearchUpdate
	lastLimit     int
	lastData      string
	lastOverwrite bool
	cleared       bool
	deleted       bool
	used          bool
}

func (s *stubSavedSearchService) SaveSearch(ctx context.Context, userID, name string, query entities.SearchQuery) (*entities.SavedSearch, error) {
	s.lastUserID, s.lastName, s.lastQuery = userID, name, query
	return s.saved, s.err
}

func (s *stubSavedSearchService) GetSavedSearches(ctx context.Context, userID string) ([]*entities.SavedSearch, error) {
	s.lastUserID = userID
	return s.searches, s.err
}

func (s *stubSavedSearchService) GetSavedSearchByID(ctx context.Context, userID, id string) (*entities.SavedSearch, error) {
	s.lastUserID, s.lastID = userID, id
	return s.saved, s.err
}

func (s *stubSavedSearchService) UpdateSavedSearch(ctx context.Context, userID, id string, update services.SavedSearchUpdate) (*entities.SavedSearch, error) {
	s.lastUserID, s.lastID, s.lastUpdate = userID, id, update
	return s.saved, s.err
}

func (s *stubSavedSearchService) DeleteSavedSearch(ctx context.Context, userID, id string) error {
	s.lastUserID, s.lastID, s.deleted = userID, id, true
	return s.err
}

func (s *stubSavedSearchService) MarkSearchAsUsed(ctx context.Context, userID, id string) error {
	s.lastUserID, s.lastID, s.used = userID, id, true
	return s.err
}

func (s *stubSavedSearchService) GetFrequentlyUsedSearches(ctx context.Context, userID string, limit int) ([]*entities.SavedSearch, error) {
	s.lastUserID, s.lastLimit = userID, limit
	return s.searches, s.err
}

func (s *stubSavedSearchService) ClearAllSavedSearches(ctx context.Context, userID string) error {
	s.lastUserID, s.cleared = userID, true
	return s.err
}

func (s *stubSavedSearchService) ExportSavedSearches(ctx context.Context, userID string) (string, error) {
	s.lastUserID = userID
	return s.exported, s.err
}

func (s *stubSavedSearchService) ImportSavedSearches(ctx context.Context, userID, data string, overwrite bool) (int, error) {
	s.lastUserID, s.lastData, s.lastOverwrite = userID, data, overwrite
	return s.imported, s.err
}

func (s *stubSavedSearchService) CheckCompatibility(ctx context.Context, userID, id string) (*services.SavedSearchCompatibility, error) {
	s.lastUserID, s.lastID = userID, id
	return s.compatibility, s.err
}

func (s *stubSavedSearchService) RepairSavedSearch(ctx context.Context, userID, id string) (*entities.SavedSearch, error) {
	s.lastUserID, s.lastID = userID, id
	return s.saved, s.err
}

func TestSavedSearchHandler_Create(t *testing.T) {
	service := &stubSavedSearchService{saved: &entities.SavedSearch{ID: "ss-1", Name: "My athletes"}}
	handler := handlers.NewSavedSearchHandler(service)

	body := `{"name":"My athletes","query":{"term":"messi","search_type":"users"}}`
	req := httptest.NewRequest("POST", "/api/saved-searches", strings.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()

	handler.CreateSavedSearch(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user-1", service.lastUserID)
	assert.Equal(t, "My athletes", service.lastName)
	assert.Equal(t, "messi", service.lastQuery.Term)

	var saved entities.SavedSearch
	require.NoError(t, json.NewDecoder(w.Body).Decode(&saved))
	assert.Equal(t, "ss-1", saved.ID)
}

func TestSavedSearchHandler_Create_AnonymousWithoutHeader(t *testing.T) {
	service := &stubSavedSearchService{saved: &entities.SavedSearch{ID: "ss-1"}}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("POST", "/api/saved-searches", strings.NewReader(`{"name":"n","query":{}}`))
	w := httptest.NewRecorder()
	handler.CreateSavedSearch(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "anonymous", service.lastUserID)
}

func TestSavedSearchHandler_Create_ValidationError(t *testing.T) {
	service := &stubSavedSearchService{err: apperrors.NewValidationError("saved search name must be 1-100 characters")}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("POST", "/api/saved-searches", strings.NewReader(`{"name":"!!","query":{}}`))
	w := httptest.NewRecorder()
	handler.CreateSavedSearch(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSavedSearchHandler_Create_BadPayload(t *testing.T) {
	handler := handlers.NewSavedSearchHandler(&stubSavedSearchService{})

	req := httptest.NewRequest("POST", "/api/saved-searches", strings.NewReader(`{broken`))
	w := httptest.NewRecorder()
	handler.CreateSavedSearch(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSavedSearchHandler_List(t *testing.T) {
	service := &stubSavedSearchService{searches: []*entities.SavedSearch{
		{ID: "ss-1", Name: "first"},
		{ID: "ss-2", Name: "second"},
	}}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("GET", "/api/saved-searches", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	handler.ListSavedSearches(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SavedSearches []*entities.SavedSearch `json:"saved_searches"`
		Count         int                     `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.SavedSearches, 2)
}

func TestSavedSearchHandler_List_EmptyIsAnArrayNotNull(t *testing.T) {
	handler := handlers.NewSavedSearchHandler(&stubSavedSearchService{})

	req := httptest.NewRequest("GET", "/api/saved-searches", nil)
	w := httptest.NewRecorder()
	handler.ListSavedSearches(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"saved_searches":[]`)
}

func TestSavedSearchHandler_Get(t *testing.T) {
	service := &stubSavedSearchService{saved: &entities.SavedSearch{ID: "ss-1", Name: "mine"}}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("GET", "/api/saved-searches/ss-1", nil)
	req.SetPathValue("id", "ss-1")
	w := httptest.NewRecorder()
	handler.GetSavedSearch(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ss-1", service.lastID)
}

func TestSavedSearchHandler_Get_Missing(t *testing.T) {
	handler := handlers.NewSavedSearchHandler(&stubSavedSearchService{})

	req := httptest.NewRequest("GET", "/api/saved-searches/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	handler.GetSavedSearch(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSavedSearchHandler_Update(t *testing.T) {
	service := &stubSavedSearchService{saved: &entities.SavedSearch{ID: "ss-1", Name: "renamed"}}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("PATCH", "/api/saved-searches/ss-1", strings.NewReader(`{"name":"renamed"}`))
	req.SetPathValue("id", "ss-1")
	w := httptest.NewRecorder()
	handler.UpdateSavedSearch(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, service.lastUpdate.Name)
	assert.Equal(t, "renamed", *service.lastUpdate.Name)
	assert.Nil(t, service.lastUpdate.Query)
}

func TestSavedSearchHandler_Update_Conflict(t *testing.T) {
	service := &stubSavedSearchService{err: apperrors.NewConflictError("a saved search with this name already exists")}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("PATCH", "/api/saved-searches/ss-1", strings.NewReader(`{"name":"taken"}`))
	req.SetPathValue("id", "ss-1")
	w := httptest.NewRecorder()
	handler.UpdateSavedSearch(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSavedSearchHandler_Delete(t *testing.T) {
	service := &stubSavedSearchService{}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("DELETE", "/api/saved-searches/ss-1", nil)
	req.SetPathValue("id", "ss-1")
	w := httptest.NewRecorder()
	handler.DeleteSavedSearch(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, service.deleted)
}

func TestSavedSearchHandler_Delete_NotFound(t *testing.T) {
	service := &stubSavedSearchService{err: apperrors.NewNotFoundError("saved search not found")}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("DELETE", "/api/saved-searches/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	handler.DeleteSavedSearch(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSavedSearchHandler_MarkUsed(t *testing.T) {
	service := &stubSavedSearchService{}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("POST", "/api/saved-searches/ss-1/used", nil)
	req.SetPathValue("id", "ss-1")
	w := httptest.NewRecorder()
	handler.MarkSavedSearchUsed(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, service.used)
	assert.Equal(t, "ss-1", service.lastID)
}

func TestSavedSearchHandler_Clear(t *testing.T) {
	service := &stubSavedSearchService{}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("DELETE", "/api/saved-searches", nil)
	req.Header.Set("X-User-ID", "user-9")
	w := httptest.NewRecorder()
	handler.ClearSavedSearches(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, service.cleared)
	assert.Equal(t, "user-9", service.lastUserID)
}

func TestSavedSearchHandler_Frequent(t *testing.T) {
	service := &stubSavedSearchService{searches: []*entities.SavedSearch{{ID: "ss-1", UseCount: 7}}}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("GET", "/api/saved-searches/frequent?limit=3", nil)
	w := httptest.NewRecorder()
	handler.ListFrequentSavedSearches(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, service.lastLimit)
}

func TestSavedSearchHandler_Compatibility(t *testing.T) {
	fixed := entities.SearchQuery{Term: "roster", Filters: entities.SearchFilters{Role: []string{"athlete"}}}
	service := &stubSavedSearchService{compatibility: &services.SavedSearchCompatibility{
		ID:         "ss-1",
		Compatible: false,
		Issues:     []string{"unknown role values: scout"},
		FixedQuery: &fixed,
	}}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("GET", "/api/saved-searches/ss-1/compatibility", nil)
	req.SetPathValue("id", "ss-1")
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	handler.GetSavedSearchCompatibility(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ss-1", service.lastID)
	assert.Equal(t, "user-1", service.lastUserID)

	var report services.SavedSearchCompatibility
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.False(t, report.Compatible)
	assert.Equal(t, []string{"unknown role values: scout"}, report.Issues)
	require.NotNil(t, report.FixedQuery)
	assert.Equal(t, []string{"athlete"}, report.FixedQuery.Filters.Role)
}

func TestSavedSearchHandler_Compatibility_NotFound(t *testing.T) {
	service := &stubSavedSearchService{err: apperrors.NewNotFoundError("saved search not found")}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("GET", "/api/saved-searches/nope/compatibility", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	handler.GetSavedSearchCompatibility(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSavedSearchHandler_Repair(t *testing.T) {
	service := &stubSavedSearchService{saved: &entities.SavedSearch{
		ID:    "ss-1",
		Name:  "roster",
		Query: entities.SearchQuery{Filters: entities.SearchFilters{Role: []string{"athlete"}}},
	}}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("POST", "/api/saved-searches/ss-1/repair", nil)
	req.SetPathValue("id", "ss-1")
	w := httptest.NewRecorder()
	handler.RepairSavedSearch(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ss-1", service.lastID)

	var saved entities.SavedSearch
	require.NoError(t, json.NewDecoder(w.Body).Decode(&saved))
	assert.Equal(t, []string{"athlete"}, saved.Query.Filters.Role)
}

func TestSavedSearchHandler_Export(t *testing.T) {
	service := &stubSavedSearchService{exported: `[{"id":"ss-1"}]`}
	handler := handlers.NewSavedSearchHandler(service)

	req := httptest.NewRequest("GET", "/api/saved-searches/export", nil)
	w := httptest.NewRecorder()
	handler.ExportSavedSearches(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "saved-searches.json")
	assert.Equal(t, `[{"id":"ss-1"}]`, w.Body.String())
}

func TestSavedSearchHandler_Import(t *testing.T) {
	service := &stubSavedSearchService{imported: 2}
	handler := handlers.NewSavedSearchHandler(service)

	body := `[{"name":"one","query":{}},{"name":"two","query":{}}]`
	req := httptest.NewRequest("POST", "/api/saved-searches/import?overwrite=true", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ImportSavedSearches(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, service.lastOverwrite)
	assert.Equal(t, body, service.lastData)

	var resp map[string]int
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp["imported"])
}

func TestSavedSearchHandler_Import_BadOverwriteParam(t *testing.T) {
	handler := handlers.NewSavedSearchHandler(&stubSavedSearchService{})

	req := httptest.NewRequest("POST", "/api/saved-searches/import?overwrite=maybe", strings.NewReader(`[]`))
	w := httptest.NewRecorder()
	handler.ImportSavedSearches(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
