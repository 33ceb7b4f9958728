package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/amaplayer/search-service/internal/application/services"
	"github.com/amaplayer/search-service/internal/domain/entities"
)

// maxImportBytes caps the accepted saved-search import payload.
const maxImportBytes = 1 << 20

// SavedSearchProvider defines the saved-search operations used by the
// handler.
type SavedSearchProvider interface {
	SaveSearch(ctx context.Context, userID, name string, query entities.SearchQuery) (*entities.SavedSearch, error)
	GetSavedSearches(ctx context.Context, userID string) ([]*entities.SavedSearch, error)
	GetSavedSearchByID(ctx context.Context, userID, id string) (*entities.SavedSearch, error)
	UpdateSavedSearch(ctx context.Context, userID, id string, update services.SavedSearchUpdate) (*entities.SavedSearch, error)
	DeleteSavedSearch(ctx context.Context, userID, id string) error
	MarkSearchAsUsed(ctx context.Context, userID, id string) error
	GetFrequentlyUsedSearches(ctx context.Context, userID string, limit int) ([]*entities.SavedSearch, error)
	ClearAllSavedSearches(ctx context.Context, userID string) error
	ExportSavedSearches(ctx context.Context, userID string) (string, error)
	ImportSavedSearches(ctx context.Context, userID, data string, overwrite bool) (int, error)
	CheckCompatibility(ctx context.Context, userID, id string) (*services.SavedSearchCompatibility, error)
	RepairSavedSearch(ctx context.Context, userID, id string) (*entities.SavedSearch, error)
}

// SavedSearchHandler handles saved search HTTP requests.
type SavedSearchHandler struct {
	service SavedSearchProvider
}

// NewSavedSearchHandler creates a new saved search handler.
func NewSavedSearchHandler(service SavedSearchProvider) *SavedSearchHandler {
	return &SavedSearchHandler{service: service}
}

// requestUserID resolves the acting user from the X-User-ID header set by
// the platform gateway. Absent means anonymous.
func requestUserID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return "anonymous"
}

type saveSearchRequest struct {
	Name  string               `json:"name"`
	Query entities.SearchQuery `json:"query"`
}

// ListSavedSearches handles GET /api/saved-searches
func (h *SavedSearchHandler) ListSavedSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := h.service.GetSavedSearches(r.Context(), requestUserID(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if searches == nil {
		searches = []*entities.SavedSearch{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"saved_searches": searches,
		"count":          len(searches),
	})
}

// CreateSavedSearch handles POST /api/saved-searches
func (h *SavedSearchHandler) CreateSavedSearch(w http.ResponseWriter, r *http.Request) {
	var payload saveSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	saved, err := h.service.SaveSearch(r.Context(), requestUserID(r), payload.Name, payload.Query)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, saved)
}

// ClearSavedSearches handles DELETE /api/saved-searches
func (h *SavedSearchHandler) ClearSavedSearches(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAllSavedSearches(r.Context(), requestUserID(r)); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// GetSavedSearch handles GET /api/saved-searches/{id}
func (h *SavedSearchHandler) GetSavedSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "saved search ID is required")
		return
	}

	saved, err := h.service.GetSavedSearchByID(r.Context(), requestUserID(r), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if saved == nil {
		respondWithError(w, http.StatusNotFound, "saved search not found")
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

// UpdateSavedSearch handles PATCH /api/saved-searches/{id}
func (h *SavedSearchHandler) UpdateSavedSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "saved search ID is required")
		return
	}

	var update services.SavedSearchUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	saved, err := h.service.UpdateSavedSearch(r.Context(), requestUserID(r), id, update)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

// DeleteSavedSearch handles DELETE /api/saved-searches/{id}
func (h *SavedSearchHandler) DeleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "saved search ID is required")
		return
	}

	if err := h.service.DeleteSavedSearch(r.Context(), requestUserID(r), id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// MarkSavedSearchUsed handles POST /api/saved-searches/{id}/used
func (h *SavedSearchHandler) MarkSavedSearchUsed(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "saved search ID is required")
		return
	}

	if err := h.service.MarkSearchAsUsed(r.Context(), requestUserID(r), id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// ListFrequentSavedSearches handles GET /api/saved-searches/frequent
func (h *SavedSearchHandler) ListFrequentSavedSearches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	searches, err := h.service.GetFrequentlyUsedSearches(r.Context(), requestUserID(r), limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if searches == nil {
		searches = []*entities.SavedSearch{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"saved_searches": searches,
		"count":          len(searches),
	})
}

// GetSavedSearchCompatibility handles GET /api/saved-searches/{id}/compatibility
func (h *SavedSearchHandler) GetSavedSearchCompatibility(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "saved search ID is required")
		return
	}

	report, err := h.service.CheckCompatibility(r.Context(), requestUserID(r), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// RepairSavedSearch handles POST /api/saved-searches/{id}/repair
func (h *SavedSearchHandler) RepairSavedSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "saved search ID is required")
		return
	}

	saved, err := h.service.RepairSavedSearch(r.Context(), requestUserID(r), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

// ExportSavedSearches handles GET /api/saved-searches/export
func (h *SavedSearchHandler) ExportSavedSearches(w http.ResponseWriter, r *http.Request) {
	payload, err := h.service.ExportSavedSearches(r.Context(), requestUserID(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="saved-searches.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(payload))
}

// ImportSavedSearches handles POST /api/saved-searches/import
func (h *SavedSearchHandler) ImportSavedSearches(w http.ResponseWriter, r *http.Request) {
	overwrite := false
	if raw := r.URL.Query().Get("overwrite"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "overwrite must be a boolean")
			return
		}
		overwrite = parsed
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	imported, err := h.service.ImportSavedSearches(r.Context(), requestUserID(r), string(body), overwrite)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"imported": imported,
	})
}
