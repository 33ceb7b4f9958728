package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
	"github.com/google/uuid"
)

// savedSearchNameRe accepts letters, digits, spaces and hyphens, 1 to 100
// characters.
var savedSearchNameRe = regexp.MustCompile(`^[a-zA-Z0-9 -]{1,100}$`)

// SavedSearchUpdate carries the fields of a partial saved search update.
// Nil fields stay untouched.
type SavedSearchUpdate struct {
	Name  *string               `json:"name,omitempty"`
	Query *entities.SearchQuery `json:"query,omitempty"`
}

// SavedSearchService handles business logic for saved searches. The
// repository stores each user's collection as one unit, so concurrent
// writers race with last-write-wins semantics. The document repository
// backs the compatibility checks with the filter values currently live.
type SavedSearchService struct {
	repo      repositories.SavedSearchRepository
	documents repositories.DocumentSearchRepository
}

// NewSavedSearchService creates a new saved search service
func NewSavedSearchService(repo repositories.SavedSearchRepository, documents repositories.DocumentSearchRepository) *SavedSearchService {
	return &SavedSearchService{repo: repo, documents: documents}
}

// SaveSearch saves a query under a name. Saving an existing name updates
// that entry in place, keeping its ID and creation time. New entries are
// rejected once the user holds MaxSavedSearches.
func (s *SavedSearchService) SaveSearch(ctx context.Context, userID, name string, query entities.SearchQuery) (*entities.SavedSearch, error) {
	if err := validateSavedSearchName(name); err != nil {
		return nil, err
	}
	query = query.Sanitize()
	if !query.ValidForSaving() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("saved searches need a term of at most %d characters or at least one active filter", entities.MaxSavedTermLength))
	}

	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, existing := range searches {
		if existing.Name == name {
			existing.Query = query
			existing.UseCount++
			if err := s.repo.SaveAll(ctx, userID, searches); err != nil {
				return nil, err
			}
			return existing, nil
		}
	}

	if len(searches) >= entities.MaxSavedSearches {
		return nil, apperrors.NewValidationError(fmt.Sprintf("saved search limit of %d reached", entities.MaxSavedSearches))
	}

	saved := &entities.SavedSearch{
		ID:        uuid.New().String(),
		Name:      name,
		Query:     query,
		CreatedAt: time.Now(),
		UseCount:  1,
	}
	searches = append(searches, saved)

	if err := s.repo.SaveAll(ctx, userID, searches); err != nil {
		return nil, err
	}
	return saved, nil
}

// GetSavedSearches retrieves every saved search of a user
func (s *SavedSearchService) GetSavedSearches(ctx context.Context, userID string) ([]*entities.SavedSearch, error) {
	return s.repo.GetAll(ctx, userID)
}

// GetSavedSearchByID retrieves one saved search, nil when it does not
// exist
func (s *SavedSearchService) GetSavedSearchByID(ctx context.Context, userID, id string) (*entities.SavedSearch, error) {
	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, saved := range searches {
		if saved.ID == id {
			return saved, nil
		}
	}
	return nil, nil
}

// UpdateSavedSearch applies a partial update to a saved search
func (s *SavedSearchService) UpdateSavedSearch(ctx context.Context, userID, id string, update SavedSearchUpdate) (*entities.SavedSearch, error) {
	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	var target *entities.SavedSearch
	for _, saved := range searches {
		if saved.ID == id {
			target = saved
			break
		}
	}
	if target == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("saved search %s not found", id))
	}

	if update.Name != nil {
		if err := validateSavedSearchName(*update.Name); err != nil {
			return nil, err
		}
		for _, other := range searches {
			if other.ID != id && other.Name == *update.Name {
				return nil, apperrors.NewConflictError(fmt.Sprintf("a saved search named %q already exists", *update.Name))
			}
		}
		target.Name = *update.Name
	}

	if update.Query != nil {
		target.Query = update.Query.Sanitize()
	}

	if err := s.repo.SaveAll(ctx, userID, searches); err != nil {
		return nil, err
	}
	return target, nil
}

// DeleteSavedSearch removes a saved search by ID
func (s *SavedSearchService) DeleteSavedSearch(ctx context.Context, userID, id string) error {
	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return err
	}

	kept := searches[:0]
	for _, saved := range searches {
		if saved.ID != id {
			kept = append(kept, saved)
		}
	}
	if len(kept) == len(searches) {
		return apperrors.NewNotFoundError(fmt.Sprintf("saved search %s not found", id))
	}

	return s.repo.SaveAll(ctx, userID, kept)
}

// MarkSearchAsUsed records one use of a saved search. Unknown IDs are a
// silent no-op so result clicks never fail a request.
func (s *SavedSearchService) MarkSearchAsUsed(ctx context.Context, userID, id string) error {
	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return err
	}

	for _, saved := range searches {
		if saved.ID == id {
			now := time.Now()
			saved.LastUsed = &now
			saved.UseCount++
			return s.repo.SaveAll(ctx, userID, searches)
		}
	}
	return nil
}

// GetFrequentlyUsedSearches returns the user's used searches ordered by
// use count, most recently used first on ties
func (s *SavedSearchService) GetFrequentlyUsedSearches(ctx context.Context, userID string, limit int) ([]*entities.SavedSearch, error) {
	if limit <= 0 {
		limit = 10
	}

	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	used := make([]*entities.SavedSearch, 0, len(searches))
	for _, saved := range searches {
		if saved.UseCount > 0 {
			used = append(used, saved)
		}
	}

	sort.SliceStable(used, func(i, j int) bool {
		if used[i].UseCount != used[j].UseCount {
			return used[i].UseCount > used[j].UseCount
		}
		return lastUsedAfter(used[i].LastUsed, used[j].LastUsed)
	})

	if len(used) > limit {
		used = used[:limit]
	}
	return used, nil
}

// ClearAllSavedSearches removes every saved search of a user
func (s *SavedSearchService) ClearAllSavedSearches(ctx context.Context, userID string) error {
	return s.repo.DeleteAll(ctx, userID)
}

// ExportSavedSearches renders the user's saved searches as a JSON array
func (s *SavedSearchService) ExportSavedSearches(ctx context.Context, userID string) (string, error) {
	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(searches, "", "  ")
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode saved searches", err)
	}
	return string(data), nil
}

// ImportSavedSearches merges a JSON array of saved searches into the
// user's collection. Invalid entries are skipped; name conflicts are
// skipped unless overwrite is set, in which case the existing entry's
// query is replaced. Returns the number of imported entries.
func (s *SavedSearchService) ImportSavedSearches(ctx context.Context, userID, data string, overwrite bool) (int, error) {
	var incoming []*entities.SavedSearch
	if err := json.Unmarshal([]byte(data), &incoming); err != nil {
		return 0, apperrors.NewValidationError("import payload must be a JSON array of saved searches")
	}

	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return 0, err
	}

	byName := make(map[string]*entities.SavedSearch, len(searches))
	for _, saved := range searches {
		byName[saved.Name] = saved
	}

	imported := 0
	for _, entry := range incoming {
		if entry == nil || validateSavedSearchName(entry.Name) != nil {
			continue
		}
		query := entry.Query.Sanitize()
		if !query.ValidForSaving() {
			continue
		}

		if existing, ok := byName[entry.Name]; ok {
			if !overwrite {
				continue
			}
			existing.Query = query
			imported++
			continue
		}

		if len(searches) >= entities.MaxSavedSearches {
			continue
		}

		saved := &entities.SavedSearch{
			ID:        entry.ID,
			Name:      entry.Name,
			Query:     query,
			CreatedAt: entry.CreatedAt,
			LastUsed:  entry.LastUsed,
			UseCount:  entry.UseCount,
		}
		if saved.ID == "" {
			saved.ID = uuid.New().String()
		}
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = time.Now()
		}

		searches = append(searches, saved)
		byName[saved.Name] = saved
		imported++
	}

	if imported > 0 {
		if err := s.repo.SaveAll(ctx, userID, searches); err != nil {
			return 0, err
		}
	}
	return imported, nil
}

// statusFilterValues are the values the status filter maps onto the
// is_active column. They are fixed by that mapping, not enumerated.
var statusFilterValues = []string{"active", "inactive"}

// SavedSearchCompatibility reports whether a saved search's filters still
// reference values the platform offers. Incompatible reports carry the
// repaired query alongside the issues.
type SavedSearchCompatibility struct {
	ID         string                `json:"id"`
	Compatible bool                  `json:"compatible"`
	Issues     []string              `json:"issues,omitempty"`
	FixedQuery *entities.SearchQuery `json:"fixed_query,omitempty"`
}

// FilterOptions enumerates the values currently offered for each
// enumerated filter dimension. Roles and verification statuses come from
// user documents, categories span every type, event statuses come from
// event documents.
func (s *SavedSearchService) FilterOptions(ctx context.Context) (entities.FilterOptions, error) {
	options := entities.FilterOptions{Statuses: statusFilterValues}

	lookups := []struct {
		docType entities.SearchType
		field   string
		dest    *[]string
	}{
		{entities.SearchTypeUsers, "role", &options.Roles},
		{entities.SearchTypeUsers, "verification_status", &options.VerificationStatuses},
		{entities.SearchTypeAll, "categories", &options.Categories},
		{entities.SearchTypeEvents, "event_status", &options.EventStatuses},
	}
	for _, l := range lookups {
		values, err := s.documents.DistinctValues(ctx, l.docType, l.field)
		if err != nil {
			return entities.FilterOptions{}, err
		}
		*l.dest = values
	}
	return options, nil
}

// CheckCompatibility checks one saved search against the current filter
// options. Stale filter values produce one issue per dimension plus a
// repaired copy of the query.
func (s *SavedSearchService) CheckCompatibility(ctx context.Context, userID, id string) (*SavedSearchCompatibility, error) {
	saved, err := s.GetSavedSearchByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("saved search %s not found", id))
	}

	options, err := s.FilterOptions(ctx)
	if err != nil {
		return nil, err
	}

	report := &SavedSearchCompatibility{ID: saved.ID, Compatible: true}
	if issues := saved.Query.CheckCompatibility(options); len(issues) > 0 {
		fixed := saved.Query.FixCompatibility(options)
		report.Compatible = false
		report.Issues = issues
		report.FixedQuery = &fixed
	}
	return report, nil
}

// RepairSavedSearch strips filter values that are no longer offered from a
// saved search and persists the repaired query.
func (s *SavedSearchService) RepairSavedSearch(ctx context.Context, userID, id string) (*entities.SavedSearch, error) {
	searches, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	var target *entities.SavedSearch
	for _, saved := range searches {
		if saved.ID == id {
			target = saved
			break
		}
	}
	if target == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("saved search %s not found", id))
	}

	options, err := s.FilterOptions(ctx)
	if err != nil {
		return nil, err
	}
	target.Query = target.Query.FixCompatibility(options)

	if err := s.repo.SaveAll(ctx, userID, searches); err != nil {
		return nil, err
	}
	return target, nil
}

func validateSavedSearchName(name string) error {
	if strings.TrimSpace(name) == "" || !savedSearchNameRe.MatchString(name) {
		return apperrors.NewValidationError("saved search name must be 1-100 characters of letters, digits, spaces or hyphens")
	}
	return nil
}

// lastUsedAfter orders non-nil timestamps before nil ones, later first.
func lastUsedAfter(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != nil
	}
	return a.After(*b)
}
