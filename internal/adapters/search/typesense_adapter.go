package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	tsclient "github.com/amaplayer/search-service/internal/infrastructure/clients/typesense"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// TypesenseAdapter implements the suggestion index using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.SuggestionIndexRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// EnsureCollection creates the backing collection when it is missing
func (a *TypesenseAdapter) EnsureCollection(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Suggest returns ranked completions for a prefix. Scores are the hits'
// text match weight normalized against the best hit, so the first
// suggestion always scores 1.0.
func (a *TypesenseAdapter) Suggest(ctx context.Context, prefix string, docType entities.SearchType, limit int) ([]entities.Suggestion, error) {
	if limit <= 0 {
		limit = 10
	}

	filterBy := "is_active:=true"
	if docType != entities.SearchTypeAll {
		filterBy = fmt.Sprintf("is_active:=true && doc_type:=%s", docType)
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(prefix),
		QueryBy:  pointer.String("search_text,tags"),
		FilterBy: pointer.String(filterBy),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.DocumentsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, apperrors.NewExternalError("typesense suggestion query failed", err)
	}
	if result.Hits == nil {
		return nil, nil
	}

	hits := *result.Hits
	seen := make(map[string]struct{}, len(hits))
	var suggestions []entities.Suggestion
	var base float64

	for i, hit := range hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		text, _ := doc["search_text"].(string)
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		score := 1.0 - float64(i)/float64(len(hits))
		if hit.TextMatch != nil && *hit.TextMatch > 0 {
			if base == 0 {
				base = float64(*hit.TextMatch)
			}
			score = float64(*hit.TextMatch) / base
		}

		suggestions = append(suggestions, entities.Suggestion{Text: text, Score: score})
	}

	return suggestions, nil
}

// Index inserts or replaces a document in the suggestion index
func (a *TypesenseAdapter) Index(ctx context.Context, doc *entities.SearchDocument) error {
	document := suggestionDocument(doc)
	if _, err := a.client.Client().Collection(tsclient.DocumentsCollection).Documents().Upsert(ctx, document); err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("failed to index document %s", doc.ID), err)
	}
	return nil
}

// IndexBatch inserts or replaces documents one by one
func (a *TypesenseAdapter) IndexBatch(ctx context.Context, docs []*entities.SearchDocument) error {
	for _, doc := range docs {
		if err := a.Index(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a document from the suggestion index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	if _, err := a.client.Client().Collection(tsclient.DocumentsCollection).Document(id).Delete(ctx); err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("failed to delete document %s from index", id), err)
	}
	return nil
}

// suggestionDocument flattens a search document into the Typesense
// document shape. Optional fields are omitted when empty.
func suggestionDocument(doc *entities.SearchDocument) map[string]interface{} {
	document := map[string]interface{}{
		"id":          doc.ID,
		"doc_type":    string(doc.DocType),
		"search_text": doc.SearchText(),
		"is_active":   doc.IsActive,
		"created_at":  doc.CreatedAt.Unix(),
	}

	if doc.DisplayName != "" {
		document["display_name"] = doc.DisplayName
	}
	if doc.Title != "" {
		document["title"] = doc.Title
	}
	if doc.Role != "" {
		document["role"] = doc.Role
	}
	if doc.Sport != "" {
		document["sport"] = doc.Sport
	}
	if doc.Location != "" {
		document["location"] = doc.Location
	}
	if doc.EventStatus != "" {
		document["event_status"] = doc.EventStatus
	}
	if doc.VerificationStatus != "" {
		document["verification_status"] = doc.VerificationStatus
	}
	if len(doc.Categories) > 0 {
		document["categories"] = doc.Categories
	}
	if tags := BuildDocumentTags(doc); len(tags) > 0 {
		document["tags"] = tags
	}

	return document
}
