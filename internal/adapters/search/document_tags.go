package search

import (
	"strings"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

const MaxIndexedTerms = 100

// BuildDocumentTags collects the lowercased searchable terms of a
// document: its primary text, role, sport, location and categories.
// Duplicates are dropped and the list is capped at MaxIndexedTerms.
func BuildDocumentTags(doc *entities.SearchDocument) []string {
	if doc == nil {
		return nil
	}

	set := make(map[string]struct{})
	add(set, doc.DisplayName, doc.Title, doc.Role, doc.Sport, doc.Location)
	add(set, doc.Categories...)

	return toSlice(set, MaxIndexedTerms)
}

func add(set map[string]struct{}, terms ...string) {
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
}

func toSlice(set map[string]struct{}, limit int) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
		if len(result) >= limit {
			break
		}
	}
	return result
}
