package search

import "sort"

// Fielder exposes named text fields of a value to fuzzy matching.
type Fielder interface {
	FieldValue(field string) string
}

// ObjectMatch is one matched value with its best score and the fields that
// produced a match.
type ObjectMatch[T Fielder] struct {
	Item          T
	Score         float64
	MatchedFields []string
}

// SearchObjects matches query against the named fields of every item and
// returns the hits ordered by best field score, input order on ties. Empty
// field values never match.
func SearchObjects[T Fielder](m *Matcher, query string, items []T, fields []string) []ObjectMatch[T] {
	var out []ObjectMatch[T]
	for _, item := range items {
		best := 0.0
		var matched []string
		for _, field := range fields {
			value := item.FieldValue(field)
			if value == "" {
				continue
			}
			r := m.IsMatch(query, value)
			if !r.Matched {
				continue
			}
			matched = append(matched, field)
			if r.Score > best {
				best = r.Score
			}
		}
		if len(matched) == 0 {
			continue
		}
		out = append(out, ObjectMatch[T]{Item: item, Score: best, MatchedFields: matched})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
