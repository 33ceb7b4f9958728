package entities

// SearchResponse is the search payload returned to the caller: one page of
// documents plus the cursor for the next page.
type SearchResponse struct {
	Results    []SearchDocument `json:"results"`
	Count      int              `json:"count"`
	NextCursor string           `json:"next_cursor,omitempty"`
	TookMs     int64            `json:"took_ms"`
}

// Suggestion is a single autocomplete candidate with its ranking score.
type Suggestion struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
