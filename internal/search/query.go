package search

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

// Op is a constraint operator understood by the document store adapters.
type Op string

const (
	OpEqual    Op = "equal"
	OpIn       Op = "in"
	OpContains Op = "contains"
	OpGTE      Op = "gte"
	OpLTE      Op = "lte"
	OpLT       Op = "lt"
	OpPrefix   Op = "prefix"
)

// PrefixSentinel terminates a prefix range: every string starting with the
// prefix sorts inside [prefix, prefix+PrefixSentinel).
const PrefixSentinel = string(rune(0x10FFFF))

// Constraint is one field condition of a compiled query.
type Constraint struct {
	Field string
	Op    Op
	Value any
}

// Sort orders a compiled query's results.
type Sort struct {
	Field      string
	Descending bool
}

// Cursor marks the last-seen row of the previous page for keyset
// pagination: the sort field's value plus the row id as tiebreaker.
type Cursor struct {
	SortValue any    `json:"sort_value"`
	ID        string `json:"id"`
}

// Query is the backend-neutral compiled form of a SearchQuery. Adapters
// translate it into their store's native query.
type Query struct {
	DocType     entities.SearchType
	Constraints []Constraint
	Sort        Sort
	Limit       int
	Cursor      *Cursor
}

// ValidationResult is the advisory outcome of validating a search query.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// EncodeCursor renders a cursor as an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// yields a nil cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor token: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("malformed cursor token: %w", err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("malformed cursor token: missing id")
	}
	return &c, nil
}
