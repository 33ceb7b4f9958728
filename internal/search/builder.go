package search

import (
	"fmt"
	"strings"

	apperrors "github.com/amaplayer/search-service/pkg/errors"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

// AutoCompleteLimit is the fixed page size of autocomplete queries.
const AutoCompleteLimit = 10

// Query cost weights. The cost is a UI hint, monotonic in filters, term
// complexity and page size.
const (
	costBase      = 1.0
	costPerFilter = 0.5
	costTextTerm  = 2.0
	costBoolean   = 3.0
)

// typeFilterScope declares which type-specific filter dimensions apply to
// each search type. Status, location, sport and date range apply to every
// type, so they are not listed.
type typeFilterScope struct {
	role        bool
	verify      bool
	eventStatus bool
	category    bool
	age         bool
}

var filterScopes = map[entities.SearchType]typeFilterScope{
	entities.SearchTypeUsers:  {role: true, verify: true, age: true},
	entities.SearchTypeVideos: {category: true},
	entities.SearchTypeEvents: {eventStatus: true, category: true},
	entities.SearchTypeAll:    {role: true, verify: true, eventStatus: true, category: true, age: true},
}

// dateRangeFields are the timestamp columns a date range filter may target.
var dateRangeFields = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"starts_at":  {},
}

// Builder compiles sanitized search queries into the backend-neutral Query
// model. It owns the per-type constraint mapping and the validation rules.
type Builder struct{}

// NewBuilder creates a query builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// TextField returns the searchable text column of a search type.
func (b *Builder) TextField(t entities.SearchType) string {
	switch t {
	case entities.SearchTypeUsers:
		return "display_name"
	case entities.SearchTypeVideos, entities.SearchTypeEvents:
		return "title"
	}
	return "search_text"
}

// Build compiles the query, converting the first validation violation into
// a validation error. The cursor, when present, continues a previous page.
func (b *Builder) Build(q entities.SearchQuery, cursor *Cursor) (*Query, error) {
	if result := b.Validate(q); !result.Valid {
		return nil, apperrors.NewValidationError(result.Errors[0])
	}

	out := &Query{
		DocType: q.SearchType,
		Limit:   q.Limit,
		Cursor:  cursor,
	}

	if term := strings.TrimSpace(q.Term); term != "" {
		out.Constraints = append(out.Constraints, Constraint{
			Field: b.TextField(q.SearchType),
			Op:    OpPrefix,
			Value: strings.ToLower(term),
		})
	}

	b.applyFilters(out, q)
	out.Sort = b.sortFor(q)
	return out, nil
}

// BuildAutoComplete compiles the fixed-shape autocomplete query: a prefix
// constraint on the type's text field, ascending, capped at
// AutoCompleteLimit.
func (b *Builder) BuildAutoComplete(prefix string, t entities.SearchType) (*Query, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, apperrors.NewValidationError("autocomplete prefix is required")
	}
	if !t.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported search type: %q", t))
	}
	field := b.TextField(t)
	return &Query{
		DocType: t,
		Constraints: []Constraint{
			{Field: field, Op: OpPrefix, Value: strings.ToLower(prefix)},
		},
		Sort:  Sort{Field: field, Descending: false},
		Limit: AutoCompleteLimit,
	}, nil
}

// BooleanQueryBranch is one compiled branch of a boolean search, tagged
// with the operator that folds its results into the combined set.
type BooleanQueryBranch struct {
	Query *Query
	Op    BooleanOp
}

// BuildBoolean compiles a query whose term may contain boolean operators
// into one branch per parsed term, each carrying the full filter set. A
// term without operators compiles to exactly one OR branch. Branches are
// combined client-side, so cursors do not apply to them.
func (b *Builder) BuildBoolean(q entities.SearchQuery) ([]BooleanQueryBranch, error) {
	if !ContainsBooleanOperators(q.Term) {
		compiled, err := b.Build(q, nil)
		if err != nil {
			return nil, err
		}
		return []BooleanQueryBranch{{Query: compiled, Op: BoolOr}}, nil
	}

	parsed := ParseBooleanQuery(q.Term)
	if len(parsed.Branches) == 0 {
		return nil, apperrors.NewValidationError("boolean query contains no search terms")
	}

	branches := make([]BooleanQueryBranch, 0, len(parsed.Branches))
	for _, branch := range parsed.Branches {
		branchQuery := q
		branchQuery.Term = branch.Term
		compiled, err := b.Build(branchQuery, nil)
		if err != nil {
			return nil, err
		}
		branches = append(branches, BooleanQueryBranch{Query: compiled, Op: branch.Op})
	}
	return branches, nil
}

// Validate checks the query without failing: callers get every violation
// at once. Build applies the same rules and raises on the first one.
func (b *Builder) Validate(q entities.SearchQuery) ValidationResult {
	var errs []string

	if strings.TrimSpace(q.Term) == "" && !q.HasActiveFilters() {
		errs = append(errs, "search term or at least one filter is required")
	}
	if !q.SearchType.IsValid() {
		errs = append(errs, fmt.Sprintf("unsupported search type: %q", q.SearchType))
	}
	if q.Limit != 0 && (q.Limit < 1 || q.Limit > entities.MaxSearchLimit) {
		errs = append(errs, fmt.Sprintf("limit must be between 1 and %d", entities.MaxSearchLimit))
	}
	if dr := q.Filters.DateRange; dr != nil && !dr.Start.IsZero() && !dr.End.IsZero() && dr.Start.After(dr.End) {
		errs = append(errs, "date range start must not be after end")
	}
	if ar := q.Filters.AgeRange; ar != nil && ar.Min > ar.Max {
		errs = append(errs, "age range min must not exceed max")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Cost estimates how expensive a query is to execute, for UI hinting. The
// estimate never decreases when filters are added, the limit grows or
// boolean operators appear in the term.
func (b *Builder) Cost(q entities.SearchQuery) float64 {
	cost := costBase
	cost += costPerFilter * float64(q.ActiveFilterCount())
	if term := strings.TrimSpace(q.Term); term != "" {
		cost += costTextTerm
		if ContainsBooleanOperators(term) {
			cost += costBoolean
		}
	}
	if q.Limit > 0 {
		cost += float64(q.Limit) / 100.0
	}
	return cost
}

func (b *Builder) applyFilters(out *Query, q entities.SearchQuery) {
	scope := filterScopes[q.SearchType]
	f := q.Filters

	if scope.role && len(f.Role) > 0 {
		out.Constraints = append(out.Constraints, Constraint{Field: "role", Op: OpIn, Value: f.Role})
	}
	if active, ok := statusToIsActive(f.Status); ok {
		out.Constraints = append(out.Constraints, Constraint{Field: "is_active", Op: OpEqual, Value: active})
	}
	if scope.verify && len(f.VerificationStatus) > 0 {
		out.Constraints = append(out.Constraints, Constraint{Field: "verification_status", Op: OpIn, Value: f.VerificationStatus})
	}
	if scope.eventStatus && len(f.EventStatus) > 0 {
		out.Constraints = append(out.Constraints, Constraint{Field: "event_status", Op: OpIn, Value: f.EventStatus})
	}
	if scope.category && len(f.Category) > 0 {
		out.Constraints = append(out.Constraints, Constraint{Field: "categories", Op: OpContains, Value: f.Category})
	}
	if f.Location != "" {
		out.Constraints = append(out.Constraints, Constraint{Field: "location", Op: OpPrefix, Value: strings.ToLower(f.Location)})
	}
	if f.Sport != "" {
		out.Constraints = append(out.Constraints, Constraint{Field: "sport", Op: OpEqual, Value: strings.ToLower(f.Sport)})
	}
	if scope.age && f.AgeRange != nil {
		out.Constraints = append(out.Constraints,
			Constraint{Field: "age", Op: OpGTE, Value: f.AgeRange.Min},
			Constraint{Field: "age", Op: OpLTE, Value: f.AgeRange.Max},
		)
	}
	if dr := f.DateRange; dr != nil {
		field := dr.Field
		if _, ok := dateRangeFields[field]; !ok {
			field = entities.DefaultDateRangeField
		}
		if !dr.Start.IsZero() {
			out.Constraints = append(out.Constraints, Constraint{Field: field, Op: OpGTE, Value: dr.Start})
		}
		if !dr.End.IsZero() {
			out.Constraints = append(out.Constraints, Constraint{Field: field, Op: OpLTE, Value: dr.End})
		}
	}
}

func (b *Builder) sortFor(q entities.SearchQuery) Sort {
	descending := q.SortOrder != entities.SortAsc
	switch q.SortBy {
	case entities.SortByName:
		return Sort{Field: b.TextField(q.SearchType), Descending: descending}
	case entities.SortByDate:
		return Sort{Field: "created_at", Descending: descending}
	case entities.SortByStatus:
		return Sort{Field: "is_active", Descending: descending}
	}
	// Relevance ordering happens after retrieval; the store returns
	// newest first.
	return Sort{Field: "created_at", Descending: true}
}

// statusToIsActive maps the status filter onto the boolean is_active
// column: only "active", only "inactive", or no constraint when the set
// names both or neither.
func statusToIsActive(status []string) (bool, bool) {
	var active, inactive bool
	for _, s := range status {
		switch strings.ToLower(s) {
		case "active":
			active = true
		case "inactive":
			inactive = true
		}
	}
	if active == inactive {
		return false, false
	}
	return active, true
}
