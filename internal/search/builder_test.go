package search

import (
	"reflect"
	"testing"
	"time"

	apperrors "github.com/amaplayer/search-service/pkg/errors"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

func mustBuild(t *testing.T, q entities.SearchQuery) *Query {
	t.Helper()
	compiled, err := NewBuilder().Build(q, nil)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return compiled
}

func findConstraints(q *Query, field string) []Constraint {
	var out []Constraint
	for _, c := range q.Constraints {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}

func TestBuilder_TextField(t *testing.T) {
	b := NewBuilder()
	cases := []struct {
		searchType entities.SearchType
		want       string
	}{
		{entities.SearchTypeUsers, "display_name"},
		{entities.SearchTypeVideos, "title"},
		{entities.SearchTypeEvents, "title"},
		{entities.SearchTypeAll, "search_text"},
	}
	for _, c := range cases {
		if got := b.TextField(c.searchType); got != c.want {
			t.Errorf("TextField(%s): expected %q, got %q", c.searchType, c.want, got)
		}
	}
}

func TestBuilder_Build_TermBecomesPrefixConstraint(t *testing.T) {
	compiled := mustBuild(t, entities.SearchQuery{
		Term:       "Messi",
		SearchType: entities.SearchTypeUsers,
		Limit:      20,
	})

	cs := findConstraints(compiled, "display_name")
	if len(cs) != 1 {
		t.Fatalf("expected one display_name constraint, got %+v", compiled.Constraints)
	}
	if cs[0].Op != OpPrefix || cs[0].Value != "messi" {
		t.Errorf("expected lowered prefix constraint, got %+v", cs[0])
	}
	if compiled.DocType != entities.SearchTypeUsers {
		t.Errorf("expected users doc type, got %s", compiled.DocType)
	}
	if compiled.Limit != 20 {
		t.Errorf("expected limit 20, got %d", compiled.Limit)
	}
	if compiled.Cursor != nil {
		t.Errorf("expected nil cursor, got %+v", compiled.Cursor)
	}
}

func TestBuilder_Build_UserFilters(t *testing.T) {
	compiled := mustBuild(t, entities.SearchQuery{
		SearchType: entities.SearchTypeUsers,
		Limit:      20,
		Filters: entities.SearchFilters{
			Role:               []string{"athlete", "coach"},
			VerificationStatus: []string{"verified"},
			AgeRange:           &entities.AgeRange{Min: 18, Max: 30},
		},
	})

	roles := findConstraints(compiled, "role")
	if len(roles) != 1 || roles[0].Op != OpIn {
		t.Fatalf("expected one role IN constraint, got %+v", roles)
	}
	if !reflect.DeepEqual(roles[0].Value, []string{"athlete", "coach"}) {
		t.Errorf("unexpected role values: %+v", roles[0].Value)
	}

	if vs := findConstraints(compiled, "verification_status"); len(vs) != 1 || vs[0].Op != OpIn {
		t.Errorf("expected verification_status IN constraint, got %+v", vs)
	}

	ages := findConstraints(compiled, "age")
	if len(ages) != 2 {
		t.Fatalf("expected two age constraints, got %+v", ages)
	}
	if ages[0].Op != OpGTE || ages[0].Value != 18 {
		t.Errorf("expected age >= 18, got %+v", ages[0])
	}
	if ages[1].Op != OpLTE || ages[1].Value != 30 {
		t.Errorf("expected age <= 30, got %+v", ages[1])
	}
}

func TestBuilder_Build_ScopeExcludesForeignFilters(t *testing.T) {
	// Role and event status do not apply to videos; category does.
	compiled := mustBuild(t, entities.SearchQuery{
		SearchType: entities.SearchTypeVideos,
		Limit:      20,
		Filters: entities.SearchFilters{
			Role:        []string{"athlete"},
			EventStatus: []string{"upcoming"},
			Category:    []string{"highlights"},
		},
	})

	if cs := findConstraints(compiled, "role"); len(cs) != 0 {
		t.Errorf("role filter should not apply to videos, got %+v", cs)
	}
	if cs := findConstraints(compiled, "event_status"); len(cs) != 0 {
		t.Errorf("event_status filter should not apply to videos, got %+v", cs)
	}
	cats := findConstraints(compiled, "categories")
	if len(cats) != 1 || cats[0].Op != OpContains {
		t.Fatalf("expected categories CONTAINS constraint, got %+v", cats)
	}
}

func TestBuilder_Build_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		status     []string
		wantActive bool
		wantNone   bool
	}{
		{"active only", []string{"active"}, true, false},
		{"inactive only", []string{"inactive"}, false, false},
		{"both cancel out", []string{"active", "inactive"}, false, true},
		{"unknown values ignored", []string{"pending"}, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			compiled := mustBuild(t, entities.SearchQuery{
				Term:       "messi",
				SearchType: entities.SearchTypeUsers,
				Limit:      20,
				Filters:    entities.SearchFilters{Status: c.status},
			})
			cs := findConstraints(compiled, "is_active")
			if c.wantNone {
				if len(cs) != 0 {
					t.Fatalf("expected no is_active constraint, got %+v", cs)
				}
				return
			}
			if len(cs) != 1 || cs[0].Op != OpEqual {
				t.Fatalf("expected one is_active equality constraint, got %+v", cs)
			}
			if cs[0].Value != c.wantActive {
				t.Errorf("expected is_active=%v, got %+v", c.wantActive, cs[0].Value)
			}
		})
	}
}

func TestBuilder_Build_LocationAndSport(t *testing.T) {
	compiled := mustBuild(t, entities.SearchQuery{
		SearchType: entities.SearchTypeAll,
		Limit:      20,
		Filters: entities.SearchFilters{
			Location: "Berlin",
			Sport:    "Football",
		},
	})

	locs := findConstraints(compiled, "location")
	if len(locs) != 1 || locs[0].Op != OpPrefix || locs[0].Value != "berlin" {
		t.Errorf("expected lowered location prefix constraint, got %+v", locs)
	}
	sports := findConstraints(compiled, "sport")
	if len(sports) != 1 || sports[0].Op != OpEqual || sports[0].Value != "football" {
		t.Errorf("expected lowered sport equality constraint, got %+v", sports)
	}
}

func TestBuilder_Build_DateRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	compiled := mustBuild(t, entities.SearchQuery{
		SearchType: entities.SearchTypeEvents,
		Limit:      20,
		Filters: entities.SearchFilters{
			DateRange: &entities.DateRangeFilter{Start: start, End: end, Field: "starts_at"},
		},
	})
	cs := findConstraints(compiled, "starts_at")
	if len(cs) != 2 || cs[0].Op != OpGTE || cs[1].Op != OpLTE {
		t.Fatalf("expected starts_at bounds, got %+v", cs)
	}

	// Unknown timestamp fields fall back to created_at.
	compiled = mustBuild(t, entities.SearchQuery{
		SearchType: entities.SearchTypeEvents,
		Limit:      20,
		Filters: entities.SearchFilters{
			DateRange: &entities.DateRangeFilter{Start: start, Field: "deleted_at"},
		},
	})
	cs = findConstraints(compiled, "created_at")
	if len(cs) != 1 || cs[0].Op != OpGTE {
		t.Fatalf("expected created_at lower bound, got %+v", compiled.Constraints)
	}
	if len(findConstraints(compiled, "deleted_at")) != 0 {
		t.Errorf("deleted_at should not be filterable")
	}
}

func TestBuilder_Build_SortMapping(t *testing.T) {
	cases := []struct {
		name       string
		searchType entities.SearchType
		sortBy     entities.SortField
		sortOrder  entities.SortOrder
		want       Sort
	}{
		{"name ascending users", entities.SearchTypeUsers, entities.SortByName, entities.SortAsc, Sort{Field: "display_name", Descending: false}},
		{"name descending videos", entities.SearchTypeVideos, entities.SortByName, entities.SortDesc, Sort{Field: "title", Descending: true}},
		{"date ascending", entities.SearchTypeAll, entities.SortByDate, entities.SortAsc, Sort{Field: "created_at", Descending: false}},
		{"status descending", entities.SearchTypeUsers, entities.SortByStatus, entities.SortDesc, Sort{Field: "is_active", Descending: true}},
		{"relevance is newest first", entities.SearchTypeAll, entities.SortByRelevance, entities.SortAsc, Sort{Field: "created_at", Descending: true}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			compiled := mustBuild(t, entities.SearchQuery{
				Term:       "messi",
				SearchType: c.searchType,
				SortBy:     c.sortBy,
				SortOrder:  c.sortOrder,
				Limit:      20,
			})
			if compiled.Sort != c.want {
				t.Errorf("expected sort %+v, got %+v", c.want, compiled.Sort)
			}
		})
	}
}

func TestBuilder_Validate(t *testing.T) {
	cases := []struct {
		name  string
		query entities.SearchQuery
		valid bool
	}{
		{
			"term only",
			entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeAll},
			true,
		},
		{
			"filters only",
			entities.SearchQuery{SearchType: entities.SearchTypeUsers, Filters: entities.SearchFilters{Sport: "football"}},
			true,
		},
		{
			"no term no filters",
			entities.SearchQuery{SearchType: entities.SearchTypeAll},
			false,
		},
		{
			"invalid type",
			entities.SearchQuery{Term: "messi", SearchType: "podcasts"},
			false,
		},
		{
			"limit above cap",
			entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeAll, Limit: entities.MaxSearchLimit + 1},
			false,
		},
		{
			"negative limit",
			entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeAll, Limit: -1},
			false,
		},
		{
			"zero limit means default",
			entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeAll, Limit: 0},
			true,
		},
		{
			"inverted date range",
			entities.SearchQuery{
				Term:       "messi",
				SearchType: entities.SearchTypeAll,
				Filters: entities.SearchFilters{DateRange: &entities.DateRangeFilter{
					Start: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
					End:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				}},
			},
			false,
		},
		{
			"inverted age range",
			entities.SearchQuery{
				Term:       "messi",
				SearchType: entities.SearchTypeAll,
				Filters:    entities.SearchFilters{AgeRange: &entities.AgeRange{Min: 40, Max: 20}},
			},
			false,
		},
	}
	b := NewBuilder()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := b.Validate(c.query)
			if result.Valid != c.valid {
				t.Errorf("expected valid=%v, got %+v", c.valid, result)
			}
			if !result.Valid && len(result.Errors) == 0 {
				t.Errorf("invalid result must carry errors")
			}
		})
	}
}

func TestBuilder_Build_InvalidQueryFails(t *testing.T) {
	_, err := NewBuilder().Build(entities.SearchQuery{SearchType: entities.SearchTypeAll}, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error type, got %v", err)
	}
}

func TestBuilder_Cost_Monotonic(t *testing.T) {
	b := NewBuilder()
	base := entities.SearchQuery{Term: "messi", SearchType: entities.SearchTypeUsers, Limit: 20}

	withFilter := base
	withFilter.Filters.Sport = "football"
	if b.Cost(withFilter) <= b.Cost(base) {
		t.Error("adding a filter must increase the cost")
	}

	moreFilters := withFilter
	moreFilters.Filters.Role = []string{"athlete"}
	if b.Cost(moreFilters) <= b.Cost(withFilter) {
		t.Error("adding a second filter must increase the cost")
	}

	boolean := base
	boolean.Term = "messi AND ronaldo"
	if b.Cost(boolean) <= b.Cost(base) {
		t.Error("boolean operators must increase the cost")
	}

	bigger := base
	bigger.Limit = entities.MaxSearchLimit
	if b.Cost(bigger) <= b.Cost(base) {
		t.Error("a larger page must increase the cost")
	}

	noTerm := base
	noTerm.Term = ""
	if b.Cost(base) <= b.Cost(noTerm) {
		t.Error("a text term must increase the cost")
	}
}

func TestBuilder_BuildAutoComplete(t *testing.T) {
	compiled, err := NewBuilder().BuildAutoComplete("Mes", entities.SearchTypeUsers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if compiled.Limit != AutoCompleteLimit {
		t.Errorf("expected limit %d, got %d", AutoCompleteLimit, compiled.Limit)
	}
	if compiled.Sort != (Sort{Field: "display_name", Descending: false}) {
		t.Errorf("expected ascending sort on display_name, got %+v", compiled.Sort)
	}
	cs := findConstraints(compiled, "display_name")
	if len(cs) != 1 || cs[0].Op != OpPrefix || cs[0].Value != "mes" {
		t.Errorf("expected lowered prefix constraint, got %+v", compiled.Constraints)
	}

	if _, err := NewBuilder().BuildAutoComplete("   ", entities.SearchTypeUsers); err == nil {
		t.Error("expected error for blank prefix")
	}
	if _, err := NewBuilder().BuildAutoComplete("mes", "podcasts"); err == nil {
		t.Error("expected error for unknown search type")
	}
}

func TestBuilder_BuildBoolean_PlainTerm(t *testing.T) {
	branches, err := NewBuilder().BuildBoolean(entities.SearchQuery{
		Term:       "messi",
		SearchType: entities.SearchTypeUsers,
		Limit:      20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("expected one branch, got %d", len(branches))
	}
	if branches[0].Op != BoolOr {
		t.Errorf("a plain term folds in with OR, got %s", branches[0].Op)
	}
}

func TestBuilder_BuildBoolean_Branches(t *testing.T) {
	branches, err := NewBuilder().BuildBoolean(entities.SearchQuery{
		Term:       "football AND NOT injury",
		SearchType: entities.SearchTypeVideos,
		Limit:      20,
		Filters:    entities.SearchFilters{Category: []string{"highlights"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected two branches, got %d", len(branches))
	}
	if branches[0].Op != BoolOr || branches[1].Op != BoolNot {
		t.Errorf("unexpected branch operators: %s, %s", branches[0].Op, branches[1].Op)
	}

	for i, want := range []string{"football", "injury"} {
		cs := findConstraints(branches[i].Query, "title")
		if len(cs) != 1 || cs[0].Value != want {
			t.Errorf("branch %d: expected title prefix %q, got %+v", i, want, cs)
		}
		// Every branch carries the shared filter set.
		if cats := findConstraints(branches[i].Query, "categories"); len(cats) != 1 {
			t.Errorf("branch %d: expected categories constraint, got %+v", i, cats)
		}
		if branches[i].Query.Cursor != nil {
			t.Errorf("branch %d: boolean branches must not carry cursors", i)
		}
	}
}

func TestBuilder_BuildBoolean_OperatorsOnly(t *testing.T) {
	_, err := NewBuilder().BuildBoolean(entities.SearchQuery{
		Term:       "AND OR",
		SearchType: entities.SearchTypeAll,
		Limit:      20,
	})
	if err == nil {
		t.Fatal("expected error for a query with no search terms")
	}
}
