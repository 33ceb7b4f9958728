package search

import (
	"reflect"
	"testing"
)

func TestContainsBooleanOperators(t *testing.T) {
	cases := []struct {
		term string
		want bool
	}{
		{"messi AND ronaldo", true},
		{"messi and ronaldo", true}, // case-insensitive
		{"messi OR ronaldo", true},
		{"NOT injury", true},
		{"messi && ronaldo", true},
		{"messi || ronaldo", true},
		{"football !injury", true},
		{"(messi OR ronaldo)", true},
		{"sandy beach", false}, // no word boundary
		{"command performance", false},
		{"nothing", false},
		{"wait!", false}, // trailing bang is punctuation
		{"", false},
	}
	for _, c := range cases {
		if got := ContainsBooleanOperators(c.term); got != c.want {
			t.Errorf("ContainsBooleanOperators(%q): expected %v, got %v", c.term, c.want, got)
		}
	}
}

func TestParseBooleanQuery_TermsAndOperators(t *testing.T) {
	cases := []struct {
		term      string
		wantTerms []string
		wantOps   []string
	}{
		{"messi AND ronaldo", []string{"messi", "ronaldo"}, []string{"AND"}},
		{"messi or ronaldo", []string{"messi", "ronaldo"}, []string{"OR"}},
		{"john doe AND coach", []string{"john doe", "coach"}, []string{"AND"}},
		{"football && highlights || goals", []string{"football", "highlights", "goals"}, []string{"AND", "OR"}},
		{"football !injury", []string{"football", "injury"}, []string{"NOT"}},
		{"(messi OR ronaldo) AND goals", []string{"messi", "ronaldo", "goals"}, []string{"OR", "AND"}},
		{"plain term", []string{"plain term"}, nil},
	}
	for _, c := range cases {
		got := ParseBooleanQuery(c.term)
		if !reflect.DeepEqual(got.Terms, c.wantTerms) {
			t.Errorf("ParseBooleanQuery(%q) terms: expected %v, got %v", c.term, c.wantTerms, got.Terms)
		}
		if !reflect.DeepEqual(got.Operators, c.wantOps) {
			t.Errorf("ParseBooleanQuery(%q) operators: expected %v, got %v", c.term, c.wantOps, got.Operators)
		}
		if got.Raw != c.term {
			t.Errorf("ParseBooleanQuery(%q) raw: got %q", c.term, got.Raw)
		}
	}
}

func TestParseBooleanQuery_Branches(t *testing.T) {
	parsed := ParseBooleanQuery("football AND NOT injury OR highlights")
	want := []BooleanBranch{
		{Term: "football", Op: BoolOr}, // first branch folds into the empty set
		{Term: "injury", Op: BoolNot},
		{Term: "highlights", Op: BoolOr},
	}
	if !reflect.DeepEqual(parsed.Branches, want) {
		t.Errorf("expected branches %+v, got %+v", want, parsed.Branches)
	}
}

func TestParseBooleanQuery_LeadingNot(t *testing.T) {
	parsed := ParseBooleanQuery("NOT injury")
	if len(parsed.Branches) != 1 {
		t.Fatalf("expected 1 branch, got %+v", parsed.Branches)
	}
	if parsed.Branches[0].Op != BoolNot || parsed.Branches[0].Term != "injury" {
		t.Errorf("expected negated injury branch, got %+v", parsed.Branches[0])
	}
}

func TestParseBooleanQuery_PlainTermSingleBranch(t *testing.T) {
	parsed := ParseBooleanQuery("lionel messi")
	if len(parsed.Branches) != 1 {
		t.Fatalf("expected single branch, got %+v", parsed.Branches)
	}
	if parsed.Branches[0].Term != "lionel messi" || parsed.Branches[0].Op != BoolOr {
		t.Errorf("unexpected branch %+v", parsed.Branches[0])
	}
}
