package entities

import (
	"testing"
	"time"
)

func TestSearchFilters_Sanitize_DeduplicatesPreservingOrder(t *testing.T) {
	f := SearchFilters{
		Role: []string{" coach ", "athlete", "coach", "", "  ", "athlete"},
	}.Sanitize()
	if len(f.Role) != 2 {
		t.Fatalf("expected 2 roles, got %d: %v", len(f.Role), f.Role)
	}
	if f.Role[0] != "coach" || f.Role[1] != "athlete" {
		t.Errorf("expected [coach athlete], got %v", f.Role)
	}
}

func TestSearchFilters_Sanitize_EmptyArrayBecomesNil(t *testing.T) {
	f := SearchFilters{Category: []string{"", "   "}}.Sanitize()
	if f.Category != nil {
		t.Errorf("expected nil category, got %v", f.Category)
	}
}

func TestSearchFilters_Sanitize_AgeRangeClampAndSwap(t *testing.T) {
	f := SearchFilters{AgeRange: &AgeRange{Min: 200, Max: -5}}.Sanitize()
	if f.AgeRange == nil {
		t.Fatal("expected age range preserved")
	}
	if f.AgeRange.Min != 0 || f.AgeRange.Max != 150 {
		t.Errorf("expected [0,150], got [%d,%d]", f.AgeRange.Min, f.AgeRange.Max)
	}
}

func TestSearchFilters_Sanitize_DateRangeSwapAndDefaultField(t *testing.T) {
	later := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := SearchFilters{DateRange: &DateRangeFilter{Start: later, End: earlier}}.Sanitize()
	if f.DateRange == nil {
		t.Fatal("expected date range preserved")
	}
	if !f.DateRange.Start.Equal(earlier) || !f.DateRange.End.Equal(later) {
		t.Errorf("expected swapped range, got %v..%v", f.DateRange.Start, f.DateRange.End)
	}
	if f.DateRange.Field != DefaultDateRangeField {
		t.Errorf("expected field %q, got %q", DefaultDateRangeField, f.DateRange.Field)
	}
}

func TestSearchFilters_Sanitize_DoesNotMutateInput(t *testing.T) {
	ar := &AgeRange{Min: 30, Max: 10}
	f := SearchFilters{AgeRange: ar}
	_ = f.Sanitize()
	if ar.Min != 30 || ar.Max != 10 {
		t.Errorf("input mutated: [%d,%d]", ar.Min, ar.Max)
	}
}

func TestSearchFilters_Equal_NilVsEmptyDiffer(t *testing.T) {
	a := SearchFilters{Role: nil}
	b := SearchFilters{Role: []string{}}
	if a.Equal(b) {
		t.Error("nil and empty role lists must not be equivalent")
	}
}

func TestSearchFilters_Equal(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	a := SearchFilters{
		Role:      []string{"athlete"},
		Location:  "Delhi",
		AgeRange:  &AgeRange{Min: 18, Max: 25},
		DateRange: &DateRangeFilter{Start: start, End: end, Field: "created_at"},
	}
	b := SearchFilters{
		Role:      []string{"athlete"},
		Location:  "Delhi",
		AgeRange:  &AgeRange{Min: 18, Max: 25},
		DateRange: &DateRangeFilter{Start: start, End: end, Field: "created_at"},
	}
	if !a.Equal(b) {
		t.Error("expected filters equal")
	}
	b.Role = []string{"coach"}
	if a.Equal(b) {
		t.Error("expected filters to differ on role")
	}
}

func TestSearchFilters_Merge_PerDimension(t *testing.T) {
	base := SearchFilters{
		Role:     []string{"athlete"},
		Location: "Mumbai",
		Sport:    "cricket",
	}
	override := SearchFilters{
		Role:  []string{"coach"},
		Sport: "football",
	}
	merged := base.Merge(override)
	if len(merged.Role) != 1 || merged.Role[0] != "coach" {
		t.Errorf("expected role overridden, got %v", merged.Role)
	}
	if merged.Location != "Mumbai" {
		t.Errorf("expected location carried over, got %q", merged.Location)
	}
	if merged.Sport != "football" {
		t.Errorf("expected sport overridden, got %q", merged.Sport)
	}
}
