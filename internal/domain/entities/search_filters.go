package entities

import (
	"strings"
	"time"
)

const (
	// MinFilterAge and MaxFilterAge bound the age range filter.
	MinFilterAge = 0
	MaxFilterAge = 150

	// DefaultDateRangeField is the timestamp column a date range filter
	// applies to when none is named.
	DefaultDateRangeField = "created_at"
)

// AgeRange restricts user results to an inclusive age interval.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DateRangeFilter restricts results to an inclusive time interval on a
// named timestamp field.
type DateRangeFilter struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Field string    `json:"field"`
}

// SearchFilters holds the structured constraints of a search. Array filters
// are OR semantics within a field and AND semantics across fields.
type SearchFilters struct {
	Role               []string         `json:"role,omitempty"`
	Status             []string         `json:"status,omitempty"`
	VerificationStatus []string         `json:"verification_status,omitempty"`
	Category           []string         `json:"category,omitempty"`
	EventStatus        []string         `json:"event_status,omitempty"`
	Location           string           `json:"location,omitempty"`
	Sport              string           `json:"sport,omitempty"`
	AgeRange           *AgeRange        `json:"age_range,omitempty"`
	DateRange          *DateRangeFilter `json:"date_range,omitempty"`
}

// Sanitize returns a normalized copy: values trimmed, duplicates removed
// preserving first occurrence, empty collections dropped, inverted ranges
// swapped and ages clamped to [0, 150].
func (f SearchFilters) Sanitize() SearchFilters {
	out := SearchFilters{
		Role:               cleanValues(f.Role),
		Status:             cleanValues(f.Status),
		VerificationStatus: cleanValues(f.VerificationStatus),
		Category:           cleanValues(f.Category),
		EventStatus:        cleanValues(f.EventStatus),
		Location:           strings.TrimSpace(f.Location),
		Sport:              strings.TrimSpace(f.Sport),
	}

	if f.AgeRange != nil {
		ar := *f.AgeRange
		ar.Min = clampAge(ar.Min)
		ar.Max = clampAge(ar.Max)
		if ar.Min > ar.Max {
			ar.Min, ar.Max = ar.Max, ar.Min
		}
		out.AgeRange = &ar
	}

	if f.DateRange != nil {
		dr := *f.DateRange
		if !dr.Start.IsZero() && !dr.End.IsZero() && dr.Start.After(dr.End) {
			dr.Start, dr.End = dr.End, dr.Start
		}
		if strings.TrimSpace(dr.Field) == "" {
			dr.Field = DefaultDateRangeField
		}
		out.DateRange = &dr
	}

	return out
}

// ActiveCount returns the number of filter dimensions carrying a value.
func (f SearchFilters) ActiveCount() int {
	count := 0
	for _, values := range [][]string{f.Role, f.Status, f.VerificationStatus, f.Category, f.EventStatus} {
		if len(values) > 0 {
			count++
		}
	}
	if f.Location != "" {
		count++
	}
	if f.Sport != "" {
		count++
	}
	if f.AgeRange != nil {
		count++
	}
	if f.DateRange != nil {
		count++
	}
	return count
}

// Equal reports strict equivalence with other. A nil collection and an
// empty one are not considered equivalent, matching the strictness of the
// saved-search duplicate check.
func (f SearchFilters) Equal(other SearchFilters) bool {
	return stringSlicesEqual(f.Role, other.Role) &&
		stringSlicesEqual(f.Status, other.Status) &&
		stringSlicesEqual(f.VerificationStatus, other.VerificationStatus) &&
		stringSlicesEqual(f.Category, other.Category) &&
		stringSlicesEqual(f.EventStatus, other.EventStatus) &&
		f.Location == other.Location &&
		f.Sport == other.Sport &&
		ageRangesEqual(f.AgeRange, other.AgeRange) &&
		dateRangesEqual(f.DateRange, other.DateRange)
}

// Merge overlays override onto f per filter dimension: any dimension set in
// override replaces the whole dimension, untouched dimensions carry over.
func (f SearchFilters) Merge(override SearchFilters) SearchFilters {
	out := f
	if override.Role != nil {
		out.Role = override.Role
	}
	if override.Status != nil {
		out.Status = override.Status
	}
	if override.VerificationStatus != nil {
		out.VerificationStatus = override.VerificationStatus
	}
	if override.Category != nil {
		out.Category = override.Category
	}
	if override.EventStatus != nil {
		out.EventStatus = override.EventStatus
	}
	if override.Location != "" {
		out.Location = override.Location
	}
	if override.Sport != "" {
		out.Sport = override.Sport
	}
	if override.AgeRange != nil {
		out.AgeRange = override.AgeRange
	}
	if override.DateRange != nil {
		out.DateRange = override.DateRange
	}
	return out
}

func cleanValues(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func clampAge(age int) int {
	if age < MinFilterAge {
		return MinFilterAge
	}
	if age > MaxFilterAge {
		return MaxFilterAge
	}
	return age
}

func stringSlicesEqual(a, b []string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ageRangesEqual(a, b *AgeRange) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func dateRangesEqual(a, b *DateRangeFilter) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Start.Equal(b.Start) && a.End.Equal(b.End) && a.Field == b.Field
}
