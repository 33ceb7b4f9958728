package entities

import "time"

// SearchDocument is one denormalized row of the search corpus. Users,
// videos and events share a single table distinguished by DocType; fields
// that do not apply to a type stay at their zero value.
type SearchDocument struct {
	ID                 string     `json:"id" db:"id"`
	DocType            SearchType `json:"doc_type" db:"doc_type"`
	DisplayName        string     `json:"display_name,omitempty" db:"display_name"`
	Title              string     `json:"title,omitempty" db:"title"`
	Role               string     `json:"role,omitempty" db:"role"`
	Sport              string     `json:"sport,omitempty" db:"sport"`
	Location           string     `json:"location,omitempty" db:"location"`
	VerificationStatus string     `json:"verification_status,omitempty" db:"verification_status"`
	EventStatus        string     `json:"event_status,omitempty" db:"event_status"`
	Categories         []string   `json:"categories,omitempty" db:"categories"`
	Age                int        `json:"age,omitempty" db:"age"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	StartsAt           *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// SearchText returns the primary text of the document: display name for
// users, title for videos and events.
func (d SearchDocument) SearchText() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Title
}

// FieldValue exposes the named text fields to fuzzy matching.
func (d SearchDocument) FieldValue(field string) string {
	switch field {
	case "display_name":
		return d.DisplayName
	case "title":
		return d.Title
	case "role":
		return d.Role
	case "sport":
		return d.Sport
	case "location":
		return d.Location
	case "search_text":
		return d.SearchText()
	}
	return ""
}
