package search

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestCursorCodec_RoundTrip(t *testing.T) {
	original := Cursor{SortValue: "2026-01-02T15:04:05Z", ID: "doc-42"}

	token := EncodeCursor(original)
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token must be URL-safe, got %q", token)
	}

	decoded, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.ID != original.ID {
		t.Errorf("expected id %q, got %q", original.ID, decoded.ID)
	}
	if decoded.SortValue != original.SortValue {
		t.Errorf("expected sort value %v, got %v", original.SortValue, decoded.SortValue)
	}
}

func TestCursorCodec_NumericSortValue(t *testing.T) {
	token := EncodeCursor(Cursor{SortValue: 42, ID: "doc-1"})
	decoded, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	// JSON numbers come back as float64.
	if v, ok := decoded.SortValue.(float64); !ok || v != 42 {
		t.Errorf("expected float64 42, got %T %v", decoded.SortValue, decoded.SortValue)
	}
}

func TestDecodeCursor_Empty(t *testing.T) {
	decoded, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("empty token must not error, got %v", err)
	}
	if decoded != nil {
		t.Errorf("empty token must yield nil cursor, got %+v", decoded)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"base64 of non-json", base64.RawURLEncoding.EncodeToString([]byte("not json"))},
		{"missing id", base64.RawURLEncoding.EncodeToString([]byte(`{"sort_value":"x"}`))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := DecodeCursor(c.token); err == nil {
				t.Errorf("expected error for %q", c.token)
			}
		})
	}
}
