package util

import (
	"errors"
	"testing"
)

func TestScalarString(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "hello", "hello"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"integral float", float64(12345), "12345"},
		{"fractional float", 1.5, "1.5"},
		{"large id float", float64(9007199254740000), "9007199254740000"},
	}

	for _, tc := range cases {
		got, err := ScalarString(tc.value)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}

	if _, err := ScalarString(map[string]any{"nested": 1}); !errors.Is(err, ErrNonScalar) {
		t.Fatalf("expected ErrNonScalar for map, got %v", err)
	}
	if _, err := ScalarString([]any{1, 2}); !errors.Is(err, ErrNonScalar) {
		t.Fatalf("expected ErrNonScalar for slice, got %v", err)
	}
	if _, err := ScalarString(nil); !errors.Is(err, ErrNonScalar) {
		t.Fatalf("expected ErrNonScalar for nil, got %v", err)
	}

	if IsScalar(struct{}{}) {
		t.Fatalf("expected IsScalar to reject struct values")
	}
	if !IsScalar("ok") {
		t.Fatalf("expected IsScalar to accept strings")
	}
}

func TestFirstNonBlank(t *testing.T) {
	if got := FirstNonBlank("", "  ", " header "); got != "header" {
		t.Fatalf("expected trimmed first non-blank value, got %q", got)
	}
	if got := FirstNonBlank("first", "second"); got != "first" {
		t.Fatalf("expected first candidate to win, got %q", got)
	}
	if got := FirstNonBlank("", "   "); got != "" {
		t.Fatalf("expected empty string when all candidates blank, got %q", got)
	}
	if got := FirstNonBlank(); got != "" {
		t.Fatalf("expected empty string for no candidates, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("expected string under limit unchanged, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello" {
		t.Fatalf("expected truncation to limit, got %q", got)
	}
	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
	if got := Truncate("anything", 0); got != "" {
		t.Fatalf("expected empty string for zero limit, got %q", got)
	}
}
