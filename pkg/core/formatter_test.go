package core

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatFields(t *testing.T) {
	fields := map[string]any{
		"old_name":     "Kofi Asante",
		"current_name": "Kofi Mensah",
		"gazette_page": json.Number("12"),
		"alias_names":  []any{"K. M.", "Kwesi"},
		"notes":        nil,
	}

	got := FormatFields(fields)
	lines := strings.Split(strings.TrimPrefix(got, "\n"), "\n")
	want := []string{
		"  alias_names: K. M., Kwesi",
		"  current_name: Kofi Mensah",
		"  gazette_page: 12",
		"  notes: -",
		"  old_name: Kofi Asante",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines: %q", len(lines), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	if FormatFields(nil) != "" {
		t.Error("empty fields should format to an empty string")
	}
}

func TestFormatValueTruncates(t *testing.T) {
	long := strings.Repeat("a", 150)
	got := FormatValue(long)
	if len(got) != 100 || !strings.HasSuffix(got, "...") {
		t.Errorf("FormatValue truncated to %d chars: %q", len(got), got)
	}
	if short := "Ábel Ñuñez"; FormatValue(short) != short {
		t.Errorf("short value changed: %q", FormatValue(short))
	}
	if FormatValue(true) != "true" {
		t.Errorf("bool = %q", FormatValue(true))
	}
}

func TestFormatValueTruncatesOnRuneBoundary(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"two byte runes", strings.Repeat("Á", 120)},
		{"split at byte 97", "a" + strings.Repeat("é", 120)},
		{"mixed", strings.Repeat("Ábel ", 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatValue(tt.value)
			if !utf8.ValidString(got) {
				t.Fatalf("truncated value is not valid UTF-8: %q", got)
			}
			if n := utf8.RuneCountInString(got); n != 100 {
				t.Errorf("got %d runes, want 100", n)
			}
			if !strings.HasSuffix(got, "...") {
				t.Errorf("missing ellipsis: %q", got)
			}
		})
	}
}
