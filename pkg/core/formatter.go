package core

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// FormatFields formats a detail field map into a pretty-printed string with
// keys in alphabetical order.
func FormatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}

	var b strings.Builder
	for _, key := range SortedKeys(fields) {
		b.WriteString(fmt.Sprintf("\n  %s: %s", key, FormatValue(fields[key])))
	}
	return b.String()
}

// SortedKeys returns the field names in alphabetical order.
func SortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FormatValue renders a single detail value, truncating long strings.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case string:
		return truncate(v, 100)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	case bool:
		return fmt.Sprintf("%v", v)
	default:
		return truncate(fmt.Sprintf("%v", v), 100)
	}
}

// truncate shortens s to at most limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
