package search

import (
	"strings"

	"github.com/rubiojr/regsearch/pkg/core"
)

// Filter narrows a category's records to those whose search key contains
// text, case-insensitively. Blank text returns list unchanged. Which fields
// make up the key is decided by each record variant (see core.Record.SearchKey).
func Filter(list []core.Record, text string) []core.Record {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return list
	}

	out := make([]core.Record, 0, len(list))
	for _, r := range list {
		if strings.Contains(r.SearchKey(), needle) {
			out = append(out, r)
		}
	}
	return out
}
