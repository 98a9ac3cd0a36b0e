package search

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rubiojr/regsearch/pkg/core"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Order is a sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder validates a sort direction. The empty string means ascending.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrderAsc, nil
	case OrderAsc, OrderDesc:
		return o, nil
	}
	return "", fmt.Errorf("invalid sort order %q (want asc or desc)", s)
}

// Toggle returns the opposite direction.
func (o Order) Toggle() Order {
	if o == OrderDesc {
		return OrderAsc
	}
	return OrderDesc
}

// Sorter orders records by display name using locale-aware collation.
type Sorter struct {
	tag language.Tag
}

// NewSorter returns a sorter for a BCP 47 locale such as "en" or "en-GB".
// An empty locale selects English.
func NewSorter(locale string) (*Sorter, error) {
	if strings.TrimSpace(locale) == "" {
		return &Sorter{tag: language.English}, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	return &Sorter{tag: tag}, nil
}

// Sort returns a sorted copy of list. The sort is stable: records with
// equal display names keep their relative input order in both directions.
func (s *Sorter) Sort(list []core.Record, order Order) []core.Record {
	type keyed struct {
		key string
		rec core.Record
	}

	items := make([]keyed, len(list))
	for i, r := range list {
		items[i] = keyed{key: strings.ToLower(r.DisplayName()), rec: r}
	}

	// collate.Collator keeps internal buffers; one per call keeps Sort safe
	// for concurrent use.
	col := collate.New(s.tag)
	slices.SortStableFunc(items, func(a, b keyed) int {
		if order == OrderDesc {
			return col.CompareString(b.key, a.key)
		}
		return col.CompareString(a.key, b.key)
	})

	out := make([]core.Record, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

var defaultSorter = &Sorter{tag: language.English}

// Sort orders list with English collation. See Sorter.Sort.
func Sort(list []core.Record, order Order) []core.Record {
	return defaultSorter.Sort(list, order)
}
