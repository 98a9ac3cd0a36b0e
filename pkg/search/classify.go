package search

import (
	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/log"
)

var logger = log.ForService("search")

// Categorized holds search hits bucketed by category. A Categorized built
// by Classify or NewCategorized always has all four category keys.
type Categorized map[core.SourceType][]core.Record

// NewCategorized returns an empty result set with every bucket present.
func NewCategorized() Categorized {
	c := make(Categorized, len(core.Categories))
	for _, st := range core.Categories {
		c[st] = []core.Record{}
	}
	return c
}

// Classify partitions hits into the four category buckets in a single pass.
// Bucket order follows input order. Hits with an unrecognized source_type
// are dropped silently.
func Classify(results []core.Record) Categorized {
	c := NewCategorized()
	dropped := 0
	for _, r := range results {
		if r == nil {
			dropped++
			continue
		}
		st := r.SourceType()
		if !st.Known() {
			dropped++
			continue
		}
		c[st] = append(c[st], r)
	}
	if dropped > 0 {
		logger.Debugf("dropped %d hits with unrecognized source type", dropped)
	}
	return c
}

// Bucket returns the records of a single category, never nil.
func (c Categorized) Bucket(st core.SourceType) []core.Record {
	if records, ok := c[st]; ok && records != nil {
		return records
	}
	return []core.Record{}
}

// Counts returns the number of hits per category.
func (c Categorized) Counts() map[core.SourceType]int {
	counts := make(map[core.SourceType]int, len(core.Categories))
	for _, st := range core.Categories {
		counts[st] = len(c[st])
	}
	return counts
}

// Total returns the number of classified hits across all categories.
func (c Categorized) Total() int {
	total := 0
	for _, records := range c {
		total += len(records)
	}
	return total
}

// Empty reports whether no hits were classified.
func (c Categorized) Empty() bool {
	return c.Total() == 0
}

// Find returns the classified record ref points at, or nil.
func (c Categorized) Find(ref RecordRef) core.Record {
	for _, r := range c[ref.Category] {
		if r.RecordID() == ref.ID {
			return r
		}
	}
	return nil
}
