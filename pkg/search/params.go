package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rubiojr/regsearch/pkg/core"
)

// ViewParams represents the commands a console request can carry in its
// query string. Zero values mean "leave unchanged"; the console applies
// only the parameters that were present.
type ViewParams struct {
	// Query is the person search form. Query.Name is empty when the request
	// does not start a new search.
	Query core.Query

	// ResultsPage requests a server-side results page (0 = unchanged).
	ResultsPage int

	// Category switches the active category when set.
	Category core.SourceType

	// Filter is the local filter text. HasFilter distinguishes an explicit
	// empty filter (clear it) from an absent parameter.
	Filter    string
	HasFilter bool

	// Order sets the sort direction when set.
	Order Order

	// Page is the category page (0 = unchanged).
	Page int

	// View selects a record for the detail view.
	View *RecordRef

	// Close closes the detail view.
	Close bool

	// Back resets the console to a fresh search form.
	Back bool
}

// RecordRef identifies a single record.
type RecordRef struct {
	Category core.SourceType `json:"source_type"`
	ID       core.ID         `json:"id"`
}

// String renders the ref in the "<source_type>/<id>" form ParseRecordRef accepts.
func (r RecordRef) String() string {
	return string(r.Category) + "/" + string(r.ID)
}

// ParseRecordRef parses "<source_type>/<id>".
func ParseRecordRef(s string) (RecordRef, error) {
	category, id, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return RecordRef{}, fmt.Errorf("invalid record reference %q (want <source_type>/<id>)", s)
	}
	st, err := core.ParseSourceType(category)
	if err != nil {
		return RecordRef{}, err
	}
	rid, err := core.ParseID(id)
	if err != nil {
		return RecordRef{}, err
	}
	return RecordRef{Category: st, ID: rid}, nil
}

// ParseViewParams parses HTTP query parameters into ViewParams.
//
// Supported parameters:
//   - q: person name (starts a new search)
//   - location, profession, database: remaining search form fields
//   - results_page: server-side results page
//   - category: active category key
//   - filter: local filter text
//   - sort: asc or desc
//   - page: category page (positive integer)
//   - view: record to open, as <source_type>/<id>
//   - close, back: any non-empty value triggers the command
//
// Invalid category, sort, database or view values return an error;
// malformed page numbers are ignored.
func ParseViewParams(queryParams map[string][]string) (ViewParams, error) {
	var params ViewParams

	get := func(key string) (string, bool) {
		if v := queryParams[key]; len(v) > 0 {
			return v[0], true
		}
		return "", false
	}

	if q, ok := get("q"); ok {
		params.Query.Name = q
	}
	if v, ok := get("location"); ok {
		params.Query.Location = v
	}
	if v, ok := get("profession"); ok {
		params.Query.Profession = v
	}
	if v, ok := get("database"); ok {
		dt, err := core.ParseDatabaseType(v)
		if err != nil {
			return params, err
		}
		params.Query.DatabaseType = dt
	}

	if v, ok := get("results_page"); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			params.ResultsPage = parsed
		}
	}

	if v, ok := get("category"); ok && v != "" {
		st, err := core.ParseSourceType(v)
		if err != nil {
			return params, err
		}
		params.Category = st
	}

	if v, ok := get("filter"); ok {
		params.Filter = v
		params.HasFilter = true
	}

	if v, ok := get("sort"); ok && v != "" {
		order, err := ParseOrder(v)
		if err != nil {
			return params, err
		}
		params.Order = order
	}

	if v, ok := get("page"); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			params.Page = parsed
		}
	}

	if v, ok := get("view"); ok && v != "" {
		ref, err := ParseRecordRef(v)
		if err != nil {
			return params, err
		}
		params.View = &ref
	}

	if v, ok := get("close"); ok && v != "" {
		params.Close = true
	}
	if v, ok := get("back"); ok && v != "" {
		params.Back = true
	}

	return params, nil
}
