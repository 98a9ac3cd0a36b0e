// Package search implements the local result pipeline of the person search:
// classification of the registry's flat hit list into categories, per
// category text filtering, display name sorting and pagination.
//
// # Overview
//
// The registry answers a person search with a single flat list of hits
// drawn from four record categories (change of name, date of birth
// corrections, place of birth corrections and marriage officer
// appointments). Everything after that response happens here, without
// further network calls:
//
//	hits -> Classify -> Categorized
//	Categorized[active] -> Filter -> Sort -> Paginate -> rendered page
//
// All functions are pure. None of them mutate their input slices.
//
// # Classification
//
// Classify makes one pass over the hits and appends each to the bucket
// named by its source_type. Hits with unknown source types are dropped
// without error. Buckets preserve server order.
//
// # Filtering
//
// Filter does case-insensitive substring matching against a search key
// that each record variant builds from its own fields:
//
//   - change of name: name, current name, old name and aliases
//   - marriage officer: officer name (or name), church, location, region
//   - date/place of birth corrections: person name (or name)
//
// # Sorting
//
// Sort orders by display name with golang.org/x/text/collate. It is stable
// for records with equal names.
//
// # Pagination
//
// Paginate is generic and is used twice by the engine: once for the
// registry's own result pages and once for the active category. PageWindow
// computes the five page buttons shown around the current page.
//
// # Usage
//
//	buckets := search.Classify(resp.Results)
//	visible := search.Filter(buckets.Bucket(core.SourceChangeOfName), "accra")
//	sorted := search.Sort(visible, search.OrderAsc)
//	page := search.Paginate(sorted, 1, 20)
//	buttons := search.PageWindow(page.Number, page.TotalPages)
//
// # Console parameters
//
// ParseViewParams turns console query strings into view commands so the
// HTML console and tests share one parser.
package search
