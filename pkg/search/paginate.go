package search

// windowSize is the maximum number of page buttons offered at once.
const windowSize = 5

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// Paginate returns items [(page-1)*pageSize, page*pageSize) of list.
// TotalPages is at least 1, even for an empty list. Callers are expected
// to keep page within 1..TotalPages; out of range pages come back empty.
// A non-positive pageSize puts the whole list on a single page.
func Paginate[T any](list []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = max(len(list), 1)
	}

	totalPages := (len(list) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	end := page * pageSize
	if start < 0 {
		start = 0
	}
	if end > len(list) {
		end = len(list)
	}

	items := []T{}
	if start < end {
		items = list[start:end]
	}

	return Page[T]{
		Items:      items,
		Number:     page,
		Size:       pageSize,
		TotalPages: totalPages,
		TotalItems: len(list),
	}
}

// PageWindow returns the page numbers to offer as navigation buttons: all
// pages when there are at most five, otherwise five pages centred on
// current and clamped to the first and last page.
func PageWindow(current, totalPages int) []int {
	if totalPages < 1 {
		totalPages = 1
	}

	var first, last int
	switch {
	case totalPages <= windowSize:
		first, last = 1, totalPages
	case current <= 3:
		first, last = 1, windowSize
	case current >= totalPages-2:
		first, last = totalPages-windowSize+1, totalPages
	default:
		first, last = current-2, current+2
	}

	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}
