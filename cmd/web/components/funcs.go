package components

import (
	"html/template"
	"strconv"

	"github.com/rubiojr/regsearch/cmd/web/components/types"
)

// Option is a choice of the registry selector.
type Option struct {
	Value string
	Label string
}

var databaseOptions = []Option{
	{"all", "All registries"},
	{"change_of_name", "Change of name"},
	{"change_of_dob", "Date of birth corrections"},
	{"change_of_pob", "Place of birth corrections"},
	{"marriage_officers", "Marriage officers"},
}

// PagerItem is one link (or the current page marker) of a paginator.
type PagerItem struct {
	Label   string
	Href    string
	Current bool
}

// detailData is what the detail template renders: the record modal plus
// the links that depend on the surrounding page.
type detailData struct {
	*types.DetailView
	Close  string
	Return string
}

// TemplateFuncs returns the functions available to console templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"link":        Link,
		"toggleOrder": ToggleOrder,
		"databases":   func() []Option { return databaseOptions },
		"categoryPager": func(data types.PageData) []PagerItem {
			return Pager(data, "page", data.CategoryPage, data.CategoryPages, data.CategoryWindow)
		},
		// A new registry page resets the view, so its links carry nothing else.
		"resultsPager": func(data types.PageData) []PagerItem {
			return Pager(types.PageData{}, "results_page", data.ResultsPage, data.ResultsPages, data.ResultsWindow)
		},
		"detailOf": func(data types.PageData, d *types.DetailView) detailData {
			return detailData{DetailView: d, Close: Link(data, "close", "1"), Return: Link(data)}
		},
	}
}

// Pager builds the items of a paginator for param. It returns nothing
// when there is a single page.
func Pager(base types.PageData, param string, current, total int, window []int) []PagerItem {
	if total <= 1 {
		return nil
	}
	items := make([]PagerItem, 0, len(window)+2)
	if current > 1 {
		items = append(items, PagerItem{Label: "«", Href: Link(base, param, strconv.Itoa(current-1))})
	}
	for _, n := range window {
		items = append(items, PagerItem{
			Label:   strconv.Itoa(n),
			Href:    Link(base, param, strconv.Itoa(n)),
			Current: n == current,
		})
	}
	if current < total {
		items = append(items, PagerItem{Label: "»", Href: Link(base, param, strconv.Itoa(current+1))})
	}
	return items
}
