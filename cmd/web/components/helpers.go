package components

import (
	"net/url"
	"strconv"

	"github.com/rubiojr/regsearch/cmd/web/components/types"
)

// Link builds a console URL carrying the view parameters of data plus
// the given overrides. Empty override values drop the parameter.
func Link(data types.PageData, overrides ...string) string {
	v := url.Values{}
	if data.ActiveCategory != "" {
		v.Set("category", data.ActiveCategory)
	}
	if data.Filter != "" {
		v.Set("filter", data.Filter)
	}
	if data.Order != "" {
		v.Set("sort", data.Order)
	}
	if data.CategoryPage > 1 {
		v.Set("page", strconv.Itoa(data.CategoryPage))
	}

	for i := 0; i+1 < len(overrides); i += 2 {
		if overrides[i+1] == "" {
			v.Del(overrides[i])
			continue
		}
		v.Set(overrides[i], overrides[i+1])
	}

	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// ToggleOrder returns the opposite sort direction for the sort link.
func ToggleOrder(order string) string {
	if order == "desc" {
		return "asc"
	}
	return "desc"
}
