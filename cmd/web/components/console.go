package components

import (
	"context"
	_ "embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
	"github.com/rubiojr/regsearch/cmd/web/components/types"
)

//go:embed console.html
var consoleTemplate string

var consoleTmpl = template.Must(template.New("console").Funcs(TemplateFuncs()).Parse(consoleTemplate))

// Console renders the complete console page: search form, progress,
// category tabs, the result table with both paginators and, when a record
// is selected, the detail modal.
func Console(data types.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return consoleTmpl.Execute(w, data)
	})
}
