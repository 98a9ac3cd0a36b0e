package engine

import (
	"strings"

	"github.com/rubiojr/regsearch/pkg/client"
	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/search"
)

// Phase is the lifecycle stage of the person search.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSearching Phase = "searching"
	PhaseLoaded    Phase = "loaded"
	PhaseError     Phase = "error"
)

// ViewState holds the user adjustable presentation parameters. Changing
// Category or FilterText always resets Page to 1.
type ViewState struct {
	Category   core.SourceType `json:"active_category"`
	FilterText string          `json:"filter_text"`
	Order      search.Order    `json:"sort_order"`
	Page       int             `json:"category_page"`
}

// DefaultView is the view every successful search starts from.
func DefaultView() ViewState {
	return ViewState{
		Category: core.SourceChangeOfName,
		Order:    search.OrderAsc,
		Page:     1,
	}
}

// GlobalPagination reflects the registry's own paging of the result set.
type GlobalPagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// ReportState is the "report an issue" form of the detail view.
type ReportState struct {
	Open       bool   `json:"open"`
	Message    string `json:"message,omitempty"`
	Submitting bool   `json:"submitting"`
	Error      string `json:"error,omitempty"`
}

// DetailState is the detail view of a single selected record.
type DetailState struct {
	Selected *search.RecordRef `json:"selected,omitempty"`
	Record   core.Record       `json:"record,omitempty"`
	Loading  bool              `json:"loading"`
	Detail   *core.Detail      `json:"detail,omitempty"`
	Error    string            `json:"error,omitempty"`
	Report   ReportState       `json:"report"`
}

// Open reports whether a record is selected.
func (d DetailState) Open() bool {
	return d.Selected != nil
}

// State is the complete engine state. Transitions are pure: every method
// below returns a new State and leaves the receiver untouched. Results is
// shared between copies and never mutated after classification.
type State struct {
	Phase      Phase              `json:"phase"`
	Query      core.Query         `json:"query"`
	Progress   int                `json:"progress"`
	Results    search.Categorized `json:"results"`
	View       ViewState          `json:"view"`
	Global     GlobalPagination   `json:"pagination"`
	Error      string             `json:"error,omitempty"`
	Detail     DetailState        `json:"detail"`
	Generation uint64             `json:"generation"`
}

// Initial returns the state of a freshly opened search form.
func Initial() State {
	return State{
		Phase:   PhaseIdle,
		Results: search.NewCategorized(),
		View:    DefaultView(),
		Global:  GlobalPagination{CurrentPage: 1, TotalPages: 1},
	}
}

// begin starts a search for q at the given registry page.
func (s State) begin(q core.Query, page int, gen uint64) State {
	s.Phase = PhaseSearching
	s.Query = q
	s.Progress = 0
	s.Results = search.NewCategorized()
	s.Error = ""
	s.Detail = DetailState{}
	s.Global.CurrentPage = page
	s.Generation = gen
	return s
}

// tick advances the synthetic progress indicator by step, never past limit.
func (s State) tick(step, limit int) State {
	if s.Phase != PhaseSearching {
		return s
	}
	s.Progress = min(s.Progress+step, limit)
	if s.Progress < 0 {
		s.Progress = 0
	}
	return s
}

// succeed stores a search response and resets the view.
func (s State) succeed(resp *client.SearchResponse, page int) State {
	s.Phase = PhaseLoaded
	s.Progress = 100
	s.Error = ""
	s.Results = search.Classify(resp.Results)
	s.Global = GlobalPagination{
		CurrentPage:  page,
		TotalPages:   max(resp.TotalPages, 1),
		TotalResults: resp.Total,
	}
	s.View = DefaultView()
	return s
}

// fail records a search failure. The result set stays empty.
func (s State) fail(message string) State {
	s.Phase = PhaseError
	s.Progress = 0
	s.Error = message
	s.Results = search.NewCategorized()
	return s
}

// WithCategory switches the active category and returns to its first page.
func (s State) WithCategory(c core.SourceType) State {
	s.View.Category = c
	s.View.Page = 1
	return s
}

// WithFilterText changes the local filter and returns to the first page.
func (s State) WithFilterText(text string) State {
	s.View.FilterText = text
	s.View.Page = 1
	return s
}

// WithSortToggled flips the sort direction.
func (s State) WithSortToggled() State {
	s.View.Order = s.View.Order.Toggle()
	return s
}

// WithOrder sets the sort direction.
func (s State) WithOrder(o search.Order) State {
	s.View.Order = o
	return s
}

// WithCategoryPage moves to page of the active category. The page must be
// within 1..TotalPages of the filtered category list.
func (s State) WithCategoryPage(page, pageSize int) (State, error) {
	visible := search.Filter(s.Results.Bucket(s.View.Category), s.View.FilterText)
	total := search.Paginate(visible, 1, pageSize).TotalPages
	if page < 1 || page > total {
		return s, ErrPageOutOfRange
	}
	s.View.Page = page
	return s, nil
}

// selecting opens the detail view for ref and starts loading.
func (s State) selecting(ref search.RecordRef) State {
	s.Detail = DetailState{
		Selected: &ref,
		Record:   s.Results.Find(ref),
		Loading:  true,
	}
	return s
}

func (s State) detailLoaded(d *core.Detail) State {
	s.Detail.Loading = false
	s.Detail.Detail = d
	s.Detail.Error = ""
	if s.Detail.Record == nil && d != nil {
		s.Detail.Record = d.Record
	}
	return s
}

func (s State) detailFailed() State {
	s.Detail.Loading = false
	s.Detail.Detail = nil
	s.Detail.Error = DetailFailureMessage
	return s
}

// closeDetail releases everything the detail view holds.
func (s State) closeDetail() State {
	s.Detail = DetailState{}
	return s
}

func (s State) openReport() State {
	s.Detail.Report = ReportState{Open: true}
	return s
}

func (s State) reportMessage(text string) State {
	s.Detail.Report.Message = text
	s.Detail.Report.Error = ""
	return s
}

func (s State) reportSubmitting() State {
	s.Detail.Report.Submitting = true
	s.Detail.Report.Error = ""
	return s
}

func (s State) reportFailed() State {
	s.Detail.Report.Submitting = false
	s.Detail.Report.Error = ReportFailureMessage
	return s
}

// CategoryView is the rendered page of the active category.
type CategoryView struct {
	Category core.SourceType          `json:"category"`
	Counts   map[core.SourceType]int  `json:"counts"`
	Page     search.Page[core.Record] `json:"page"`
	Window   []int                    `json:"window"`
}

// BuildCategoryView runs the active category through filter, sort and
// pagination.
func BuildCategoryView(s State, pageSize int, sorter *search.Sorter) CategoryView {
	if sorter == nil {
		sorter, _ = search.NewSorter("")
	}
	visible := search.Filter(s.Results.Bucket(s.View.Category), s.View.FilterText)
	sorted := sorter.Sort(visible, s.View.Order)
	page := search.Paginate(sorted, s.View.Page, pageSize)
	return CategoryView{
		Category: s.View.Category,
		Counts:   s.Results.Counts(),
		Page:     page,
		Window:   search.PageWindow(page.Number, page.TotalPages),
	}
}

// ResultsWindow returns the page buttons for the registry's result pages.
func (s State) ResultsWindow() []int {
	return search.PageWindow(s.Global.CurrentPage, s.Global.TotalPages)
}

// FilterActive reports whether a non-blank local filter is applied.
func (s State) FilterActive() bool {
	return strings.TrimSpace(s.View.FilterText) != ""
}
