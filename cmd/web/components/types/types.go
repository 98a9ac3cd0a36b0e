package types

// PageData represents data passed to the console page
type PageData struct {
	Title   string
	Version string

	// Search form
	Name         string
	Location     string
	Profession   string
	DatabaseType string

	Phase    string
	Progress int
	Error    string
	Notice   string

	// Results
	Tabs           []CategoryTab
	ActiveCategory string
	Filter         string
	Order          string
	Rows           []RecordRow
	CategoryPage   int
	CategoryPages  int
	CategoryWindow []int
	ResultsPage    int
	ResultsPages   int
	ResultsWindow  []int
	TotalResults   int

	Detail *DetailView
}

// CategoryTab is one category selector with its hit count.
type CategoryTab struct {
	Key    string
	Label  string
	Count  int
	Active bool
}

// RecordRow is a single line of the result table.
type RecordRow struct {
	Ref     string // <source_type>/<id>
	Name    string
	Summary string
	Source  string
}

// DetailView is the record modal.
type DetailView struct {
	Ref           string
	Name          string
	Loading       bool
	Error         string
	Fields        []Field
	ReportOpen    bool
	ReportMessage string
	ReportError   string
}

// Field is a key/value row of the detail view.
type Field struct {
	Key   string
	Value string
}
