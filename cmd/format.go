package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/engine"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	activeStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	titleCaser = cases.Title(language.English)
)

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// categoryLabel returns the title-cased display name of a category.
func categoryLabel(st core.SourceType) string {
	return titleCaser.String(st.Label())
}

// progressBar renders a fixed width bar for a 0..100 progress value.
func progressBar(progress, width int) string {
	progress = max(0, min(progress, 100))
	filled := progress * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(" ", width-filled) + fmt.Sprintf("] %3d%%", progress)
}

// formatTabs renders the category selector line with per-category counts.
func formatTabs(view engine.CategoryView) string {
	tabs := make([]string, 0, len(core.Categories))
	for _, st := range core.Categories {
		label := fmt.Sprintf("%s (%s)", categoryLabel(st), formatNumber(view.Counts[st]))
		if st == view.Category {
			label = activeStyle.Render(label)
		} else {
			label = mutedStyle.Render(label)
		}
		tabs = append(tabs, label)
	}
	return strings.Join(tabs, "  ")
}

// formatPager renders a page window, marking the current page.
func formatPager(current, total int, window []int) string {
	parts := make([]string, 0, len(window)+2)
	if len(window) > 0 && window[0] > 1 {
		parts = append(parts, "…")
	}
	for _, n := range window {
		if n == current {
			parts = append(parts, activeStyle.Render(fmt.Sprintf("[%d]", n)))
		} else {
			parts = append(parts, fmt.Sprint(n))
		}
	}
	if len(window) > 0 && window[len(window)-1] < total {
		parts = append(parts, "…")
	}
	return strings.Join(parts, " ")
}

// printResults writes the current category page of a loaded search.
func printResults(w io.Writer, st engine.State, view engine.CategoryView) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Results for %q", st.Query.TrimmedName())))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s results, registry page %d of %d",
		formatNumber(st.Global.TotalResults), st.Global.CurrentPage, st.Global.TotalPages)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, formatTabs(view))
	if st.FilterActive() {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("filter: %q, %d matching", st.View.FilterText, view.Page.TotalItems)))
	}
	fmt.Fprintln(w)

	if len(view.Page.Items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No records in this category."))
		return
	}

	for _, r := range view.Page.Items {
		name := r.DisplayName()
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "%s  %s\n", nameStyle.Render(name), mutedStyle.Render(fmt.Sprintf("%s/%s", r.SourceType(), r.RecordID())))
		if summary := r.Summary(); summary != "" && summary != name {
			fmt.Fprintf(w, "    %s\n", summary)
		}
		if src := r.Source(); src != "" {
			fmt.Fprintf(w, "    %s\n", mutedStyle.Render(src))
		}
	}

	if view.Page.TotalPages > 1 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "page %s\n", formatPager(view.Page.Number, view.Page.TotalPages, view.Window))
	}
}

// printDetail writes the detail view of the selected record.
func printDetail(w io.Writer, d engine.DetailState) {
	if d.Selected == nil {
		return
	}

	name := d.Selected.String()
	if d.Record != nil && d.Record.DisplayName() != "" {
		name = d.Record.DisplayName()
	}
	fmt.Fprintln(w, headerStyle.Render(name))
	fmt.Fprintln(w, mutedStyle.Render(categoryLabel(d.Selected.Category)))

	if d.Error != "" {
		fmt.Fprintln(w, errorStyle.Render(d.Error))
		return
	}
	if d.Detail == nil {
		return
	}
	for _, key := range core.SortedKeys(d.Detail.Fields) {
		fmt.Fprintf(w, "  %s: %s\n", keyStyle.Render(key), core.FormatValue(d.Detail.Fields[key]))
	}
}
