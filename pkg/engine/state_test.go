package engine

import (
	"errors"
	"testing"

	"github.com/rubiojr/regsearch/pkg/client"
	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/search"
)

func TestTickIsCapped(t *testing.T) {
	s := Initial().begin(core.Query{Name: "x"}, 1, 1)
	for range 20 {
		s = s.tick(10, 90)
		if s.Progress > 90 {
			t.Fatalf("progress %d passed the cap", s.Progress)
		}
	}
	if s.Progress != 90 {
		t.Errorf("progress = %d, want 90", s.Progress)
	}

	s = s.tick(7, 95)
	if s.Progress != 95 {
		t.Errorf("progress = %d, want 95", s.Progress)
	}
}

func TestTickOutsideSearchIsNoop(t *testing.T) {
	s := Initial()
	if got := s.tick(10, 90).Progress; got != 0 {
		t.Errorf("idle tick moved progress to %d", got)
	}

	loaded := s.begin(core.Query{Name: "x"}, 1, 1).succeed(&client.SearchResponse{}, 1)
	if got := loaded.tick(10, 90).Progress; got != 100 {
		t.Errorf("loaded tick changed progress to %d", got)
	}
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	before := Initial()
	_ = before.WithCategory(core.SourceMarriageOfficer)
	_ = before.WithFilterText("abc")
	_ = before.WithSortToggled()
	if before.View != DefaultView() {
		t.Errorf("receiver view changed: %+v", before.View)
	}
}

func TestSucceedResetsView(t *testing.T) {
	s := Initial().WithCategory(core.SourcePlaceOfBirth).WithFilterText("ama").WithSortToggled()
	s = s.begin(core.Query{Name: "ama"}, 2, 3)
	if s.Phase != PhaseSearching || s.Global.CurrentPage != 2 || s.Generation != 3 {
		t.Fatalf("begin: %+v", s)
	}

	s = s.succeed(&client.SearchResponse{Results: nameChanges(2), Total: 2, TotalPages: 0}, 2)
	if s.View != DefaultView() {
		t.Errorf("view = %+v, want default", s.View)
	}
	if s.Global.TotalPages != 1 {
		t.Errorf("total pages = %d, want at least 1", s.Global.TotalPages)
	}
	if s.Results.Total() != 2 {
		t.Errorf("results = %d", s.Results.Total())
	}
}

func TestCategoryAndFilterResetPage(t *testing.T) {
	s := Initial()
	s.View.Page = 4

	if got := s.WithCategory(core.SourceDateOfBirth).View.Page; got != 1 {
		t.Errorf("WithCategory page = %d", got)
	}
	if got := s.WithFilterText("x").View.Page; got != 1 {
		t.Errorf("WithFilterText page = %d", got)
	}
	if got := s.WithSortToggled().View.Page; got != 4 {
		t.Errorf("sort toggle should keep the page, got %d", got)
	}
}

func TestWithCategoryPageBounds(t *testing.T) {
	s := Initial().begin(core.Query{Name: "x"}, 1, 1).succeed(&client.SearchResponse{Results: nameChanges(41)}, 1)

	tests := []struct {
		page    int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{3, false},
		{4, true},
	}
	for _, tt := range tests {
		_, err := s.WithCategoryPage(tt.page, 20)
		if got := errors.Is(err, ErrPageOutOfRange); got != tt.wantErr {
			t.Errorf("page %d: err = %v, wantErr %v", tt.page, err, tt.wantErr)
		}
	}

	// An empty category still has a single page.
	empty := s.WithCategory(core.SourceMarriageOfficer)
	if _, err := empty.WithCategoryPage(1, 20); err != nil {
		t.Errorf("empty category page 1: %v", err)
	}
}

func TestDetailTransitions(t *testing.T) {
	s := Initial().begin(core.Query{Name: "x"}, 1, 1).succeed(&client.SearchResponse{Results: nameChanges(3)}, 1)
	ref := search.RecordRef{Category: core.SourceChangeOfName, ID: "3"}

	s = s.selecting(ref)
	if !s.Detail.Loading || s.Detail.Record == nil {
		t.Fatalf("selecting: %+v", s.Detail)
	}

	failed := s.detailFailed()
	if failed.Detail.Error != DetailFailureMessage || failed.Detail.Selected.ID != "3" {
		t.Errorf("detailFailed: %+v", failed.Detail)
	}

	loaded := s.detailLoaded(&core.Detail{Fields: map[string]any{"id": "3"}}).openReport().reportMessage("typo")
	if loaded.Detail.Loading || loaded.Detail.Report.Message != "typo" {
		t.Errorf("loaded: %+v", loaded.Detail)
	}

	closed := loaded.closeDetail()
	if closed.Detail.Open() || closed.Detail.Detail != nil || closed.Detail.Report.Open {
		t.Errorf("closeDetail left %+v", closed.Detail)
	}
	if closed.Results.Total() != 3 {
		t.Error("closing the detail view touched results")
	}
}

func TestBuildCategoryView(t *testing.T) {
	results := core.Records{
		core.MarriageOfficer{ID: "1", OfficerName: "Zed", Church: "Methodist", Location: "Accra"},
		core.MarriageOfficer{ID: "2", OfficerName: "Abe", Location: "Kumasi"},
		core.MarriageOfficer{ID: "3", OfficerName: "Kay", Region: "Greater Accra"},
	}
	s := Initial().begin(core.Query{Name: "x"}, 1, 1).succeed(&client.SearchResponse{Results: results}, 1)
	s = s.WithCategory(core.SourceMarriageOfficer).WithFilterText("ACCRA")

	view := BuildCategoryView(s, 20, nil)
	if view.Page.TotalItems != 2 {
		t.Fatalf("filtered = %d, want 2", view.Page.TotalItems)
	}
	if view.Page.Items[0].RecordID() != "3" || view.Page.Items[1].RecordID() != "1" {
		t.Errorf("order = %s,%s", view.Page.Items[0].RecordID(), view.Page.Items[1].RecordID())
	}
	if len(view.Window) != 1 || view.Window[0] != 1 {
		t.Errorf("window = %v", view.Window)
	}
	if !s.FilterActive() {
		t.Error("FilterActive = false")
	}
}
