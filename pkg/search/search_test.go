package search

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/rubiojr/regsearch/pkg/core"
)

func mixedResults() []core.Record {
	return []core.Record{
		core.NameChange{ID: "1", CurrentName: "Kofi Mensah", OldName: "Kofi Asante"},
		core.MarriageOfficer{ID: "2", OfficerName: "Rev. Adjei", Church: "Presby", Location: "Accra"},
		core.DateOfBirthCorrection{ID: "3", PersonName: "Esi Ofori"},
		core.Unrecognized{Tag: "birth_certificate", ID: "4"},
		core.NameChange{ID: "5", Name: "Ama Serwaa", AliasNames: []string{"Ama Accra"}},
		core.PlaceOfBirthCorrection{ID: "6", Name: "Yaw Darko"},
		nil,
	}
}

func ids(list []core.Record) []core.ID {
	out := make([]core.ID, len(list))
	for i, r := range list {
		out[i] = r.RecordID()
	}
	return out
}

func TestClassifyPartitions(t *testing.T) {
	c := Classify(mixedResults())

	want := map[core.SourceType][]core.ID{
		core.SourceChangeOfName:    {"1", "5"},
		core.SourceDateOfBirth:     {"3"},
		core.SourcePlaceOfBirth:    {"6"},
		core.SourceMarriageOfficer: {"2"},
	}
	for st, wantIDs := range want {
		if got := ids(c.Bucket(st)); !reflect.DeepEqual(got, wantIDs) {
			t.Errorf("%s = %v, want %v", st, got, wantIDs)
		}
	}
	if len(c) != 4 {
		t.Errorf("got %d buckets, want 4", len(c))
	}
	if c.Total() != 5 {
		t.Errorf("total = %d, want 5 (unrecognized and nil dropped)", c.Total())
	}
}

func TestClassifyEmptyHasAllBuckets(t *testing.T) {
	for _, input := range [][]core.Record{nil, {}} {
		c := Classify(input)
		for _, st := range core.Categories {
			bucket, ok := c[st]
			if !ok || bucket == nil || len(bucket) != 0 {
				t.Errorf("%s bucket = %v (present %v), want empty slice", st, bucket, ok)
			}
		}
		if !c.Empty() {
			t.Error("Empty() = false")
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	input := mixedResults()
	first := Classify(input)

	var flattened []core.Record
	for _, st := range core.Categories {
		flattened = append(flattened, first[st]...)
	}
	second := Classify(flattened)

	for _, st := range core.Categories {
		if !reflect.DeepEqual(ids(first[st]), ids(second[st])) {
			t.Errorf("%s changed on reclassification", st)
		}
	}
}

func TestCategorizedFind(t *testing.T) {
	c := Classify(mixedResults())
	if r := c.Find(RecordRef{Category: core.SourceChangeOfName, ID: "5"}); r == nil || r.DisplayName() != "Ama Serwaa" {
		t.Errorf("Find = %v", r)
	}
	if r := c.Find(RecordRef{Category: core.SourceDateOfBirth, ID: "5"}); r != nil {
		t.Errorf("Find in the wrong category = %v", r)
	}
}

func TestFilter(t *testing.T) {
	names := Classify(mixedResults()).Bucket(core.SourceChangeOfName)
	officers := Classify(mixedResults()).Bucket(core.SourceMarriageOfficer)

	tests := []struct {
		name string
		list []core.Record
		text string
		want []core.ID
	}{
		{"blank returns all", names, "", []core.ID{"1", "5"}},
		{"whitespace returns all", names, "   ", []core.ID{"1", "5"}},
		{"current name", names, "MENSAH", []core.ID{"1"}},
		{"old name", names, "asante", []core.ID{"1"}},
		{"alias", names, "accra", []core.ID{"5"}},
		{"name fallback", names, "serwaa", []core.ID{"5"}},
		{"officer location", officers, "accra", []core.ID{"2"}},
		{"officer church", officers, "presby", []core.ID{"2"}},
		{"no match", names, "zzz", []core.ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Filter(tt.list, tt.text)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFilterIsSubset(t *testing.T) {
	list := Classify(mixedResults()).Bucket(core.SourceChangeOfName)
	for _, text := range []string{"a", "kofi", "x", "ama"} {
		for _, r := range Filter(list, text) {
			if !slices.ContainsFunc(list, func(o core.Record) bool { return o.RecordID() == r.RecordID() }) {
				t.Errorf("Filter(%q) returned %s not in input", text, r.RecordID())
			}
		}
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	names := Classify(mixedResults()).Bucket(core.SourceChangeOfName)
	dupes := []core.Record{
		core.NameChange{ID: "1", CurrentName: "Kofi Mensah"},
		core.NameChange{ID: "2", CurrentName: "kofi mensah"},
		core.NameChange{ID: "3", CurrentName: "Kofi Mensah", AliasNames: []string{"KM"}},
		core.NameChange{ID: "4", CurrentName: "Ama Owusu"},
	}

	tests := []struct {
		name string
		list []core.Record
		text string
	}{
		{"blank", names, ""},
		{"match", names, "kofi"},
		{"no match", names, "zzz"},
		{"equal keys", dupes, "mensah"},
		{"padded text", dupes, "  KOFI "},
		{"empty list", nil, "kofi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := Filter(tt.list, tt.text)
			twice := Filter(once, tt.text)
			if !reflect.DeepEqual(ids(twice), ids(once)) {
				t.Errorf("Filter twice = %v, once = %v", ids(twice), ids(once))
			}
		})
	}
}

func TestSortIsIdempotent(t *testing.T) {
	distinct := []core.Record{
		core.NameChange{ID: "1", CurrentName: "mary"},
		core.NameChange{ID: "2", CurrentName: "Ábel"},
		core.NameChange{ID: "3", CurrentName: "zoe"},
	}
	equalKeys := []core.Record{
		core.MarriageOfficer{ID: "1", OfficerName: "Same"},
		core.MarriageOfficer{ID: "2", OfficerName: "Other"},
		core.MarriageOfficer{ID: "3", OfficerName: "same"},
		core.MarriageOfficer{ID: "4", OfficerName: "SAME"},
		core.MarriageOfficer{ID: "5"},
	}

	tests := []struct {
		name  string
		list  []core.Record
		order Order
	}{
		{"distinct asc", distinct, OrderAsc},
		{"distinct desc", distinct, OrderDesc},
		{"equal keys asc", equalKeys, OrderAsc},
		{"equal keys desc", equalKeys, OrderDesc},
		{"empty", nil, OrderAsc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := Sort(tt.list, tt.order)
			twice := Sort(once, tt.order)
			if !reflect.DeepEqual(ids(twice), ids(once)) {
				t.Errorf("Sort twice = %v, once = %v", ids(twice), ids(once))
			}
		})
	}
}

func TestSortOrders(t *testing.T) {
	list := []core.Record{
		core.NameChange{ID: "1", CurrentName: "mary"},
		core.NameChange{ID: "2", CurrentName: "Ábel"},
		core.NameChange{ID: "3", CurrentName: "zoe"},
		core.NameChange{ID: "4", CurrentName: "Bob"},
	}

	asc := ids(Sort(list, OrderAsc))
	if want := []core.ID{"2", "4", "1", "3"}; !reflect.DeepEqual(asc, want) {
		t.Errorf("asc = %v, want %v", asc, want)
	}

	desc := ids(Sort(list, OrderDesc))
	reversed := slices.Clone(asc)
	slices.Reverse(reversed)
	if !reflect.DeepEqual(desc, reversed) {
		t.Errorf("desc = %v, want reverse of asc %v", desc, reversed)
	}

	if got := ids(list); !reflect.DeepEqual(got, []core.ID{"1", "2", "3", "4"}) {
		t.Errorf("Sort mutated its input: %v", got)
	}
}

func TestSortIsStable(t *testing.T) {
	list := []core.Record{
		core.MarriageOfficer{ID: "1", OfficerName: "Same"},
		core.MarriageOfficer{ID: "2", OfficerName: "same"},
		core.MarriageOfficer{ID: "3", OfficerName: "Other"},
		core.MarriageOfficer{ID: "4", OfficerName: "SAME"},
	}
	for _, order := range []Order{OrderAsc, OrderDesc} {
		var same []core.ID
		for _, r := range Sort(list, order) {
			if r.RecordID() != "3" {
				same = append(same, r.RecordID())
			}
		}
		if !reflect.DeepEqual(same, []core.ID{"1", "2", "4"}) {
			t.Errorf("%s: equal keys reordered: %v", order, same)
		}
	}
}

func TestNewSorter(t *testing.T) {
	if _, err := NewSorter("sv-SE"); err != nil {
		t.Errorf("NewSorter(sv-SE): %v", err)
	}
	if _, err := NewSorter("not a locale!"); err == nil {
		t.Error("expected error for invalid locale")
	}
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"": OrderAsc, "ASC": OrderAsc, "desc": OrderDesc} {
		got, err := ParseOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseOrder(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseOrder("up"); err == nil {
		t.Error("expected error")
	}
	if OrderAsc.Toggle() != OrderDesc || OrderDesc.Toggle() != OrderAsc {
		t.Error("Toggle")
	}
}

func TestPaginate(t *testing.T) {
	list := make([]int, 45)
	for i := range list {
		list[i] = i
	}

	tests := []struct {
		page, size int
		wantFirst  int
		wantLen    int
		wantPages  int
	}{
		{1, 20, 0, 20, 3},
		{2, 20, 20, 20, 3},
		{3, 20, 40, 5, 3},
		{1, 45, 0, 45, 1},
		{1, 0, 0, 45, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page%d_size%d", tt.page, tt.size), func(t *testing.T) {
			p := Paginate(list, tt.page, tt.size)
			if len(p.Items) != tt.wantLen || p.TotalPages != tt.wantPages {
				t.Fatalf("got %d items, %d pages", len(p.Items), p.TotalPages)
			}
			if p.Items[0] != tt.wantFirst {
				t.Errorf("first item = %d, want %d", p.Items[0], tt.wantFirst)
			}
			if p.TotalItems != 45 {
				t.Errorf("total items = %d", p.TotalItems)
			}
		})
	}
}

func TestPaginateEdges(t *testing.T) {
	empty := Paginate([]int{}, 1, 20)
	if empty.TotalPages != 1 || len(empty.Items) != 0 || empty.Items == nil {
		t.Errorf("empty list: %+v", empty)
	}

	beyond := Paginate([]int{1, 2, 3}, 5, 2)
	if len(beyond.Items) != 0 || beyond.TotalPages != 2 {
		t.Errorf("out of range page: %+v", beyond)
	}
}

func TestPaginateReconstructs(t *testing.T) {
	list := make([]int, 53)
	for i := range list {
		list[i] = i * 3
	}
	for _, size := range []int{1, 7, 20, 53, 100} {
		first := Paginate(list, 1, size)
		var rebuilt []int
		for p := 1; p <= first.TotalPages; p++ {
			rebuilt = append(rebuilt, Paginate(list, p, size).Items...)
		}
		if !reflect.DeepEqual(rebuilt, list) {
			t.Errorf("size %d: concatenated pages differ from input", size)
		}
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 0, []int{1}},
		{1, 1, []int{1}},
		{2, 4, []int{1, 2, 3, 4}},
		{3, 5, []int{1, 2, 3, 4, 5}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{3, 10, []int{1, 2, 3, 4, 5}},
		{4, 10, []int{2, 3, 4, 5, 6}},
		{7, 10, []int{5, 6, 7, 8, 9}},
		{8, 10, []int{6, 7, 8, 9, 10}},
		{10, 10, []int{6, 7, 8, 9, 10}},
	}
	for _, tt := range tests {
		if got := PageWindow(tt.current, tt.total); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PageWindow(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestParseViewParams(t *testing.T) {
	params, err := ParseViewParams(map[string][]string{
		"q":            {"Kofi"},
		"location":     {"Accra"},
		"database":     {"change_of_dob"},
		"results_page": {"2"},
		"category":     {"marriage_officer"},
		"filter":       {""},
		"sort":         {"desc"},
		"page":         {"abc"},
		"view":         {"change_of_name/7"},
		"close":        {"1"},
	})
	if err != nil {
		t.Fatalf("ParseViewParams: %v", err)
	}

	if params.Query.Name != "Kofi" || params.Query.Location != "Accra" || params.Query.DatabaseType != core.DatabaseChangeOfDOB {
		t.Errorf("query = %+v", params.Query)
	}
	if params.ResultsPage != 2 || params.Category != core.SourceMarriageOfficer || params.Order != OrderDesc {
		t.Errorf("params = %+v", params)
	}
	if !params.HasFilter || params.Filter != "" {
		t.Errorf("explicit empty filter not recorded")
	}
	if params.Page != 0 {
		t.Errorf("malformed page should be ignored, got %d", params.Page)
	}
	if params.View == nil || params.View.String() != "change_of_name/7" {
		t.Errorf("view = %v", params.View)
	}
	if !params.Close || params.Back {
		t.Errorf("close/back = %v/%v", params.Close, params.Back)
	}
}

func TestParseViewParamsErrors(t *testing.T) {
	for _, q := range []map[string][]string{
		{"category": {"weddings"}},
		{"sort": {"sideways"}},
		{"view": {"change_of_name"}},
		{"view": {"bogus/1"}},
		{"view": {"change_of_name/7/../../../admin/users"}},
		{"view": {"change_of_name/.."}},
		{"database": {"everything"}},
	} {
		if _, err := ParseViewParams(q); err == nil {
			t.Errorf("ParseViewParams(%v) succeeded", q)
		}
	}
}
