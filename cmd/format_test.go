package cmd

import (
	"strings"
	"testing"

	"github.com/rubiojr/regsearch/pkg/core"
)

func TestFormatNumber(t *testing.T) {
	tests := map[int]string{
		0:       "0",
		999:     "999",
		1500:    "1.5K",
		2500000: "2.5M",
	}
	for in, want := range tests {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := categoryLabel(core.SourceDateOfBirth); got != "Date Of Birth Corrections" {
		t.Errorf("label = %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		progress int
		hashes   int
		suffix   string
	}{
		{0, 0, "   0%"},
		{50, 5, "  50%"},
		{90, 9, "  90%"},
		{150, 10, " 100%"},
		{-5, 0, "   0%"},
	}
	for _, tt := range tests {
		bar := progressBar(tt.progress, 10)
		if n := strings.Count(bar, "#"); n != tt.hashes {
			t.Errorf("progressBar(%d) has %d hashes, want %d: %q", tt.progress, n, tt.hashes, bar)
		}
		if !strings.HasSuffix(bar, tt.suffix) {
			t.Errorf("progressBar(%d) = %q", tt.progress, bar)
		}
	}
}

func TestFormatPager(t *testing.T) {
	got := formatPager(5, 10, []int{3, 4, 5, 6, 7})
	if !strings.HasPrefix(got, "…") || !strings.HasSuffix(got, "…") || !strings.Contains(got, "[5]") {
		t.Errorf("pager = %q", got)
	}
	if got := formatPager(1, 1, []int{1}); strings.Contains(got, "…") {
		t.Errorf("single page pager = %q", got)
	}
}
