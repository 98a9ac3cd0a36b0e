package cmd

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rubiojr/regsearch/pkg/api"
	"github.com/rubiojr/regsearch/pkg/config"
	"github.com/rubiojr/regsearch/pkg/realtime"
)

const consoleRegistryResults = `{
  "results": [
    {"source_type":"change_of_name","id":1,"current_name":"Kofi Mensah","old_name":"Kofi of Accra"},
    {"source_type":"change_of_name","id":2,"current_name":"Ama <b>Owusu</b>"},
    {"source_type":"marriage_officer","id":3,"officer_name":"Rev. Adjei","church":"Wesley"}
  ],
  "total": 3,
  "total_pages": 1
}`

type reportLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *reportLog) add(s string) {
	l.mu.Lock()
	l.entries = append(l.entries, s)
	l.mu.Unlock()
}

func (l *reportLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func setupTestConsole(t *testing.T) (*httptest.Server, *http.Client, *reportLog) {
	t.Helper()

	reports := &reportLog{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/report"):
			body, _ := io.ReadAll(r.Body)
			reports.add(r.URL.Path + " " + string(body))
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/search":
			_, _ = w.Write([]byte(consoleRegistryResults))
		case r.URL.Path == "/search/change_of_name/1":
			_, _ = w.Write([]byte(`{"id":1,"current_name":"Kofi Mensah","gazette_number":"GG 42"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	cfg := config.GetDefaultConfig()
	cfg.API.BaseURL = upstream.URL
	cfg.API.RequestsPerSecond = 0
	cfg.Search.ProgressInterval = config.Duration{Duration: -1}

	factory, err := newEngineFactory(cfg)
	if err != nil {
		t.Fatalf("engine factory: %v", err)
	}

	hub := realtime.NewStateHub(8)
	sessions := api.NewSessionStore(factory.New, hub, time.Hour)
	_, handler := NewConsoleServer(sessions, hub)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	return ts, &http.Client{Jar: jar}, reports
}

func fetchPage(t *testing.T, c *http.Client, u string) string {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestConsoleSearchPage(t *testing.T) {
	ts, browser, _ := setupTestConsole(t)

	page := fetchPage(t, browser, ts.URL+"/?q=kofi")
	for _, want := range []string{
		"Kofi Mensah",
		"Ama &lt;b&gt;Owusu&lt;/b&gt;",
		"Change Of Name",
		"Marriage Officers",
		`value="kofi"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "<b>Owusu</b>") {
		t.Error("record text was not escaped")
	}

	page = fetchPage(t, browser, ts.URL+"/?category=marriage_officer")
	if !strings.Contains(page, "Rev. Adjei") || strings.Contains(page, "Kofi Mensah</a>") {
		t.Error("category switch did not change the listed records")
	}

	page = fetchPage(t, browser, ts.URL+"/?category=change_of_name&filter=accra")
	if !strings.Contains(page, "Kofi Mensah") || strings.Contains(page, "Owusu") {
		t.Error("filter did not narrow the list")
	}
}

func TestConsoleValidationNotice(t *testing.T) {
	ts, browser, _ := setupTestConsole(t)

	page := fetchPage(t, browser, ts.URL+"/?q=+++&location=Accra")
	if !strings.Contains(page, "name required") {
		t.Error("blank name should produce a notice")
	}

	page = fetchPage(t, browser, ts.URL+"/?category=weddings")
	if !strings.Contains(page, "unknown record category") {
		t.Error("bad category should produce a notice")
	}

	fetchPage(t, browser, ts.URL+"/?q=kofi")
	page = fetchPage(t, browser, ts.URL+"/?view=change_of_name/7/../../../admin/users")
	if !strings.Contains(page, "path separator") {
		t.Error("an id with path segments should produce a notice")
	}
	if strings.Contains(page, `class="modal"`) {
		t.Error("an invalid id opened the detail view")
	}
}

func TestConsoleDetailAndReport(t *testing.T) {
	ts, browser, reports := setupTestConsole(t)

	fetchPage(t, browser, ts.URL+"/?q=kofi")
	page := fetchPage(t, browser, ts.URL+"/?view=change_of_name/1")
	if !strings.Contains(page, "gazette_number") || !strings.Contains(page, "GG 42") {
		t.Error("detail fields not rendered")
	}

	page = fetchPage(t, browser, ts.URL+"/?view=change_of_name/2")
	if !strings.Contains(page, "Failed to load record details") {
		t.Error("detail failure message not rendered")
	}

	resp, err := browser.PostForm(ts.URL+"/report", url.Values{"message": {"wrong surname"}, "return": {"/"}})
	if err != nil {
		t.Fatalf("POST /report: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "issue has been reported") {
		t.Error("report confirmation missing")
	}
	if got := reports.all(); len(got) != 1 || !strings.Contains(got[0], "/search/change_of_name/2/report") {
		t.Errorf("reports = %v", got)
	}
	if strings.Contains(string(body), `class="modal"`) {
		t.Error("detail view still open after report")
	}
}

func TestConsoleCloseAndBack(t *testing.T) {
	ts, browser, _ := setupTestConsole(t)

	fetchPage(t, browser, ts.URL+"/?q=kofi")
	fetchPage(t, browser, ts.URL+"/?view=change_of_name/1")

	page := fetchPage(t, browser, ts.URL+"/?close=1")
	if strings.Contains(page, `class="modal"`) {
		t.Error("close did not close the detail view")
	}

	page = fetchPage(t, browser, ts.URL+"/?back=1")
	if strings.Contains(page, "Kofi Mensah") {
		t.Error("back did not reset the search")
	}
}

func TestConsoleGzip(t *testing.T) {
	ts, _, _ := setupTestConsole(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Vary"); !strings.Contains(got, "Accept-Encoding") {
		t.Errorf("Vary = %q, want gzip handler in the chain", got)
	}
}
