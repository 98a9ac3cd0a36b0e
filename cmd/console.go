package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/regsearch/cmd/web/components"
	"github.com/rubiojr/regsearch/cmd/web/components/types"
	"github.com/rubiojr/regsearch/pkg/api"
	"github.com/rubiojr/regsearch/pkg/client"
	"github.com/rubiojr/regsearch/pkg/config"
	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/engine"
	"github.com/rubiojr/regsearch/pkg/log"
	"github.com/rubiojr/regsearch/pkg/realtime"
	"github.com/rubiojr/regsearch/pkg/search"
	"github.com/rubiojr/regsearch/pkg/version"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

var consoleLog = log.ForService("console")

// ConsoleCommand creates the console command
func ConsoleCommand() *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "Start the web console",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (default from config)",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (default from config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runConsole(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

// engineFactory builds session engines from the current configuration.
// reload swaps in a new configuration for sessions created afterwards.
type engineFactory struct {
	mu      sync.RWMutex
	backend engine.Backend
	opts    engine.Options
}

func newEngineFactory(cfg *config.Config) (*engineFactory, error) {
	f := &engineFactory{}
	if err := f.reload(cfg); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *engineFactory) reload(cfg *config.Config) error {
	c, err := client.NewFromConfig(cfg.API)
	if err != nil {
		return fmt.Errorf("creating registry client: %w", err)
	}
	opts, err := engine.OptionsFromConfig(cfg.Search)
	if err != nil {
		return fmt.Errorf("search options: %w", err)
	}

	f.mu.Lock()
	f.backend = c
	f.opts = opts
	f.mu.Unlock()
	return nil
}

func (f *engineFactory) New(onChange func(engine.State)) *engine.Engine {
	f.mu.RLock()
	defer f.mu.RUnlock()
	opts := f.opts
	opts.OnChange = onChange
	return engine.New(f.backend, opts)
}

// ConsoleServer serves the HTML console next to the JSON API.
type ConsoleServer struct {
	api      *api.Server
	sessions *api.SessionStore
}

// NewConsoleServer wires the API server, the session store and the HTML
// handlers into a single handler. The WebSocket route is mounted outside
// the gzip wrapper so the connection can be hijacked.
func NewConsoleServer(sessions *api.SessionStore, hub *realtime.StateHub) (*ConsoleServer, http.Handler) {
	s := &ConsoleServer{
		api:      api.NewServer(sessions, hub),
		sessions: sessions,
	}

	mux := http.NewServeMux()
	s.api.RegisterRoutes(mux)
	mux.HandleFunc("GET /{$}", s.handleConsole)
	mux.HandleFunc("POST /report", s.handleReport)

	root := http.NewServeMux()
	s.api.RegisterStream(root)
	root.Handle("/", gzhttp.GzipHandler(mux))

	return s, api.CorsMiddleware(root)
}

func runConsole(ctx context.Context, configPath, host, port string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if host == "" {
		host = cfg.Console.Host
	}
	if port == "" {
		port = cfg.Console.Port
	}

	factory, err := newEngineFactory(cfg)
	if err != nil {
		return err
	}

	hub := realtime.NewStateHub(32)
	sessions := api.NewSessionStore(factory.New, hub, cfg.Console.SessionTTL.Duration)
	_, handler := NewConsoleServer(sessions, hub)

	server := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		consoleLog.Infof("Starting console on http://%s", server.Addr)
		consoleLog.Infof("Registry API: %s", cfg.API.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("console server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(gctx)
	})

	g.Go(func() error {
		watchConfig(gctx, configPath, factory)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		consoleLog.Infof("Shutting down console...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// watchConfig reloads the engine factory whenever the config file changes.
// Running sessions keep their engines; new sessions pick up the change.
func watchConfig(ctx context.Context, configPath string, factory *engineFactory) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		consoleLog.Warnf("failed to create config file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(configPath); err != nil {
		consoleLog.Warnf("failed to watch config file %s: %v", configPath, err)
		return
	}
	consoleLog.Debugf("watching config file for changes: %s", configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			// Editors often replace the file; give the new one time to land.
			time.Sleep(150 * time.Millisecond)
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					consoleLog.Warnf("config file removed, keeping current configuration")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					consoleLog.Warnf("failed to re-add config file to watcher: %v", err)
				}
			}

			cfg, err := config.LoadConfig(configPath)
			if err == nil {
				err = factory.reload(cfg)
			}
			if err != nil {
				consoleLog.Errorf("failed to reload configuration: %v", err)
				continue
			}
			consoleLog.Infof("configuration reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			consoleLog.Warnf("config file watcher error: %v", err)
		}
	}
}

// handleConsole applies the commands carried in the query string to the
// session's engine, then renders the page.
func (s *ConsoleServer) handleConsole(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	eng := sess.Engine
	ctx := r.Context()

	var notice string
	if r.URL.Query().Get("reported") != "" {
		notice = "Thank you, the issue has been reported."
	}

	params, err := search.ParseViewParams(r.URL.Query())
	if err != nil {
		notice = err.Error()
	} else {
		notice = firstMessage(notice, applyViewParams(ctx, eng, params))
	}

	st := eng.Snapshot()
	data := buildPageData(st, eng.Render(st))
	data.Notice = notice

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.Console(data).Render(ctx, w); err != nil {
		consoleLog.Errorf("rendering console: %v", err)
	}
}

// applyViewParams runs the commands in a fixed order: navigation first,
// then a new search, then view adjustments and finally the detail view.
// It returns the first user-facing message produced.
func applyViewParams(ctx context.Context, eng *engine.Engine, p search.ViewParams) string {
	var msgs []string
	note := func(err error) {
		if msg := consoleMessage(err); msg != "" {
			msgs = append(msgs, msg)
		}
	}

	if p.Back {
		eng.Back()
	}
	if p.Query.Name != "" || p.Query.Location != "" || p.Query.Profession != "" {
		note(eng.Submit(ctx, p.Query))
	}
	if p.ResultsPage > 0 {
		note(eng.SetResultsPage(ctx, p.ResultsPage))
	}
	if p.Category != "" {
		note(eng.SetActiveCategory(p.Category))
	}
	if p.HasFilter {
		note(eng.SetFilterText(p.Filter))
	}
	if p.Order != "" {
		note(eng.SetSortOrder(p.Order))
	}
	if p.Page > 0 {
		note(eng.SetCategoryPage(p.Page))
	}
	if p.Close {
		eng.CloseDetail()
	}
	if p.View != nil {
		note(eng.SelectRecord(ctx, p.View.Category, p.View.ID))
	}

	if len(msgs) == 0 {
		return ""
	}
	return msgs[0]
}

// consoleMessage returns the notice to show for an engine error. Failures
// already recorded in the state (search, detail and report failures),
// superseded requests and view links followed without loaded results
// produce no notice.
func consoleMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr *engine.ValidationError
		serr *engine.SearchFailure
		derr *engine.DetailFailure
		rerr *engine.ReportFailure
	)
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &serr), errors.As(err, &derr), errors.As(err, &rerr), errors.Is(err, engine.ErrSuperseded),
		errors.Is(err, engine.ErrNotLoaded):
		return ""
	}
	return err.Error()
}

func firstMessage(msgs ...string) string {
	for _, m := range msgs {
		if m != "" {
			return m
		}
	}
	return ""
}

// handleReport submits the report form and redirects back to the page the
// form was posted from.
func (s *ConsoleServer) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	back := r.PostForm.Get("return")
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		back = "/"
	}

	err := sess.Engine.SetReportMessage(r.PostForm.Get("message"))
	if err == nil {
		err = sess.Engine.SubmitReport(r.Context())
	}
	if err == nil {
		back = addParam(back, "reported", "1")
	} else {
		consoleLog.Debugf("report not submitted: %v", err)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func addParam(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// buildPageData flattens engine state into what the console page renders.
func buildPageData(st engine.State, view engine.CategoryView) types.PageData {
	data := types.PageData{
		Title:          "Registry Search",
		Version:        version.Version,
		Name:           st.Query.Name,
		Location:       st.Query.Location,
		Profession:     st.Query.Profession,
		DatabaseType:   string(st.Query.DatabaseType),
		Phase:          string(st.Phase),
		Progress:       st.Progress,
		Error:          st.Error,
		ActiveCategory: string(st.View.Category),
		Filter:         st.View.FilterText,
		Order:          string(st.View.Order),
		CategoryPage:   view.Page.Number,
		CategoryPages:  view.Page.TotalPages,
		CategoryWindow: view.Window,
		ResultsPage:    st.Global.CurrentPage,
		ResultsPages:   st.Global.TotalPages,
		ResultsWindow:  st.ResultsWindow(),
		TotalResults:   st.Global.TotalResults,
	}

	for _, c := range core.Categories {
		data.Tabs = append(data.Tabs, types.CategoryTab{
			Key:    string(c),
			Label:  categoryLabel(c),
			Count:  view.Counts[c],
			Active: c == view.Category,
		})
	}

	for _, r := range view.Page.Items {
		data.Rows = append(data.Rows, types.RecordRow{
			Ref:     search.RecordRef{Category: r.SourceType(), ID: r.RecordID()}.String(),
			Name:    firstMessage(r.DisplayName(), "(unnamed)"),
			Summary: r.Summary(),
			Source:  r.Source(),
		})
	}

	if d := st.Detail; d.Open() {
		dv := &types.DetailView{
			Ref:           d.Selected.String(),
			Name:          d.Selected.String(),
			Loading:       d.Loading,
			Error:         d.Error,
			ReportOpen:    d.Report.Open,
			ReportMessage: d.Report.Message,
			ReportError:   d.Report.Error,
		}
		if d.Record != nil && d.Record.DisplayName() != "" {
			dv.Name = d.Record.DisplayName()
		}
		if d.Detail != nil {
			for _, key := range core.SortedKeys(d.Detail.Fields) {
				dv.Fields = append(dv.Fields, types.Field{Key: key, Value: core.FormatValue(d.Detail.Fields[key])})
			}
		}
		data.Detail = dv
	}

	return data
}
