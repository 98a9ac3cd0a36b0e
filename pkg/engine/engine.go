// Package engine drives a person search from query submission to the
// rendered category page, plus the lazily loaded detail view of a single
// record.
//
// The Engine owns a State value and advances it only through the pure
// transitions defined on State. Network calls are made without holding the
// engine lock; responses are applied only if no newer request, Back or
// Close happened in the meantime (request generations), so a late response
// can never overwrite newer state.
package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rubiojr/regsearch/pkg/client"
	"github.com/rubiojr/regsearch/pkg/config"
	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/log"
	"github.com/rubiojr/regsearch/pkg/search"
)

var logger = log.ForService("engine")

// Backend is the registry API as the engine sees it. *client.Client
// implements it.
type Backend interface {
	Search(ctx context.Context, req client.SearchRequest) (*client.SearchResponse, error)
	Detail(ctx context.Context, st core.SourceType, id core.ID) (*core.Detail, error)
	Report(ctx context.Context, st core.SourceType, id core.ID, message string) error
}

// Options tunes an Engine. Zero values fall back to the configuration
// defaults.
type Options struct {
	// Limit is the number of hits requested per registry page.
	Limit int

	// PageSize is the number of records per category page.
	PageSize int

	// Synthetic progress: Step units every Interval, capped at Cap. A
	// negative Interval disables the ticker.
	ProgressStep     int
	ProgressInterval time.Duration
	ProgressCap      int

	Sorter *search.Sorter

	// OnChange receives a snapshot after every state transition, progress
	// ticks included. It must not call back into the engine.
	OnChange func(State)
}

// OptionsFromConfig builds Options from the [search] configuration section.
func OptionsFromConfig(cfg config.SearchConfig) (Options, error) {
	sorter, err := search.NewSorter(cfg.Locale)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Limit:            cfg.Limit,
		PageSize:         cfg.PageSize,
		ProgressStep:     cfg.ProgressStep,
		ProgressInterval: cfg.ProgressInterval.Duration,
		ProgressCap:      cfg.ProgressCap,
		Sorter:           sorter,
	}, nil
}

func (o *Options) applyDefaults() {
	if o.Limit <= 0 {
		o.Limit = config.DefaultLimit
	}
	if o.PageSize <= 0 {
		o.PageSize = config.DefaultPageSize
	}
	if o.ProgressStep <= 0 {
		o.ProgressStep = config.DefaultProgressStep
	}
	if o.ProgressInterval == 0 {
		o.ProgressInterval = config.DefaultProgressInterval
	}
	if o.ProgressCap <= 0 {
		o.ProgressCap = config.DefaultProgressCap
	}
	if o.Sorter == nil {
		o.Sorter, _ = search.NewSorter("")
	}
}

// Engine is a single person search session. It is safe for concurrent use.
type Engine struct {
	backend Backend
	opts    Options

	mu           sync.Mutex
	state        State
	searchGen    uint64
	detailGen    uint64
	stopProgress func()
	closed       bool

	notifyMu sync.Mutex

	// tickers counts running progress goroutines.
	tickers atomic.Int32
}

// New creates an engine in the initial idle state.
func New(backend Backend, opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{
		backend: backend,
		opts:    opts,
		state:   Initial(),
	}
}

// PageSize returns the category page size.
func (e *Engine) PageSize() int {
	return e.opts.PageSize
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CategoryView returns the current page of the active category.
func (e *Engine) CategoryView() CategoryView {
	return e.Render(e.Snapshot())
}

// Render builds the category view of s with the engine's page size and
// collation. It does not lock, so OnChange callbacks may use it.
func (e *Engine) Render(s State) CategoryView {
	return BuildCategoryView(s, e.opts.PageSize, e.opts.Sorter)
}

// Submit validates q and runs it against the first registry page.
// A blank name fails with a *ValidationError and no request is made.
// Registry failures are recorded in the state and returned as a
// *SearchFailure. If the search is superseded while in flight, Submit
// returns ErrSuperseded and leaves the newer state alone.
func (e *Engine) Submit(ctx context.Context, q core.Query) error {
	if q.TrimmedName() == "" {
		return &ValidationError{Field: "name", Message: "name required"}
	}
	return e.run(ctx, q, 1)
}

// SetResultsPage re-runs the current query for another registry page.
func (e *Engine) SetResultsPage(ctx context.Context, page int) error {
	e.mu.Lock()
	st := e.state
	e.mu.Unlock()

	if st.Phase != PhaseLoaded {
		return ErrNotLoaded
	}
	if page < 1 || page > st.Global.TotalPages {
		return ErrPageOutOfRange
	}
	return e.run(ctx, st.Query, page)
}

func (e *Engine) run(ctx context.Context, q core.Query, page int) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.searchGen++
	e.detailGen++
	gen := e.searchGen
	e.stopProgressLocked()
	e.state = e.state.begin(q, page, gen)
	e.startProgressLocked(gen)
	e.mu.Unlock()
	e.notify()

	name := q.TrimmedName()
	logger.Debugf("search #%d %q page %d", gen, name, page)

	resp, err := e.backend.Search(ctx, client.SearchRequest{
		Query: name,
		Page:  page,
		Limit: e.opts.Limit,
	})

	e.mu.Lock()
	if gen != e.searchGen {
		e.mu.Unlock()
		logger.Debugf("search #%d superseded, dropping response", gen)
		return ErrSuperseded
	}
	e.stopProgressLocked()
	if err != nil {
		msg := client.ErrorMessage(err)
		e.state = e.state.fail(msg)
		e.mu.Unlock()
		logger.Warnf("search %q failed: %v", name, err)
		e.notify()
		return &SearchFailure{Message: msg, Err: err}
	}
	e.state = e.state.succeed(resp, page)
	classified := e.state.Results.Total()
	e.mu.Unlock()

	logger.Debugf("search #%d loaded %d of %d hits", gen, classified, len(resp.Results))
	e.notify()
	return nil
}

// startProgressLocked starts the synthetic progress ticker for search gen.
// The caller holds e.mu.
func (e *Engine) startProgressLocked(gen uint64) {
	if e.opts.ProgressInterval < 0 {
		return
	}

	stop := make(chan struct{})
	ticker := time.NewTicker(e.opts.ProgressInterval)
	e.tickers.Add(1)

	go func() {
		defer e.tickers.Add(-1)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.mu.Lock()
				if gen != e.searchGen || e.state.Phase != PhaseSearching {
					e.mu.Unlock()
					return
				}
				next := e.state.tick(e.opts.ProgressStep, e.opts.ProgressCap)
				changed := next.Progress != e.state.Progress
				e.state = next
				e.mu.Unlock()
				if changed {
					e.notify()
				}
			}
		}
	}()

	var once sync.Once
	e.stopProgress = func() {
		once.Do(func() { close(stop) })
	}
}

// stopProgressLocked stops the running ticker, if any. The caller holds e.mu.
func (e *Engine) stopProgressLocked() {
	if e.stopProgress != nil {
		e.stopProgress()
		e.stopProgress = nil
	}
}

// Back returns to a fresh search form. Any in-flight search or detail
// response is ignored when it arrives.
func (e *Engine) Back() {
	e.mu.Lock()
	e.searchGen++
	e.detailGen++
	e.stopProgressLocked()
	e.state = Initial()
	e.mu.Unlock()
	e.notify()
}

// Close tears the engine down. Pending responses are discarded and no
// further notifications are delivered.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searchGen++
	e.detailGen++
	e.stopProgressLocked()
	e.closed = true
}

// SetActiveCategory switches the category shown and resets its page.
func (e *Engine) SetActiveCategory(c core.SourceType) error {
	if !c.Known() {
		return &ValidationError{Field: "category", Message: "unknown category " + string(c)}
	}
	return e.update(func(s State) (State, error) { return s.WithCategory(c), nil })
}

// SetFilterText changes the local filter and resets the category page.
func (e *Engine) SetFilterText(text string) error {
	return e.update(func(s State) (State, error) { return s.WithFilterText(text), nil })
}

// ToggleSort flips the display name sort direction.
func (e *Engine) ToggleSort() error {
	return e.update(func(s State) (State, error) { return s.WithSortToggled(), nil })
}

// SetSortOrder sets the display name sort direction.
func (e *Engine) SetSortOrder(o search.Order) error {
	return e.update(func(s State) (State, error) { return s.WithOrder(o), nil })
}

// SetCategoryPage moves to another page of the active category.
func (e *Engine) SetCategoryPage(page int) error {
	return e.update(func(s State) (State, error) { return s.WithCategoryPage(page, e.opts.PageSize) })
}

// update applies a view transition. View commands require a loaded search
// and return ErrNotLoaded otherwise.
func (e *Engine) update(fn func(State) (State, error)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.state.Phase != PhaseLoaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	next, err := fn(e.state)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = next
	e.mu.Unlock()
	e.notify()
	return nil
}

// SelectRecord opens the detail view for a record and loads it. A failed
// lookup keeps the view open with DetailFailureMessage and returns a
// *DetailFailure.
func (e *Engine) SelectRecord(ctx context.Context, st core.SourceType, id core.ID) error {
	if !st.Known() {
		return &ValidationError{Field: "source_type", Message: "unknown category " + string(st)}
	}
	if err := id.Validate(); err != nil {
		return &ValidationError{Field: "id", Message: err.Error()}
	}
	ref := search.RecordRef{Category: st, ID: id}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.detailGen++
	gen := e.detailGen
	e.state = e.state.selecting(ref)
	e.mu.Unlock()
	e.notify()

	detail, err := e.backend.Detail(ctx, st, id)

	e.mu.Lock()
	if gen != e.detailGen {
		e.mu.Unlock()
		logger.Debugf("detail %s superseded, dropping response", ref)
		return ErrSuperseded
	}
	if err != nil {
		e.state = e.state.detailFailed()
		e.mu.Unlock()
		logger.Warnf("loading %s failed: %v", ref, err)
		e.notify()
		return &DetailFailure{Ref: ref, Err: err}
	}
	e.state = e.state.detailLoaded(detail)
	e.mu.Unlock()
	e.notify()
	return nil
}

// CloseDetail closes the detail view whatever state it is in, dropping
// the selection, the loaded detail and the report form.
func (e *Engine) CloseDetail() {
	e.mu.Lock()
	e.detailGen++
	e.state = e.state.closeDetail()
	e.mu.Unlock()
	e.notify()
}

// OpenReport opens the report form of the selected record.
func (e *Engine) OpenReport() error {
	e.mu.Lock()
	if !e.state.Detail.Open() {
		e.mu.Unlock()
		return ErrNoSelection
	}
	e.state = e.state.openReport()
	e.mu.Unlock()
	e.notify()
	return nil
}

// SetReportMessage updates the report form text.
func (e *Engine) SetReportMessage(text string) error {
	e.mu.Lock()
	if !e.state.Detail.Open() {
		e.mu.Unlock()
		return ErrNoSelection
	}
	if e.state.Detail.Report.Submitting {
		e.mu.Unlock()
		return ErrReportPending
	}
	if !e.state.Detail.Report.Open {
		e.state = e.state.openReport()
	}
	e.state = e.state.reportMessage(text)
	e.mu.Unlock()
	e.notify()
	return nil
}

// SubmitReport sends the report form. Success closes the detail view.
func (e *Engine) SubmitReport(ctx context.Context) error {
	e.mu.Lock()
	if !e.state.Detail.Open() {
		e.mu.Unlock()
		return ErrNoSelection
	}
	if e.state.Detail.Report.Submitting {
		e.mu.Unlock()
		return ErrReportPending
	}
	message := strings.TrimSpace(e.state.Detail.Report.Message)
	if message == "" {
		e.mu.Unlock()
		return &ValidationError{Field: "message", Message: "message required"}
	}
	ref := *e.state.Detail.Selected
	gen := e.detailGen
	e.state = e.state.reportSubmitting()
	e.mu.Unlock()
	e.notify()

	err := e.backend.Report(ctx, ref.Category, ref.ID, message)

	e.mu.Lock()
	if gen != e.detailGen {
		e.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		e.state = e.state.reportFailed()
		e.mu.Unlock()
		logger.Warnf("reporting %s failed: %v", ref, err)
		e.notify()
		return &ReportFailure{Ref: ref, Err: err}
	}
	e.detailGen++
	e.state = e.state.closeDetail()
	e.mu.Unlock()
	logger.Infof("issue reported for %s", ref)
	e.notify()
	return nil
}

func (e *Engine) notify() {
	if e.opts.OnChange == nil {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	closed := e.closed
	snapshot := e.state
	e.mu.Unlock()

	if closed {
		return
	}
	e.opts.OnChange(snapshot)
}
