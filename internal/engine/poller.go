package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/five82/pinpoint/internal/table"
	"github.com/five82/pinpoint/internal/tracker"
)

// Outcome classifies one poll cycle.
type Outcome int

const (
	// OutcomeSkipped means the view was hidden and nothing was fetched.
	OutcomeSkipped Outcome = iota
	// OutcomeUnchanged means the summary matched the last committed one.
	OutcomeUnchanged
	// OutcomeRefetched means a body was fetched but its rows matched the display.
	OutcomeRefetched
	// OutcomeSwapped means the display was replaced.
	OutcomeSwapped
	// OutcomeStale means the page changed while the body was in flight.
	OutcomeStale
	// OutcomeFailed means a fetch or parse failed; the cycle had no effect.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeRefetched:
		return "refetched"
	case OutcomeSwapped:
		return "swapped"
	case OutcomeStale:
		return "stale"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CycleResult reports what a poll cycle or page load did. Callers may
// ignore it.
type CycleResult struct {
	Outcome Outcome
	Summary tracker.Summary
	Page    int
	Diff    table.Diff
	Err     error

	// Loaded is set for page loads, which are not gated by the summary.
	Loaded bool
}

// PollerOptions configure a Poller.
type PollerOptions struct {
	Interval  time.Duration
	Logger    *slog.Logger
	OnRefresh func(CycleResult)
}

// Poller watches /table-meta and swaps the displayed page only when the data
// behind it changed.
//
// Seed, Check and Load mutate the last committed summary and must not be
// called concurrently with each other; Run serializes them on one goroutine.
// SetVisible, Navigate and Reload are safe from any goroutine.
type Poller struct {
	meta      SummaryFetcher
	bodies    BodyFetcher
	display   Display
	interval  time.Duration
	logger    *slog.Logger
	onRefresh func(CycleResult)

	last tracker.Summary

	visible atomic.Bool
	wake    chan struct{}
	reload  chan struct{}
}

// NewPoller builds a visible Poller.
func NewPoller(meta SummaryFetcher, bodies BodyFetcher, display Display, opts PollerOptions) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultMetaInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Poller{
		meta:      meta,
		bodies:    bodies,
		display:   display,
		interval:  interval,
		logger:    logger,
		onRefresh: opts.OnRefresh,
		wake:      make(chan struct{}, 1),
		reload:    make(chan struct{}, 1),
	}
	p.visible.Store(true)
	return p
}

// Last returns the last committed summary.
func (p *Poller) Last() tracker.Summary {
	return p.last
}

// Visible reports the current visibility flag.
func (p *Poller) Visible() bool {
	return p.visible.Load()
}

// SetVisible updates visibility. Turning visible again requests one
// immediate check outside the cadence.
func (p *Poller) SetVisible(visible bool) {
	was := p.visible.Swap(visible)
	if visible && !was {
		signal(p.wake)
	}
}

// Navigate moves the display to page and requests an immediate load.
func (p *Poller) Navigate(page int) {
	p.display.SetPage(page)
	signal(p.reload)
}

// Reload requests an immediate load of the current page.
func (p *Poller) Reload() {
	signal(p.reload)
}

// Seed performs the unscheduled initial summary fetch. On failure the last
// summary stays at its zero value.
func (p *Poller) Seed(ctx context.Context) error {
	summary, err := p.meta.FetchSummary(ctx)
	if err != nil {
		p.logger.Warn("seed summary failed", "error", err)
		return err
	}
	p.last = summary
	p.display.RecordSummary(summary)
	return nil
}

// Check runs one poll cycle.
func (p *Poller) Check(ctx context.Context) CycleResult {
	if !p.visible.Load() {
		return CycleResult{Outcome: OutcomeSkipped}
	}

	summary, err := p.meta.FetchSummary(ctx)
	if err != nil {
		p.logger.Debug("summary poll failed", "error", err)
		return CycleResult{Outcome: OutcomeFailed, Err: err}
	}
	p.display.RecordSummary(summary)
	if summary.Equal(p.last) {
		return CycleResult{Outcome: OutcomeUnchanged, Summary: summary}
	}

	page := p.display.Page()
	rows, err := p.fetchRows(ctx, page)
	if err != nil {
		p.logger.Debug("table body fetch failed", "page", page, "error", err)
		return CycleResult{Outcome: OutcomeFailed, Summary: summary, Page: page, Err: err}
	}
	p.last = summary

	result := p.apply(page, rows, false)
	result.Summary = summary
	return result
}

// Load fetches the current page's body without consulting the summary, as
// a page load does.
func (p *Poller) Load(ctx context.Context) CycleResult {
	page := p.display.Page()
	rows, err := p.fetchRows(ctx, page)
	if err != nil {
		p.logger.Debug("page load failed", "page", page, "error", err)
		return CycleResult{Outcome: OutcomeFailed, Page: page, Err: err, Loaded: true}
	}
	result := p.apply(page, rows, true)
	result.Summary = p.last
	return result
}

// Run seeds the summary, loads the current page and then polls at the
// configured interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	return p.loop(ctx, ticker.C)
}

func (p *Poller) loop(ctx context.Context, ticks <-chan time.Time) error {
	_ = p.Seed(ctx)
	p.Load(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			p.Check(ctx)
		case <-p.wake:
			p.Check(ctx)
		case <-p.reload:
			p.Load(ctx)
		}
	}
}

func (p *Poller) fetchRows(ctx context.Context, page int) ([]table.Row, error) {
	body, err := p.bodies.FetchTableBody(ctx, page)
	if err != nil {
		return nil, err
	}
	return table.Parse(body)
}

func (p *Poller) apply(page int, rows []table.Row, loaded bool) CycleResult {
	diff, swapped := p.display.Swap(page, rows)
	if !swapped {
		if p.display.Page() != page {
			p.logger.Debug("discarding stale table body", "page", page)
			return CycleResult{Outcome: OutcomeStale, Page: page, Loaded: loaded}
		}
		return CycleResult{Outcome: OutcomeRefetched, Page: page, Loaded: loaded}
	}

	result := CycleResult{Outcome: OutcomeSwapped, Page: page, Diff: diff, Loaded: loaded}
	p.logger.Info("table refreshed",
		"page", page,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"changed", len(diff.Changed),
	)
	if p.onRefresh != nil {
		p.onRefresh(result)
	}
	return result
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
