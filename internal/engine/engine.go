package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/pinpoint/internal/table"
	"github.com/five82/pinpoint/internal/tracker"
)

const (
	DefaultMetaInterval = 5 * time.Second
	DefaultGateInterval = 3500 * time.Millisecond
)

// SummaryFetcher retrieves the lightweight table summary.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context) (tracker.Summary, error)
}

// BodyFetcher retrieves the rendered rows for one page.
type BodyFetcher interface {
	FetchTableBody(ctx context.Context, page int) (string, error)
}

// Acknowledger clears the server's wait-for-new flag.
type Acknowledger interface {
	Acknowledge(ctx context.Context) error
}

// Submitter posts position reports.
type Submitter interface {
	SubmitReport(ctx context.Context, report tracker.Report) (tracker.ReportResult, error)
}

// Display is the table the poller swaps rows into. *state.Store implements it.
type Display interface {
	Page() int
	SetPage(page int)
	Swap(page int, rows []table.Row) (table.Diff, bool)
	RecordSummary(summary tracker.Summary)
}

// Options configure an Engine. Zero values select the defaults.
type Options struct {
	MetaInterval time.Duration
	GateInterval time.Duration
	WaitForNew   bool
	Baseline     string
	Logger       *slog.Logger

	// OnRefresh is called from the poller goroutine after every swap.
	OnRefresh func(CycleResult)
	// OnReveal is called once, from whichever goroutine revealed the gate.
	OnReveal func(GateResult)
}

// Engine groups the three components of one observer session.
type Engine struct {
	Poller   *Poller
	Gate     *Gate
	Reporter *Reporter
}

// New wires an Engine against api and display.
func New(api tracker.API, display Display, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		Poller: NewPoller(api, api, display, PollerOptions{
			Interval:  opts.MetaInterval,
			Logger:    logger,
			OnRefresh: opts.OnRefresh,
		}),
		Gate: NewGate(api, api, GateOptions{
			Active:   opts.WaitForNew,
			Baseline: opts.Baseline,
			Interval: opts.GateInterval,
			Logger:   logger,
			OnReveal: opts.OnReveal,
		}),
		Reporter: NewReporter(api, ReporterOptions{Logger: logger}),
	}
}

// Run drives the poller and the gate until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Poller.Run(gctx) })
	g.Go(func() error { return e.Gate.Run(gctx) })
	return g.Wait()
}
