package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// GateOutcome classifies one gate probe or dismiss.
type GateOutcome int

const (
	// GateInactive means the gate was never armed.
	GateInactive GateOutcome = iota
	// GateWaiting means no newer record exists yet.
	GateWaiting
	// GateRevealed means this call performed the reveal.
	GateRevealed
	// GateAlreadyRevealed means the gate had already opened.
	GateAlreadyRevealed
	// GateFailed means the probe failed; the gate stays closed.
	GateFailed
)

func (o GateOutcome) String() string {
	switch o {
	case GateInactive:
		return "inactive"
	case GateWaiting:
		return "waiting"
	case GateRevealed:
		return "revealed"
	case GateAlreadyRevealed:
		return "already revealed"
	case GateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RevealReason records why the gate opened.
type RevealReason int

const (
	RevealNone RevealReason = iota
	RevealNewData
	RevealDismissed
)

func (r RevealReason) String() string {
	switch r {
	case RevealNewData:
		return "new data"
	case RevealDismissed:
		return "dismissed"
	default:
		return "none"
	}
}

// GateResult reports what a probe or dismiss did. Callers may ignore it.
type GateResult struct {
	Outcome GateOutcome
	Reason  RevealReason
	Newest  string
	Err     error
}

// GateOptions configure a Gate.
type GateOptions struct {
	Active   bool
	Baseline string
	Interval time.Duration
	Logger   *slog.Logger
	OnReveal func(GateResult)
}

// Gate blocks the view until a record newer than the baseline exists or the
// user dismisses it. It opens at most once and acknowledges exactly once.
type Gate struct {
	meta     SummaryFetcher
	ack      Acknowledger
	active   bool
	baseline string
	interval time.Duration
	logger   *slog.Logger
	onReveal func(GateResult)

	revealed atomic.Bool
	done     chan struct{}
}

// NewGate builds a Gate. An inactive gate never probes and never blocks.
func NewGate(meta SummaryFetcher, ack Acknowledger, opts GateOptions) *Gate {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultGateInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		meta:     meta,
		ack:      ack,
		active:   opts.Active,
		baseline: opts.Baseline,
		interval: interval,
		logger:   logger,
		onReveal: opts.OnReveal,
		done:     make(chan struct{}),
	}
}

// Active reports whether the gate was armed.
func (g *Gate) Active() bool { return g.active }

// Baseline returns the newest token seen when the gate was armed.
func (g *Gate) Baseline() string { return g.baseline }

// Blocking reports whether the overlay should currently cover the view.
func (g *Gate) Blocking() bool {
	return g.active && !g.revealed.Load()
}

// Check probes the summary once and reveals when a newer record exists.
func (g *Gate) Check(ctx context.Context) GateResult {
	if !g.active {
		return GateResult{Outcome: GateInactive}
	}
	if g.revealed.Load() {
		return GateResult{Outcome: GateAlreadyRevealed}
	}

	summary, err := g.meta.FetchSummary(ctx)
	if err != nil {
		g.logger.Debug("gate probe failed", "error", err)
		return GateResult{Outcome: GateFailed, Err: err}
	}
	// A dismiss may have landed while the probe was in flight.
	if g.revealed.Load() {
		return GateResult{Outcome: GateAlreadyRevealed, Newest: summary.Newest}
	}
	if summary.Newest == "" || summary.Newest == g.baseline {
		return GateResult{Outcome: GateWaiting, Newest: summary.Newest}
	}
	return g.reveal(ctx, RevealNewData, summary.Newest)
}

// Dismiss opens the gate on the user's request.
func (g *Gate) Dismiss(ctx context.Context) GateResult {
	if !g.active {
		return GateResult{Outcome: GateInactive}
	}
	return g.reveal(ctx, RevealDismissed, "")
}

// Run probes immediately and then once per interval, each wait starting
// after the previous probe completed. It returns at once for an inactive
// gate and after the reveal otherwise.
func (g *Gate) Run(ctx context.Context) error {
	if !g.active {
		return nil
	}

	timer := time.NewTimer(g.interval)
	defer timer.Stop()
	for {
		g.Check(ctx)
		if g.revealed.Load() {
			return nil
		}

		timer.Reset(g.interval)
		select {
		case <-ctx.Done():
			return nil
		case <-g.done:
			return nil
		case <-timer.C:
		}
	}
}

func (g *Gate) reveal(ctx context.Context, reason RevealReason, newest string) GateResult {
	if !g.revealed.CompareAndSwap(false, true) {
		return GateResult{Outcome: GateAlreadyRevealed, Newest: newest}
	}
	close(g.done)

	result := GateResult{Outcome: GateRevealed, Reason: reason, Newest: newest}
	if err := g.ack.Acknowledge(ctx); err != nil {
		g.logger.Warn("acknowledge new data failed", "error", err)
		result.Err = err
	}
	g.logger.Info("gate revealed", "reason", reason.String(), "newest", newest, "baseline", g.baseline)
	if g.onReveal != nil {
		g.onReveal(result)
	}
	return result
}
