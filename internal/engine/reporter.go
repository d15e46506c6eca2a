package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/five82/pinpoint/internal/geo"
	"github.com/five82/pinpoint/internal/tracker"
)

// ErrDropped is returned by Submission.Wait for a submission that was
// dropped because another was in flight.
var ErrDropped = errors.New("report dropped: submission in flight")

// ReporterOptions configure a Reporter.
type ReporterOptions struct {
	Logger *slog.Logger
	// Now stamps reports; nil uses time.Now.
	Now func() time.Time
}

// Reporter posts position reports with at most one request in flight.
// Submissions made while one is pending are dropped, never queued.
type Reporter struct {
	api      Submitter
	logger   *slog.Logger
	now      func() time.Time
	inFlight atomic.Bool
}

// NewReporter builds a Reporter.
func NewReporter(api Submitter, opts ReporterOptions) *Reporter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Reporter{api: api, logger: logger, now: now}
}

// InFlight reports whether a submission is pending.
func (r *Reporter) InFlight() bool {
	return r.inFlight.Load()
}

// Submission is the handle returned by Submit. Callers may ignore it.
type Submission struct {
	Accepted bool
	Report   tracker.Report

	done    chan struct{}
	outcome *settlement
}

type settlement struct {
	result tracker.ReportResult
	err    error
}

// Wait blocks until the request settles or ctx is done. The in-flight guard
// is already clear when Wait returns the settlement.
func (s Submission) Wait(ctx context.Context) (tracker.ReportResult, error) {
	if !s.Accepted {
		return tracker.ReportResult{}, ErrDropped
	}
	select {
	case <-s.done:
		return s.outcome.result, s.outcome.err
	case <-ctx.Done():
		return tracker.ReportResult{}, ctx.Err()
	}
}

// Submit starts one report for fix unless another is in flight.
func (r *Reporter) Submit(ctx context.Context, fix geo.Fix, device tracker.Device) Submission {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("report dropped, previous still in flight")
		return Submission{}
	}

	sub := Submission{
		Accepted: true,
		Report:   tracker.NewReport(fix.Lat, fix.Lng, fix.Accuracy, device, r.now()),
		done:     make(chan struct{}),
		outcome:  &settlement{},
	}
	go func() {
		defer close(sub.done)
		defer r.inFlight.Store(false)

		result, err := r.api.SubmitReport(ctx, sub.Report)
		sub.outcome.result = result
		sub.outcome.err = err
		switch {
		case err != nil:
			r.logger.Debug("report failed", "error", err)
		case result.Skipped():
			r.logger.Debug("report skipped by server", "reason", result.Reason)
		default:
			r.logger.Debug("report stored", "lat", fix.Lat, "lng", fix.Lng, "accuracy", fix.Accuracy)
		}
	}()
	return sub
}
