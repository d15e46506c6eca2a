package app

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/pinpoint/internal/engine"
	"github.com/five82/pinpoint/internal/geo"
	"github.com/five82/pinpoint/internal/tracker"
)

const defaultLocateTimeout = 8 * time.Second

// locator performs one position report and waits for it to settle.
type locator struct {
	source   geo.Source
	reporter *engine.Reporter
	device   tracker.Device
	timeout  time.Duration
}

// Locate implements ui.Locator.
func (l locator) Locate(ctx context.Context) (geo.Fix, tracker.ReportResult, error) {
	timeout := l.timeout
	if timeout <= 0 {
		timeout = defaultLocateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fix, err := l.source.Current(ctx)
	if err != nil {
		return geo.Fix{}, tracker.ReportResult{}, err
	}
	if err := fix.Validate(); err != nil {
		return geo.Fix{}, tracker.ReportResult{}, err
	}

	sub := l.reporter.Submit(ctx, fix, l.device)
	result, err := sub.Wait(ctx)
	if err != nil {
		return fix, tracker.ReportResult{}, fmt.Errorf("submit report: %w", err)
	}
	return fix, result, nil
}

// Locate reports one fix from source and returns what the server answered.
func Locate(ctx context.Context, s *Session, source geo.Source, timeout time.Duration) (geo.Fix, tracker.ReportResult, error) {
	l := locator{
		source:   source,
		reporter: engine.NewReporter(s.Client, engine.ReporterOptions{Logger: s.Logger}),
		device:   s.Device,
		timeout:  timeout,
	}
	return l.Locate(ctx)
}
