package app

import (
	"context"
	"log/slog"

	"github.com/five82/pinpoint/internal/engine"
	"github.com/five82/pinpoint/internal/geo"
	"github.com/five82/pinpoint/internal/tracker"
)

// feed reports every valid fix from a watched source through the reporter.
type feed struct {
	source   geo.Source
	reporter *engine.Reporter
	device   tracker.Device
	logger   *slog.Logger
	onFix    func(geo.Fix)
}

func (f feed) run(ctx context.Context) error {
	for reading := range f.source.Watch(ctx) {
		if reading.Err != nil {
			f.logger.Debug("position unavailable", "error", reading.Err)
			continue
		}
		if err := reading.Fix.Validate(); err != nil {
			f.logger.Debug("ignoring invalid fix", "error", err)
			continue
		}
		if f.onFix != nil {
			f.onFix(reading.Fix)
		}

		sub := f.reporter.Submit(ctx, reading.Fix, f.device)
		if !sub.Accepted {
			continue
		}
		go func() {
			result, err := sub.Wait(ctx)
			switch {
			case err != nil:
				f.logger.Warn("report failed", "error", err)
			case result.Skipped():
				f.logger.Debug("report skipped", "reason", result.Reason)
			default:
				f.logger.Info("report stored", "timestamp", sub.Report.Timestamp)
			}
		}()
	}
	return nil
}

// Track reports fixes from source until ctx is cancelled.
func Track(ctx context.Context, s *Session, source geo.Source) error {
	s.Logger.Info("tracking started", "server", s.Client.BaseURL(), "device", s.Device.Label())
	err := feed{
		source:   source,
		reporter: engine.NewReporter(s.Client, engine.ReporterOptions{Logger: s.Logger}),
		device:   s.Device,
		logger:   s.Logger,
	}.run(ctx)
	s.Logger.Info("tracking stopped")
	return err
}
