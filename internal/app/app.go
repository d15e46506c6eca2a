package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/five82/pinpoint/internal/config"
	"github.com/five82/pinpoint/internal/device"
	"github.com/five82/pinpoint/internal/prefs"
	"github.com/five82/pinpoint/internal/tracker"
)

// Session bundles what every command needs to talk to the server.
type Session struct {
	Config    config.Config
	Client    *tracker.Client
	Device    tracker.Device
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *slog.Logger
}

// NewSession loads preferences, detects the device and builds the client.
// A prefs file that cannot be written only costs a stable device id.
func NewSession(cfg config.Config, prefsPath, version string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	userPrefs, err := prefs.LoadOrInit(prefsPath)
	if err != nil {
		logger.Warn("save prefs failed", "path", prefsPath, "error", err)
	}

	dev := device.Detect(version, userPrefs.DeviceID, device.Overrides{
		UserAgent: cfg.Device.UserAgent,
		Mobile:    cfg.Device.Mobile,
	})

	client, err := tracker.NewClient(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("init tracker client: %w", err)
	}
	client.SetUserAgent(dev.UserAgent)

	return &Session{
		Config:    cfg,
		Client:    client,
		Device:    dev,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Logger:    logger,
	}, nil
}

// Consent logs in and allows location sharing, then reads the gate flags
// the server rendered for this session.
func (s *Session) Consent(ctx context.Context) (tracker.PageFlags, error) {
	if err := s.Client.Login(ctx); err != nil {
		return tracker.PageFlags{}, fmt.Errorf("login: %w", err)
	}
	if err := s.Client.AllowLocation(ctx); err != nil {
		return tracker.PageFlags{}, fmt.Errorf("allow location: %w", err)
	}
	flags, err := s.Client.FetchPageFlags(ctx)
	if err != nil {
		return tracker.PageFlags{}, fmt.Errorf("read page flags: %w", err)
	}
	s.Logger.Info("consent recorded", "wait_for_new", flags.WaitForNew, "baseline", flags.Baseline)
	return flags, nil
}

// ClearDeleted empties the server's soft-delete archive.
func (s *Session) ClearDeleted(ctx context.Context) (tracker.ClearResult, error) {
	result, err := s.Client.ClearDeleted(ctx)
	if err != nil {
		return tracker.ClearResult{}, err
	}
	s.Logger.Info("deleted archive cleared", "removed", result.RemovedCount)
	return result, nil
}
