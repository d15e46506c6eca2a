package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/pinpoint/internal/engine"
	"github.com/five82/pinpoint/internal/geo"
	"github.com/five82/pinpoint/internal/state"
	"github.com/five82/pinpoint/internal/ui"
)

// ObserveOptions configure the observer.
type ObserveOptions struct {
	// Consent runs the login and allow-location handshake first, letting
	// the server arm the wait-for-new gate.
	Consent bool
	// Source, when set, is tracked in the background and backs the locate key.
	Source geo.Source
	// ThemeName overrides the saved theme.
	ThemeName string
}

// Observe runs the engine and the TUI until the user quits or ctx is
// cancelled.
func Observe(ctx context.Context, s *Session, opts ObserveOptions) error {
	cfg := s.Config

	waitForNew, baseline := cfg.Gate.WaitForNew, cfg.Gate.Baseline
	if opts.Consent {
		flags, err := s.Consent(ctx)
		if err != nil {
			return err
		}
		if flags.WaitForNew {
			waitForNew, baseline = true, flags.Baseline
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := state.NewStore(1)

	// The engine callbacks run once the program exists; Send returns
	// immediately after the program has exited.
	var program *tea.Program
	eng := engine.New(s.Client, store, engine.Options{
		MetaInterval: cfg.Poll.MetaInterval,
		GateInterval: cfg.Poll.GateInterval,
		WaitForNew:   waitForNew,
		Baseline:     baseline,
		Logger:       s.Logger,
		OnRefresh:    func(r engine.CycleResult) { program.Send(ui.RefreshedMsg(r)) },
		OnReveal:     func(r engine.GateResult) { program.Send(ui.RevealedMsg(r)) },
	})

	uiOpts := ui.Options{
		Context:         ctx,
		Store:           store,
		Engine:          eng,
		Records:         s.Client,
		Device:          s.Device,
		Server:          s.Client.BaseURL(),
		RelativeRefresh: cfg.Poll.RelativeRefresh,
		Toast:           cfg.Poll.Toast,
		ThemeName:       opts.ThemeName,
		Prefs:           s.Prefs,
		PrefsPath:       s.PrefsPath,
	}
	if opts.Source != nil {
		uiOpts.Locator = locator{
			source:   opts.Source,
			reporter: eng.Reporter,
			device:   s.Device,
			timeout:  cfg.Poll.LocateTimeout,
		}
	}
	program = ui.NewProgram(uiOpts)

	s.Logger.Info("observer started",
		"server", s.Client.BaseURL(),
		"wait_for_new", waitForNew,
		"tracking", opts.Source != nil,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run ui: %w", err)
		}
		return nil
	})
	g.Go(func() error { return eng.Run(gctx) })
	if opts.Source != nil {
		g.Go(func() error {
			return feed{
				source:   opts.Source,
				reporter: eng.Reporter,
				device:   s.Device,
				logger:   s.Logger,
				onFix:    func(fix geo.Fix) { program.Send(ui.FixMsg(fix)) },
			}.run(gctx)
		})
	}

	err := g.Wait()
	s.Logger.Info("observer stopped")
	return err
}
