package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/pinpoint/internal/app"
	"github.com/five82/pinpoint/internal/geo"
)

func newLocateCommand(root *rootOptions) *cobra.Command {
	var (
		lat, lng, accuracy float64
		feed               string
		timeout            time.Duration
	)

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Report the current position once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.headless(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var source geo.Source
			flags := cmd.Flags()
			switch {
			case flags.Changed("lat") || flags.Changed("lng"):
				if !flags.Changed("lat") || !flags.Changed("lng") {
					return fmt.Errorf("--lat and --lng must be given together")
				}
				source = geo.StaticSource{Fix: geo.Fix{Lat: lat, Lng: lng, Accuracy: accuracy}}
			default:
				if feed == "" {
					feed = s.Config.Feed
				}
				if source = feedSource(feed, s.Logger); source == nil {
					return errNoFeed
				}
			}

			if !flags.Changed("timeout") {
				timeout = s.Config.Poll.LocateTimeout
			}
			fix, result, err := app.Locate(cmd.Context(), s, source, timeout)
			if err != nil {
				return fmt.Errorf("locate: %w", err)
			}

			out := cmd.OutOrStdout()
			position := fmt.Sprintf("%.6f, %.6f ±%dm", fix.Lat, fix.Lng, int(math.Round(fix.Accuracy)))
			if result.Skipped() {
				fmt.Fprintf(out, "position unchanged, server kept %s\n", position)
				return nil
			}
			fmt.Fprintf(out, "reported %s as %s\n", position, s.Device.Label())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&lat, "lat", 0, "latitude in degrees")
	flags.Float64Var(&lng, "lng", 0, "longitude in degrees")
	flags.Float64Var(&accuracy, "accuracy", 0, "accuracy radius in metres")
	flags.StringVar(&feed, "feed", "", "JSON-lines position feed to read the latest fix from")
	flags.DurationVar(&timeout, "timeout", 8*time.Second, "how long to wait for a fix and the server")
	return cmd
}
