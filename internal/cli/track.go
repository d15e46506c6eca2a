package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/five82/pinpoint/internal/app"
)

var errNoFeed = errors.New("no position feed: pass --feed or set feed in the config")

func newTrackCommand(root *rootOptions) *cobra.Command {
	var feed string

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Report every fix from a position feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.headless(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if feed == "" {
				feed = s.Config.Feed
			}
			source := feedSource(feed, s.Logger)
			if source == nil {
				return errNoFeed
			}
			return app.Track(cmd.Context(), s, source)
		},
	}
	cmd.Flags().StringVar(&feed, "feed", "", "JSON-lines position feed to follow")
	return cmd
}
