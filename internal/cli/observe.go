package cli

import (
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/five82/pinpoint/internal/app"
	"github.com/five82/pinpoint/internal/logging"
)

var errNoTerminal = errors.New("observe needs an interactive terminal; use track or locate instead")

// isTerminal reports whether the observer can take over the terminal.
var isTerminal = func() bool {
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

func newObserveCommand(root *rootOptions) *cobra.Command {
	var (
		feed        string
		pollSeconds int
		waitForNew  bool
		baseline    string
		consent     bool
		theme       string
	)

	cmd := &cobra.Command{
		Use:   "observe",
		Short: "Watch the report table in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal() {
				return errNoTerminal
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if pollSeconds > 0 {
				cfg.Poll.MetaInterval = time.Duration(pollSeconds) * time.Second
			}
			if cmd.Flags().Changed("wait-for-new") {
				cfg.Gate.WaitForNew = waitForNew
			}
			if cmd.Flags().Changed("baseline") {
				cfg.Gate.Baseline = baseline
			}
			if feed != "" {
				cfg.Feed = feed
			}

			logger, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			s, err := app.NewSession(cfg, "", root.version, logger)
			if err != nil {
				return err
			}
			return app.Observe(cmd.Context(), s, app.ObserveOptions{
				Consent:   consent,
				Source:    feedSource(cfg.Feed, logger),
				ThemeName: theme,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&feed, "feed", "", "JSON-lines position feed to track while observing")
	flags.IntVar(&pollSeconds, "poll", 0, "summary poll interval in seconds (default 5)")
	flags.BoolVar(&waitForNew, "wait-for-new", false, "hide the table until a newer record arrives")
	flags.StringVar(&baseline, "baseline", "", "newest timestamp the wait-for-new gate compares against")
	flags.BoolVar(&consent, "consent", false, "log in and allow location first, letting the server arm the gate")
	flags.StringVar(&theme, "theme", "", "theme name (Nightfox, Kanagawa, Slate)")
	return cmd
}
