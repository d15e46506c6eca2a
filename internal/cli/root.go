// Package cli defines the pinpoint cobra commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/pinpoint/internal/app"
	"github.com/five82/pinpoint/internal/config"
	"github.com/five82/pinpoint/internal/geo"
	"github.com/five82/pinpoint/internal/logging"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	version    string
	configPath string
	server     string
	logLevel   string
}

// NewRootCommand builds the pinpoint command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	root := &cobra.Command{
		Use:           "pinpoint",
		Short:         "Report positions to a tracker server and watch its table",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.server, "server", "", "tracker server address, overrides config and PINPOINT_SERVER")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newObserveCommand(opts),
		newTrackCommand(opts),
		newLocateCommand(opts),
		newClearDeletedCommand(opts),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(o.server); v != "" {
		cfg.Server = v
	}
	if v := strings.TrimSpace(o.logLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// headless loads config and builds a session logging to w.
func (o *rootOptions) headless(w io.Writer) (*app.Session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewSession(cfg, "", o.version, logging.New(w, cfg.LogLevel))
}

func feedSource(path string, logger *slog.Logger) geo.Source {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return geo.NewFileSource(path, logger)
}
