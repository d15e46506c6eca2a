package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds everything pinpoint reads from its config file.
type Config struct {
	Server   string
	Feed     string
	LogFile  string
	LogLevel string
	Poll     PollConfig
	Device   DeviceConfig
	Gate     GateConfig
}

// PollConfig holds the engine and UI cadences.
type PollConfig struct {
	MetaInterval    time.Duration
	GateInterval    time.Duration
	RelativeRefresh time.Duration
	Toast           time.Duration
	LocateTimeout   time.Duration
}

// DeviceConfig overrides the detected device descriptor.
type DeviceConfig struct {
	UserAgent string
	Mobile    *bool
}

// GateConfig arms the reveal gate without going through consent.
type GateConfig struct {
	WaitForNew bool
	Baseline   string
}

const (
	defaultConfigPath = "~/.config/pinpoint/config.toml"
	defaultLogFile    = "~/.local/state/pinpoint/pinpoint.log"
	defaultServer     = "127.0.0.1:5000"
	defaultLogLevel   = "info"

	serverEnv = "PINPOINT_SERVER"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server:   defaultServer,
		LogFile:  mustExpand(defaultLogFile),
		LogLevel: defaultLogLevel,
		Poll: PollConfig{
			MetaInterval:    5 * time.Second,
			GateInterval:    3500 * time.Millisecond,
			RelativeRefresh: 30 * time.Second,
			Toast:           1800 * time.Millisecond,
			LocateTimeout:   8 * time.Second,
		},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

type rawConfig struct {
	Server   string    `toml:"server" yaml:"server"`
	Feed     string    `toml:"feed" yaml:"feed"`
	LogFile  string    `toml:"log_file" yaml:"log_file"`
	LogLevel string    `toml:"log_level" yaml:"log_level"`
	Poll     rawPoll   `toml:"poll" yaml:"poll"`
	Device   rawDevice `toml:"device" yaml:"device"`
	Gate     rawGate   `toml:"gate" yaml:"gate"`
}

type rawPoll struct {
	MetaInterval    string `toml:"meta_interval" yaml:"meta_interval"`
	GateInterval    string `toml:"gate_interval" yaml:"gate_interval"`
	RelativeRefresh string `toml:"relative_refresh" yaml:"relative_refresh"`
	Toast           string `toml:"toast" yaml:"toast"`
	LocateTimeout   string `toml:"locate_timeout" yaml:"locate_timeout"`
}

type rawDevice struct {
	UserAgent string `toml:"user_agent" yaml:"user_agent"`
	Mobile    *bool  `toml:"mobile" yaml:"mobile"`
}

type rawGate struct {
	WaitForNew bool   `toml:"wait_for_new" yaml:"wait_for_new"`
	Baseline   string `toml:"baseline" yaml:"baseline"`
}

// Load reads the config at path, falling back to defaults when the file is
// missing. Files ending in .yaml or .yml are decoded as YAML, anything else
// as TOML. PINPOINT_SERVER overrides the server from the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := merge(&cfg, raw); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func merge(cfg *Config, raw rawConfig) error {
	if v := strings.TrimSpace(raw.Server); v != "" {
		cfg.Server = v
	}
	if v := strings.TrimSpace(raw.Feed); v != "" {
		cfg.Feed = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	durations := []struct {
		key   string
		value string
		dest  *time.Duration
	}{
		{"poll.meta_interval", raw.Poll.MetaInterval, &cfg.Poll.MetaInterval},
		{"poll.gate_interval", raw.Poll.GateInterval, &cfg.Poll.GateInterval},
		{"poll.relative_refresh", raw.Poll.RelativeRefresh, &cfg.Poll.RelativeRefresh},
		{"poll.toast", raw.Poll.Toast, &cfg.Poll.Toast},
		{"poll.locate_timeout", raw.Poll.LocateTimeout, &cfg.Poll.LocateTimeout},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.value)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.key, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("parse config: %s must be positive, got %s", d.key, v)
		}
		*d.dest = parsed
	}

	cfg.Device.UserAgent = strings.TrimSpace(raw.Device.UserAgent)
	cfg.Device.Mobile = raw.Device.Mobile
	cfg.Gate.WaitForNew = raw.Gate.WaitForNew
	cfg.Gate.Baseline = strings.TrimSpace(raw.Gate.Baseline)
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(serverEnv)); v != "" {
		cfg.Server = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
