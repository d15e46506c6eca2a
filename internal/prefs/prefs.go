// Package prefs persists the few settings pinpoint remembers between runs:
// the theme and the device id. They live in ~/.config/pinpoint/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme    string `toml:"theme"`
	DeviceID string `toml:"device_id"`
}

const (
	defaultPrefsPath = "~/.config/pinpoint/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Prefs never block startup: a missing,
// unreadable or malformed file yields defaults, and a device id that is not
// a uuid is dropped. The returned error is always nil.
func Load(path string) (Prefs, error) {
	p := Prefs{Theme: defaultTheme}

	file, err := resolve(path)
	if err != nil {
		return p, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return p, nil
	}
	var stored Prefs
	if err := toml.Unmarshal(data, &stored); err != nil {
		return p, nil
	}

	if theme := strings.TrimSpace(stored.Theme); theme != "" {
		p.Theme = theme
	}
	if id, err := uuid.Parse(stored.DeviceID); err == nil {
		p.DeviceID = id.String()
	}
	return p, nil
}

// LoadOrInit loads preferences and assigns a device id on first use,
// saving it so later runs report as the same device. When the save fails
// the new id is still returned for this run together with the error.
func LoadOrInit(path string) (Prefs, error) {
	p, _ := Load(path)
	if p.DeviceID != "" {
		return p, nil
	}
	p.DeviceID = uuid.NewString()
	return p, Save(path, p)
}

// Save writes preferences to path, creating parent directories.
func Save(path string, p Prefs) error {
	file, err := resolve(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// resolve expands ~ and makes path absolute, using the default for "".
func resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPrefsPath
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
