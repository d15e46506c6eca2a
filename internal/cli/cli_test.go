package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"

	"github.com/five82/pinpoint/internal/tracker"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return buf.String(), err
}

// isolate keeps config and prefs lookups inside a temp home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PINPOINT_SERVER", "")
	return home
}

func TestLocate_WithCoordinates(t *testing.T) {
	isolate(t)

	var got tracker.Report
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/report" {
			http.NotFound(w, r)
			return
		}
		posts.Add(1)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	out, err := executeCommand(NewRootCommand("test"),
		"locate", "--server", srv.URL, "--lat", "52.52", "--lng", "13.405", "--accuracy", "12.6")
	if err != nil {
		t.Fatalf("locate: %v (output %q)", err, out)
	}
	if !strings.Contains(out, "reported 52.520000, 13.405000 ±13m") {
		t.Fatalf("output = %q", out)
	}
	if posts.Load() != 1 || got.Lat != 52.52 || got.Accuracy != 12.6 {
		t.Fatalf("posts=%d report=%+v", posts.Load(), got)
	}
	if !strings.HasPrefix(got.Device.UserAgent, "pinpoint/test ") {
		t.Fatalf("user agent = %q", got.Device.UserAgent)
	}
}

func TestLocate_RequiresBothCoordinates(t *testing.T) {
	isolate(t)
	_, err := executeCommand(NewRootCommand("test"), "locate", "--lat", "1")
	if err == nil || !strings.Contains(err.Error(), "--lat and --lng") {
		t.Fatalf("err = %v, want coordinate pairing error", err)
	}
}

func TestLocate_FromFeed(t *testing.T) {
	home := isolate(t)
	feed := filepath.Join(home, "feed.jsonl")
	if err := os.WriteFile(feed, []byte(`{"lat":1.5,"lng":2.5,"accuracy":4}`+"\n"), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"skipped","reason":"duplicate"}`))
	}))
	defer srv.Close()

	out, err := executeCommand(NewRootCommand("test"), "locate", "--server", srv.URL, "--feed", feed)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if !strings.Contains(out, "position unchanged") {
		t.Fatalf("output = %q, want unchanged notice", out)
	}
}

func TestTrack_RequiresFeed(t *testing.T) {
	isolate(t)
	_, err := executeCommand(NewRootCommand("test"), "track")
	if !errors.Is(err, errNoFeed) {
		t.Fatalf("err = %v, want %v", err, errNoFeed)
	}
}

func TestObserve_RefusesWithoutTerminal(t *testing.T) {
	isolate(t)
	orig := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	_, err := executeCommand(NewRootCommand("test"), "observe")
	if !errors.Is(err, errNoTerminal) {
		t.Fatalf("err = %v, want %v", err, errNoTerminal)
	}
}

func TestClearDeleted(t *testing.T) {
	isolate(t)

	var limited atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limited.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","retry_after":30}`))
			return
		}
		_, _ = w.Write([]byte(`{"cleared":true,"removed_count":7}`))
	}))
	defer srv.Close()

	out, err := executeCommand(NewRootCommand("test"), "clear-deleted", "--server", srv.URL)
	if err != nil {
		t.Fatalf("clear-deleted: %v", err)
	}
	if !strings.Contains(out, "cleared 7 deleted record(s)") {
		t.Fatalf("output = %q", out)
	}

	limited.Store(true)
	_, err = executeCommand(NewRootCommand("test"), "clear-deleted", "--server", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "retry in 30s") {
		t.Fatalf("err = %v, want rate limit message", err)
	}
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	home := isolate(t)
	t.Setenv("PINPOINT_SERVER", "env.example:1")

	path := filepath.Join(home, "config.toml")
	if err := os.WriteFile(path, []byte("server = \"file.example:2\"\nlog_level = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	opts := &rootOptions{configPath: path}
	cfg, err := opts.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server != "env.example:1" || cfg.LogLevel != "warn" {
		t.Fatalf("cfg server=%q level=%q", cfg.Server, cfg.LogLevel)
	}

	opts.server = "flag.example:3"
	cfg, err = opts.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server != "flag.example:3" {
		t.Fatalf("server = %q, want flag value", cfg.Server)
	}
}
