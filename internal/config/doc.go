// Package config loads pinpoint's configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/pinpoint/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//  5. PINPOINT_SERVER, when set, replaces the server address
//
// Command-line flags are applied by the caller on top of the result.
//
// # Formats
//
// TOML is the primary format. A file ending in .yaml or .yml is decoded as
// YAML with the same keys.
//
//	server = "tracker.example:5000"
//	feed = "~/gps/feed.jsonl"
//	log_file = "~/.local/state/pinpoint/pinpoint.log"
//	log_level = "info"
//
//	[poll]
//	meta_interval = "5s"
//	gate_interval = "3.5s"
//	relative_refresh = "30s"
//	toast = "1.8s"
//	locate_timeout = "8s"
//
//	[device]
//	user_agent = ""
//	mobile = false
//
//	[gate]
//	wait_for_new = false
//	baseline = ""
//
// # Default Values
//
//   - Server: 127.0.0.1:5000
//   - Log file: ~/.local/state/pinpoint/pinpoint.log
//   - Log level: info
//   - Summary poll: 5s, gate probe: 3.5s
//   - Relative-time refresh: 30s, toast: 1.8s, locate timeout: 8s
//
// Durations are Go duration strings and must be positive. Paths starting
// with ~ are expanded against the user's home directory.
//
// # Error Handling
//
// A missing file is not an error. Unreadable files, malformed TOML or YAML
// and invalid durations are returned wrapped as "open config", "read config"
// or "parse config".
package config
