// Package app wires configuration, the tracker client, the engine and the
// UI into the pinpoint commands.
//
// A Session is built once per command from the loaded config and prefs.
// Observe runs the poller, the gate, optional feed tracking and the TUI
// under one errgroup; quitting the UI cancels the rest. Track and Locate
// are the headless variants that only exercise the reporter.
package app
