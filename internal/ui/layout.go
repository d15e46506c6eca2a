package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100
)

// Timing constants.
const (
	// DefaultClockInterval drives the header's "checked" age.
	DefaultClockInterval = time.Second

	// DefaultRelativeRefresh is how often row ages are recomputed.
	DefaultRelativeRefresh = 30 * time.Second

	// DefaultToastDuration is how long a toast stays visible.
	DefaultToastDuration = 1800 * time.Millisecond

	// ActionTimeout bounds delete and restore requests.
	ActionTimeout = 5 * time.Second
)
