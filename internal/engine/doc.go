// Package engine implements change detection and reveal for the observer
// table.
//
// # Components
//
// Poller polls the table summary on a fixed cadence and fetches the current
// page's body only when the summary changed. Rows are swapped into the
// Display only when they differ structurally, so an unchanged page is never
// re-rendered. Polling pauses while the view is hidden and runs one check as
// soon as it becomes visible again. The summary is committed only after the
// body was fetched and parsed, so a failed body fetch is retried on the next
// cycle.
//
// Gate covers the view after the user consented to tracking, until a record
// newer than the consent-time baseline appears or the user dismisses it. It
// opens exactly once and acknowledges the server exactly once; probes that
// were already in flight re-check the terminal state before acting.
//
// Reporter posts position reports with at most one request in flight.
// Submissions made while a request is pending are dropped.
//
// # Concurrency
//
// Each component runs on its own goroutine. State crossing goroutines is
// limited to atomics (visibility, the gate's revealed flag and the
// reporter's guard) and the Display, which serializes swaps itself.
// Cancelling the context passed to Run stops every loop and timer.
//
// # Errors
//
// Network, status and parse failures never escape the loops. They are
// logged at debug level and surface only in the discardable CycleResult
// and GateResult values.
package engine
