// Package ui provides the terminal observer for pinpoint.
//
// The observer is a Bubble Tea program. It renders the report table held
// in a state.Store, a header with the last known summary, the own-position
// card, and the wait-for-new overlay while the engine's gate is blocking.
//
// # Event Flow
//
//  1. The engine goroutines update the store and call back into the app,
//     which forwards RefreshedMsg, RevealedMsg and FixMsg to the program.
//  2. A one second clock re-reads the store snapshot so the header age and
//     summary stay current between swaps.
//  3. Terminal focus events toggle the poller's visibility. A blurred
//     observer stops polling and catches up as soon as it regains focus.
//  4. Key presses navigate pages, select rows, and run one-shot actions
//     (locate, delete, restore) as commands off the update loop.
//
// # Key Bindings
//
//   - n/p or arrows: Next and previous page
//   - j/k: Select row
//   - L: Report the current position
//   - x/u: Delete the selected record, restore the last deletion
//   - r: Reload the current page
//   - esc/enter: Dismiss the wait-for-new overlay
//   - T: Cycle theme
//   - ?: Help
//   - q or Ctrl+C: Quit
package ui
