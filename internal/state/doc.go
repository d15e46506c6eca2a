// Package state holds the displayed observer table.
//
// The Store is shared between the poller goroutine, which swaps rows in, and
// the UI, which reads snapshots and records page navigation. All access goes
// through a sync.RWMutex and snapshots are deep copies.
//
// # Swap Semantics
//
// Swap is a single compare-and-replace: it takes the lock, rejects bodies
// fetched for a page that is no longer current, compares the new rows with
// the displayed ones and replaces them only when they differ. A page change
// always replaces, since the displayed rows belong to another page.
//
// Relative-time labels are not part of the stored rows. The UI derives them
// from each row's timestamp at render time.
package state
