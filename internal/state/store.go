package state

import (
	"sync"
	"time"

	"github.com/five82/pinpoint/internal/table"
	"github.com/five82/pinpoint/internal/tracker"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Page        int
	Rows        []table.Row
	RowsPage    int
	Summary     tracker.Summary
	HasSummary  bool
	LastChecked time.Time
	LastSwap    time.Time
}

// TotalPages returns the page count implied by the last known summary.
func (s Snapshot) TotalPages() int {
	return table.TotalPages(s.Summary.Total)
}

// Store is the displayed table. The poller writes rows into it and the UI
// reads snapshots; page navigation flows the other way.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewStore returns a store positioned on page.
func NewStore(page int) *Store {
	if page < 1 {
		page = 1
	}
	return &Store{snapshot: Snapshot{Page: page}}
}

// Page returns the page currently displayed or requested.
func (s *Store) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot.Page < 1 {
		return 1
	}
	return s.snapshot.Page
}

// SetPage records a navigation. Rows stay in place until a body for the new
// page is swapped in.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Page = page
}

// Swap replaces the displayed rows with rows fetched for page when they
// differ structurally. A body for a page that is no longer current is
// rejected. The returned bool reports whether a replacement happened.
func (s *Store) Swap(page int, rows []table.Row) (table.Diff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot.Page
	if current < 1 {
		current = 1
	}
	if page != current {
		return table.Diff{}, false
	}
	samePage := s.snapshot.RowsPage == page
	if samePage && table.Equal(s.snapshot.Rows, rows) {
		return table.Diff{}, false
	}

	var diff table.Diff
	if samePage {
		diff = table.Compare(s.snapshot.Rows, rows)
	} else {
		diff = table.Diff{Added: table.CloneRows(rows)}
	}
	s.snapshot.Rows = table.CloneRows(rows)
	s.snapshot.RowsPage = page
	s.snapshot.LastSwap = time.Now()
	return diff, true
}

// RecordSummary stores the summary seen by the latest successful check.
func (s *Store) RecordSummary(summary tracker.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Summary = summary
	s.snapshot.HasSummary = true
	s.snapshot.LastChecked = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if snap.Page < 1 {
		snap.Page = 1
	}
	snap.Rows = table.CloneRows(s.snapshot.Rows)
	return snap
}
