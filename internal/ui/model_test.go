package ui

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pinpoint/internal/engine"
	"github.com/five82/pinpoint/internal/geo"
	"github.com/five82/pinpoint/internal/state"
	"github.com/five82/pinpoint/internal/table"
	"github.com/five82/pinpoint/internal/tracker"
)

type stubAPI struct {
	summary tracker.Summary
	acks    atomic.Int32
}

func (s *stubAPI) FetchSummary(context.Context) (tracker.Summary, error) {
	return s.summary, nil
}

func (s *stubAPI) FetchTableBody(context.Context, int) (string, error) {
	return "", nil
}

func (s *stubAPI) SubmitReport(context.Context, tracker.Report) (tracker.ReportResult, error) {
	return tracker.ReportResult{Status: "ok"}, nil
}

func (s *stubAPI) Acknowledge(context.Context) error {
	s.acks.Add(1)
	return nil
}

type stubLocator struct {
	fix    geo.Fix
	result tracker.ReportResult
	err    error
}

func (s stubLocator) Locate(context.Context) (geo.Fix, tracker.ReportResult, error) {
	return s.fix, s.result, s.err
}

func newTestModel(t *testing.T, store *state.Store, eng *engine.Engine) Model {
	t.Helper()
	return New(Options{
		Store:     store,
		Engine:    eng,
		Server:    "127.0.0.1:5000",
		PrefsPath: t.TempDir() + "/prefs.toml",
	})
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestFocusTogglesPollerVisibility(t *testing.T) {
	store := state.NewStore(1)
	eng := engine.New(&stubAPI{}, store, engine.Options{})
	m := newTestModel(t, store, eng)

	m, _ = update(m, tea.BlurMsg{})
	if eng.Poller.Visible() {
		t.Fatalf("poller visible after blur")
	}
	if m.focused {
		t.Fatalf("model focused after blur")
	}

	m, _ = update(m, tea.FocusMsg{})
	if !eng.Poller.Visible() {
		t.Fatalf("poller hidden after focus")
	}
	if !m.focused {
		t.Fatalf("model not focused after focus")
	}
}

func TestRefreshedShowsToastAndMarksRows(t *testing.T) {
	store := state.NewStore(1)
	rows := []table.Row{{ID: "a", Cells: []string{"1"}}, {ID: "b", Cells: []string{"2"}}}
	store.Swap(1, rows)
	m := newTestModel(t, store, nil)

	m, cmd := update(m, RefreshedMsg(engine.CycleResult{
		Outcome: engine.OutcomeSwapped,
		Diff:    table.Diff{Added: rows[:1], Changed: rows[1:]},
	}))
	if m.toast != "Table refreshed" {
		t.Fatalf("toast = %q, want %q", m.toast, "Table refreshed")
	}
	if cmd == nil {
		t.Fatalf("expected toast expiry command")
	}
	for _, id := range []string{"a", "b"} {
		if _, ok := m.fresh[id]; !ok {
			t.Fatalf("row %q not marked fresh", id)
		}
	}
	if len(m.snapshot.Rows) != 2 {
		t.Fatalf("snapshot rows = %d, want 2", len(m.snapshot.Rows))
	}
}

func TestRefreshedFromPageLoadIsQuiet(t *testing.T) {
	m := newTestModel(t, state.NewStore(1), nil)
	m, cmd := update(m, RefreshedMsg(engine.CycleResult{Outcome: engine.OutcomeSwapped, Loaded: true}))
	if m.toast != "" || cmd != nil {
		t.Fatalf("page load toast = %q cmd=%v, want none", m.toast, cmd != nil)
	}
}

func TestToastExpiry_IgnoresStaleTimers(t *testing.T) {
	m := newTestModel(t, state.NewStore(1), nil)
	m, _ = m.showToast("first")
	m, _ = m.showToast("second")

	m, _ = update(m, toastExpiredMsg(1))
	if m.toast != "second" {
		t.Fatalf("toast = %q after stale expiry, want second", m.toast)
	}
	m, _ = update(m, toastExpiredMsg(2))
	if m.toast != "" {
		t.Fatalf("toast = %q after expiry, want empty", m.toast)
	}
}

func TestPageNavigation_Clamps(t *testing.T) {
	store := state.NewStore(1)
	store.RecordSummary(tracker.Summary{Total: 25, Newest: "x"})
	m := newTestModel(t, store, nil)

	for range 5 {
		m, _ = update(m, runeKey("n"))
	}
	if m.snapshot.Page != 3 || store.Page() != 3 {
		t.Fatalf("page = %d (store %d), want 3", m.snapshot.Page, store.Page())
	}

	for range 5 {
		m, _ = update(m, runeKey("p"))
	}
	if m.snapshot.Page != 1 || store.Page() != 1 {
		t.Fatalf("page = %d (store %d), want 1", m.snapshot.Page, store.Page())
	}
}

func TestGateBlocksInputUntilDismissed(t *testing.T) {
	api := &stubAPI{}
	store := state.NewStore(1)
	store.RecordSummary(tracker.Summary{Total: 25})
	eng := engine.New(api, store, engine.Options{WaitForNew: true, Baseline: "2024-01-01T00:00:00Z"})
	m := newTestModel(t, store, eng)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	if view := m.View(); !strings.Contains(view, "Waiting for new data") {
		t.Fatalf("view does not show the gate overlay")
	}
	if view := m.View(); !strings.Contains(view, "2024-01-01T00:00:00Z") {
		t.Fatalf("gate overlay does not show the baseline")
	}

	m, cmd := update(m, runeKey("n"))
	if cmd != nil || m.snapshot.Page != 1 {
		t.Fatalf("navigation went through while gated: page=%d", m.snapshot.Page)
	}

	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("dismiss key produced no command")
	}
	msg, ok := cmd().(dismissDoneMsg)
	if !ok {
		t.Fatalf("dismiss command returned %T", msg)
	}
	if msg.Outcome != engine.GateRevealed || msg.Reason != engine.RevealDismissed {
		t.Fatalf("dismiss = %v/%v, want revealed/dismissed", msg.Outcome, msg.Reason)
	}
	if got := api.acks.Load(); got != 1 {
		t.Fatalf("acks = %d, want 1", got)
	}

	m, _ = update(m, msg)
	if strings.Contains(m.View(), "Waiting for new data") {
		t.Fatalf("gate overlay still shown after dismiss")
	}
}

func TestLocateDone(t *testing.T) {
	fix := geo.Fix{Lat: 52.5, Lng: 13.4, Accuracy: 12.4, At: time.Now()}
	tests := []struct {
		name  string
		msg   locateDoneMsg
		toast string
		fix   bool
	}{
		{"reported", locateDoneMsg{fix: fix, result: tracker.ReportResult{Status: "ok"}}, "Position reported", true},
		{"skipped", locateDoneMsg{fix: fix, result: tracker.ReportResult{Status: "skipped"}}, "Position unchanged", true},
		{"failed", locateDoneMsg{err: errors.New("boom")}, "Locate failed: boom", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, state.NewStore(1), nil)
			m.locating = true
			m, _ = update(m, tt.msg)
			if m.locating {
				t.Fatalf("still locating")
			}
			if m.toast != tt.toast {
				t.Fatalf("toast = %q, want %q", m.toast, tt.toast)
			}
			if m.hasFix != tt.fix {
				t.Fatalf("hasFix = %v, want %v", m.hasFix, tt.fix)
			}
		})
	}
}

func TestLocateKey_RunsLocatorOnce(t *testing.T) {
	m := New(Options{
		Store:     state.NewStore(1),
		Locator:   stubLocator{result: tracker.ReportResult{Status: "ok"}},
		PrefsPath: t.TempDir() + "/prefs.toml",
	})
	m, cmd := update(m, runeKey("L"))
	if cmd == nil || !m.locating {
		t.Fatalf("locate key did not start a locate")
	}
	if _, again := update(m, runeKey("L")); again != nil {
		t.Fatalf("second locate started while one was in flight")
	}
	if _, ok := cmd().(locateDoneMsg); !ok {
		t.Fatalf("locate command returned unexpected message")
	}
}

func TestFormatPosition(t *testing.T) {
	if got := formatCoords(52.520008, 13.404954); got != "52.520008, 13.404954" {
		t.Fatalf("formatCoords = %q", got)
	}
	if got := formatAccuracy(12.6, "mobile"); got != "±13m — mobile" {
		t.Fatalf("formatAccuracy = %q, want %q", got, "±13m — mobile")
	}
}

func TestHeader_ShowsTotalsAndPause(t *testing.T) {
	store := state.NewStore(2)
	store.RecordSummary(tracker.Summary{Total: 1234, Newest: "x"})
	m := newTestModel(t, store, nil)
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 30})

	header := m.renderHeader()
	for _, want := range []string{"1,234", "2/124", "127.0.0.1:5000"} {
		if !strings.Contains(header, want) {
			t.Fatalf("header %q missing %q", header, want)
		}
	}

	m, _ = update(m, tea.BlurMsg{})
	if !strings.Contains(m.renderHeader(), "paused") {
		t.Fatalf("header does not show paused state")
	}
}

func TestView_ShowsRows(t *testing.T) {
	store := state.NewStore(1)
	store.RecordSummary(tracker.Summary{Total: 1, Newest: "x"})
	store.Swap(1, []table.Row{{ID: "a", Cells: []string{"52.52", "13.40"}}})
	m := newTestModel(t, store, nil)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 20})

	view := m.View()
	if !strings.Contains(view, "52.52") {
		t.Fatalf("view missing row cells")
	}
	if !strings.Contains(view, "no position yet") {
		t.Fatalf("view missing position placeholder")
	}
}
