package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pinpoint/internal/engine"
	"github.com/five82/pinpoint/internal/geo"
	"github.com/five82/pinpoint/internal/prefs"
	"github.com/five82/pinpoint/internal/state"
	"github.com/five82/pinpoint/internal/tracker"
)

// Locator performs a one-shot position report.
type Locator interface {
	Locate(ctx context.Context) (geo.Fix, tracker.ReportResult, error)
}

// RecordEditor soft-deletes and restores records on the server.
type RecordEditor interface {
	DeleteRecords(ctx context.Context, timestamps []string) (tracker.DeleteResult, error)
	UndeleteRecords(ctx context.Context, timestamps []string) (tracker.UndeleteResult, error)
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Store   *state.Store
	Engine  *engine.Engine
	Records RecordEditor
	Locator Locator
	Device  tracker.Device
	Server  string

	RelativeRefresh time.Duration
	Toast           time.Duration

	ThemeName string
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	poller    *engine.Poller
	gate      *engine.Gate
	records   RecordEditor
	locator   Locator
	device    tracker.Device
	server    string
	prefs     prefs.Prefs
	prefsPath string
	keys      keyMap

	relRefresh time.Duration
	toastFor   time.Duration

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	focused  bool

	// Data state
	snapshot state.Snapshot
	now      time.Time
	relNow   time.Time
	fresh    map[string]struct{}
	selected int

	// Position card
	fix      geo.Fix
	hasFix   bool
	locating bool

	// Record edits
	lastDeleted []string

	// Toast
	toast   string
	toastID int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	relRefresh := opts.RelativeRefresh
	if relRefresh <= 0 {
		relRefresh = DefaultRelativeRefresh
	}
	toastFor := opts.Toast
	if toastFor <= 0 {
		toastFor = DefaultToastDuration
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:        ctx,
		store:      opts.Store,
		records:    opts.Records,
		locator:    opts.Locator,
		device:     opts.Device,
		server:     opts.Server,
		prefs:      opts.Prefs,
		prefsPath:  prefsPath,
		keys:       DefaultKeyMap(),
		relRefresh: relRefresh,
		toastFor:   toastFor,
		theme:      GetTheme(themeName),
		focused:    true,
		now:        time.Now(),
		fresh:      map[string]struct{}{},
	}
	m.relNow = m.now
	if opts.Engine != nil {
		m.poller = opts.Engine.Poller
		m.gate = opts.Engine.Gate
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		clockCmd(),
		relativeCmd(m.relRefresh),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.FocusMsg:
		m.focused = true
		if m.poller != nil {
			m.poller.SetVisible(true)
		}
		return m, nil

	case tea.BlurMsg:
		m.focused = false
		if m.poller != nil {
			m.poller.SetVisible(false)
		}
		return m, nil

	case clockMsg:
		m.now = time.Time(msg)
		m.refreshSnapshot()
		return m, clockCmd()

	case relativeMsg:
		m.relNow = time.Time(msg)
		m.fresh = map[string]struct{}{}
		return m, relativeCmd(m.relRefresh)

	case RefreshedMsg:
		return m.handleRefreshed(engine.CycleResult(msg))

	case RevealedMsg:
		m.refreshSnapshot()
		return m, nil

	case FixMsg:
		m.fix = geo.Fix(msg)
		m.hasFix = true
		return m, nil

	case locateDoneMsg:
		return m.handleLocateDone(msg)

	case deleteDoneMsg:
		return m.handleDeleteDone(msg)

	case undeleteDoneMsg:
		return m.handleUndeleteDone(msg)

	case dismissDoneMsg:
		m.refreshSnapshot()
		return m, nil

	case toastExpiredMsg:
		if int(msg) == m.toastID {
			m.toast = ""
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.gateBlocking() {
		return m.renderGate()
	}

	return m.renderMain()
}

func (m Model) gateBlocking() bool {
	return m.gate != nil && m.gate.Blocking()
}

func (m *Model) refreshSnapshot() {
	if m.store == nil {
		return
	}
	m.snapshot = m.store.Snapshot()
	if m.selected >= len(m.snapshot.Rows) {
		m.selected = max(len(m.snapshot.Rows)-1, 0)
	}
}

func (m Model) handleRefreshed(result engine.CycleResult) (tea.Model, tea.Cmd) {
	m.refreshSnapshot()
	m.relNow = time.Now()
	m.fresh = map[string]struct{}{}
	for _, row := range result.Diff.Added {
		m.fresh[row.ID] = struct{}{}
	}
	for _, row := range result.Diff.Changed {
		m.fresh[row.ID] = struct{}{}
	}
	if result.Loaded {
		return m, nil
	}
	return m.showToast("Table refreshed")
}

func (m Model) showToast(text string) (Model, tea.Cmd) {
	m.toastID++
	m.toast = text
	return m, toastCmd(m.toastID, m.toastFor)
}

// Messages

// RefreshedMsg is sent after the poller swapped the displayed rows.
type RefreshedMsg engine.CycleResult

// RevealedMsg is sent when the gate opens.
type RevealedMsg engine.GateResult

// FixMsg carries a fix reported by the tracking loop.
type FixMsg geo.Fix

type clockMsg time.Time

type relativeMsg time.Time

type toastExpiredMsg int

type dismissDoneMsg engine.GateResult

type locateDoneMsg struct {
	fix    geo.Fix
	result tracker.ReportResult
	err    error
}

type deleteDoneMsg struct {
	result tracker.DeleteResult
	err    error
}

type undeleteDoneMsg struct {
	result tracker.UndeleteResult
	err    error
}

// Commands

func clockCmd() tea.Cmd {
	return tea.Tick(DefaultClockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func relativeCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return relativeMsg(t)
	})
}

func toastCmd(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg(id)
	})
}

// NewProgram builds the Bubble Tea program so callers can Send engine
// events into it before running.
func NewProgram(opts Options) *tea.Program {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
}
