package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pinpoint/internal/prefs"
	"github.com/five82/pinpoint/internal/table"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.gateBlocking() {
		if key.Matches(msg, m.keys.Dismiss) {
			return m, m.dismissCmd()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, m.prefs)
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		return m.gotoPage(m.snapshot.Page + 1)

	case key.Matches(msg, m.keys.PrevPage):
		return m.gotoPage(m.snapshot.Page - 1)

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.snapshot.Rows)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.poller != nil {
			m.poller.Reload()
		}
		return m, nil

	case key.Matches(msg, m.keys.Locate):
		if m.locator == nil || m.locating {
			return m, nil
		}
		m.locating = true
		return m, m.locateCmd()

	case key.Matches(msg, m.keys.Delete):
		return m.deleteSelected()

	case key.Matches(msg, m.keys.Undelete):
		if m.records == nil || len(m.lastDeleted) == 0 {
			return m, nil
		}
		return m, m.undeleteCmd(m.lastDeleted)
	}

	return m, nil
}

func (m Model) gotoPage(page int) (tea.Model, tea.Cmd) {
	page = table.ClampPage(page, m.snapshot.Summary.Total)
	if page == m.snapshot.Page {
		return m, nil
	}
	m.selected = 0
	m.snapshot.Page = page
	if m.poller != nil {
		m.poller.Navigate(page)
	} else if m.store != nil {
		m.store.SetPage(page)
	}
	return m, nil
}

func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	if m.records == nil || m.selected >= len(m.snapshot.Rows) {
		return m, nil
	}
	ts := m.snapshot.Rows[m.selected].Timestamp
	if ts == "" {
		return m.showToast("Selected row has no timestamp")
	}
	return m, m.deleteCmd([]string{ts})
}

func (m Model) handleLocateDone(msg locateDoneMsg) (tea.Model, tea.Cmd) {
	m.locating = false
	if msg.err != nil {
		return m.showToast("Locate failed: " + msg.err.Error())
	}
	m.fix = msg.fix
	m.hasFix = true
	if msg.result.Skipped() {
		return m.showToast("Position unchanged")
	}
	return m.showToast("Position reported")
}

func (m Model) handleDeleteDone(msg deleteDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.showToast("Delete failed: " + msg.err.Error())
	}
	m.lastDeleted = msg.result.Timestamps
	if m.poller != nil {
		m.poller.Reload()
	}
	return m.showToast(fmt.Sprintf("Deleted %d record(s), u to restore", msg.result.Removed))
}

func (m Model) handleUndeleteDone(msg undeleteDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.showToast("Restore failed: " + msg.err.Error())
	}
	m.lastDeleted = nil
	if m.poller != nil {
		m.poller.Reload()
	}
	return m.showToast(fmt.Sprintf("Restored %d record(s)", msg.result.Restored))
}

func (m Model) dismissCmd() tea.Cmd {
	gate, ctx := m.gate, m.ctx
	return func() tea.Msg {
		return dismissDoneMsg(gate.Dismiss(ctx))
	}
}

func (m Model) locateCmd() tea.Cmd {
	locator, ctx := m.locator, m.ctx
	return func() tea.Msg {
		fix, result, err := locator.Locate(ctx)
		return locateDoneMsg{fix: fix, result: result, err: err}
	}
}

func (m Model) deleteCmd(timestamps []string) tea.Cmd {
	records, parent := m.records, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		result, err := records.DeleteRecords(ctx, timestamps)
		return deleteDoneMsg{result: result, err: err}
	}
}

func (m Model) undeleteCmd(timestamps []string) tea.Cmd {
	records, parent := m.records, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		result, err := records.UndeleteRecords(ctx, timestamps)
		return undeleteDoneMsg{result: result, err: err}
	}
}
