package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("pinpoint", styles.Logo)}

	if !m.snapshot.HasSummary {
		parts = append(parts, bg.Render("Connecting to "+m.serverLabel()+"...", styles.WarningText.Bold(true)))
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	parts = append(parts,
		bg.Render("Reports:", styles.MutedText)+bg.Space()+
			bg.Render(humanize.Comma(int64(m.snapshot.Summary.Total)), styles.Text),
		bg.Render("Page:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", m.snapshot.Page, m.snapshot.TotalPages()), styles.AccentText),
	)

	if checked := m.formatChecked(); checked != "" {
		parts = append(parts, bg.Render(checked, styles.MutedText))
	}

	if !m.focused {
		parts = append(parts, bg.Render("paused", styles.WarningText))
	}

	if m.width >= LayoutCompactWidth {
		parts = append(parts, bg.Render(truncateMiddle(m.serverLabel(), 40), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) serverLabel() string {
	if m.server == "" {
		return "server"
	}
	return m.server
}

// formatChecked renders the age of the last successful summary check.
func (m Model) formatChecked() string {
	if m.snapshot.LastChecked.IsZero() {
		return ""
	}
	age := m.now.Sub(m.snapshot.LastChecked)
	if age < time.Second {
		return "checked now"
	}
	return fmt.Sprintf("checked %ds ago", int(age/time.Second))
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"n/p", "Page"},
		{"j/k", "Select"},
		{"L", "Locate"},
		{"x", "Delete"},
		{"r", "Reload"},
		{"?", "More"},
	}
	if len(m.lastDeleted) > 0 {
		commands = append(commands[:4], append([]cmd{{"u", "Restore"}}, commands[4:]...)...)
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderMain renders the full observer screen.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Header, command bar, position card and toast take six lines.
	tableHeight := max(m.height-6, 3)
	b.WriteString(m.renderTable(m.width, tableHeight))
	b.WriteString("\n")
	b.WriteString(m.renderPosition())
	b.WriteString("\n")
	b.WriteString(m.renderToast())

	return b.String()
}

// renderToast renders the transient status line.
func (m Model) renderToast() string {
	styles := m.theme.Styles()
	if m.toast == "" {
		return ""
	}
	return styles.InfoText.Bold(true).Padding(0, 1).Render(m.toast)
}
