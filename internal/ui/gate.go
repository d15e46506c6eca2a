package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderGate renders the overlay shown while waiting for a newer record.
func (m Model) renderGate() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Waiting for new data"))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("The table appears once a report newer than"))
	b.WriteString("\n")
	baseline := m.gate.Baseline()
	if baseline == "" {
		baseline = "(none)"
	}
	b.WriteString(styles.AccentText.Render(baseline))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("arrives."))
	b.WriteString("\n\n")
	b.WriteString(styles.WarningText.Render("esc/enter"))
	b.WriteString(styles.FaintText.Render("  show it now"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(48)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
