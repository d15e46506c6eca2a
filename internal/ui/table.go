package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pinpoint/internal/table"
)

const relColumnWidth = 10

// renderTable renders the displayed page inside a titled box.
func (m Model) renderTable(width, height int) string {
	innerWidth := max(width-2, 10)
	title := "Reports"
	if m.snapshot.RowsPage > 0 {
		title = "Reports · page " + strconv.Itoa(m.snapshot.RowsPage)
	}

	var lines []string
	if len(m.snapshot.Rows) == 0 {
		styles := m.theme.Styles()
		empty := "No reports yet"
		if !m.snapshot.HasSummary {
			empty = "Waiting for the first refresh..."
		}
		lines = append(lines, styles.FaintText.Render(" "+empty))
	}
	for i, row := range m.snapshot.Rows {
		lines = append(lines, m.renderRow(row, i == m.selected, innerWidth))
	}

	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height)
}

func (m Model) renderRow(row table.Row, selected bool, width int) string {
	styles := m.theme.Styles()

	marker := " "
	markerStyle := styles.FaintText
	if _, ok := m.fresh[row.ID]; ok {
		marker = "+"
		markerStyle = styles.SuccessText
	}

	age := ""
	if row.Timestamp != "" {
		age = table.RelativeLabel(m.relNow, row.Timestamp)
	}
	cells := strings.Join(row.Cells, "  ")
	if row.Link != "" && width >= LayoutCompactWidth {
		cells += "  " + row.Link
	}
	text := padRight(truncate(age, relColumnWidth), relColumnWidth) + "  " +
		truncate(cells, max(width-relColumnWidth-4, 1))

	if selected {
		return markerStyle.Render(marker) + styles.Selected.Width(width-1).Render(text)
	}
	return markerStyle.Render(marker) + styles.Text.Render(text)
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int) string {
	bg := NewBgStyle(m.theme.SurfaceAlt)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Border))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(bg.Color())
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 1)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}
