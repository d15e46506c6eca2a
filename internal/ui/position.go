package ui

import (
	"fmt"
	"math"
)

// renderPosition renders the own-position card below the table.
func (m Model) renderPosition() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	label := bg.Render("You:", styles.MutedText)
	var body string
	switch {
	case m.locating:
		body = bg.Render("locating...", styles.WarningText)
	case !m.hasFix:
		body = bg.Render("no position yet, press L to report", styles.FaintText)
	default:
		body = bg.Render(formatCoords(m.fix.Lat, m.fix.Lng), styles.Text) + bg.Spaces(2) +
			bg.Render(formatAccuracy(m.fix.Accuracy, m.device.Label()), styles.MutedText)
	}
	return styles.Footer.Width(m.width).Render(label + bg.Space() + body)
}

func formatCoords(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

func formatAccuracy(accuracy float64, device string) string {
	return fmt.Sprintf("±%dm — %s", int(math.Round(accuracy)), device)
}
