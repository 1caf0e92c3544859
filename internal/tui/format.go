package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/riskscorer/riskscorer/internal/bridge"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a78bfa"))
	sentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa"))
	glyphStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f59e0b"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	fieldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#c084fc"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308"))
)

// FormatEntry renders one transcript entry as plain text lines.
func FormatEntry(e bridge.Entry) string {
	var b strings.Builder
	switch {
	case e.Direction == bridge.DirectionSent:
		b.WriteString("> ")
		if e.Glyph != "" {
			b.WriteString("[" + e.Glyph + "] ")
		}
		b.WriteString(e.Content)
	case e.Error:
		b.WriteString("! " + e.Content)
	case e.Glyph != "":
		b.WriteString(e.Glyph + ": " + e.Content)
	default:
		b.WriteString("* " + e.Content)
	}
	for _, extra := range []struct{ label, value string }{
		{"visual", e.Visual},
		{"audio", e.Audio},
		{"shift", e.Consciousness},
	} {
		if extra.value != "" {
			b.WriteString("\n    " + extra.label + ": " + extra.value)
		}
	}
	return b.String()
}

func styleEntry(e bridge.Entry) string {
	text := FormatEntry(e)
	switch {
	case e.Direction == bridge.DirectionSent:
		return sentStyle.Render(text)
	case e.Error:
		return errorStyle.Render(text)
	case e.Glyph != "":
		head, rest, _ := strings.Cut(text, ": ")
		return glyphStyle.Render(head+":") + " " + rest
	}
	return text
}

func styleStatus(st bridge.Status) string {
	switch {
	case st.State == bridge.StateOpen && st.Connected:
		return onlineStyle.Render(st.Text())
	case st.State == bridge.StateConnecting || st.State == bridge.StateOpen:
		return pendingStyle.Render(st.Text())
	}
	return errorStyle.Render(st.Text())
}

// densityRunes are ordered from empty to crowded.
var densityRunes = []rune(" .:*#")

// renderDensity turns a particle density grid into text rows.
func renderDensity(grid [][]int) []string {
	rows := make([]string, len(grid))
	for i, row := range grid {
		var b strings.Builder
		for _, n := range row {
			b.WriteRune(densityRunes[min(n, len(densityRunes)-1)])
		}
		rows[i] = b.String()
	}
	return rows
}
