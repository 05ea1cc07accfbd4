package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// TitleStyle styles the line above the table.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	statusStyles = map[string]lipgloss.Style{
		// Terminal states
		"succeeded": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"installed": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"removed":   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		// Active states
		"running":    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"installing": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		// Skipped / warning
		"skipped":   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"missing":   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"unmanaged": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"planned":   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		// Error
		"failed": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		// Pending
		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string. Only
// the first word is matched, so "failed (101)" is styled as "failed".
func StatusStyle(status string) lipgloss.Style {
	fields := strings.Fields(status)
	if len(fields) == 0 {
		return lipgloss.NewStyle()
	}
	if s, ok := statusStyles[fields[0]]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
