package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// SpinnerStyle colours the spinner shown while work is in flight.
	SpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))

	statusStyles = map[string]lipgloss.Style{
		// Terminal states
		"installed": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"cached":    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"watching":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		// Active states
		"resolving":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"downloading": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"verifying":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		// Skipped / warning
		"missing":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"degraded": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"disabled": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		"failed": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"error":  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		"pending": lipgloss.NewStyle().Faint(true),
	}

	terminalStatuses = map[string]bool{
		"installed": true,
		"cached":    true,
		"failed":    true,
		"error":     true,
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// IsTerminalStatus reports whether status ends a row's work.
func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}
