package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Status colors
	colorErrored          = lipgloss.Color("196") // red
	colorConflict         = lipgloss.Color("220") // yellow
	colorBehind           = lipgloss.Color("208") // orange-red
	colorRunning          = lipgloss.Color("33")  // blue
	colorDraft            = lipgloss.Color("240") // gray
	colorRequiresApproval = lipgloss.Color("214") // orange
	colorReady            = lipgloss.Color("46")  // green
	colorMerged           = lipgloss.Color("135") // purple

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingLeft(1).
			PaddingRight(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1).
			MarginBottom(0)

	prStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	selectedPRStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("237"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	errorStyle = lipgloss.NewStyle().
			Foreground(colorErrored)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func statusIcon(status string) string {
	switch status {
	case "errored":
		return "🔨"
	case "merge_conflict":
		return "⚠️"
	case "is_behind":
		return "⏪"
	case "running_checks":
		return "⚙️"
	case "in_draft":
		return "📝"
	case "requires_approval":
		return "📋"
	case "ready_to_merge":
		return "✅"
	case "merged":
		return "🎉"
	default:
		return "❓"
	}
}

func statusColor(status string) lipgloss.Color {
	switch status {
	case "errored":
		return colorErrored
	case "merge_conflict":
		return colorConflict
	case "is_behind":
		return colorBehind
	case "running_checks":
		return colorRunning
	case "in_draft":
		return colorDraft
	case "requires_approval":
		return colorRequiresApproval
	case "ready_to_merge":
		return colorReady
	case "merged":
		return colorMerged
	default:
		return lipgloss.Color("252")
	}
}
