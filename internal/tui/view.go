package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const maxTitleWidth = 60

func renderView(snap Snapshot, selected int, spinnerView, openErr string) string {
	var b strings.Builder

	// Header
	user := snap.User
	if user == "" {
		user = "…"
	}
	header := fmt.Sprintf("%s git-on-with-it │ %s │ %d PRs │ %d notifications",
		spinnerView, user, len(snap.PRs), snap.ActiveNotifications)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Open pull requests"))
	b.WriteString("\n")
	b.WriteString(renderPRs(snap.PRs, selected))

	if snap.LastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Last poll failed: " + snap.LastError))
	}
	if openErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Open failed: " + openErr))
	}

	// Footer
	b.WriteString("\n")
	lastPoll := "never"
	if !snap.LastPoll.IsZero() {
		lastPoll = humanize.Time(snap.LastPoll)
	}
	footer := fmt.Sprintf("Last poll: %s │ q:quit r:refresh ↑/↓:select enter:open", lastPoll)
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

func renderPRs(prs []PRState, selected int) string {
	if len(prs) == 0 {
		return emptyStyle.Render("  (no open PRs)")
	}

	var b strings.Builder
	for i, pr := range prs {
		isLast := i == len(prs)-1
		prefix := "├─"
		childPrefix := "│  "
		if isLast {
			prefix = "└─"
			childPrefix = "   "
		}

		title := pr.Title
		if runewidth.StringWidth(title) > maxTitleWidth {
			title = runewidth.Truncate(title, maxTitleWidth-3, "...")
		}
		line := fmt.Sprintf("%s %s %s (%s)", prefix, statusIcon(pr.Status), title, pr.Branch)
		if !pr.UpdatedAt.IsZero() {
			line += " · updated " + humanize.Time(pr.UpdatedAt)
		}

		style := prStyle
		if i == selected {
			style = selectedPRStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")

		color := lipgloss.NewStyle().Foreground(statusColor(pr.Status))
		for k, message := range pr.Messages {
			messagePrefix := "├─"
			if k == len(pr.Messages)-1 {
				messagePrefix = "└─"
			}
			b.WriteString(color.Render(fmt.Sprintf("%s   %s %s", childPrefix, messagePrefix, message)))
			b.WriteString("\n")
		}
	}

	return b.String()
}
