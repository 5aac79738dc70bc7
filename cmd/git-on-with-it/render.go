package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/marcin-skalski/git-on-with-it/internal/circleci"
	"github.com/marcin-skalski/git-on-with-it/internal/tui"
	"github.com/marcin-skalski/git-on-with-it/internal/watch"
)

// reviewRequest formats the chat message for a PR. The first title word is usually a
// ticket key and is dropped.
func reviewRequest(url, title string) string {
	words := strings.Fields(title)
	if len(words) > 1 {
		words = words[1:]
	}
	return fmt.Sprintf("[PR for review](%s): %s", url, strings.Join(words, " "))
}

func renderFleet(w io.Writer, prs []tui.PRState) {
	if len(prs) == 0 {
		fmt.Fprintln(w, "no open pull requests")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Status", "Branch", "Title", "Updated", "URL"})
	for _, pr := range prs {
		updated := "-"
		if !pr.UpdatedAt.IsZero() {
			updated = humanize.Time(pr.UpdatedAt)
		}
		status := pr.Status
		if status == "" {
			status = "-"
		}
		tw.AppendRow(table.Row{status, pr.Branch, pr.Title, updated, pr.URL})
	}
	tw.Render()
}

func renderBranchStatus(w io.Writer, branch string, s watch.Status) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendRow(table.Row{"Branch", branch})
	tw.AppendRow(table.Row{"PR", string(s.PR)})
	if s.PRURL != "" {
		tw.AppendRow(table.Row{"PR URL", s.PRURL})
	}
	tw.AppendRow(table.Row{"Pipeline", string(s.Pipeline.Status)})
	for _, job := range s.Pipeline.FailedJobs {
		tw.AppendRow(table.Row{"Failed", jobCell(job)})
	}
	for _, job := range s.Pipeline.ApprovalJobs {
		tw.AppendRow(table.Row{"Awaiting", jobCell(job)})
	}
	tw.Render()
}

func jobCell(job circleci.JobRef) string {
	return job.Name + " " + job.URL
}
