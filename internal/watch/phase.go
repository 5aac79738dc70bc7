package watch

import (
	"context"

	"github.com/marcin-skalski/git-on-with-it/internal/circleci"
	"github.com/marcin-skalski/git-on-with-it/internal/github"
	"github.com/marcin-skalski/git-on-with-it/internal/notify"
)

type phase int

const (
	phaseMerged phase = iota
	phaseWaitingForRun
	phaseSucceeded
	phaseFailed
	phaseNeedsApproval
	phaseRunning
	phaseCanceled
	phaseUnknown
)

// evaluate picks the first matching phase. A merged PR wins over anything CI says.
func evaluate(s Status) phase {
	if s.PR == github.PRMerged {
		return phaseMerged
	}

	switch s.Pipeline.Status {
	case circleci.PipelineNotFound:
		return phaseWaitingForRun
	case circleci.PipelineSucceeded:
		return phaseSucceeded
	case circleci.PipelineFailed:
		return phaseFailed
	case circleci.PipelineNeedsApproval:
		return phaseNeedsApproval
	case circleci.PipelineRunning:
		return phaseRunning
	case circleci.PipelineCanceled:
		return phaseCanceled
	default:
		return phaseUnknown
	}
}

var succeededMessages = map[github.PRStatus]string{
	github.PRNotCreated:    "CircleCI success! Waiting for PR to be opened",
	github.PRIsBehind:      "CircleCI success! Branch needs updating",
	github.PRNeedsApproval: "All green! Waiting for PR approval",
	github.PRReadyToMerge:  "Ready to merge!",
	github.PRInDraft:       "CircleCI success! PR is still in draft",
	github.PRMergeConflict: "CircleCI success! Conflict with upstream",
}

func (w *Watcher) notifications(p phase, s Status) []notify.Notification {
	switch p {
	case phaseMerged:
		return []notify.Notification{w.statusNotification("PR merged! Have a nice day", s.PRURL)}
	case phaseWaitingForRun:
		return []notify.Notification{w.statusNotification("Waiting for CircleCI run", "")}
	case phaseSucceeded:
		if m, ok := succeededMessages[s.PR]; ok {
			return []notify.Notification{w.statusNotification(m, s.PRURL)}
		}
		return nil
	case phaseFailed:
		return w.jobNotifications("Failed ", s.Pipeline.FailedJobs)
	case phaseNeedsApproval:
		return w.jobNotifications("Awaiting ", s.Pipeline.ApprovalJobs)
	case phaseCanceled:
		return []notify.Notification{w.statusNotification("CircleCI workflow canceled", circleci.BranchURL(w.projectSlug, w.branch))}
	default:
		return nil
	}
}

// statusNotification replaces whatever status message is on screen. Clicking it opens url
// when there is one.
func (w *Watcher) statusNotification(message, url string) notify.Notification {
	n := notify.Notification{
		Details: notify.Details{Title: w.branch, Message: message, Timeout: w.timeout},
	}
	if url != "" {
		n.Handler = func(ctx context.Context, r notify.Result) {
			if r.ActivationType == notify.ContentsClicked {
				w.open(ctx, url)
			}
		}
	}
	return n
}

// jobNotifications returns one notification per job the user has not dealt with yet.
func (w *Watcher) jobNotifications(prefix string, jobs []circleci.JobRef) []notify.Notification {
	var out []notify.Notification
	for _, job := range jobs {
		if w.Acknowledged(job.ID) {
			continue
		}
		out = append(out, notify.Notification{
			ID:      job.ID,
			Details: notify.Details{Title: w.branch, Message: prefix + job.Name, Action: "Open"},
			Handler: w.jobHandler(job),
		})
	}
	return out
}

func (w *Watcher) jobHandler(job circleci.JobRef) notify.Handler {
	return func(ctx context.Context, r notify.Result) {
		switch r.ActivationType {
		case notify.ActionClicked, notify.ContentsClicked:
			w.acknowledge(job.ID)
			w.open(ctx, job.URL)
		case notify.Closed:
			w.acknowledge(job.ID)
		}
	}
}

func (w *Watcher) open(ctx context.Context, url string) {
	if err := w.browser.OpenURL(ctx, url); err != nil {
		w.logger.Warn("open url failed", "url", url, "err", err)
	}
}

func phaseString(p phase) string {
	switch p {
	case phaseMerged:
		return "merged"
	case phaseWaitingForRun:
		return "waiting_for_run"
	case phaseSucceeded:
		return "succeeded"
	case phaseFailed:
		return "failed"
	case phaseNeedsApproval:
		return "needs_approval"
	case phaseRunning:
		return "running"
	case phaseCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}
