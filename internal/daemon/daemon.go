package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcin-skalski/git-on-with-it/internal/circleci"
	"github.com/marcin-skalski/git-on-with-it/internal/github"
	"github.com/marcin-skalski/git-on-with-it/internal/notify"
	"github.com/marcin-skalski/git-on-with-it/internal/tui"
)

type PRSource interface {
	PRInfo(ctx context.Context, identifier string) (*github.PRInfo, error)
	SearchOpenPRs(ctx context.Context, author string) ([]github.PRSummary, error)
	User(ctx context.Context) (string, error)
}

type PipelineSource interface {
	Summary(ctx context.Context, projectSlug, branch string) (circleci.Summary, error)
}

type Notifier interface {
	SetState(ctx context.Context, desired []notify.Notification) error
	Active() int
}

type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}

var statusMessages = map[github.FleetStatus]string{
	github.FleetMergeConflict:    "Conflict with upstream",
	github.FleetIsBehind:         "Needs updating",
	github.FleetRunningChecks:    "Running checks",
	github.FleetInDraft:          "Waiting in draft",
	github.FleetRequiresApproval: "PR needs approval",
	github.FleetReadyToMerge:     "Ready to merge",
	github.FleetMerged:           "PR merged!",
}

// Daemon keeps one set of notifications for all open PRs of the authenticated user.
type Daemon struct {
	gh        PRSource
	pipelines PipelineSource
	notifier  Notifier
	browser   URLOpener
	logger    *slog.Logger

	// user is only written by the polling goroutine, under mu.
	user string
	// lastURLs is the open set of the last successful pass. PRs that have left it since are
	// reported once more so their final state is seen.
	lastURLs []string

	mu        sync.Mutex
	prs       []tui.PRState
	lastPoll  time.Time
	lastError string
}

func New(gh PRSource, pipelines PipelineSource, notifier Notifier, browser URLOpener, logger *slog.Logger) *Daemon {
	return &Daemon{
		gh:        gh,
		pipelines: pipelines,
		notifier:  notifier,
		browser:   browser,
		logger:    logger,
	}
}

// Iterate runs one pass over the user's PRs. It never reports done.
func (d *Daemon) Iterate(ctx context.Context) (bool, error) {
	if err := d.pass(ctx); err != nil {
		d.recordError(err)
		return false, err
	}
	return false, nil
}

func (d *Daemon) pass(ctx context.Context) error {
	if d.user == "" {
		user, err := d.gh.User(ctx)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.user = user
		d.mu.Unlock()
		d.logger.Info("watching PRs", "user", user)
	}

	open, err := d.gh.SearchOpenPRs(ctx, d.user)
	if err != nil {
		return err
	}

	openURLs := make([]string, 0, len(open))
	updated := make(map[string]time.Time, len(open))
	for _, pr := range open {
		openURLs = append(openURLs, pr.URL)
		updated[pr.URL] = pr.UpdatedAt
	}
	urls := mergeURLs(d.lastURLs, openURLs)

	states := make([]tui.PRState, len(urls))
	perPR := make([][]notify.Notification, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			state, notifications, err := d.evaluate(gctx, url)
			if err != nil {
				return fmt.Errorf("PR %s: %w", url, err)
			}
			state.UpdatedAt = updated[url]
			states[i] = state
			perPR[i] = notifications
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var desired []notify.Notification
	for _, notifications := range perPR {
		desired = append(desired, notifications...)
	}
	if err := d.notifier.SetState(ctx, desired); err != nil {
		return fmt.Errorf("set notifications: %w", err)
	}

	d.logger.Debug("PR pass complete", "prs", len(urls), "open", len(openURLs), "notifications", len(desired))
	d.lastURLs = openURLs
	d.recordPass(states)
	return nil
}

// Notifications returns the notifications for one PR.
func (d *Daemon) Notifications(ctx context.Context, prURL string) ([]notify.Notification, error) {
	_, notifications, err := d.evaluate(ctx, prURL)
	return notifications, err
}

func (d *Daemon) evaluate(ctx context.Context, prURL string) (tui.PRState, []notify.Notification, error) {
	info, err := d.gh.PRInfo(ctx, prURL)
	if err != nil {
		return tui.PRState{}, nil, err
	}
	if info == nil {
		return tui.PRState{}, nil, errors.New("PR not found")
	}

	details := github.StatusDetailsOf(*info)
	state := tui.PRState{
		URL:    prURL,
		Title:  info.Title,
		Branch: details.Branch,
		Status: string(details.Status),
	}

	var notifications []notify.Notification
	switch details.Status {
	case github.FleetErrored:
		notifications = d.failedCheckNotifications(prURL, details)
	case github.FleetRunningChecks:
		notifications, err = d.runningNotifications(ctx, prURL, details)
		if err != nil {
			return tui.PRState{}, nil, err
		}
	default:
		notifications = []notify.Notification{d.genericNotification(prURL, details)}
	}

	for _, n := range notifications {
		state.Messages = append(state.Messages, n.Details.Message)
	}
	return state, notifications, nil
}

func (d *Daemon) failedCheckNotifications(prURL string, details github.StatusDetails) []notify.Notification {
	notifications := make([]notify.Notification, 0, len(details.FailedChecks))
	for _, check := range details.FailedChecks {
		id := check.URL
		if id == "" {
			id = check.Name
		}
		target := check.URL
		if target == "" {
			target = prURL
		}
		notifications = append(notifications, notify.Notification{
			ID:      id,
			Details: notify.Details{Title: details.Branch, Message: "Failed " + strings.Replace(check.Name, "ci/circleci: ", "", 1)},
			Handler: d.openOnClick(target),
		})
	}
	return notifications
}

// runningNotifications asks CircleCI whether the running checks are really waiting on an
// approval, in which case each approval job gets its own notification.
func (d *Daemon) runningNotifications(ctx context.Context, prURL string, details github.StatusDetails) ([]notify.Notification, error) {
	summary, err := d.pipelines.Summary(ctx, circleci.SlugFromPRURL(prURL), details.Branch)
	if err != nil {
		return nil, fmt.Errorf("pipeline summary: %w", err)
	}
	if summary.Status != circleci.PipelineNeedsApproval || len(summary.ApprovalJobs) == 0 {
		return []notify.Notification{d.genericNotification(prURL, details)}, nil
	}

	notifications := make([]notify.Notification, 0, len(summary.ApprovalJobs))
	for _, job := range summary.ApprovalJobs {
		notifications = append(notifications, notify.Notification{
			ID:      job.ID,
			Details: notify.Details{Title: details.Branch, Message: "Awaiting " + job.Name},
			Handler: d.openOnClick(job.URL),
		})
	}
	return notifications, nil
}

func (d *Daemon) genericNotification(prURL string, details github.StatusDetails) notify.Notification {
	message, ok := statusMessages[details.Status]
	if !ok {
		message = string(details.Status)
	}
	return notify.Notification{
		ID:      prURL + "_" + string(details.Status),
		Details: notify.Details{Title: details.Branch, Message: message},
		Handler: d.openOnClick(prURL),
	}
}

func (d *Daemon) openOnClick(url string) notify.Handler {
	return func(ctx context.Context, r notify.Result) {
		if r.ActivationType != notify.ContentsClicked {
			return
		}
		if err := d.browser.OpenURL(ctx, url); err != nil {
			d.logger.Warn("open url failed", "url", url, "err", err)
		}
	}
}

// mergeURLs lists previous followed by the urls of current it does not already contain.
func mergeURLs(previous, current []string) []string {
	seen := make(map[string]bool, len(previous)+len(current))
	merged := make([]string, 0, len(previous)+len(current))
	for _, list := range [][]string{previous, current} {
		for _, url := range list {
			if seen[url] {
				continue
			}
			seen[url] = true
			merged = append(merged, url)
		}
	}
	return merged
}

func (d *Daemon) recordPass(states []tui.PRState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prs = states
	d.lastPoll = time.Now()
	d.lastError = ""
}

func (d *Daemon) recordError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastPoll = time.Now()
	d.lastError = err.Error()
}

func (d *Daemon) GetSnapshot() tui.Snapshot {
	d.mu.Lock()
	prs := make([]tui.PRState, len(d.prs))
	for i, pr := range d.prs {
		pr.Messages = append([]string(nil), pr.Messages...)
		prs[i] = pr
	}
	snapshot := tui.Snapshot{
		Timestamp: time.Now(),
		User:      d.user,
		PRs:       prs,
		LastPoll:  d.lastPoll,
		LastError: d.lastError,
	}
	d.mu.Unlock()

	snapshot.ActiveNotifications = d.notifier.Active()
	return snapshot
}
