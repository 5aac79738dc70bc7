package watch

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcin-skalski/git-on-with-it/internal/circleci"
	"github.com/marcin-skalski/git-on-with-it/internal/github"
	"github.com/marcin-skalski/git-on-with-it/internal/notify"
)

type PRSource interface {
	PRInfo(ctx context.Context, identifier string) (*github.PRInfo, error)
}

type PipelineSource interface {
	Summary(ctx context.Context, projectSlug, branch string) (circleci.Summary, error)
}

type Notifier interface {
	SetState(ctx context.Context, desired []notify.Notification) error
}

type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}

// Status is the combined PR and pipeline state of a branch at one poll.
type Status struct {
	PR       github.PRStatus
	PRURL    string
	Pipeline circleci.Summary
}

// Watcher follows one branch from first pipeline to merge.
type Watcher struct {
	branch      string
	projectSlug string
	prs         PRSource
	pipelines   PipelineSource
	notifier    Notifier
	browser     URLOpener
	logger      *slog.Logger
	timeout     time.Duration

	last *Status
	done bool

	ackMu        sync.Mutex
	acknowledged map[string]bool
}

type Option func(*Watcher)

// WithNotificationTimeout makes status notifications dismiss themselves after d.
func WithNotificationTimeout(d time.Duration) Option {
	return func(w *Watcher) { w.timeout = d }
}

func New(branch, projectSlug string, prs PRSource, pipelines PipelineSource, notifier Notifier, browser URLOpener, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		branch:       branch,
		projectSlug:  projectSlug,
		prs:          prs,
		pipelines:    pipelines,
		notifier:     notifier,
		browser:      browser,
		logger:       logger.With("branch", branch),
		acknowledged: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Status fetches the PR and the pipeline of the branch concurrently.
func (w *Watcher) Status(ctx context.Context) (Status, error) {
	var s Status
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pr, err := w.prs.PRInfo(gctx, w.branch)
		if err != nil {
			return fmt.Errorf("PR status: %w", err)
		}
		s.PR = github.PRStatusOf(pr)
		if pr != nil {
			s.PRURL = pr.URL
		}
		return nil
	})
	g.Go(func() error {
		summary, err := w.pipelines.Summary(gctx, w.projectSlug, w.branch)
		if err != nil {
			return fmt.Errorf("pipeline status: %w", err)
		}
		s.Pipeline = summary
		return nil
	})
	if err := g.Wait(); err != nil {
		return Status{}, err
	}
	return s, nil
}

// Iterate polls once and updates notifications when the status changed since the last
// poll. It reports done once the merge notification has been issued.
func (w *Watcher) Iterate(ctx context.Context) (bool, error) {
	if w.done {
		return true, nil
	}

	s, err := w.Status(ctx)
	if err != nil {
		return false, err
	}
	if w.last != nil && reflect.DeepEqual(*w.last, s) {
		return false, nil
	}

	p := evaluate(s)
	w.logger.Info("CI status changed",
		"phase", phaseString(p),
		"pr", s.PR,
		"pipeline", s.Pipeline.Status,
		"failed_jobs", len(s.Pipeline.FailedJobs),
		"approval_jobs", len(s.Pipeline.ApprovalJobs),
	)
	if p == phaseUnknown {
		w.logger.Warn("pipeline status not recognised, not notifying", "pipeline", s.Pipeline.Status)
	}

	if err := w.notifier.SetState(ctx, w.notifications(p, s)); err != nil {
		w.logger.Warn("updating notifications failed", "err", err)
	}
	w.last = &s

	if p == phaseMerged {
		w.done = true
		return true, nil
	}
	return false, nil
}

// Acknowledged reports whether the user has dealt with the notification of job id.
func (w *Watcher) Acknowledged(id string) bool {
	w.ackMu.Lock()
	defer w.ackMu.Unlock()
	return w.acknowledged[id]
}

func (w *Watcher) acknowledge(id string) {
	w.ackMu.Lock()
	defer w.ackMu.Unlock()
	w.acknowledged[id] = true
}
