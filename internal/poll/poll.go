package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/marcin-skalski/git-on-with-it/internal/metrics"
)

// IterateFunc runs one poll. Returning done ends the loop.
type IterateFunc func(ctx context.Context) (done bool, err error)

// Loop runs one iteration at a time. The next iteration starts interval after the previous
// one started, or as soon as it finishes if it took longer than that.
type Loop struct {
	Name     string
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Run polls until iterate reports done or ctx is cancelled. Iteration errors are logged and
// polling continues.
func (l Loop) Run(ctx context.Context, iterate IterateFunc) error {
	l.Logger.Info("polling started", "loop", l.Name, "interval", l.Interval)
	for {
		timer := time.NewTimer(l.Interval)
		done, err := iterate(ctx)
		switch {
		case err != nil:
			l.Metrics.IncPoll(l.Name, "error")
			l.Logger.Error("poll failed", "loop", l.Name, "err", err)
		case done:
			l.Metrics.IncPoll(l.Name, "done")
		default:
			l.Metrics.IncPoll(l.Name, "ok")
		}
		if done {
			timer.Stop()
			l.Logger.Info("polling finished", "loop", l.Name)
			return nil
		}

		select {
		case <-ctx.Done():
			timer.Stop()
			l.Logger.Info("polling stopped", "loop", l.Name)
			return nil
		case <-timer.C:
		}
	}
}
