package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marcin-skalski/git-on-with-it/internal/circleci"
	"github.com/marcin-skalski/git-on-with-it/internal/daemon"
	"github.com/marcin-skalski/git-on-with-it/internal/desktop"
	"github.com/marcin-skalski/git-on-with-it/internal/notify"
	"github.com/marcin-skalski/git-on-with-it/internal/poll"
	"github.com/marcin-skalski/git-on-with-it/internal/tui"
	"github.com/marcin-skalski/git-on-with-it/internal/watch"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func watchCICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch-ci",
		Short: "Follow the current branch's pipeline and PR until it merges",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signalContext(cmd)
			defer stop()
			e.serveMetrics(ctx)

			slug, branch, err := e.repo(ctx)
			if err != nil {
				return err
			}

			alloc := e.allocator()
			w := watch.New(branch, slug, e.gh, circleci.NewSummarizer(e.circleci(), e.logger), alloc, e.browser, e.logger,
				watch.WithNotificationTimeout(e.cfg.Notification.Timeout))

			e.logger.Info("watching CI", "project", slug, "branch", branch, "interval", e.cfg.PollInterval)
			loop := poll.Loop{Name: "watch-ci", Interval: e.cfg.PollInterval, Logger: e.logger, Metrics: e.metrics}
			if err := loop.Run(ctx, w.Iterate); err != nil {
				return err
			}

			e.logger.Debug("waiting for open notifications", "active", alloc.Active())
			if err := alloc.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func prDaemonCmd() *cobra.Command {
	var noTUI bool
	cmd := &cobra.Command{
		Use:   "pr-daemon",
		Short: "Notify about every open PR you authored",
		RunE: func(cmd *cobra.Command, args []string) error {
			enableTUI := !noTUI && os.Getenv("GOWI_TUI") != "0" &&
				isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

			e, err := loadEnv(!enableTUI)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signalContext(cmd)
			defer stop()
			e.serveMetrics(ctx)

			d := daemon.New(e.gh, circleci.NewSummarizer(e.circleci(), e.logger), e.allocator(), e.browser, e.logger)
			loop := poll.Loop{Name: "pr-daemon", Interval: e.cfg.PollInterval, Logger: e.logger, Metrics: e.metrics}

			if !enableTUI {
				e.logger.Info("pr daemon starting (headless)", "interval", e.cfg.PollInterval)
				return loop.Run(ctx, d.Iterate)
			}

			loopDone := make(chan error, 1)
			go func() {
				e.logger.Info("pr daemon starting in background", "interval", e.cfg.PollInterval)
				loopDone <- loop.Run(ctx, d.Iterate)
			}()

			p := tea.NewProgram(tui.NewModel(d, e.browser, e.cfg.TUI.RefreshInterval), tea.WithAltScreen(), tea.WithContext(ctx))
			_, runErr := p.Run()
			stop()
			loopErr := <-loopDone
			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return fmt.Errorf("tui: %w", runErr)
			}
			return loopErr
		},
	}
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "log to stderr instead of showing the dashboard")
	return cmd
}

func statusCmd() *cobra.Command {
	var branch bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the status of your open PRs, or of the current branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signalContext(cmd)
			defer stop()
			summarizer := circleci.NewSummarizer(e.circleci(), e.logger)

			if branch {
				slug, name, err := e.repo(ctx)
				if err != nil {
					return err
				}
				status, err := watch.New(name, slug, e.gh, summarizer, discardNotifier{}, e.browser, e.logger).Status(ctx)
				if err != nil {
					return err
				}
				renderBranchStatus(cmd.OutOrStdout(), name, status)
				return nil
			}

			d := daemon.New(e.gh, summarizer, discardNotifier{}, e.browser, e.logger)
			if _, err := d.Iterate(ctx); err != nil {
				return err
			}
			renderFleet(cmd.OutOrStdout(), d.GetSnapshot().PRs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&branch, "branch", false, "show the CI and PR status of the current branch")
	return cmd
}

func circleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circle",
		Short: "Open the current branch's CircleCI pipelines in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			slug, branch, err := e.repo(cmd.Context())
			if err != nil {
				return err
			}
			return e.browser.OpenURL(cmd.Context(), circleci.BranchURL(slug, branch))
		},
	}
	cmd.AddCommand(circleRerunCmd())
	return cmd
}

func circleRerunCmd() *cobra.Command {
	var fromFailed bool
	cmd := &cobra.Command{
		Use:   "rerun",
		Short: "Rerun the failed or canceled workflows of the current branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signalContext(cmd)
			defer stop()

			slug, branch, err := e.repo(ctx)
			if err != nil {
				return err
			}
			client := e.circleci()

			pipelineID, err := client.LatestPipelineID(ctx, slug, branch)
			if err != nil {
				return err
			}
			if pipelineID == "" {
				return fmt.Errorf("no pipeline for %s@%s", slug, branch)
			}
			workflows, err := client.Workflows(ctx, pipelineID)
			if err != nil {
				return err
			}

			targets := rerunnable(circleci.CurrentWorkflows(workflows))
			if len(targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to rerun")
				return nil
			}
			for _, wf := range targets {
				if err := client.RerunWorkflow(ctx, wf.ID, fromFailed); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rerunning %s (%s)\n", wf.Name, wf.Status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromFailed, "from-failed", false, "rerun only the failed jobs")
	return cmd
}

func postPRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-pr [pr]",
		Short: "Copy a review request link for the PR to the clipboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			var identifier string
			if len(args) == 1 {
				identifier = args[0]
			}
			pr, err := e.gh.PRInfo(cmd.Context(), identifier)
			if err != nil {
				return err
			}
			if pr == nil {
				return errors.New("no pull request for the current branch")
			}

			text := reviewRequest(pr.URL, pr.Title)
			if err := desktop.CopyToClipboard(text); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

// rerunnable keeps the workflows that ended without success.
func rerunnable(workflows []circleci.Workflow) []circleci.Workflow {
	var out []circleci.Workflow
	for _, wf := range workflows {
		if wf.Status == circleci.WorkflowFailed || wf.Status == circleci.WorkflowCanceled {
			out = append(out, wf)
		}
	}
	return out
}

// discardNotifier backs one-shot commands that compute notifications without showing them.
type discardNotifier struct{}

func (discardNotifier) SetState(context.Context, []notify.Notification) error { return nil }

func (discardNotifier) Active() int { return 0 }
