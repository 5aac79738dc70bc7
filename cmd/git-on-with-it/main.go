package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marcin-skalski/git-on-with-it/internal/circleci"
	"github.com/marcin-skalski/git-on-with-it/internal/config"
	"github.com/marcin-skalski/git-on-with-it/internal/desktop"
	"github.com/marcin-skalski/git-on-with-it/internal/git"
	"github.com/marcin-skalski/git-on-with-it/internal/github"
	"github.com/marcin-skalski/git-on-with-it/internal/logging"
	"github.com/marcin-skalski/git-on-with-it/internal/metrics"
	"github.com/marcin-skalski/git-on-with-it/internal/notify"
)

var rootCmd = &cobra.Command{
	Use:           "git-on-with-it",
	Short:         "Watch GitHub PRs and CircleCI pipelines from the desktop",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("GOWI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	// The token is commonly exported for other CircleCI tooling already.
	_ = viper.BindEnv("circleci-token", "GOWI_CIRCLECI_TOKEN", "CIRCLECI_TOKEN")
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath(), "path to config file")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("circleci-token", "", "CircleCI API token")
	flags.String("poll-interval", "", "time between polls, e.g. 10s")
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("log-level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("circleci-token", flags.Lookup("circleci-token"))
	_ = viper.BindPFlag("poll-interval", flags.Lookup("poll-interval"))
}

func registerCommands() {
	rootCmd.AddCommand(watchCICmd())
	rootCmd.AddCommand(prDaemonCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(circleCmd())
	rootCmd.AddCommand(postPRCmd())
}

// env is what every command needs after flags and config are resolved.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	closer  io.Closer
	metrics *metrics.Metrics
	browser *desktop.Browser
	gh      *github.Client
	git     *git.Client
}

// loadEnv resolves the config and builds the logger. console mirrors logs to stderr.
func loadEnv(console bool) (*env, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg); err != nil {
		return nil, err
	}

	opts := logging.Options{File: cfg.LogFile, Level: cfg.Log.Level}
	if console {
		opts.Console = os.Stderr
	}
	logger, closer, err := logging.Setup(opts)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		closer:  closer,
		metrics: metrics.NewMetrics(nil),
		browser: desktop.NewBrowser(logger),
		gh:      github.NewClient(logger),
		git:     git.NewClient("", logger),
	}, nil
}

func applyOverrides(cfg *config.Config) error {
	if v := viper.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := viper.GetString("circleci-token"); v != "" {
		cfg.CircleCI.APIToken = v
	}
	if v := viper.GetString("poll-interval"); v != "" {
		cfg.RawInterval = v
	}
	return cfg.Finalize()
}

func (e *env) Close() {
	_ = e.closer.Close()
}

func (e *env) circleci() *circleci.Client {
	return circleci.NewClient(e.cfg.CircleCI.BaseURL, e.cfg.CircleCI.APIToken, e.logger)
}

func (e *env) allocator() *notify.Allocator {
	alerter := notify.NewAlerter(e.cfg.Notification.Command, e.cfg.Notification.SenderApp, e.logger)
	return notify.NewAllocator(alerter, e.logger, notify.WithMetrics(e.metrics))
}

// repo returns the CircleCI project slug and branch of the working directory.
func (e *env) repo(ctx context.Context) (string, string, error) {
	remote, err := e.git.RemoteURL(ctx)
	if err != nil {
		return "", "", err
	}
	branch, err := e.git.CurrentBranch(ctx)
	if err != nil {
		return "", "", err
	}
	return circleci.SlugFromRemote(remote), branch, nil
}

// serveMetrics exposes Prometheus metrics until ctx is done. It is a no-op without a listen address.
func (e *env) serveMetrics(ctx context.Context) {
	addr := e.cfg.Metrics.Listen
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		e.logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
