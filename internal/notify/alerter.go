package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

const appTitle = "git-on-with-it"

// CommandRunner runs name with args and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Alerter is a Backend driving the alerter CLI.
type Alerter struct {
	command   string
	senderApp string
	logger    *slog.Logger
	run       CommandRunner
}

func NewAlerter(command, senderApp string, logger *slog.Logger) *Alerter {
	if command == "" {
		command = "alerter"
	}
	return &Alerter{command: command, senderApp: senderApp, logger: logger, run: runCommand}
}

// WithRunner replaces process execution, mostly for tests.
func (a *Alerter) WithRunner(run CommandRunner) *Alerter {
	a.run = run
	return a
}

func (a *Alerter) Notify(ctx context.Context, d Details, group string) (Result, error) {
	out, err := a.run(ctx, a.command, a.notifyArgs(d, group)...)
	if err != nil {
		return Result{}, fmt.Errorf("alerter notify %s: %w", group, err)
	}

	var result Result
	if err := json.Unmarshal(bytes.TrimSpace(out), &result); err != nil {
		return Result{}, fmt.Errorf("parse alerter output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return result, nil
}

func (a *Alerter) Clear(ctx context.Context, group string) error {
	if _, err := a.run(ctx, a.command, "-remove", group); err != nil {
		return fmt.Errorf("alerter remove %s: %w", group, err)
	}
	return nil
}

func (a *Alerter) notifyArgs(d Details, group string) []string {
	args := []string{
		"-title", appTitle,
		"-subtitle", d.Title,
		"-message", d.Message,
	}
	if a.senderApp != "" {
		args = append(args, "-sender", a.senderApp)
	}
	if secs := int(d.Timeout.Seconds()); secs > 0 {
		args = append(args, "-timeout", strconv.Itoa(secs))
	}
	if d.Action != "" {
		args = append(args, "-actions", d.Action)
	}
	if group != "" {
		args = append(args, "-group", group)
	}
	return append(args, "-ignoreDnD", "-json")
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", err, string(exitErr.Stderr))
		}
		return nil, err
	}
	return out, nil
}
