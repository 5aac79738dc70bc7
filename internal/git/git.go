package git

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Client runs read-only git queries in dir, or the working directory when dir is empty.
type Client struct {
	dir    string
	logger *slog.Logger
}

func NewClient(dir string, logger *slog.Logger) *Client {
	return &Client{dir: dir, logger: logger}
}

// RemoteURL returns the URL of the origin remote.
func (c *Client) RemoteURL(ctx context.Context) (string, error) {
	return c.output(ctx, "ls-remote", "--get-url")
}

// CurrentBranch returns the checked out branch name.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := c.output(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if branch == "HEAD" {
		return "", fmt.Errorf("detached HEAD, check out a branch first")
	}
	return branch, nil
}

func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	c.logger.Debug("exec", "cmd", "git "+strings.Join(args, " "), "dir", c.dir)
	cmd := exec.CommandContext(ctx, "git", args...)
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, stderr)
	}
	return strings.TrimSpace(string(out)), nil
}
