package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes gh with args and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

type Client struct {
	logger *slog.Logger
	run    Runner
}

func NewClient(logger *slog.Logger) *Client {
	c := &Client{logger: logger}
	c.run = c.gh
	return c
}

// NewClientWithRunner replaces the gh binary, mostly for tests.
func NewClientWithRunner(logger *slog.Logger, run Runner) *Client {
	return &Client{logger: logger, run: run}
}

type PRInfo struct {
	Number            int     `json:"number"`
	Title             string  `json:"title"`
	URL               string  `json:"url"`
	State             string  `json:"state"`
	IsDraft           bool    `json:"isDraft"`
	HeadRef           string  `json:"headRefName"`
	BaseRef           string  `json:"baseRefName"`
	Mergeable         string  `json:"mergeable"`
	MergeStateStatus  string  `json:"mergeStateStatus"`
	ReviewDecision    string  `json:"reviewDecision"`
	StatusCheckRollup []Check `json:"statusCheckRollup"`
}

// Check is one entry of statusCheckRollup. CheckRun entries fill Name, Status, Conclusion and
// DetailsURL; StatusContext entries fill Context, State and TargetURL.
type Check struct {
	Typename   string `json:"__typename"`
	Name       string `json:"name,omitempty"`
	Status     string `json:"status,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`
	DetailsURL string `json:"detailsUrl,omitempty"`
	Context    string `json:"context,omitempty"`
	State      string `json:"state,omitempty"`
	TargetURL  string `json:"targetUrl,omitempty"`
}

// PRSummary is a search hit for an open PR.
type PRSummary struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const prFields = "number,title,url,state,isDraft,headRefName,baseRefName,mergeable,mergeStateStatus,reviewDecision,statusCheckRollup"

var errNoPR = errors.New("no pull request")

// PRInfo looks up a PR by URL, number or branch name. An empty identifier means the PR of the
// current branch. It returns nil without error when there is no such PR.
func (c *Client) PRInfo(ctx context.Context, identifier string) (*PRInfo, error) {
	args := []string{"pr", "view"}
	if identifier != "" {
		args = append(args, identifier)
	}
	args = append(args, "--json", prFields)

	out, err := c.run(ctx, args...)
	if errors.Is(err, errNoPR) {
		c.logger.Debug("no PR found", "identifier", identifier)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("view PR %q: %w", identifier, err)
	}

	var pr PRInfo
	if err := json.Unmarshal(out, &pr); err != nil {
		return nil, fmt.Errorf("parse PR %q: %w", identifier, err)
	}
	return &pr, nil
}

// SearchOpenPRs lists open PRs authored by author across all repositories.
func (c *Client) SearchOpenPRs(ctx context.Context, author string) ([]PRSummary, error) {
	out, err := c.run(ctx,
		"search", "prs",
		"--author", author,
		"--state", "open",
		"--json", "title,url,updatedAt",
		"--limit", "100",
	)
	if err != nil {
		return nil, fmt.Errorf("search PRs of %s: %w", author, err)
	}

	var prs []PRSummary
	if err := json.Unmarshal(out, &prs); err != nil {
		return nil, fmt.Errorf("parse PR search: %w", err)
	}
	return prs, nil
}

// User returns the login gh is authenticated as.
func (c *Client) User(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "api", "user", "--jq", ".login")
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	login := strings.TrimSpace(string(out))
	if login == "" {
		return "", errors.New("get user: empty login")
	}
	return login, nil
}

func (c *Client) gh(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debug("gh", "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "gh", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := string(exitErr.Stderr)
			if strings.Contains(stderr, "no pull requests found") {
				return nil, fmt.Errorf("%w: %s", errNoPR, strings.TrimSpace(stderr))
			}
			return nil, fmt.Errorf("%w: %s", err, stderr)
		}
		return nil, err
	}
	return out, nil
}
