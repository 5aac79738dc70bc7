package git

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q", "-b", "feature/faster-ci"},
		{"remote", "add", "origin", "git@github.com:acme/widgets.git"},
		{"-c", "user.name=t", "-c", "user.email=t@example.com", "-c", "commit.gpgsign=false", "commit", "-q", "--allow-empty", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	return dir
}

func TestClient_RemoteAndBranch(t *testing.T) {
	t.Parallel()

	c := NewClient(newRepo(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	remote, err := c.RemoteURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:acme/widgets.git", remote)

	branch, err := c.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "feature/faster-ci", branch)
}

func TestClient_NotARepo(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	c := NewClient(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.CurrentBranch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git rev-parse")
}
