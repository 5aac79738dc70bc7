package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedRun struct {
	args []string
}

func stubRunner(out string, err error, rec *recordedRun) Runner {
	return func(_ context.Context, args ...string) ([]byte, error) {
		if rec != nil {
			rec.args = args
		}
		return []byte(out), err
	}
}

func TestPRInfo(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{}
	out := `{
		"number": 99,
		"title": "ABC-1 Add things",
		"url": "https://github.com/my-org/my-repo/pull/99",
		"state": "OPEN",
		"isDraft": false,
		"headRefName": "my-branch",
		"baseRefName": "develop",
		"mergeStateStatus": "BLOCKED",
		"reviewDecision": "REVIEW_REQUIRED",
		"statusCheckRollup": [
			{"__typename": "StatusContext", "context": "ci/circleci: lint", "state": "PENDING", "targetUrl": "https://circleci.com/gh/my-org/my-repo/1"},
			{"__typename": "CheckRun", "name": "size", "status": "COMPLETED", "conclusion": "SUCCESS"}
		]
	}`
	c := NewClientWithRunner(discardLogger(), stubRunner(out, nil, rec))

	pr, err := c.PRInfo(context.Background(), "my-branch")

	require.NoError(t, err)
	require.NotNil(t, pr)
	assert.Equal(t, []string{"pr", "view", "my-branch", "--json", prFields}, rec.args)
	assert.Equal(t, "my-branch", pr.HeadRef)
	assert.Equal(t, "REVIEW_REQUIRED", pr.ReviewDecision)
	require.Len(t, pr.StatusCheckRollup, 2)
	assert.Equal(t, "StatusContext", pr.StatusCheckRollup[0].Typename)
	assert.Equal(t, "https://circleci.com/gh/my-org/my-repo/1", pr.StatusCheckRollup[0].TargetURL)
}

func TestPRInfo_CurrentBranchOmitsIdentifier(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{}
	c := NewClientWithRunner(discardLogger(), stubRunner(`{"url":"u"}`, nil, rec))

	_, err := c.PRInfo(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, []string{"pr", "view", "--json", prFields}, rec.args)
}

func TestPRInfo_NoPRIsNil(t *testing.T) {
	t.Parallel()

	noPR := fmt.Errorf("%w: no pull requests found for branch \"x\"", errNoPR)
	c := NewClientWithRunner(discardLogger(), stubRunner("", noPR, nil))

	pr, err := c.PRInfo(context.Background(), "x")

	require.NoError(t, err)
	assert.Nil(t, pr)
}

func TestPRInfo_OtherErrorsAreWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("gh not authenticated")
	c := NewClientWithRunner(discardLogger(), stubRunner("", boom, nil))

	_, err := c.PRInfo(context.Background(), "x")

	require.ErrorIs(t, err, boom)
}

func TestSearchOpenPRs(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{}
	out := `[{"title":"one","url":"https://github.com/o/r/pull/1","updatedAt":"2024-05-01T10:00:00Z"}]`
	c := NewClientWithRunner(discardLogger(), stubRunner(out, nil, rec))

	prs, err := c.SearchOpenPRs(context.Background(), "octocat")

	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, "https://github.com/o/r/pull/1", prs[0].URL)
	assert.Equal(t, 2024, prs[0].UpdatedAt.Year())
	assert.Contains(t, rec.args, "octocat")
}

func TestUser(t *testing.T) {
	t.Parallel()

	c := NewClientWithRunner(discardLogger(), stubRunner("octocat\n", nil, nil))

	login, err := c.User(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "octocat", login)
}

func TestUser_Empty(t *testing.T) {
	t.Parallel()

	c := NewClientWithRunner(discardLogger(), stubRunner("\n", nil, nil))

	_, err := c.User(context.Background())

	require.Error(t, err)
}
