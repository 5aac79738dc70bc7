package github

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestPRStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pr   *PRInfo
		want PRStatus
	}{
		{name: "no PR", pr: nil, want: PRNotCreated},
		{name: "merged wins over draft", pr: &PRInfo{State: "MERGED", IsDraft: true}, want: PRMerged},
		{name: "draft wins over behind", pr: &PRInfo{State: "OPEN", IsDraft: true, MergeStateStatus: "BEHIND"}, want: PRInDraft},
		{name: "behind", pr: &PRInfo{State: "OPEN", MergeStateStatus: "BEHIND", ReviewDecision: "REVIEW_REQUIRED"}, want: PRIsBehind},
		{name: "review required", pr: &PRInfo{State: "OPEN", MergeStateStatus: "BLOCKED", ReviewDecision: "REVIEW_REQUIRED"}, want: PRNeedsApproval},
		{name: "approved", pr: &PRInfo{State: "OPEN", MergeStateStatus: "CLEAN", ReviewDecision: "APPROVED"}, want: PRReadyToMerge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PRStatusOf(tt.pr))
		})
	}
}

func TestStatusDetailsOf_ChecksDetail(t *testing.T) {
	t.Parallel()

	pr := PRInfo{
		State:            "OPEN",
		HeadRef:          "my-branch",
		IsDraft:          true,
		MergeStateStatus: "BEHIND",
		ReviewDecision:   "REVIEW_REQUIRED",
		StatusCheckRollup: []Check{
			{Typename: "CheckRun", Name: "Label the PR size", Status: "COMPLETED", Conclusion: "FAILURE"},
			{Typename: "StatusContext", Context: "ci/circleci: build-and-test", State: "FAILURE", TargetURL: "https://circleci.com/gh/my-org/my-repo/112233"},
			{Typename: "StatusContext", Context: "ci/circleci: lint", State: "PENDING", TargetURL: "https://circleci.com/gh/my-org/my-repo/445566"},
			{Typename: "StatusContext", Context: "ci/circleci: test-deployment", State: "SUCCESS", TargetURL: "https://circleci.com/gh/my-org/my-repo/556677"},
		},
	}

	got := StatusDetailsOf(pr)

	want := StatusDetails{
		Status: FleetErrored,
		Branch: "my-branch",
		FailedChecks: []CheckRef{
			{Name: "ci/circleci: build-and-test", URL: "https://circleci.com/gh/my-org/my-repo/112233", External: true},
		},
		RunningChecks: []CheckRef{
			{Name: "ci/circleci: lint", URL: "https://circleci.com/gh/my-org/my-repo/445566", External: true},
		},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestStatusDetailsOf_Ranking(t *testing.T) {
	t.Parallel()

	pending := []Check{{Typename: "StatusContext", Context: "ci", State: "PENDING"}}
	expected := []Check{{Typename: "StatusContext", Context: "ci", State: "EXPECTED"}}
	errored := []Check{{Typename: "StatusContext", Context: "ci", State: "ERROR"}}

	tests := []struct {
		name string
		pr   PRInfo
		want FleetStatus
	}{
		{name: "error state counts as failed", pr: PRInfo{StatusCheckRollup: errored, MergeStateStatus: "BEHIND"}, want: FleetErrored},
		{name: "behind before running", pr: PRInfo{StatusCheckRollup: pending, MergeStateStatus: "BEHIND"}, want: FleetIsBehind},
		{name: "running before draft", pr: PRInfo{StatusCheckRollup: pending, IsDraft: true}, want: FleetRunningChecks},
		{name: "expected counts as running", pr: PRInfo{StatusCheckRollup: expected}, want: FleetRunningChecks},
		{name: "draft before approval", pr: PRInfo{IsDraft: true, ReviewDecision: "REVIEW_REQUIRED"}, want: FleetInDraft},
		{name: "requires approval", pr: PRInfo{ReviewDecision: "REVIEW_REQUIRED", State: "MERGED"}, want: FleetRequiresApproval},
		{name: "merged", pr: PRInfo{State: "MERGED", ReviewDecision: "APPROVED"}, want: FleetMerged},
		{name: "ready", pr: PRInfo{State: "OPEN", ReviewDecision: "APPROVED"}, want: FleetReadyToMerge},
		{
			name: "check runs are ignored",
			pr:   PRInfo{StatusCheckRollup: []Check{{Typename: "CheckRun", Name: "x", Conclusion: "FAILURE"}}},
			want: FleetReadyToMerge,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusDetailsOf(tt.pr).Status)
		})
	}
}
