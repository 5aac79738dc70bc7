package github

// PRStatus is the state of the PR of the branch being watched.
type PRStatus string

const (
	PRNotCreated    PRStatus = "not_created"
	PRInDraft       PRStatus = "in_draft"
	PRNeedsApproval PRStatus = "needs_approval"
	PRIsBehind      PRStatus = "is_behind"
	// PRMergeConflict is never produced yet; gh reports conflicts as mergeStateStatus DIRTY.
	PRMergeConflict PRStatus = "merge_conflict"
	PRReadyToMerge  PRStatus = "ready_to_merge"
	PRMerged        PRStatus = "merged"
)

// PRStatusOf reduces a PR to its watch status. nil means no PR exists.
func PRStatusOf(pr *PRInfo) PRStatus {
	switch {
	case pr == nil:
		return PRNotCreated
	case pr.State == "MERGED":
		return PRMerged
	case pr.IsDraft:
		return PRInDraft
	case pr.MergeStateStatus == "BEHIND":
		return PRIsBehind
	case pr.ReviewDecision == "REVIEW_REQUIRED":
		return PRNeedsApproval
	default:
		return PRReadyToMerge
	}
}

// FleetStatus is the state of one PR among all of the user's open PRs.
type FleetStatus string

const (
	FleetErrored          FleetStatus = "errored"
	FleetMergeConflict    FleetStatus = "merge_conflict"
	FleetIsBehind         FleetStatus = "is_behind"
	FleetRunningChecks    FleetStatus = "running_checks"
	FleetInDraft          FleetStatus = "in_draft"
	FleetRequiresApproval FleetStatus = "requires_approval"
	FleetReadyToMerge     FleetStatus = "ready_to_merge"
	FleetMerged           FleetStatus = "merged"
)

// CheckRef is a check the fleet view reports on.
type CheckRef struct {
	Name     string
	URL      string
	External bool
}

type StatusDetails struct {
	Status        FleetStatus
	Branch        string
	FailedChecks  []CheckRef
	RunningChecks []CheckRef
}

// StatusDetailsOf ranks a PR by what needs doing first. Only commit status contexts are
// considered, which is where CircleCI reports.
func StatusDetailsOf(pr PRInfo) StatusDetails {
	details := StatusDetails{Branch: pr.HeadRef}
	for _, c := range pr.StatusCheckRollup {
		if c.Typename != "StatusContext" {
			continue
		}
		ref := CheckRef{Name: c.Context, URL: c.TargetURL, External: true}
		switch c.State {
		case "FAILURE", "ERROR":
			details.FailedChecks = append(details.FailedChecks, ref)
		case "PENDING", "EXPECTED":
			details.RunningChecks = append(details.RunningChecks, ref)
		}
	}

	switch {
	case len(details.FailedChecks) > 0:
		details.Status = FleetErrored
	case pr.MergeStateStatus == "BEHIND":
		details.Status = FleetIsBehind
	case len(details.RunningChecks) > 0:
		details.Status = FleetRunningChecks
	case pr.IsDraft:
		details.Status = FleetInDraft
	case pr.ReviewDecision == "REVIEW_REQUIRED":
		details.Status = FleetRequiresApproval
	case pr.State == "MERGED":
		details.Status = FleetMerged
	default:
		details.Status = FleetReadyToMerge
	}
	return details
}
