package circleci

import "time"

type WorkflowStatus string

const (
	WorkflowOnHold  WorkflowStatus = "on_hold"
	WorkflowRunning WorkflowStatus = "running"
	WorkflowSuccess WorkflowStatus = "success"
	WorkflowFailed  WorkflowStatus = "failed"
	// WorkflowFailing is a workflow that is still running but already has failed jobs.
	WorkflowFailing  WorkflowStatus = "failing"
	WorkflowCanceled WorkflowStatus = "canceled"
)

type JobStatus string

const (
	JobSuccess    JobStatus = "success"
	JobBlocked    JobStatus = "blocked"
	JobFailed     JobStatus = "failed"
	JobCanceled   JobStatus = "canceled"
	JobOnHold     JobStatus = "on_hold"
	JobRunning    JobStatus = "running"
	JobNotRunning JobStatus = "not_running"
)

type JobType string

const (
	JobTypeBuild    JobType = "build"
	JobTypeApproval JobType = "approval"
)

// Workflow is a single run of a workflow. Reruns share the name of the run they replace.
type Workflow struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Status         WorkflowStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	PipelineNumber int64          `json:"pipeline_number"`
}

type Job struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Status JobStatus `json:"status"`
	Type   JobType   `json:"type"`
	// JobNumber is zero for approval jobs, which never get one.
	JobNumber int64 `json:"job_number,omitempty"`
}

type PipelineStatus string

const (
	PipelineNotFound      PipelineStatus = "not_found"
	PipelineRunning       PipelineStatus = "running"
	PipelineNeedsApproval PipelineStatus = "needs_approval"
	PipelineFailed        PipelineStatus = "failed"
	PipelineSucceeded     PipelineStatus = "succeeded"
	PipelineCanceled      PipelineStatus = "canceled"
	PipelineUnknown       PipelineStatus = "unknown"
)

// JobRef points at a job in the CircleCI web UI.
type JobRef struct {
	ID   string
	Name string
	URL  string
}

// Summary is the reduced state of the latest pipeline of a branch.
type Summary struct {
	Status       PipelineStatus
	FailedJobs   []JobRef
	ApprovalJobs []JobRef
}
