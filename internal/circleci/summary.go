package circleci

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// API is the part of the CircleCI client the summarizer reads from.
type API interface {
	LatestPipelineID(ctx context.Context, projectSlug, branch string) (string, error)
	Workflows(ctx context.Context, pipelineID string) ([]Workflow, error)
	WorkflowJobs(ctx context.Context, workflowID string) ([]Job, error)
}

type Summarizer struct {
	api    API
	logger *slog.Logger
}

func NewSummarizer(api API, logger *slog.Logger) *Summarizer {
	return &Summarizer{api: api, logger: logger}
}

type workflowJob struct {
	Job
	workflow Workflow
}

// Summary reduces the latest pipeline of branch to a single status plus the jobs that need
// the user's attention.
func (s *Summarizer) Summary(ctx context.Context, projectSlug, branch string) (Summary, error) {
	pipelineID, err := s.api.LatestPipelineID(ctx, projectSlug, branch)
	if err != nil {
		return Summary{}, err
	}
	if pipelineID == "" {
		return Summary{Status: PipelineNotFound}, nil
	}

	workflows, err := s.api.Workflows(ctx, pipelineID)
	if err != nil {
		return Summary{}, err
	}

	var failed, onHold []Workflow
	var running, canceled, unknown bool
	for _, w := range CurrentWorkflows(workflows) {
		switch w.Status {
		case WorkflowFailed, WorkflowFailing:
			failed = append(failed, w)
		case WorkflowOnHold:
			onHold = append(onHold, w)
		case WorkflowRunning:
			running = true
		case WorkflowCanceled:
			canceled = true
		case WorkflowSuccess:
		default:
			unknown = true
			s.logger.Warn("unrecognised workflow status", "workflow", w.Name, "id", w.ID, "status", w.Status)
		}
	}

	var onHoldJobs, failedWorkflowJobs []workflowJob
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobs, err := s.jobsOf(gctx, onHold)
		onHoldJobs = jobs
		return err
	})
	g.Go(func() error {
		jobs, err := s.jobsOf(gctx, failed)
		failedWorkflowJobs = jobs
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	base := WebURL(projectSlug)
	summary := Summary{
		FailedJobs:   failedJobs(failedWorkflowJobs, base),
		ApprovalJobs: approvalJobs(onHoldJobs, base),
	}

	switch {
	case len(failed) > 0:
		summary.Status = PipelineFailed
	case len(onHold) > 0:
		summary.Status = onHoldStatus(onHoldJobs)
	case running:
		summary.Status = PipelineRunning
	case unknown:
		summary.Status = PipelineUnknown
	case canceled:
		summary.Status = PipelineCanceled
	default:
		summary.Status = PipelineSucceeded
	}
	return summary, nil
}

// CurrentWorkflows keeps the first run of each workflow name. CircleCI lists runs most
// recent first, so older reruns are dropped.
func CurrentWorkflows(workflows []Workflow) []Workflow {
	seen := make(map[string]bool, len(workflows))
	current := make([]Workflow, 0, len(workflows))
	for _, w := range workflows {
		if seen[w.Name] {
			continue
		}
		seen[w.Name] = true
		current = append(current, w)
	}
	return current
}

// onHoldStatus decides between needs_approval and running. The pipeline only waits for a
// human when every unfinished build job is blocked behind an approval.
func onHoldStatus(jobs []workflowJob) PipelineStatus {
	for _, j := range jobs {
		if j.Type != JobTypeBuild || j.Status == JobSuccess {
			continue
		}
		if j.Status != JobBlocked {
			return PipelineRunning
		}
	}
	return PipelineNeedsApproval
}

func (s *Summarizer) jobsOf(ctx context.Context, workflows []Workflow) ([]workflowJob, error) {
	if len(workflows) == 0 {
		return nil, nil
	}

	perWorkflow := make([][]Job, len(workflows))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range workflows {
		i, w := i, w
		g.Go(func() error {
			jobs, err := s.api.WorkflowJobs(gctx, w.ID)
			if err != nil {
				return fmt.Errorf("workflow %s: %w", w.Name, err)
			}
			perWorkflow[i] = jobs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []workflowJob
	for i, jobs := range perWorkflow {
		for _, j := range jobs {
			all = append(all, workflowJob{Job: j, workflow: workflows[i]})
		}
	}
	return all, nil
}

func failedJobs(jobs []workflowJob, base string) []JobRef {
	var refs []JobRef
	for _, j := range jobs {
		if j.Status != JobFailed {
			continue
		}
		refs = append(refs, JobRef{
			ID:   j.ID,
			Name: j.Name,
			URL:  fmt.Sprintf("%s/%d/workflows/%s/jobs/%d", base, j.workflow.PipelineNumber, j.workflow.ID, j.JobNumber),
		})
	}
	return refs
}

func approvalJobs(jobs []workflowJob, base string) []JobRef {
	var refs []JobRef
	for _, j := range jobs {
		if j.Type != JobTypeApproval {
			continue
		}
		refs = append(refs, JobRef{
			ID:   j.ID,
			Name: j.Name,
			URL:  fmt.Sprintf("%s/%d/workflows/%s", base, j.workflow.PipelineNumber, j.workflow.ID),
		})
	}
	return refs
}
