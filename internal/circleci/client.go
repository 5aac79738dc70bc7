package circleci

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"
)

const DefaultBaseURL = "https://circleci.com/api/v2"

// APIError captures non-2xx responses from CircleCI.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("circleci api error: status=%d message=%s", e.StatusCode, e.Message)
}

// Client is a minimal CircleCI v2 API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	lastWorkflows map[string]Workflow
	lastJobs      map[string]Job
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:       baseURL,
		Token:         token,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
		lastWorkflows: make(map[string]Workflow),
		lastJobs:      make(map[string]Job),
	}
}

type page[T any] struct {
	Items []T `json:"items"`
}

type pipeline struct {
	ID     string `json:"id"`
	Number int64  `json:"number"`
}

// LatestPipelineID returns the id of the most recent pipeline on branch, or "" when the
// branch has never been built.
func (c *Client) LatestPipelineID(ctx context.Context, projectSlug, branch string) (string, error) {
	query := url.Values{"branch": {branch}}
	path := fmt.Sprintf("/project/%s/pipeline?%s", projectSlug, query.Encode())

	var resp page[pipeline]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("list pipelines %s@%s: %w", projectSlug, branch, err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].ID, nil
}

// Workflows lists every workflow run of a pipeline, most recent first.
func (c *Client) Workflows(ctx context.Context, pipelineID string) ([]Workflow, error) {
	var resp page[Workflow]
	if err := c.doJSON(ctx, http.MethodGet, "/pipeline/"+pipelineID+"/workflow", nil, &resp); err != nil {
		return nil, fmt.Errorf("list workflows of pipeline %s: %w", pipelineID, err)
	}

	c.mu.Lock()
	for _, w := range resp.Items {
		if last, ok := c.lastWorkflows[w.ID]; !ok || !reflect.DeepEqual(last, w) {
			c.logger.Debug("change in workflow", "id", w.ID, "name", w.Name, "status", w.Status)
			c.lastWorkflows[w.ID] = w
		}
	}
	c.mu.Unlock()

	return resp.Items, nil
}

func (c *Client) WorkflowJobs(ctx context.Context, workflowID string) ([]Job, error) {
	var resp page[Job]
	if err := c.doJSON(ctx, http.MethodGet, "/workflow/"+workflowID+"/job", nil, &resp); err != nil {
		return nil, fmt.Errorf("list jobs of workflow %s: %w", workflowID, err)
	}

	c.mu.Lock()
	for _, j := range resp.Items {
		if last, ok := c.lastJobs[j.ID]; !ok || last != j {
			c.logger.Debug("change in job", "id", j.ID, "name", j.Name, "status", j.Status, "type", j.Type)
			c.lastJobs[j.ID] = j
		}
	}
	c.mu.Unlock()

	return resp.Items, nil
}

type rerunRequest struct {
	FromFailed bool `json:"from_failed"`
}

// RerunWorkflow starts a new run of the workflow. With fromFailed only failed jobs run again.
func (c *Client) RerunWorkflow(ctx context.Context, workflowID string, fromFailed bool) error {
	path := "/workflow/" + workflowID + "/rerun"
	if err := c.doJSON(ctx, http.MethodPost, path, rerunRequest{FromFailed: fromFailed}, nil); err != nil {
		return fmt.Errorf("rerun workflow %s: %w", workflowID, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	if c == nil {
		return errors.New("circleci client is nil")
	}
	if c.Token == "" {
		return errors.New("circleci token missing")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	base := strings.TrimRight(c.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Circle-Token", c.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	c.logger.Debug("circleci", "method", method, "path", path)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
