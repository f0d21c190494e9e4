// Package jobqueue implements the HTTP client for the job queue service
// that feeds the coordinator: fetching queued jobs and reporting status.
package jobqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/solhaug/microstore/internal/models"
)

// JobFilter selects which jobs to fetch.
type JobFilter struct {
	Statuses   []models.JobStatus
	Operations []models.JobOperation
}

// Client defines the contract the coordinator needs from the job queue
// service.
type Client interface {
	GetJobs(ctx context.Context, filter JobFilter) ([]*models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, log string) error
	UpdateDescription(ctx context.Context, jobID string, description string) error
}

// ServiceError is a non-2xx response from the job queue service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("job service responded %d: %s", e.Status, e.Message)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTP-based job queue client.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, method, url string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// GetJobs fetches jobs matching the filter.
func (c *HTTPClient) GetJobs(ctx context.Context, filter JobFilter) ([]*models.Job, error) {
	query := url.Values{}
	for _, s := range filter.Statuses {
		query.Add("status", string(s))
	}
	for _, op := range filter.Operations {
		query.Add("operation", string(op))
	}

	endpoint := c.baseURL + "/jobs"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var jobs []*models.Job
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &jobs); err != nil {
		return nil, fmt.Errorf("get jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJobStatus reports a job's new status, with an optional log message.
func (c *HTTPClient) UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, log string) error {
	body := map[string]string{"status": string(status)}
	if log != "" {
		body["log"] = log
	}
	if err := c.doJSON(ctx, http.MethodPut, c.baseURL+"/jobs/"+jobID, body, nil); err != nil {
		return fmt.Errorf("update job %s status: %w", jobID, err)
	}
	return nil
}

// UpdateDescription updates a job's human description.
func (c *HTTPClient) UpdateDescription(ctx context.Context, jobID string, description string) error {
	body := map[string]string{"description": description}
	if err := c.doJSON(ctx, http.MethodPut, c.baseURL+"/jobs/"+jobID, body, nil); err != nil {
		return fmt.Errorf("update job %s description: %w", jobID, err)
	}
	return nil
}

// decodeError extracts a ServiceError from a non-2xx response.
func decodeError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &payload); err != nil || payload.Message == "" {
		payload.Message = string(data)
	}
	return &ServiceError{Status: resp.StatusCode, Message: payload.Message}
}
