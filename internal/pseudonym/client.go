// Package pseudonym implements the client for the external
// pseudonymization service that maps unit identifiers to stable pseudonyms.
package pseudonym

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Pseudonymizer maps identifier values to pseudonyms for one job.
type Pseudonymizer interface {
	Pseudonymize(ctx context.Context, values []string, unitIDType string, jobID string) (map[string]string, error)
}

// HTTPClient implements Pseudonymizer over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTP-based pseudonymization client.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

type pseudonymRequest struct {
	Values     []string `json:"values"`
	UnitIDType string   `json:"unit_id_type"`
}

// Pseudonymize sends identifier values to the service and returns the
// value-to-pseudonym mapping. The job ID correlates requests for auditing.
func (c *HTTPClient) Pseudonymize(ctx context.Context, values []string, unitIDType string, jobID string) (map[string]string, error) {
	data, err := json.Marshal(&pseudonymRequest{Values: values, UnitIDType: unitIDType})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pseudonymize?job_id=%s", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pseudonymize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pseudonym service responded %d: %s", resp.StatusCode, string(body))
	}

	mapping := map[string]string{}
	if err := json.NewDecoder(resp.Body).Decode(&mapping); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return mapping, nil
}
