// client.go - HTTP client for the document-understanding analyzer service

package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Job statuses reported by the analyzer service
const (
	StatusRunning      = "Running"
	StatusSucceeded    = "Succeeded"
	StatusFailed       = "Failed"
	StatusAnalyzeError = "AnalyzeError"
)

// JobStatus is one poll response: the current status and, once succeeded,
// the extracted document text.
type JobStatus struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client defines the analyzer operations the pipeline depends on
type Client interface {
	// Submit sends a stored file for analysis and returns the job handle
	Submit(ctx context.Context, fileRef string) (string, error)
	// Poll queries the status of a previously submitted job
	Poll(ctx context.Context, jobID string) (*JobStatus, error)
}

// Option configures the HTTP client
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing)
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an analyzer client for the given endpoint
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitRequest struct {
	Source string `json:"source"`
}

type submitResponse struct {
	JobID string `json:"jobId"`
}

func (c *httpClient) Submit(ctx context.Context, fileRef string) (string, error) {
	payload, err := json.Marshal(submitRequest{Source: fileRef})
	if err != nil {
		return "", fmt.Errorf("analyzer: marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("analyzer: create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	body, statusCode, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("analyzer: submit failed: %w", err)
	}
	if statusCode != http.StatusOK && statusCode != http.StatusAccepted {
		return "", fmt.Errorf("analyzer: submit unexpected status %d: %s", statusCode, string(body))
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("analyzer: unmarshal submit response: %w", err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("analyzer: submit returned no job handle")
	}
	return resp.JobID, nil
}

func (c *httpClient) Poll(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyze/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("analyzer: create poll request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	body, statusCode, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer: poll failed: %w", err)
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer: poll unexpected status %d: %s", statusCode, string(body))
	}

	var status JobStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("analyzer: unmarshal poll response: %w", err)
	}
	return &status, nil
}

func (c *httpClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
