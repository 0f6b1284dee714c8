// Package remote provides the HTTP client for the external job-execution
// backend. Every operation is a single request/response round trip with
// no retries; any failure is reported as *Error so callers can route to
// the local simulation fallback.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/celia-console/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for backend requests.
const DefaultUserAgent = "CeliaConsole/1.0"

// Error represents a failed backend call. The console treats every
// *Error uniformly as "backend unreachable".
type Error struct {
	Op      string
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend %s %s: %s: %v", e.Op, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("backend %s %s: %s", e.Op, e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the client transport.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultOptions returns sensible defaults for backend calls.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client talks to the job-execution backend. It is stateless and safe
// for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{Op: "init", URL: baseURL, Message: "invalid base URL", Cause: err}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
	}, nil
}

// List fetches all jobs known to the backend.
func (c *Client) List(ctx context.Context) ([]types.Job, error) {
	var jobs []types.Job
	if err := c.doJSON(ctx, http.MethodGet, "/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

type createRequest struct {
	Task    string `json:"task"`
	RepoURL string `json:"repo_url,omitempty"`
}

type createResponse struct {
	JobID string `json:"job_id"`
}

// Create submits a new job and returns the server-issued id.
func (c *Client) Create(ctx context.Context, task, repoURL string) (string, error) {
	var resp createResponse
	body := createRequest{Task: task, RepoURL: repoURL}
	if err := c.doJSON(ctx, http.MethodPost, "/jobs", body, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", &Error{Op: "create", URL: c.baseURL + "/jobs", Message: "response missing job_id"}
	}
	return resp.JobID, nil
}

// Get fetches one full job record.
func (c *Client) Get(ctx context.Context, id string) (types.Job, error) {
	var job types.Job
	if err := c.doJSON(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return types.Job{}, err
	}
	return job, nil
}

type statusResponse struct {
	Status types.JobStatus `json:"status"`
}

// Status fetches just a job's lifecycle state.
func (c *Client) Status(ctx context.Context, id string) (types.JobStatus, error) {
	var resp statusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id)+"/status", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Delete removes a job on the backend.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(id), nil, nil)
}

// DownloadURL builds the artifact download URL for a completed job's
// file. The console only hands this URL to the browser; it never fetches
// the bytes itself.
func (c *Client) DownloadURL(id, filename string) string {
	return c.baseURL + "/jobs/" + url.PathEscape(id) + "/download/" + url.PathEscape(filename)
}

// doJSON performs one round trip. A non-2xx response, transport failure,
// or undecodable body all surface as *Error.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	fullURL := c.baseURL + path

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: method, URL: fullURL, Message: "encode request", Cause: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return &Error{Op: method, URL: fullURL, Message: "build request", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: method, URL: fullURL, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The reason beyond "failed" is deliberately discarded.
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return &Error{Op: method, URL: fullURL, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: method, URL: fullURL, Message: "decode response", Cause: err}
	}
	return nil
}
