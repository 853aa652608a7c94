package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const errorBodyLimit = 512

// Client is the single point of outbound communication with the downstream
// resolution service. The base URL and timeout are fixed at construction, so
// one instance is safe for concurrent use by many tool invocations.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
	closed     atomic.Bool
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New builds a client for the downstream resolution service.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// Close releases the underlying HTTP resources. Operations attempted after
// Close fail fast instead of hanging.
func (c *Client) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.httpClient.CloseIdleConnections()
}

// LaunchResolution triggers a new resolution job and returns the job payload.
func (c *Client) LaunchResolution(ctx context.Context, hostname, errorCode, issueDescription string) (map[string]interface{}, error) {
	hostnameClean, err := RequireNonEmpty(hostname, "hostname")
	if err != nil {
		return nil, err
	}
	errorCodeClean, err := RequireNonEmpty(errorCode, "error_code")
	if err != nil {
		return nil, err
	}
	issueDescriptionClean, err := RequireNonEmpty(issueDescription, "issue_description")
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"hostname": hostnameClean,
		"error":    errorCodeClean,
		"message":  issueDescriptionClean,
	}
	c.logger.Debug("launching resolution job",
		zap.String("hostname", hostnameClean),
		zap.String("error_code", errorCodeClean))
	return c.request(ctx, http.MethodPost, "/resolve", payload)
}

// GetJobStatus retrieves the status for a given job.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (map[string]interface{}, error) {
	jobIDClean, err := RequireNonEmpty(jobID, "job_id")
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetching job status", zap.String("job_id", jobIDClean))
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/jobs/%s/status", jobIDClean), nil)
}

// GetJobAnalysis retrieves the agent reasoning/analysis for a given job.
func (c *Client) GetJobAnalysis(ctx context.Context, jobID string) (map[string]interface{}, error) {
	jobIDClean, err := RequireNonEmpty(jobID, "job_id")
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetching job analysis", zap.String("job_id", jobIDClean))
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/jobs/%s/analysis", jobIDClean), nil)
}

// request is the normalized handler for all outgoing API calls. Every failure
// mode comes back as an *APIError whose message names the method and path.
func (c *Client) request(ctx context.Context, method, path string, payload interface{}) (map[string]interface{}, error) {
	if c.closed.Load() {
		return nil, apiErrorf("resolution API client is closed (%s %s).", method, path)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, apiErrorf("failed to encode request body (%s %s): %s", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apiErrorf("failed to build request (%s %s): %s", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var msg string
		if isTimeout(err) {
			msg = fmt.Sprintf("resolution API request timed out (%s %s).", method, path)
		} else {
			msg = fmt.Sprintf("resolution API request failed (%s %s): %s", method, path, err)
		}
		c.logger.Error(msg, zap.String("method", method), zap.String("path", path))
		return nil, &APIError{Message: msg}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		msg := fmt.Sprintf("resolution API request failed (%s %s): %s", method, path, err)
		c.logger.Error(msg, zap.String("method", method), zap.String("path", path))
		return nil, &APIError{Message: msg}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := truncateSnippet(strings.TrimSpace(string(data)))
		if snippet == "" {
			snippet = "no body provided."
		}
		c.logger.Warn("resolution API responded with error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("content", snippet))
		return nil, apiErrorf("resolution API error (%d) during %s %s: %s", resp.StatusCode, method, path, snippet)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		msg := fmt.Sprintf("resolution API returned invalid JSON during %s %s.", method, path)
		c.logger.Error(msg, zap.String("method", method), zap.String("path", path))
		return nil, &APIError{Message: msg}
	}

	return result, nil
}

// truncateSnippet caps an error-response body at errorBodyLimit without
// splitting a multi-byte rune at the cut point.
func truncateSnippet(snippet string) string {
	if len(snippet) <= errorBodyLimit {
		return snippet
	}
	cut := errorBodyLimit
	for cut > 0 && !utf8.RuneStart(snippet[cut]) {
		cut--
	}
	return snippet[:cut] + "..."
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
