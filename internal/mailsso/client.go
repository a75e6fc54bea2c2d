// Package mailsso implements a client for the Mails.so email-validation API.
// It supports single-address validation, asynchronous batch submission with
// a result webhook, and synchronous batch polling with bounded backoff.
package mailsso

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	apiKeyHeader     = "x-mails-api-key"
	maxResponseBytes = 4 << 20 // cap reads from provider responses

	pollInitialBackoff = 2 * time.Second
	pollMaxBackoff     = 30 * time.Second
)

// Client is a thin HTTP wrapper around the Mails.so API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	// pollDeadline bounds the total wait in WaitForBatch.
	pollDeadline time.Duration
}

// Options configures a Client.
type Options struct {
	// APIKey authenticates every request. Required.
	APIKey string

	// BaseURL overrides the provider endpoint. Defaults to https://api.mails.so.
	BaseURL string

	// Timeout bounds each individual HTTP request. Defaults to 10s.
	Timeout time.Duration

	// PollDeadline bounds the total wait in WaitForBatch. Defaults to 2m.
	PollDeadline time.Duration
}

// NewClient creates a new Mails.so client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.mails.so"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PollDeadline <= 0 {
		opts.PollDeadline = 2 * time.Minute
	}
	return &Client{
		apiKey:       opts.APIKey,
		baseURL:      opts.BaseURL,
		pollDeadline: opts.PollDeadline,
		http: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

// do issues one request and decodes a 2xx JSON body into out.
// Non-2xx responses become *HTTPError; transport failures are classified
// into ErrTimeout or ErrConnection.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("mailsso: marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("mailsso: create %s request: %w", path, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Body: truncate(respBody, 200)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// ValidateSingle validates one email address synchronously.
// A missing status in the provider payload is normalized to "unknown".
func (c *Client) ValidateSingle(ctx context.Context, email string) (*Result, error) {
	query := url.Values{"email": []string{email}}

	var result Result
	if err := c.do(ctx, http.MethodGet, "/v1/validate", query, nil, &result); err != nil {
		return nil, err
	}
	result.normalize(email)
	return &result, nil
}

// SubmitBatch submits a batch validation job. When callbackURL is non-empty
// the provider delivers results to it asynchronously; the returned job id is
// the correlation key for that delivery. Returns immediately either way.
func (c *Client) SubmitBatch(ctx context.Context, emails []string, callbackURL string) (string, error) {
	req := batchSubmitRequest{Emails: emails, WebhookURL: callbackURL}

	var resp batchSubmitResponse
	if err := c.do(ctx, http.MethodPost, "/v1/batch", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("%w: batch response missing job id", ErrMalformedResponse)
	}
	return resp.Data.ID, nil
}

// PollBatch fetches the current results of a batch job once.
// Returns ErrJobNotReady if the provider has no results yet.
func (c *Client) PollBatch(ctx context.Context, jobID string) ([]Result, error) {
	var resp batchPollResponse
	if err := c.do(ctx, http.MethodGet, "/v1/batch/"+url.PathEscape(jobID), nil, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data.Results) == 0 {
		return nil, ErrJobNotReady
	}

	results := resp.Data.Results
	for i := range results {
		results[i].normalize(results[i].Email)
	}
	return results, nil
}

// WaitForBatch polls a batch job with exponential backoff until results are
// available, the poll deadline expires, or ctx is cancelled. The deadline
// expiring surfaces as ErrJobNotReady so callers can tell the user the job
// is still running on the provider side.
func (c *Client) WaitForBatch(ctx context.Context, jobID string) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pollDeadline)
	defer cancel()

	backoff := pollInitialBackoff
	for {
		results, err := c.PollBatch(ctx, jobID)
		if err == nil {
			return results, nil
		}
		// Only the not-ready state is retried; real provider errors are
		// surfaced immediately, matching the no-automatic-retry policy.
		if !errors.Is(err, ErrJobNotReady) {
			return nil, err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%w: gave up after %s", ErrJobNotReady, c.pollDeadline)
			}
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > pollMaxBackoff {
			backoff = pollMaxBackoff
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
