// Package azurechat is a minimal client for an OpenAI-compatible chat
// completion deployment fronted by a client-credentials token endpoint.
package azurechat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Mathanleo/Mashreq/internal/retry"
)

// Config holds the connection settings for one deployment.
type Config struct {
	Endpoint string
	Auth     TokenConfig

	// XUserID is forwarded as the X-USER-ID header when set. The deployment
	// uses it for per-user quota attribution.
	XUserID string

	// Timeout bounds each HTTP round trip. Zero means DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify disables certificate validation for internal
	// endpoints with self-signed certs. Explicit opt-in, never a default.
	InsecureSkipVerify bool
}

const DefaultTimeout = 60 * time.Second

// Client is a chat-completions client with retry and token handling.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	tokens      *tokenSource
	RetryPolicy retry.Policy
	Log         retry.Logger
}

// NewClient creates a Client for the configured deployment.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		cfg:         cfg,
		httpClient:  httpClient,
		tokens:      newTokenSource(cfg.Auth, httpClient),
		RetryPolicy: retry.DefaultPolicy(),
	}
}

// isRetryableError determines if an error should trigger a retry
func (c *Client) isRetryableError(err error, statusCode int, responseBody []byte) bool {
	// Retry on network errors
	if err != nil && statusCode == 0 {
		return true
	}

	// Retry on server errors (5xx)
	if statusCode >= 500 {
		return true
	}

	// Retry on rate limiting (429)
	if statusCode == 429 {
		return true
	}

	// A 200 whose envelope would not parse is transient often enough to be
	// worth another attempt
	if statusCode == http.StatusOK {
		return true
	}

	return false
}

// ChatCompletion sends one chat completion request with retry logic. The
// returned duration covers only the network round trip of the winning
// attempt, not token acquisition or backoff waits.
func (c *Client) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, time.Duration, error) {
	var elapsed time.Duration

	retryableFn := func(attempt int) (any, int, []byte, error) {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("failed to acquire token: %w", err)
		}

		body, err := json.Marshal(req)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewBuffer(body))
		if err != nil {
			return nil, 0, nil, fmt.Errorf("failed to create HTTP request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
		httpReq.Header.Set("Content-Type", "application/json")
		if c.cfg.Auth.ClientID != "" {
			httpReq.Header.Set("ClientId", c.cfg.Auth.ClientID)
		}
		if c.cfg.XUserID != "" {
			httpReq.Header.Set("X-USER-ID", c.cfg.XUserID)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		elapsed = time.Since(start)
		if err != nil {
			return nil, 0, nil, err
		}
		defer resp.Body.Close()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, resp.StatusCode, bodyBytes, &ChatCompletionError{
				Message:    fmt.Sprintf("chat API error %d", resp.StatusCode),
				StatusCode: resp.StatusCode,
				RawBody:    json.RawMessage(bodyBytes),
			}
		}

		var chatResp ChatCompletionResponse
		if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
			return nil, resp.StatusCode, bodyBytes, &ChatCompletionError{
				Message:    fmt.Sprintf("failed to parse response: %v", err),
				StatusCode: resp.StatusCode,
				RawBody:    json.RawMessage(bodyBytes),
			}
		}
		if len(chatResp.Choices) == 0 {
			return nil, resp.StatusCode, bodyBytes, &ChatCompletionError{
				Message:    "response carried no choices",
				StatusCode: resp.StatusCode,
				RawBody:    json.RawMessage(bodyBytes),
			}
		}

		return &chatResp, resp.StatusCode, bodyBytes, nil
	}

	result, err := c.RetryPolicy.Execute(ctx, "chat", c.Log, c.isRetryableError, retryableFn)
	if err != nil {
		return nil, elapsed, err
	}

	return result.(*ChatCompletionResponse), elapsed, nil
}
