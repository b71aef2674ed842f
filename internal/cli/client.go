package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/types"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
)

// HTTPClient talks to a running scoring service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	log     logger.Logger
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

// CheckHealth verifies the service is running. Any 200 from /healthz counts.
func (c *HTTPClient) CheckHealth(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	_, err = readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned %d", ErrRemote, resp.StatusCode)
	}
	return nil
}

// Import posts a document. created is false when key replayed an earlier import.
func (c *HTTPClient) Import(ctx context.Context, key string, body []byte) (types.Session, bool, error) {
	var sess types.Session
	resp, err := c.do(ctx, http.MethodPost, "/sessions/import", body, map[string]string{
		"Content-Type":    "application/json",
		"Idempotency-Key": key,
	})
	if err != nil {
		return sess, false, err
	}
	if err := decodeResponse(resp, &sess, http.StatusCreated, http.StatusOK); err != nil {
		return sess, false, err
	}
	return sess, resp.StatusCode == http.StatusCreated, nil
}

// Summary fetches the evaluation of a stored session.
func (c *HTTPClient) Summary(ctx context.Context, id string) (types.Summary, error) {
	var sum types.Summary
	resp, err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/summary", nil, nil)
	if err != nil {
		return sum, err
	}
	return sum, decodeResponse(resp, &sum, http.StatusOK)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, header map[string]string) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRemote, method, path, err)
	}
	c.log.Debug(ctx, "http request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))
	return resp, nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// decodeResponse unmarshals a JSON body when the status is one of want and
// turns the service error payload into an error otherwise.
func decodeResponse(resp *http.Response, v any, want ...int) error {
	data, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrRemote, err)
	}
	for _, code := range want {
		if resp.StatusCode == code {
			if err := json.Unmarshal(data, v); err != nil {
				return fmt.Errorf("%w: decode body: %w", ErrRemote, err)
			}
			return nil
		}
	}
	var re remoteError
	if json.Unmarshal(data, &re) == nil && re.Message != "" {
		if re.Field != "" {
			return fmt.Errorf("%w: %d %s (%s): %s", ErrRemote, resp.StatusCode, re.Code, re.Field, re.Message)
		}
		return fmt.Errorf("%w: %d %s: %s", ErrRemote, resp.StatusCode, re.Code, re.Message)
	}
	return fmt.Errorf("%w: unexpected status %d", ErrRemote, resp.StatusCode)
}
