// Package remote posts JSON to provider endpoints with a per-call timeout and
// retries on transport failures only.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// TransportError is returned after every attempt failed before a response
// arrived.
type TransportError struct {
	Name     string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed after %d attempt(s): %v", e.Name, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is returned for a non-2xx response. It is never retried.
type StatusError struct {
	Name       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Name, e.StatusCode, e.Body)
}

// Client is a JSON-over-HTTP provider client.
type Client struct {
	Name        string
	Endpoint    string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	HTTPClient  *http.Client
}

// New creates a client. maxAttempts below 1 is treated as 1.
func New(name, endpoint, apiKey string, timeout time.Duration, maxAttempts int) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		Name:        name,
		Endpoint:    endpoint,
		APIKey:      apiKey,
		Timeout:     timeout,
		MaxAttempts: maxAttempts,
		HTTPClient:  &http.Client{},
	}
}

// PostJSON sends body to the endpoint and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", c.Name, err)
	}

	attempts := max(c.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		respBody, err := c.do(ctx, data)
		if err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decoding %s response: %w", c.Name, err)
			}
			return nil
		}
		if _, ok := err.(*StatusError); ok {
			return err
		}
		lastErr = err
		log.Printf("%s request failed (attempt %d/%d): %v", c.Name, attempt, attempts, err)
		if ctx.Err() != nil {
			return &TransportError{Name: c.Name, Attempts: attempt, Err: lastErr}
		}
	}
	return &TransportError{Name: c.Name, Attempts: attempts, Err: lastErr}
}

func (c *Client) do(ctx context.Context, data []byte) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Name: c.Name, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
