package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

// ProviderName identifies the render vendor in manifests.
const ProviderName = "creatomate"

// DefaultBaseURL is the render API root.
const DefaultBaseURL = "https://api.creatomate.com/v2"

// RenderError is returned when the render API fails or cannot be reached.
type RenderError struct {
	Message string
	Status  int
	Details string
	Err     error
}

func (e *RenderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, e.Details)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RenderError) Unwrap() error { return e.Err }

// Client submits payloads to the render API.
type Client struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
}

// NewClient creates a render client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, maxAttempts int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      strings.TrimSpace(apiKey),
		Timeout:     timeout,
		MaxAttempts: maxAttempts,
	}
}

// Render posts the payload when execute is true. Otherwise it returns a dry-run
// stub without touching the network. Array responses are reduced to their
// first entry.
func (c *Client) Render(ctx context.Context, payload Payload, execute bool) (map[string]any, error) {
	if !execute {
		return map[string]any{"status": "skipped", "reason": "dry_run", "payload": payload}, nil
	}
	if c.APIKey == "" {
		return nil, &RenderError{Message: "render API key is required when execute is set"}
	}

	client := remote.New("render", c.BaseURL+"/renders", c.APIKey, c.Timeout, c.MaxAttempts)
	var resp any
	if err := client.PostJSON(ctx, payload, &resp); err != nil {
		var se *remote.StatusError
		if errors.As(err, &se) {
			return nil, &RenderError{Message: "render API error", Status: se.StatusCode, Details: se.Body, Err: err}
		}
		return nil, &RenderError{Message: "failed to reach render API", Err: err}
	}

	switch v := resp.(type) {
	case map[string]any:
		return v, nil
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				return first, nil
			}
		}
		return map[string]any{"renders": v}, nil
	}
	return nil, &RenderError{Message: "unexpected render API response"}
}
