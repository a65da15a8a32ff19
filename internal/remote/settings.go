package remote

import (
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

// Settings configures one pluggable provider.
type Settings struct {
	Provider    string
	Endpoint    string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
}

// Resolve returns the concrete provider name. "auto" becomes remoteName when
// both endpoint and key are set and "static" when neither is; a half-configured
// remote is an error. Explicitly selecting remoteName requires both.
func (s Settings) Resolve(remoteName, fallback string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" {
		name = fallback
	}

	hasEndpoint := s.Endpoint != ""
	hasKey := s.APIKey != ""
	switch name {
	case "auto":
		switch {
		case hasEndpoint && hasKey:
			return remoteName, nil
		case !hasEndpoint && !hasKey:
			return "static", nil
		}
		return "", fmt.Errorf("%s provider: auto selection needs both endpoint and api key: %w", remoteName, highlight.ErrMissingCredentials)
	case remoteName:
		if !hasEndpoint || !hasKey {
			return "", fmt.Errorf("%s provider requires endpoint and api key: %w", remoteName, highlight.ErrMissingCredentials)
		}
	}
	return name, nil
}

// Client builds a JSON client from the settings.
func (s Settings) Client(name string) *Client {
	return New(name, s.Endpoint, s.APIKey, s.Timeout, s.MaxAttempts)
}

// Unsupported wraps ErrUnsupportedProvider with the kind and name.
func Unsupported(kind, name string) error {
	return fmt.Errorf("%s provider %q: %w", kind, name, highlight.ErrUnsupportedProvider)
}
