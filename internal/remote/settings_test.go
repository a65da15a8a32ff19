package remote

import (
	"errors"
	"testing"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

func TestResolveAuto(t *testing.T) {
	cases := []struct {
		settings Settings
		want     string
		err      error
	}{
		{Settings{Provider: "auto"}, "static", nil},
		{Settings{Provider: "AUTO", Endpoint: "http://x", APIKey: "k"}, "gpt", nil},
		{Settings{Provider: "auto", Endpoint: "http://x"}, "", highlight.ErrMissingCredentials},
		{Settings{Provider: "auto", APIKey: "k"}, "", highlight.ErrMissingCredentials},
		{Settings{}, "static", nil},
	}
	for _, c := range cases {
		got, err := c.settings.Resolve("gpt", "auto")
		if c.err != nil {
			if !errors.Is(err, c.err) {
				t.Errorf("%+v: expected %v, got %v", c.settings, c.err, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("%+v: expected %q, got %q (%v)", c.settings, c.want, got, err)
		}
	}
}

func TestResolveExplicitRemoteNeedsCredentials(t *testing.T) {
	_, err := Settings{Provider: "gpt", Endpoint: "http://x"}.Resolve("gpt", "static")
	if !errors.Is(err, highlight.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestResolvePassesThroughOtherNames(t *testing.T) {
	got, err := Settings{Provider: "llm"}.Resolve("gpt", "static")
	if err != nil || got != "llm" {
		t.Errorf("expected llm, got %q (%v)", got, err)
	}
}

func TestUnsupported(t *testing.T) {
	if err := Unsupported("translator", "deepl"); !errors.Is(err, highlight.ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
}
