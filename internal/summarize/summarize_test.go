package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

type mockProvider struct {
	response string
	err      error
	prompt   string
}

func (m *mockProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func TestStaticSummarizeJoinsFirstThree(t *testing.T) {
	s := &Static{}
	got, _ := s.Summarize(context.Background(), []string{"a", "", "b", "c", "d"}, "en")
	want := "Highlight blend of 4 moments: a; b; c. Stay tuned for more guided whispers."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestStaticSummarizeNoCaptions(t *testing.T) {
	got, _ := (&Static{}).Summarize(context.Background(), []string{"", ""}, "en")
	if got != monitoringMessage {
		t.Errorf("expected monitoring message, got %q", got)
	}
}

func TestStaticCustomTemplate(t *testing.T) {
	s := &Static{Template: "{count}: {captions}"}
	got, _ := s.Summarize(context.Background(), []string{"x", "y"}, "en")
	if got != "2: x; y" {
		t.Errorf("got %q", got)
	}
}

func TestRemoteSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Captions []string `json:"captions"`
			Locale   string   `json:"locale"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Locale != "en" || len(body.Captions) != 2 {
			t.Errorf("unexpected payload %+v", body)
		}
		w.Write([]byte(`{"summary":" Rooftop nights. "}`))
	}))
	defer srv.Close()

	s, err := New(remote.Settings{Provider: "screenapp", Endpoint: srv.URL, APIKey: "k", Timeout: time.Second}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := s.Summarize(context.Background(), []string{"a", "b"}, "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Rooftop nights." {
		t.Errorf("got %q", got)
	}
}

func TestLLMSummarizeParsesJSON(t *testing.T) {
	p := &mockProvider{response: "```json\n{\"summary\": \"Golden hour on the pier.\"}\n```"}
	s, err := New(remote.Settings{Provider: "llm"}, Options{Provider: p})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := s.Summarize(context.Background(), []string{"pier sunset"}, "es")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Golden hour on the pier." {
		t.Errorf("got %q", got)
	}
}

func TestLLMSummarizePlainText(t *testing.T) {
	p := &mockProvider{response: "  Just text.  "}
	s := &LLM{provider: p}
	got, _ := s.Summarize(context.Background(), []string{"x"}, "en")
	if got != "Just text." {
		t.Errorf("got %q", got)
	}
}

func TestLLMSummarizeError(t *testing.T) {
	s := &LLM{provider: &mockProvider{err: errors.New("down")}}
	if _, err := s.Summarize(context.Background(), []string{"x"}, "en"); err == nil {
		t.Error("expected error")
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(remote.Settings{Provider: "screenapp"}, Options{}); !errors.Is(err, highlight.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := New(remote.Settings{Provider: "llm"}, Options{}); !errors.Is(err, highlight.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := New(remote.Settings{Provider: "bard"}, Options{}); !errors.Is(err, highlight.ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
	s, err := New(remote.Settings{}, Options{})
	if err != nil || s.Name() != "static" {
		t.Errorf("expected static default, got %v %v", s, err)
	}
}
