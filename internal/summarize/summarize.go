// Package summarize turns asset captions into highlight copy.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/llm"
	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

// DefaultTemplate is the static summary; {count} and {captions} are replaced.
const DefaultTemplate = "Highlight blend of {count} moments: {captions}. Stay tuned for more guided whispers."

const monitoringMessage = "Monitoring signals, more highlights soon."

// Summarizer produces summary text. An empty result asks the caller to use
// its own fallback.
type Summarizer interface {
	Summarize(ctx context.Context, captions []string, locale string) (string, error)
	Name() string
}

// Static joins the first three captions into a template.
type Static struct {
	Template string
}

func (s *Static) Name() string { return "static" }

// Summarize never fails.
func (s *Static) Summarize(_ context.Context, captions []string, _ string) (string, error) {
	var nonEmpty []string
	for _, c := range captions {
		if c != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) == 0 {
		return monitoringMessage, nil
	}

	tmpl := s.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	joined := strings.Join(nonEmpty[:min(3, len(nonEmpty))], "; ")
	return strings.NewReplacer("{count}", fmt.Sprint(len(nonEmpty)), "{captions}", joined).Replace(tmpl), nil
}

// Remote posts {captions, locale} to a summarization service and reads {summary}.
type Remote struct {
	client *remote.Client
}

func (r *Remote) Name() string { return "screenapp" }

func (r *Remote) Summarize(ctx context.Context, captions []string, locale string) (string, error) {
	if locale == "" {
		locale = highlight.DefaultLocale
	}
	if captions == nil {
		captions = []string{}
	}
	var resp struct {
		Summary string `json:"summary"`
	}
	if err := r.client.PostJSON(ctx, map[string]any{"captions": captions, "locale": locale}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Summary), nil
}

const summaryPrompt = `You are writing the voice-over summary for a short social highlight reel.

Write 1-2 upbeat sentences in locale %q that capture the moments below. Mention concrete details. No hashtags, no emoji.

Captions:
%s

Respond with ONLY this JSON:
{"summary": "Your summary here"}`

// LLM asks a language model for the summary.
type LLM struct {
	provider  llm.Provider
	maxTokens int
}

func (l *LLM) Name() string { return "llm" }

func (l *LLM) Summarize(ctx context.Context, captions []string, locale string) (string, error) {
	if locale == "" {
		locale = highlight.DefaultLocale
	}
	var lines []string
	for i, c := range captions {
		if c != "" {
			lines = append(lines, fmt.Sprintf("[%d] %s", i+1, c))
		}
	}
	if len(lines) == 0 {
		return "", nil
	}

	text, err := l.provider.Generate(ctx, fmt.Sprintf(summaryPrompt, locale, strings.Join(lines, "\n")), l.maxTokens)
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	if parsed := llm.ParseJSONResponse(text); parsed != nil {
		if s, ok := parsed["summary"].(string); ok {
			return strings.TrimSpace(s), nil
		}
	}
	return strings.TrimSpace(llm.StripCodeFence(text)), nil
}

// Options carries the non-remote factory inputs.
type Options struct {
	Template  string
	Provider  llm.Provider
	MaxTokens int
}

// New selects a summarizer: static, screenapp (remote) or llm.
func New(s remote.Settings, opts Options) (Summarizer, error) {
	name, err := s.Resolve("screenapp", "static")
	if err != nil {
		return nil, err
	}
	switch name {
	case "static":
		return &Static{Template: opts.Template}, nil
	case "screenapp":
		return &Remote{client: s.Client("summarization")}, nil
	case "llm":
		if opts.Provider == nil {
			return nil, fmt.Errorf("llm summarizer requires a configured LLM provider: %w", highlight.ErrMissingCredentials)
		}
		return &LLM{provider: opts.Provider, maxTokens: max(opts.MaxTokens, 256)}, nil
	}
	return nil, remote.Unsupported("summarizer", name)
}
