// Package translate localizes narrative and segment strings.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/llm"
	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

// Item is a single string to localize. Key namespaces it by source, for
// example "narrative.summary" or "segment.<assetId>.caption".
type Item struct {
	Key  string `json:"id"`
	Text string `json:"text"`
}

// Translator returns localized text keyed by item key. The result may be
// partial; callers fill the gaps.
type Translator interface {
	Translate(ctx context.Context, items []Item, target, source string) (map[string]string, error)
	Name() string
}

// Prefixed marks text as untranslated for locale.
func Prefixed(locale, text string) string {
	return "[" + locale + "] " + text
}

func nonEmpty(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Text != "" {
			out = append(out, it)
		}
	}
	return out
}

// Static keeps text for the same base language and prefixes it otherwise.
type Static struct{}

func (Static) Name() string { return "static" }

func (Static) Translate(_ context.Context, items []Item, target, source string) (map[string]string, error) {
	same := highlight.BaseLanguage(target) == highlight.BaseLanguage(source)
	out := make(map[string]string, len(items))
	for _, it := range nonEmpty(items) {
		if same {
			out[it.Key] = it.Text
		} else {
			out[it.Key] = Prefixed(target, it.Text)
		}
	}
	return out, nil
}

type translationResponse struct {
	Translations []struct {
		ID   any `json:"id"`
		Text any `json:"text"`
	} `json:"translations"`
}

func (r translationResponse) toMap() map[string]string {
	out := make(map[string]string, len(r.Translations))
	for _, t := range r.Translations {
		id, ok1 := t.ID.(string)
		text, ok2 := t.Text.(string)
		if ok1 && ok2 {
			out[id] = text
		}
	}
	return out
}

// Remote calls a translation service with {source_locale, target_locale, items}.
type Remote struct {
	client *remote.Client
}

func (r *Remote) Name() string { return "gpt" }

func (r *Remote) Translate(ctx context.Context, items []Item, target, source string) (map[string]string, error) {
	payload := nonEmpty(items)
	if len(payload) == 0 {
		return map[string]string{}, nil
	}
	var resp translationResponse
	err := r.client.PostJSON(ctx, map[string]any{
		"source_locale": source,
		"target_locale": target,
		"items":         payload,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toMap(), nil
}

const translatePrompt = `Translate each item from locale %q to locale %q for a short travel highlight reel. Keep names of places and people unchanged. Keep the same tone and length.

Items:
%s

Respond with ONLY this JSON:
{"translations": [{"id": "same id as the input", "text": "translated text"}]}`

// LLM translates through a language model.
type LLM struct {
	provider  llm.Provider
	maxTokens int
}

func (l *LLM) Name() string { return "llm" }

func (l *LLM) Translate(ctx context.Context, items []Item, target, source string) (map[string]string, error) {
	payload := nonEmpty(items)
	if len(payload) == 0 {
		return map[string]string{}, nil
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling items: %w", err)
	}
	text, err := l.provider.Generate(ctx, fmt.Sprintf(translatePrompt, source, target, data), l.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating translation: %w", err)
	}
	var resp translationResponse
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &resp); err != nil {
		return nil, fmt.Errorf("parsing translation response: %w", err)
	}
	return resp.toMap(), nil
}

// Options carries the non-remote factory inputs.
type Options struct {
	Provider  llm.Provider
	MaxTokens int
}

// New selects a translator: auto (default), static, gpt or llm.
func New(s remote.Settings, opts Options) (Translator, error) {
	name, err := s.Resolve("gpt", "auto")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(name) {
	case "static":
		return Static{}, nil
	case "gpt":
		return &Remote{client: s.Client("translation")}, nil
	case "llm":
		if opts.Provider == nil {
			return nil, fmt.Errorf("llm translator requires a configured LLM provider: %w", highlight.ErrMissingCredentials)
		}
		return &LLM{provider: opts.Provider, maxTokens: max(opts.MaxTokens, 1024)}, nil
	}
	return nil, remote.Unsupported("translator", name)
}
