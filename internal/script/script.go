// Package script generates the beat-by-beat narration for a highlight reel.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/llm"
	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

// DefaultBeats are the static beat titles.
var DefaultBeats = []string{"Arrival", "Main Event", "Celebration"}

// Generator produces a script for the sampled assets.
type Generator interface {
	Generate(ctx context.Context, assets []highlight.Asset, locale string) (*highlight.Script, error)
	Name() string
}

// Static builds one beat per title from captions, then source names.
type Static struct {
	Beats []string
}

func (s *Static) Name() string { return "static" }

// Generate never fails.
func (s *Static) Generate(_ context.Context, assets []highlight.Asset, locale string) (*highlight.Script, error) {
	titles := s.Beats
	if len(titles) == 0 {
		titles = DefaultBeats
	}
	if locale == "" {
		locale = highlight.DefaultLocale
	}

	captions := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.Caption != "" {
			captions = append(captions, a.Caption)
		} else {
			captions = append(captions, a.SourceTitle())
		}
	}
	phrases := append([]string{}, captions...)
	for _, a := range assets {
		phrases = append(phrases, a.Source)
	}

	beats := make([]highlight.ScriptBeat, 0, len(titles))
	for i, title := range titles {
		clip := "the neighbourhood"
		switch {
		case i < len(phrases):
			clip = phrases[i]
		case len(phrases) > 0:
			clip = phrases[len(phrases)-1]
		}
		beats = append(beats, highlight.ScriptBeat{
			ID:      fmt.Sprintf("beat-%d", i+1),
			Title:   title,
			Content: fmt.Sprintf("%s: Your guide walks you through %s. Expect curated transitions and trusted cues.", title, clip),
		})
	}

	return &highlight.Script{
		Beats:  beats,
		Locale: locale,
		Provenance: map[string]any{
			"generator":     "static",
			"captions_used": captions[:min(len(titles), len(captions))],
		},
	}, nil
}

type beatPayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type scriptResponse struct {
	Beats      []beatPayload  `json:"beats"`
	Provenance map[string]any `json:"provenance,omitempty"`
}

type assetPrompt struct {
	ID      string   `json:"id"`
	Caption string   `json:"caption"`
	Scenes  []string `json:"scenes"`
	Tags    []string `json:"tags"`
}

// Remote posts the sampled assets to a script service.
type Remote struct {
	client   *remote.Client
	fallback *Static
}

func (r *Remote) Name() string { return "gpt" }

func (r *Remote) Generate(ctx context.Context, assets []highlight.Asset, locale string) (*highlight.Script, error) {
	if locale == "" {
		locale = highlight.DefaultLocale
	}
	prompts := make([]assetPrompt, 0, len(assets))
	for _, a := range assets {
		prompts = append(prompts, assetPrompt{ID: a.ID, Caption: a.Caption, Scenes: orEmpty(a.Scenes), Tags: orEmpty(a.Tags)})
	}

	var resp scriptResponse
	err := r.client.PostJSON(ctx, map[string]any{"locale": locale, "prompts": prompts}, &resp)
	if err != nil {
		if unavailable(err) {
			return degrade(ctx, r.fallback, assets, locale, err)
		}
		return nil, fmt.Errorf("parsing script response: %v: %w", err, highlight.ErrNoBeats)
	}
	return toScript(resp, locale, "gpt")
}

const scriptPrompt = `You are scripting a short vertical highlight reel for a point of interest.

Write %d beats in locale %q. Each beat needs a short title and one or two sentences of narration that reference the moments below. Keep it warm and specific.

Moments:
%s

Respond with ONLY this JSON:
{"beats": [{"id": "beat-1", "title": "Arrival", "content": "..."}]}`

// LLM asks a language model for the beats, using a strict JSON schema when the
// provider supports structured output.
type LLM struct {
	provider  llm.Provider
	maxTokens int
	beats     int
	fallback  *Static
}

var beatsSchema = llm.GenerateSchema[llmBeats]()

type llmBeats struct {
	Beats []highlight.ScriptBeat `json:"beats" jsonschema_description:"Ordered beats of the highlight script"`
}

func (l *LLM) Name() string { return "llm" }

func (l *LLM) Generate(ctx context.Context, assets []highlight.Asset, locale string) (*highlight.Script, error) {
	if locale == "" {
		locale = highlight.DefaultLocale
	}
	var moments []string
	for i, a := range assets {
		moments = append(moments, fmt.Sprintf("[%d] %s (%s) scenes: %s, tags: %s",
			i+1, a.Caption, a.Source, strings.Join(a.Scenes, ", "), strings.Join(a.Tags, ", ")))
	}
	prompt := fmt.Sprintf(scriptPrompt, l.beats, locale, strings.Join(moments, "\n"))

	var text string
	var err error
	if sp, ok := l.provider.(llm.StructuredProvider); ok {
		text, err = sp.GenerateStructured(ctx, prompt, "highlight_script", beatsSchema)
	} else {
		text, err = l.provider.Generate(ctx, prompt, l.maxTokens)
	}
	if err != nil {
		return degrade(ctx, l.fallback, assets, locale, err)
	}

	var resp scriptResponse
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &resp); err != nil {
		return nil, fmt.Errorf("parsing script response: %v: %w", err, highlight.ErrNoBeats)
	}
	return toScript(resp, locale, "llm")
}

func toScript(resp scriptResponse, locale, generator string) (*highlight.Script, error) {
	if len(resp.Beats) == 0 {
		return nil, highlight.ErrNoBeats
	}
	beats := make([]highlight.ScriptBeat, 0, len(resp.Beats))
	for i, b := range resp.Beats {
		id, title := b.ID, b.Title
		if id == "" {
			id = fmt.Sprintf("beat-%d", i+1)
		}
		if title == "" {
			title = fmt.Sprintf("Beat %d", i+1)
		}
		beats = append(beats, highlight.ScriptBeat{ID: id, Title: title, Content: b.Content})
	}
	provenance := resp.Provenance
	if provenance == nil {
		provenance = make(map[string]any)
	}
	if _, ok := provenance["generator"]; !ok {
		provenance["generator"] = generator
	}
	return &highlight.Script{Beats: beats, Locale: locale, Provenance: provenance}, nil
}

// unavailable reports whether err means the service could not be reached or
// refused the request.
func unavailable(err error) bool {
	var te *remote.TransportError
	var se *remote.StatusError
	return errors.As(err, &te) || errors.As(err, &se)
}

func degrade(ctx context.Context, static *Static, assets []highlight.Asset, locale string, cause error) (*highlight.Script, error) {
	log.Printf("Script generator unavailable, using static beats: %v", cause)
	s, _ := static.Generate(ctx, assets, locale)
	s.Provenance["fallback"] = "transport"
	return s, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Options carries the non-remote factory inputs.
type Options struct {
	Beats     []string
	Provider  llm.Provider
	MaxTokens int
}

// New selects a script generator: static, gpt (remote) or llm.
func New(s remote.Settings, opts Options) (Generator, error) {
	name, err := s.Resolve("gpt", "static")
	if err != nil {
		return nil, err
	}
	static := &Static{Beats: opts.Beats}
	switch name {
	case "static":
		return static, nil
	case "gpt":
		return &Remote{client: s.Client("script"), fallback: static}, nil
	case "llm":
		if opts.Provider == nil {
			return nil, fmt.Errorf("llm script generator requires a configured LLM provider: %w", highlight.ErrMissingCredentials)
		}
		beats := len(opts.Beats)
		if beats == 0 {
			beats = len(DefaultBeats)
		}
		return &LLM{provider: opts.Provider, maxTokens: max(opts.MaxTokens, 512), beats: beats, fallback: static}, nil
	}
	return nil, remote.Unsupported("script", name)
}
