// Package tts requests narration audio for a localized storyboard.
package tts

import (
	"context"
	"log"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

// Item is one narration segment.
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Synthesis is the result of a synthesis request.
type Synthesis struct {
	Locale   string
	AudioURL string
	Voice    string
	Segments map[string]string
}

// Synthesizer returns nil when no audio could be produced.
type Synthesizer interface {
	Synthesize(ctx context.Context, items []Item, locale, baseLocale, poiID string) *Synthesis
}

// Static never produces audio.
type Static struct{}

func (Static) Synthesize(context.Context, []Item, string, string, string) *Synthesis { return nil }

// Remote calls a TTS service. Failures are logged and yield nil.
type Remote struct {
	client         *remote.Client
	DefaultVoice   string
	VoiceOverrides map[string]string
}

// Voice returns the override for the full locale, then its base language,
// then the default voice.
func (r *Remote) Voice(locale string) string {
	for _, candidate := range []string{strings.ToLower(locale), highlight.BaseLanguage(locale)} {
		if v, ok := r.VoiceOverrides[candidate]; ok && v != "" {
			return v
		}
	}
	return r.DefaultVoice
}

func (r *Remote) Synthesize(ctx context.Context, items []Item, locale, baseLocale, poiID string) *Synthesis {
	var segments []Item
	for _, it := range items {
		if it.Text != "" {
			segments = append(segments, it)
		}
	}
	if len(segments) == 0 {
		return nil
	}

	voice := r.Voice(locale)
	payload := map[string]any{
		"poi_id":      poiID,
		"locale":      locale,
		"base_locale": baseLocale,
		"segments":    segments,
	}
	if voice != "" {
		payload["voice"] = voice
	}

	var resp struct {
		AudioURL string `json:"audio_url"`
		Voice    string `json:"voice"`
		Segments []Item `json:"segments"`
	}
	if err := r.client.PostJSON(ctx, payload, &resp); err != nil {
		log.Printf("TTS synthesis for %s failed: %v", locale, err)
		return nil
	}
	if resp.AudioURL == "" {
		log.Printf("TTS response missing audio_url for locale %s", locale)
		return nil
	}
	if resp.Voice != "" {
		voice = resp.Voice
	}
	out := &Synthesis{Locale: locale, AudioURL: resp.AudioURL, Voice: voice, Segments: make(map[string]string)}
	for _, s := range resp.Segments {
		if s.ID != "" && s.Text != "" {
			out.Segments[s.ID] = s.Text
		}
	}
	return out
}

// Options carries voice selection.
type Options struct {
	DefaultVoice   string
	VoiceOverrides map[string]string
}

// New selects a synthesizer. "none" returns nil; auto (default) picks gpt
// when fully configured and static otherwise.
func New(s remote.Settings, opts Options) (Synthesizer, error) {
	if strings.EqualFold(s.Provider, "none") {
		return nil, nil
	}
	name, err := s.Resolve("gpt", "auto")
	if err != nil {
		return nil, err
	}
	switch name {
	case "static":
		return Static{}, nil
	case "gpt":
		overrides := make(map[string]string, len(opts.VoiceOverrides))
		for k, v := range opts.VoiceOverrides {
			overrides[strings.ToLower(k)] = v
		}
		return &Remote{client: s.Client("tts"), DefaultVoice: opts.DefaultVoice, VoiceOverrides: overrides}, nil
	}
	return nil, remote.Unsupported("tts", name)
}
