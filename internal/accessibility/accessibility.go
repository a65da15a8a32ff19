// Package accessibility authors captions, audio descriptions, haptic cues and
// alt text for storyboard segments.
package accessibility

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

// Item describes one segment needing accessibility fields.
type Item struct {
	ID          string   `json:"id"`
	ClipTitle   string   `json:"clip_title"`
	ClipSummary string   `json:"clip_summary"`
	Caption     string   `json:"caption"`
	Rationale   string   `json:"rationale"`
	Tags        []string `json:"tags"`
	Locale      string   `json:"target_locale"`
	BaseLocale  string   `json:"source_locale"`
}

// Generator returns fields keyed by item id. Missing or incomplete entries are
// patched by the caller.
type Generator interface {
	Generate(ctx context.Context, items []Item, target string) (map[string]highlight.AccessibilityFields, error)
	Name() string
}

var hapticRules = []struct {
	tags []string
	cue  string
}{
	{[]string{"celebration", "fans", "goal", "stadium"}, "Three quick pulses to mimic crowd energy."},
	{[]string{"transit", "travel", "metro", "train"}, "Steady pulse signaling transit boarding."},
	{[]string{"food", "mercado", "dining"}, "Soft double tap to highlight tasting moment."},
}

const defaultHaptic = "Gentle single pulse for highlight focus."

// HapticCue picks a cue from the first matching tag group.
func HapticCue(tags []string) string {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[strings.ToLower(t)] = true
	}
	for _, r := range hapticRules {
		for _, t := range r.tags {
			if set[t] {
				return r.cue
			}
		}
	}
	return defaultHaptic
}

// Static derives fields from the item text. Every field is non-empty.
type Static struct{}

func (Static) Name() string { return "static" }

func (Static) Generate(_ context.Context, items []Item, target string) (map[string]highlight.AccessibilityFields, error) {
	out := make(map[string]highlight.AccessibilityFields, len(items))
	for _, it := range items {
		out[it.ID] = Fields(it, target)
	}
	return out, nil
}

// Fields builds the heuristic fields for a single item.
func Fields(it Item, target string) highlight.AccessibilityFields {
	caption := firstNonEmpty(it.Caption, it.ClipSummary, it.ClipTitle, "Highlight clip")
	title := firstNonEmpty(it.ClipTitle, "Highlight")
	described := firstNonEmpty(it.ClipSummary, caption)
	return highlight.AccessibilityFields{
		Caption:          caption,
		AudioDescription: fmt.Sprintf("Audio description (%s): %s. %s.", target, title, strings.TrimRight(described, ".")),
		HapticCue:        HapticCue(it.Tags),
		AltText:          described,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Remote calls an accessibility authoring service.
type Remote struct {
	client *remote.Client
}

func (r *Remote) Name() string { return "gpt" }

func (r *Remote) Generate(ctx context.Context, items []Item, target string) (map[string]highlight.AccessibilityFields, error) {
	if len(items) == 0 {
		return map[string]highlight.AccessibilityFields{}, nil
	}
	payload := make([]Item, len(items))
	for i, it := range items {
		if it.Tags == nil {
			it.Tags = []string{}
		}
		payload[i] = it
	}

	var resp struct {
		Items []map[string]any `json:"items"`
	}
	if err := r.client.PostJSON(ctx, map[string]any{"target_locale": target, "items": payload}, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]highlight.AccessibilityFields, len(resp.Items))
	for _, entry := range resp.Items {
		id, ok := entry["id"].(string)
		if !ok {
			continue
		}
		f := highlight.AccessibilityFields{
			Caption:          str(entry["caption"]),
			AudioDescription: str(entry["audio_description"]),
			HapticCue:        str(entry["haptic_cue"]),
			AltText:          str(entry["alt_text"]),
		}
		if f.Complete() {
			out[id] = f
		}
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// New selects a generator: auto (default), static or gpt.
func New(s remote.Settings) (Generator, error) {
	name, err := s.Resolve("gpt", "auto")
	if err != nil {
		return nil, err
	}
	switch name {
	case "static":
		return Static{}, nil
	case "gpt":
		return &Remote{client: s.Client("accessibility")}, nil
	}
	return nil, remote.Unsupported("accessibility", name)
}
