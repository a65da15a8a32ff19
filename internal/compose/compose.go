// Package compose builds a highlight narrative from ranked, labelled assets.
package compose

import (
	"context"
	"fmt"
	"log"

	"github.com/TobiSchelling/HighlightReel/internal/dialogue"
	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/script"
	"github.com/TobiSchelling/HighlightReel/internal/summarize"
)

const (
	// DefaultFrameSampleSize is used when the configured sample size is not positive.
	DefaultFrameSampleSize = 3

	// DefaultRationaleTemplate pads the rationale list when no asset produced one.
	DefaultRationaleTemplate = "Your guide elevated these moments for their energy and relevance."

	rationaleCaptionLimit = 80
)

// Config controls sampling and rationale padding.
type Config struct {
	FrameSampleSize   int
	RationaleTemplate string
}

// Composer assembles narratives using pluggable strategies.
type Composer struct {
	summarizer summarize.Summarizer
	script     script.Generator
	dialogue   dialogue.Generator
}

// NewComposer creates a composer. Nil strategies fall back to the static ones.
func NewComposer(s summarize.Summarizer, g script.Generator, d dialogue.Generator) *Composer {
	if s == nil {
		s = &summarize.Static{}
	}
	if g == nil {
		g = &script.Static{}
	}
	if d == nil {
		d = dialogue.NewStatic(nil)
	}
	return &Composer{summarizer: s, script: g, dialogue: d}
}

// Compose builds the narrative. assets must already be ranked; the first
// FrameSampleSize of them feed frames, rationale, script and dialogue, while
// the summary considers all of them.
func (c *Composer) Compose(ctx context.Context, assets []highlight.Asset, cfg Config) (*highlight.Narrative, error) {
	if len(assets) == 0 {
		return nil, highlight.ErrNoAssets
	}
	size := cfg.FrameSampleSize
	if size <= 0 {
		size = DefaultFrameSampleSize
	}
	sample := assets[:min(size, len(assets))]
	locale := assets[0].Language

	n := highlight.NewNarrative()
	for _, a := range sample {
		n.AssetIDs = append(n.AssetIDs, a.ID)
		n.Frames = append(n.Frames, highlight.Frame{ImageURL: a.URL, Caption: a.Caption})
		n.Rationale = append(n.Rationale, rationale(a))
	}
	if len(n.Rationale) == 0 {
		tmpl := cfg.RationaleTemplate
		if tmpl == "" {
			tmpl = DefaultRationaleTemplate
		}
		n.Rationale = []string{tmpl}
	}

	captions := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.Caption != "" {
			captions = append(captions, a.Caption)
		} else {
			captions = append(captions, a.SourceTitle())
		}
	}
	summary, err := c.summarizer.Summarize(ctx, captions, locale)
	if err != nil {
		log.Printf("Summarizer %s failed, using template summary: %v", c.summarizer.Name(), err)
		summary = ""
	}
	summarySource := c.summarizer.Name()
	if summary == "" {
		summary = templateSummary(assets)
		summarySource = "template"
	}
	n.Summary = summary

	s, err := c.script.Generate(ctx, sample, locale)
	if err != nil {
		return nil, fmt.Errorf("generating script: %w", err)
	}
	n.Script = s
	n.Dialogue = c.dialogue.Generate(sample)

	n.Language = locale
	if n.Language == "" {
		n.Language = highlight.DefaultLocale
	}
	n.Provenance["script_generator"] = s.Provenance["generator"]
	n.Provenance["summarizer"] = c.summarizer.Name()
	n.Provenance["summary"] = summarySource
	if fb, ok := s.Provenance["fallback"]; ok {
		n.Provenance["script_fallback"] = fb
	}
	return n, nil
}

func rationale(a highlight.Asset) string {
	scene := "highlight"
	if len(a.Scenes) > 0 {
		scene = a.Scenes[0]
	}
	caption := a.Caption
	if caption == "" {
		caption = "community moment"
	}
	return fmt.Sprintf("%s %s (%d engagements) featuring %s",
		a.SourceTitle(), scene, a.Metrics.Engagement(), highlight.Truncate(caption, rationaleCaptionLimit))
}

func templateSummary(assets []highlight.Asset) string {
	top := assets[0]
	headline := top.Caption
	if headline == "" {
		headline = top.SourceTitle()
	}
	total := 0
	for _, a := range assets {
		total += a.Metrics.Engagement()
	}
	return fmt.Sprintf("Highlight spotlight: %s is trending with %d combined engagements across %d assets.",
		headline, total, len(assets))
}
