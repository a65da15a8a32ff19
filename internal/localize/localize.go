// Package localize fans a storyboard out to target locales: translations,
// subtitles, accessibility fields and narration records.
package localize

import (
	"context"
	"fmt"
	"log"
	"maps"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/accessibility"
	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/translate"
	"github.com/TobiSchelling/HighlightReel/internal/tts"
)

// Translation keys.
const summaryKey = "narrative.summary"

func rationaleKey(i int) string          { return fmt.Sprintf("narrative.rationale.%d", i) }
func beatKey(id, field string) string    { return "script." + id + "." + field }
func segmentKey(id, field string) string { return "segment." + id + "." + field }
func frameKey(id string) string          { return "frame." + id + ".caption" }

// Localizer runs the per-locale fan-out. TTS may be nil.
type Localizer struct {
	Translator    translate.Translator
	Accessibility accessibility.Generator
	TTS           tts.Synthesizer
	AudioPrefix   string
}

// New creates a localizer. Nil translator or generator fall back to the static ones.
func New(tr translate.Translator, gen accessibility.Generator, synth tts.Synthesizer, audioPrefix string) *Localizer {
	if tr == nil {
		tr = translate.Static{}
	}
	if gen == nil {
		gen = accessibility.Static{}
	}
	return &Localizer{Translator: tr, Accessibility: gen, TTS: synth, AudioPrefix: strings.TrimRight(audioPrefix, "/")}
}

// CollectItems returns every non-empty translatable string of the storyboard.
// Duplicate keys keep their first text.
func CollectItems(sb *highlight.Storyboard) []translate.Item {
	var items []translate.Item
	seen := make(map[string]bool)
	add := func(key, text string) {
		if text == "" || seen[key] {
			return
		}
		seen[key] = true
		items = append(items, translate.Item{Key: key, Text: text})
	}

	n := sb.Narrative
	add(summaryKey, n.Summary)
	for i, r := range n.Rationale {
		add(rationaleKey(i), r)
	}
	for _, b := range n.Beats() {
		add(beatKey(b.ID, "title"), b.Title)
		add(beatKey(b.ID, "content"), b.Content)
	}
	for _, seg := range sb.Segments {
		add(segmentKey(seg.AssetID, "caption"), seg.Caption)
		add(segmentKey(seg.AssetID, "title"), seg.ScriptTitle)
		add(segmentKey(seg.AssetID, "script"), seg.ScriptContent)
		add(segmentKey(seg.AssetID, "rationale"), seg.Rationale)
		if seg.Frame != nil {
			add(frameKey(seg.AssetID), seg.Frame.Caption)
		}
	}
	return items
}

// result holds everything one locale produces; it is applied in one step so a
// locale's map entries are never half-written.
type result struct {
	translations  map[string]string
	subtitles     map[string]string
	accessibility map[string]highlight.AccessibilityFields
	narration     highlight.LocaleNarration
}

// Localize mutates sb.Narrative translations, narrations and accessibility and
// every segment's subtitles for each locale. The narrative's own locale always
// ends up with the identity translation map.
func (l *Localizer) Localize(ctx context.Context, sb *highlight.Storyboard, locales []string) {
	n := sb.Narrative
	base := n.Language
	if base == "" {
		base = highlight.DefaultLocale
	}
	if n.Translations == nil {
		n.Translations = make(map[string]map[string]string)
	}
	if n.Narrations == nil {
		n.Narrations = make(map[string]highlight.LocaleNarration)
	}
	if n.Accessibility == nil {
		n.Accessibility = make(map[string]map[string]highlight.AccessibilityFields)
	}

	items := CollectItems(sb)
	source := make(map[string]string, len(items))
	for _, it := range items {
		source[it.Key] = it.Text
	}

	seen := make(map[string]bool)
	for _, locale := range locales {
		locale = strings.TrimSpace(locale)
		if locale == "" || seen[locale] {
			continue
		}
		seen[locale] = true

		log.Printf("Localizing storyboard for %s", locale)
		r := l.localizeOne(ctx, sb, items, source, base, locale)

		n.Translations[locale] = r.translations
		n.Accessibility[locale] = r.accessibility
		n.Narrations[locale] = r.narration
		for i := range sb.Segments {
			seg := &sb.Segments[i]
			sub, ok := r.subtitles[seg.AssetID]
			if !ok {
				continue
			}
			if seg.Subtitles == nil {
				seg.Subtitles = make(map[string]string)
			}
			seg.Subtitles[locale] = sub
			if seg.Frame != nil {
				if seg.Frame.Subtitles == nil {
					seg.Frame.Subtitles = make(map[string]string)
				}
				seg.Frame.Subtitles[locale] = sub
			}
		}
	}

	n.Translations[base] = maps.Clone(source)
}

func (l *Localizer) localizeOne(ctx context.Context, sb *highlight.Storyboard, items []translate.Item, source map[string]string, base, locale string) result {
	sameBase := highlight.BaseLanguage(locale) == highlight.BaseLanguage(base)

	translated := make(map[string]string)
	if sameBase {
		maps.Copy(translated, source)
	} else if len(items) > 0 {
		got, err := l.Translator.Translate(ctx, items, locale, base)
		if err != nil {
			log.Printf("Translation to %s failed, using fallback text: %v", locale, err)
		}
		for k, v := range got {
			if _, expected := source[k]; expected && v != "" {
				translated[k] = v
			}
		}
	}

	fallback := func(text string) string {
		if sameBase {
			return text
		}
		return translate.Prefixed(locale, text)
	}

	complete := make(map[string]string, len(source))
	for k, text := range source {
		if v, ok := translated[k]; ok {
			complete[k] = v
		} else {
			complete[k] = fallback(text)
		}
	}

	summary := sb.Narrative.Summary
	subtitles := make(map[string]string, len(sb.Segments))
	for _, seg := range sb.Segments {
		if _, done := subtitles[seg.AssetID]; done {
			continue
		}
		subtitles[seg.AssetID] = subtitle(seg, summary, translated, fallback)
	}

	accItems := make([]accessibility.Item, 0, len(sb.Segments))
	for _, seg := range sb.Segments {
		accItems = append(accItems, accessibility.Item{
			ID:          seg.AssetID,
			ClipTitle:   pick(complete, segmentKey(seg.AssetID, "title"), seg.ScriptTitle),
			ClipSummary: pick(complete, summaryKey, summary),
			Caption:     pick(complete, segmentKey(seg.AssetID, "caption"), seg.Caption),
			Rationale:   pick(complete, segmentKey(seg.AssetID, "rationale"), seg.Rationale),
			Tags:        seg.Tags,
			Locale:      locale,
			BaseLocale:  base,
		})
	}
	generated, err := l.Accessibility.Generate(ctx, accItems, locale)
	if err != nil {
		log.Printf("Accessibility generation for %s failed, using heuristics: %v", locale, err)
	}
	acc := make(map[string]highlight.AccessibilityFields, len(accItems))
	for _, it := range accItems {
		if f, ok := generated[it.ID]; ok && f.Complete() {
			acc[it.ID] = f
			continue
		}
		acc[it.ID] = accessibility.Fields(it, locale)
	}

	return result{
		translations:  complete,
		subtitles:     subtitles,
		accessibility: acc,
		narration:     l.narrate(ctx, sb, subtitles, locale, base),
	}
}

// subtitle prefers translated script content, caption, then summary, and
// otherwise localizes the first non-empty source string in the same order.
func subtitle(seg highlight.Segment, summary string, translated map[string]string, fallback func(string) string) string {
	for _, k := range []string{segmentKey(seg.AssetID, "script"), segmentKey(seg.AssetID, "caption"), summaryKey} {
		if v := translated[k]; v != "" {
			return v
		}
	}
	for _, text := range []string{seg.ScriptContent, seg.Caption, summary} {
		if text != "" {
			return fallback(text)
		}
	}
	return ""
}

func (l *Localizer) narrate(ctx context.Context, sb *highlight.Storyboard, subtitles map[string]string, locale, base string) highlight.LocaleNarration {
	narr := highlight.LocaleNarration{Locale: locale, Subtitles: subtitles}

	if l.TTS != nil {
		segs := make([]tts.Item, 0, len(sb.Segments))
		for _, seg := range sb.Segments {
			segs = append(segs, tts.Item{ID: seg.AssetID, Text: subtitles[seg.AssetID]})
		}
		if s := l.TTS.Synthesize(ctx, segs, locale, base, sb.POI.ID); s != nil {
			if s.AudioURL != "" {
				url := s.AudioURL
				narr.AudioURL = &url
			}
			if s.Voice != "" {
				voice := s.Voice
				narr.Voice = &voice
			}
		}
	}

	if l.AudioPrefix != "" {
		url := fmt.Sprintf("%s/%s-%s.mp3", l.AudioPrefix, sb.POI.ID, locale)
		narr.AudioURL = &url
	}
	return narr
}

func pick(m map[string]string, key, fallback string) string {
	if v := m[key]; v != "" {
		return v
	}
	return fallback
}
