// Package preferences infers a viewer's locale and accessibility needs from
// their profile, either through a remote service or a keyword heuristic.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

// Profile is the viewer profile read from a JSON file.
type Profile struct {
	PreferredLocale     string         `json:"preferred_locale,omitempty"`
	Settings            map[string]any `json:"settings,omitempty"`
	Signals             []Signal       `json:"signals,omitempty"`
	ConversationHistory []Message      `json:"conversation_history,omitempty"`
	Notes               []string       `json:"notes,omitempty"`
}

// Signal is a typed profile hint. A "locale_hint" signal carries a locale string.
type Signal struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Message is one conversation entry. A bare JSON string decodes into Content.
type Message struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Content = s
		return nil
	}
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Message(p)
	return nil
}

// Result is the detected preference set.
type Result struct {
	PrimaryLocale         string   `json:"primary_locale"`
	SecondaryLocales      []string `json:"secondary_locales"`
	NeedsCaptions         bool     `json:"needs_captions"`
	NeedsAudioDescription bool     `json:"needs_audio_description"`
	NeedsHaptics          bool     `json:"needs_haptics"`
	NeedsReducedMotion    bool     `json:"needs_reduced_motion"`
	Notes                 []string `json:"notes"`
}

// Locales returns the primary locale followed by the secondary ones.
func (r Result) Locales() []string {
	return append([]string{r.PrimaryLocale}, r.SecondaryLocales...)
}

var languageKeywords = []struct {
	locale   string
	patterns []*regexp.Regexp
}{
	// RE2 \b is ASCII-only, so words that may end in an accented letter close
	// on a non-letter instead.
	{"es", compile(`\bgracias\b`, `\bhol[ao]\b`, `\bprefer[io] español(?:$|[^\p{L}])`, `\best(?:á|a|ás|as)(?:$|[^\p{L}])`, `¡`)},
	{"fr", compile(`\bmerci\b`, `\bbonjour\b`, `\bfranç`, `\bparlons? fran`)},
	{"en", compile(`\bthanks\b`, `\bplease\b`, `\bhi\b`)},
}

const (
	needCaptions         = "captions"
	needAudioDescription = "audio_description"
	needHaptics          = "haptics"
	needReducedMotion    = "reduced_motion"
)

var accessibilityPatterns = []struct {
	need     string
	note     string
	patterns []*regexp.Regexp
}{
	{needCaptions, "Prefers captions/subtitles based on conversation cues.",
		compile(`caption`, `subtitle`, `closed caption`, `hard of hearing`)},
	{needAudioDescription, "Requests audio descriptions or low-vision support.",
		compile(`audio description`, `low vision`, `blind`)},
	{needHaptics, "Wants haptic or tactile cues for key events.",
		compile(`haptic`, `vibration`, `sensory cue`)},
	{needReducedMotion, "Sensitive to heavy motion; favor gentle transitions.",
		compile(`reduced motion`, `no animations`, `motion sickness`)},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Detector asks the remote preference service when configured and falls back
// to the heuristic on any failure.
type Detector struct {
	client *remote.Client
}

// New builds a detector. Provider "heuristic" (or "static") never calls out;
// "gpt" requires endpoint and key; "auto" picks whichever is configured.
func New(s remote.Settings) (*Detector, error) {
	name, err := s.Resolve("gpt", "auto")
	if err != nil {
		return nil, err
	}
	switch name {
	case "static", "heuristic":
		return &Detector{}, nil
	case "gpt":
		return &Detector{client: s.Client("preferences")}, nil
	}
	return nil, remote.Unsupported("preferences", name)
}

// Detect runs the heuristic detector.
func Detect(ctx context.Context, p Profile) Result {
	return (&Detector{}).Detect(ctx, p)
}

func (d *Detector) Detect(ctx context.Context, p Profile) Result {
	if d.client != nil {
		var resp map[string]any
		err := d.client.PostJSON(ctx, map[string]any{"profile": p}, &resp)
		if err == nil {
			return fromService(resp)
		}
		log.Printf("Preference service failed, falling back to heuristic: %v", err)
	}
	return heuristic(p)
}

func heuristic(p Profile) Result {
	texts := gatherText(p)
	ranked := rankLocales(texts, p)
	needs := detectNeeds(texts)

	notes := append([]string{}, p.Notes...)
	for _, ap := range accessibilityPatterns {
		if needs[ap.need] {
			notes = append(notes, ap.note)
		}
	}

	return Result{
		PrimaryLocale:         ranked[0],
		SecondaryLocales:      ranked[1:],
		NeedsCaptions:         needs[needCaptions],
		NeedsAudioDescription: needs[needAudioDescription],
		NeedsHaptics:          needs[needHaptics],
		NeedsReducedMotion:    needs[needReducedMotion],
		Notes:                 notes,
	}
}

// gatherText collects lower-cased strings from settings (in key order),
// signal values and conversation content.
func gatherText(p Profile) []string {
	var texts []string

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := p.Settings[k].(string); ok {
			texts = append(texts, s)
		}
	}

	for _, sig := range p.Signals {
		switch v := sig.Value.(type) {
		case string:
			texts = append(texts, v)
		case []any:
			for _, item := range v {
				texts = append(texts, fmt.Sprint(item))
			}
		}
	}

	for _, m := range p.ConversationHistory {
		if m.Content != "" {
			texts = append(texts, m.Content)
		}
	}

	for i, t := range texts {
		texts[i] = strings.ToLower(t)
	}
	return texts
}

// rankLocales scores base languages and returns them best first. Ties keep
// the order in which a language first scored.
func rankLocales(texts []string, p Profile) []string {
	scores := make(map[string]int)
	var order []string
	add := func(locale string, n int) {
		if _, ok := scores[locale]; !ok {
			order = append(order, locale)
		}
		scores[locale] += n
	}

	declared := p.PreferredLocale
	if declared == "" {
		declared, _ = p.Settings["preferred_locale"].(string)
	}
	if declared != "" {
		add(highlight.BaseLanguage(declared), 5)
	}

	for _, sig := range p.Signals {
		if sig.Type != "locale_hint" {
			continue
		}
		if s, ok := sig.Value.(string); ok && s != "" {
			add(highlight.BaseLanguage(s), 4)
		}
	}

	for _, text := range texts {
		for _, lk := range languageKeywords {
			matches := 0
			for _, re := range lk.patterns {
				if re.MatchString(text) {
					matches++
				}
			}
			if matches > 0 {
				add(lk.locale, matches)
			}
		}
	}

	if len(order) == 0 {
		return []string{highlight.DefaultLocale}
	}
	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })
	return order
}

func detectNeeds(texts []string) map[string]bool {
	needs := make(map[string]bool)
	for _, text := range texts {
		for _, ap := range accessibilityPatterns {
			for _, re := range ap.patterns {
				if re.MatchString(text) {
					needs[ap.need] = true
					break
				}
			}
		}
	}
	return needs
}

func fromService(resp map[string]any) Result {
	r := Result{PrimaryLocale: highlight.DefaultLocale, Notes: []string{}}
	if s, ok := resp["primary_locale"].(string); ok && s != "" {
		r.PrimaryLocale = s
	}
	if list, ok := resp["secondary_locales"].([]any); ok {
		for _, v := range list {
			if s := fmt.Sprint(v); v != nil && s != "" {
				r.SecondaryLocales = append(r.SecondaryLocales, s)
			}
		}
	}
	switch notes := resp["notes"].(type) {
	case []any:
		for _, n := range notes {
			r.Notes = append(r.Notes, fmt.Sprint(n))
		}
	case string:
		if notes != "" {
			r.Notes = append(r.Notes, notes)
		}
	}
	r.NeedsCaptions = truthy(resp["needs_captions"])
	r.NeedsAudioDescription = truthy(resp["needs_audio_description"])
	r.NeedsHaptics = truthy(resp["needs_haptics"])
	r.NeedsReducedMotion = truthy(resp["needs_reduced_motion"])
	return r
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(b) {
		case "true", "1", "yes":
			return true
		}
	case float64:
		return b != 0
	}
	return false
}
