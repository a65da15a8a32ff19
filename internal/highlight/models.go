package highlight

import (
	"strconv"
	"strings"
)

// DefaultLocale is used whenever an asset or narrative carries no language.
const DefaultLocale = "en"

// Metrics holds the raw social counters of an asset.
type Metrics struct {
	Views    int `json:"views" yaml:"views"`
	Likes    int `json:"likes" yaml:"likes"`
	Comments int `json:"comments" yaml:"comments"`
	Shares   int `json:"shares" yaml:"shares"`
}

// Engagement is likes + comments + shares. Views are not counted.
func (m Metrics) Engagement() int {
	return m.Likes + m.Comments + m.Shares
}

// Asset is a single social post or clip considered for a highlight reel.
type Asset struct {
	ID               string         `json:"id"`
	Source           string         `json:"source"`
	URL              string         `json:"url"`
	Caption          string         `json:"caption,omitempty"`
	Language         string         `json:"language,omitempty"`
	ModerationLabels []string       `json:"moderation_labels,omitempty"`
	IsFlagged        bool           `json:"is_flagged,omitempty"`
	Metrics          Metrics        `json:"metrics"`
	Tags             []string       `json:"tags,omitempty"`
	Scenes           []string       `json:"scenes,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// TimestampScore returns extra["timestamp_score"] as a float, or 0 when absent
// or not numeric.
func (a Asset) TimestampScore() float64 {
	v, ok := a.Extra["timestamp_score"]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// SourceTitle returns the source platform name with its first letter upper-cased.
func (a Asset) SourceTitle() string {
	return TitleCase(a.Source)
}

// FilterDecision is the outcome of the filter pass for one asset.
type FilterDecision struct {
	AssetID string   `json:"asset_id"`
	Passed  bool     `json:"passed"`
	Reasons []string `json:"reasons"`
	Score   float64  `json:"score"`
}

// FilterRules configures moderation and engagement gating.
type FilterRules struct {
	BannedLabels    []string `yaml:"banned_labels"`
	MinEngagement   int      `yaml:"min_engagement"`
	LocaleWhitelist []string `yaml:"locale_whitelist"`
}

// DefaultFilterRules returns the rules used when nothing is configured.
func DefaultFilterRules() FilterRules {
	return FilterRules{
		BannedLabels:  []string{"explicit", "violence"},
		MinEngagement: 10,
	}
}

// ScriptBeat is one step of a highlight script.
type ScriptBeat struct {
	ID      string `json:"id" jsonschema_description:"Stable beat identifier such as beat-1"`
	Title   string `json:"title" jsonschema_description:"Short beat title, two or three words"`
	Content string `json:"content" jsonschema_description:"One or two sentences of narration for the beat"`
}

// Script is the ordered list of beats plus the generator's provenance.
type Script struct {
	Beats      []ScriptBeat   `json:"beats"`
	Locale     string         `json:"locale"`
	Provenance map[string]any `json:"provenance,omitempty"`
}

// Dialogue holds the concierge lines for one locale.
type Dialogue struct {
	Locale      string `json:"locale"`
	Greeting    string `json:"greeting"`
	Guidance    string `json:"guidance"`
	Celebration string `json:"celebration"`
}

// Frame is a sampled image with its caption.
type Frame struct {
	ImageURL  string            `json:"image_url"`
	Caption   string            `json:"caption,omitempty"`
	Subtitles map[string]string `json:"subtitles,omitempty"`
}

// AccessibilityFields is the per-segment accessibility bundle. All four fields
// must be non-empty for an entry to count as present.
type AccessibilityFields struct {
	Caption          string `json:"caption"`
	AudioDescription string `json:"audio_description"`
	HapticCue        string `json:"haptic_cue"`
	AltText          string `json:"alt_text"`
}

// Complete reports whether every field carries text.
func (f AccessibilityFields) Complete() bool {
	return f.Caption != "" && f.AudioDescription != "" && f.HapticCue != "" && f.AltText != ""
}

// LocaleNarration is the narration record produced per locale.
type LocaleNarration struct {
	Locale    string            `json:"locale"`
	AudioURL  *string           `json:"audio_url"`
	Voice     *string           `json:"voice"`
	Subtitles map[string]string `json:"subtitles"`
}

// Narrative is the composed highlight artifact. Frames, AssetIDs and Rationale
// are index-aligned.
type Narrative struct {
	AssetIDs   []string            `json:"asset_ids"`
	Summary    string              `json:"summary"`
	Frames     []Frame             `json:"frames"`
	Rationale  []string            `json:"rationale"`
	Language   string              `json:"language"`
	Script     *Script             `json:"script,omitempty"`
	Dialogue   map[string]Dialogue `json:"dialogue"`
	Provenance map[string]any      `json:"provenance"`

	// Populated by the localization fan-out, keyed by locale.
	Translations  map[string]map[string]string              `json:"translations"`
	Narrations    map[string]LocaleNarration                `json:"narrations"`
	Accessibility map[string]map[string]AccessibilityFields `json:"accessibility"`
}

// NewNarrative returns a narrative with every map initialized.
func NewNarrative() *Narrative {
	return &Narrative{
		Dialogue:      make(map[string]Dialogue),
		Provenance:    make(map[string]any),
		Translations:  make(map[string]map[string]string),
		Narrations:    make(map[string]LocaleNarration),
		Accessibility: make(map[string]map[string]AccessibilityFields),
	}
}

// Beats returns the script beats, or nil when no script exists.
func (n *Narrative) Beats() []ScriptBeat {
	if n.Script == nil {
		return nil
	}
	return n.Script.Beats
}

// POI describes the point of interest a reel is rendered for.
type POI struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Locale   string         `json:"locale" yaml:"locale"`
	Distance string         `json:"distance,omitempty" yaml:"distance"`
	Hours    string         `json:"hours,omitempty" yaml:"hours"`
	Tags     []string       `json:"tags,omitempty" yaml:"tags"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata"`
}

// SegmentMetrics is the metrics snapshot carried by a segment.
type SegmentMetrics struct {
	Views      int `json:"views"`
	Likes      int `json:"likes"`
	Comments   int `json:"comments"`
	Shares     int `json:"shares"`
	Engagement int `json:"engagement"`
}

// Segment is one renderable storyboard entry. It refers to its asset by ID only.
type Segment struct {
	AssetID       string            `json:"asset_id"`
	AssetURL      string            `json:"asset_url"`
	Source        string            `json:"source"`
	Tags          []string          `json:"tags"`
	Duration      float64           `json:"duration"`
	Caption       string            `json:"caption,omitempty"`
	ScriptTitle   string            `json:"script_title,omitempty"`
	ScriptContent string            `json:"script_content,omitempty"`
	Frame         *Frame            `json:"frame,omitempty"`
	Rationale     string            `json:"rationale,omitempty"`
	Metrics       SegmentMetrics    `json:"metrics"`
	Subtitles     map[string]string `json:"subtitles"`
}

// Storyboard is the ordered, render-ready representation of a reel.
type Storyboard struct {
	POI       POI        `json:"poi"`
	Narrative *Narrative `json:"narrative"`
	Segments  []Segment  `json:"segments"`
}

// BaseLanguage returns the language part of a locale tag ("es-MX" -> "es").
func BaseLanguage(locale string) string {
	base, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(strings.TrimSpace(base))
}

// TitleCase upper-cases the first letter of each word and lower-cases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
