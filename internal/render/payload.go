// Package render turns storyboards into render-API payloads and manifests and
// submits them to the rendering service.
package render

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

const tagSeparator = " · "

// Config holds the template and branding settings of a render.
type Config struct {
	TemplateID        string
	AspectRatio       string
	OutputFormat      string
	ClipDuration      float64
	TransitionMS      int
	BrandColor        string
	AccentColor       string
	DefaultMusicTrack string
	WebhookURL        string
	Metadata          map[string]any
}

// DefaultConfig returns the stock vertical-video settings.
func DefaultConfig() Config {
	return Config{
		AspectRatio:  "9:16",
		OutputFormat: "mp4",
		ClipDuration: 5.0,
		TransitionMS: 500,
		BrandColor:   "#0b1221",
		AccentColor:  "#f5c333",
	}
}

// Modification is one named template element. It serializes as a media entry
// when Src is set and as a text entry otherwise.
type Modification struct {
	Name string
	Text string
	Src  string
}

func (m Modification) MarshalJSON() ([]byte, error) {
	if m.Src != "" {
		return json.Marshal(struct {
			Name string `json:"name"`
			Src  string `json:"src"`
		}{m.Name, m.Src})
	}
	return json.Marshal(struct {
		Name string `json:"name"`
		Text string `json:"text"`
	}{m.Name, m.Text})
}

func (m *Modification) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name string `json:"name"`
		Text string `json:"text"`
		Src  string `json:"src"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Modification{Name: raw.Name, Text: raw.Text, Src: raw.Src}
	return nil
}

// Payload is the body of a render request.
type Payload struct {
	TemplateID    string         `json:"template_id"`
	OutputFormat  string         `json:"output_format"`
	Modifications []Modification `json:"modifications"`
	Metadata      map[string]any `json:"metadata"`
	WebhookURL    string         `json:"webhook_url,omitempty"`
}

// Names returns the modification names in order.
func (p Payload) Names() []string {
	out := make([]string, len(p.Modifications))
	for i, m := range p.Modifications {
		out[i] = m.Name
	}
	return out
}

// BuildPayload converts a storyboard into the ordered modification list the
// render template binds to by name. The order is: POI name, distance, hours,
// summary, tags, per-segment media/overlay/title, soundtrack, clip duration,
// transition.
func BuildPayload(sb *highlight.Storyboard, cfg Config) Payload {
	mods := []Modification{
		{Name: "poi_name", Text: sb.POI.Name},
		{Name: "poi_distance", Text: sb.POI.Distance},
		{Name: "poi_hours", Text: sb.POI.Hours},
		{Name: "highlight_summary", Text: sb.Narrative.Summary},
	}
	if len(sb.POI.Tags) > 0 {
		mods = append(mods, Modification{Name: "poi_tags", Text: strings.Join(sb.POI.Tags, tagSeparator)})
	}

	assetIDs := make([]string, 0, len(sb.Segments))
	for i, seg := range sb.Segments {
		name := fmt.Sprintf("segment_%d", i+1)
		switch {
		case seg.AssetURL != "":
			mods = append(mods, Modification{Name: name + "_media", Src: seg.AssetURL})
		case seg.Frame != nil && seg.Frame.ImageURL != "":
			mods = append(mods, Modification{Name: name + "_media", Src: seg.Frame.ImageURL})
		}

		overlay := seg.Caption
		if overlay == "" {
			overlay = seg.ScriptContent
		}
		mods = append(mods, Modification{Name: name + "_overlay", Text: overlay})
		if seg.ScriptTitle != "" {
			mods = append(mods, Modification{Name: name + "_title", Text: seg.ScriptTitle})
		}
		assetIDs = append(assetIDs, seg.AssetID)
	}

	if cfg.DefaultMusicTrack != "" {
		mods = append(mods, Modification{Name: "soundtrack", Src: cfg.DefaultMusicTrack})
	}
	mods = append(mods,
		Modification{Name: "clip_duration_seconds", Text: formatSeconds(cfg.ClipDuration)},
		Modification{Name: "transition_ms", Text: strconv.Itoa(cfg.TransitionMS)},
	)

	metadata := map[string]any{
		"poi_id":       sb.POI.ID,
		"locale":       sb.POI.Locale,
		"asset_ids":    assetIDs,
		"brand_color":  cfg.BrandColor,
		"accent_color": cfg.AccentColor,
	}
	maps.Copy(metadata, cfg.Metadata)

	return Payload{
		TemplateID:    cfg.TemplateID,
		OutputFormat:  cfg.OutputFormat,
		Modifications: mods,
		Metadata:      metadata,
		WebhookURL:    cfg.WebhookURL,
	}
}

// formatSeconds always keeps a decimal point: 5 -> "5.0", 4.25 -> "4.25".
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// AccessibilitySummary describes which accessibility features a render carries.
type AccessibilitySummary struct {
	Captions            bool     `json:"captions"`
	Locales             []string `json:"locales"`
	SubtitleLocales     []string `json:"subtitle_locales"`
	VoiceLocales        []string `json:"voice_locales"`
	HasAudioDescription bool     `json:"has_audio_description"`
}

// Manifest is the machine-readable record of a render.
type Manifest struct {
	Provider      string                  `json:"provider"`
	POI           highlight.POI           `json:"poi"`
	Narrative     highlight.NarrativeView `json:"narrative"`
	Segments      []highlight.Segment     `json:"segments"`
	RenderPayload Payload                 `json:"render_payload"`
	Accessibility AccessibilitySummary    `json:"accessibility"`
	Provenance    map[string]any          `json:"provenance"`
}

// BuildManifest wraps the storyboard view, payload and accessibility summary.
func BuildManifest(sb *highlight.Storyboard, payload Payload) Manifest {
	view := sb.View()
	n := sb.Narrative

	subtitleLocales := n.NarrationLocales()
	voiceLocales := []string{}
	for _, l := range subtitleLocales {
		if n.Narrations[l].AudioURL != nil {
			voiceLocales = append(voiceLocales, l)
		}
	}

	return Manifest{
		Provider:      ProviderName,
		POI:           view.POI,
		Narrative:     view.Narrative,
		Segments:      view.Segments,
		RenderPayload: payload,
		Accessibility: AccessibilitySummary{
			Captions:            len(payload.Modifications) > 0,
			Locales:             []string{n.Language},
			SubtitleLocales:     subtitleLocales,
			VoiceLocales:        voiceLocales,
			HasAudioDescription: false,
		},
		Provenance: n.Provenance,
	}
}
