package storyboard

import (
	"encoding/json"
	"testing"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

func narrative() *highlight.Narrative {
	n := highlight.NewNarrative()
	n.AssetIDs = []string{"a", "missing", "c"}
	n.Frames = []highlight.Frame{
		{ImageURL: "https://cdn/a.jpg", Caption: "Frame A"},
		{ImageURL: "https://cdn/m.jpg", Caption: "Frame M"},
		{ImageURL: "https://cdn/c.jpg"},
	}
	n.Rationale = []string{"r0", "r1", "r2"}
	n.Script = &highlight.Script{Beats: []highlight.ScriptBeat{
		{ID: "beat-1", Title: "T0", Content: "C0"},
		{ID: "beat-2", Title: "T1", Content: "C1"},
		{ID: "beat-3", Title: "T2", Content: "C2"},
	}}
	n.Summary = "summary"
	n.Language = "en"
	return n
}

func assets() []highlight.Asset {
	return []highlight.Asset{
		{ID: "c", URL: "https://cdn/c.mp4", Source: "tiktok", Caption: "Asset C", Tags: []string{"rooftop"}, Metrics: highlight.Metrics{Views: 9, Likes: 3, Comments: 2, Shares: 1}},
		{ID: "a", URL: "https://cdn/a.mp4", Source: "instagram", Caption: "Asset A"},
	}
}

func TestBuildKeepsNarrativeIndexAlignment(t *testing.T) {
	sb := Build(narrative(), assets(), highlight.POI{ID: "felix", Name: "Felix Rooftop"}, 5)
	if len(sb.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(sb.Segments))
	}
	second := sb.Segments[1]
	if second.AssetID != "c" {
		t.Fatalf("expected asset c second, got %s", second.AssetID)
	}
	if second.Rationale != "r2" || second.ScriptTitle != "T2" || second.ScriptContent != "C2" {
		t.Errorf("expected index-2 narrative fields, got %+v", second)
	}
	if second.Frame == nil || second.Frame.ImageURL != "https://cdn/c.jpg" {
		t.Errorf("expected frame for index 2, got %+v", second.Frame)
	}
}

func TestBuildCaptionPrefersFrame(t *testing.T) {
	sb := Build(narrative(), assets(), highlight.POI{}, 5)
	if sb.Segments[0].Caption != "Frame A" {
		t.Errorf("expected frame caption, got %q", sb.Segments[0].Caption)
	}
	if sb.Segments[1].Caption != "Asset C" {
		t.Errorf("expected asset caption when frame has none, got %q", sb.Segments[1].Caption)
	}
}

func TestBuildSegmentFields(t *testing.T) {
	sb := Build(narrative(), assets(), highlight.POI{}, 4.5)
	seg := sb.Segments[1]
	if seg.Duration != 4.5 {
		t.Errorf("expected duration 4.5, got %v", seg.Duration)
	}
	if seg.Metrics.Engagement != 6 || seg.Metrics.Views != 9 {
		t.Errorf("unexpected metrics %+v", seg.Metrics)
	}
	if seg.Subtitles == nil {
		t.Error("expected initialized subtitles")
	}
	if sb.POI.Locale != "en" {
		t.Errorf("expected default poi locale, got %q", sb.POI.Locale)
	}
}

func TestBuildFrameIsSharedWithNarrative(t *testing.T) {
	n := narrative()
	sb := Build(n, assets(), highlight.POI{}, 5)
	sb.Segments[0].Frame.Subtitles = map[string]string{"es": "hola"}
	if n.Frames[0].Subtitles["es"] != "hola" {
		t.Error("expected segment frame to point into the narrative")
	}
}

func TestBuildWithoutScript(t *testing.T) {
	n := narrative()
	n.Script = nil
	sb := Build(n, assets(), highlight.POI{}, 5)
	if sb.Segments[0].ScriptTitle != "" {
		t.Errorf("expected no script title, got %q", sb.Segments[0].ScriptTitle)
	}
}

func TestViewSerializes(t *testing.T) {
	n := narrative()
	n.Dialogue["fr"] = highlight.Dialogue{Locale: "fr"}
	n.Dialogue["en"] = highlight.Dialogue{Locale: "en"}
	sb := Build(n, assets(), highlight.POI{ID: "felix"}, 5)
	v := sb.View()
	if len(v.Narrative.DialogueLocales) != 2 || v.Narrative.DialogueLocales[0] != "en" {
		t.Errorf("unexpected dialogue locales %v", v.Narrative.DialogueLocales)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	json.Unmarshal(data, &back)
	if back["segments"].([]any)[0].(map[string]any)["asset_id"] != "a" {
		t.Errorf("unexpected view %s", data)
	}
}
