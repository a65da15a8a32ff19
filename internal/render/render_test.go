package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

func strPtr(s string) *string { return &s }

func twoSegmentStoryboard() *highlight.Storyboard {
	n := highlight.NewNarrative()
	n.Summary = "Sunset toasts over the river"
	n.Language = "en"
	n.Provenance["summarizer"] = "static"
	frame := highlight.Frame{ImageURL: "https://cdn/b.jpg"}
	return &highlight.Storyboard{
		POI:       highlight.POI{ID: "felix", Name: "Felix Rooftop", Locale: "en", Distance: "0.4 mi", Tags: []string{"rooftop", "cocktails"}},
		Narrative: n,
		Segments: []highlight.Segment{
			{AssetID: "a", AssetURL: "https://cdn/a.mp4", Caption: "Toast", ScriptTitle: "Arrival"},
			{AssetID: "b", Frame: &frame, ScriptContent: "Skyline glow"},
		},
	}
}

func TestBuildPayloadOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TemplateID = "tmpl-1"
	cfg.DefaultMusicTrack = "https://cdn/track.mp3"
	p := BuildPayload(twoSegmentStoryboard(), cfg)

	want := []string{
		"poi_name", "poi_distance", "poi_hours", "highlight_summary", "poi_tags",
		"segment_1_media", "segment_1_overlay", "segment_1_title",
		"segment_2_media", "segment_2_overlay",
		"soundtrack", "clip_duration_seconds", "transition_ms",
	}
	if got := p.Names(); !slices.Equal(got, want) {
		t.Errorf("unexpected order:\n got %v\nwant %v", got, want)
	}
}

func TestBuildPayloadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metadata = map[string]any{"campaign": "summer", "locale": "override"}
	cfg.WebhookURL = "https://hooks/render"
	p := BuildPayload(twoSegmentStoryboard(), cfg)

	byName := make(map[string]Modification)
	for _, m := range p.Modifications {
		byName[m.Name] = m
	}
	if byName["poi_tags"].Text != "rooftop · cocktails" {
		t.Errorf("unexpected tags %q", byName["poi_tags"].Text)
	}
	if byName["poi_hours"].Text != "" {
		t.Errorf("expected empty hours, got %q", byName["poi_hours"].Text)
	}
	if byName["segment_2_media"].Src != "https://cdn/b.jpg" {
		t.Errorf("expected frame image fallback, got %q", byName["segment_2_media"].Src)
	}
	if byName["segment_2_overlay"].Text != "Skyline glow" {
		t.Errorf("expected script content overlay, got %q", byName["segment_2_overlay"].Text)
	}
	if byName["clip_duration_seconds"].Text != "5.0" || byName["transition_ms"].Text != "500" {
		t.Errorf("unexpected timing %q %q", byName["clip_duration_seconds"].Text, byName["transition_ms"].Text)
	}
	if _, ok := byName["soundtrack"]; ok {
		t.Error("expected no soundtrack without a track")
	}
	if p.Metadata["poi_id"] != "felix" || p.Metadata["campaign"] != "summer" || p.Metadata["locale"] != "override" {
		t.Errorf("unexpected metadata %v", p.Metadata)
	}
	if !slices.Equal(p.Metadata["asset_ids"].([]string), []string{"a", "b"}) {
		t.Errorf("unexpected asset ids %v", p.Metadata["asset_ids"])
	}
	if p.WebhookURL != "https://hooks/render" || p.OutputFormat != "mp4" {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestModificationJSON(t *testing.T) {
	data, _ := json.Marshal([]Modification{{Name: "m", Src: "s"}, {Name: "t"}})
	if string(data) != `[{"name":"m","src":"s"},{"name":"t","text":""}]` {
		t.Errorf("unexpected json %s", data)
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{5: "5.0", 4.5: "4.5", 0: "0.0", 12.25: "12.25"}
	for in, want := range cases {
		if got := formatSeconds(in); got != want {
			t.Errorf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildManifest(t *testing.T) {
	sb := twoSegmentStoryboard()
	sb.Narrative.Narrations["es"] = highlight.LocaleNarration{Locale: "es", AudioURL: strPtr("https://a/es.mp3")}
	sb.Narrative.Narrations["fr"] = highlight.LocaleNarration{Locale: "fr"}
	p := BuildPayload(sb, DefaultConfig())
	m := BuildManifest(sb, p)

	if m.Provider != ProviderName {
		t.Errorf("unexpected provider %q", m.Provider)
	}
	if !slices.Equal(m.Accessibility.SubtitleLocales, []string{"es", "fr"}) {
		t.Errorf("unexpected subtitle locales %v", m.Accessibility.SubtitleLocales)
	}
	if !slices.Equal(m.Accessibility.VoiceLocales, []string{"es"}) {
		t.Errorf("unexpected voice locales %v", m.Accessibility.VoiceLocales)
	}
	if !m.Accessibility.Captions || m.Accessibility.HasAudioDescription {
		t.Errorf("unexpected accessibility %+v", m.Accessibility)
	}
	if m.Provenance["summarizer"] != "static" || len(m.Segments) != 2 {
		t.Errorf("unexpected manifest %+v", m)
	}
}

func TestRenderDryRun(t *testing.T) {
	c := NewClient("", "", 0, 1)
	resp, err := c.Render(context.Background(), Payload{TemplateID: "x"}, false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if resp["status"] != "skipped" || resp["reason"] != "dry_run" {
		t.Errorf("unexpected dry run %v", resp)
	}
}

func TestRenderRequiresKey(t *testing.T) {
	_, err := NewClient("", "", 0, 1).Render(context.Background(), Payload{}, true)
	var re *RenderError
	if !errors.As(err, &re) {
		t.Errorf("expected RenderError, got %v", err)
	}
}

func TestRenderPostsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/renders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected auth %q", r.Header.Get("Authorization"))
		}
		var p Payload
		json.NewDecoder(r.Body).Decode(&p)
		if p.TemplateID != "tmpl" || len(p.Modifications) != 1 || p.Modifications[0].Src != "s" {
			t.Errorf("unexpected payload %+v", p)
		}
		w.Write([]byte(`[{"id":"r-1","status":"planned","url":"https://cdn/r-1.mp4"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v2/", " key ", time.Second, 1)
	resp, err := c.Render(context.Background(), Payload{TemplateID: "tmpl", Modifications: []Modification{{Name: "m", Src: "s"}}}, true)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if resp["id"] != "r-1" {
		t.Errorf("expected first array entry, got %v", resp)
	}
}

func TestRenderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad template"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key", time.Second, 1).Render(context.Background(), Payload{}, true)
	var re *RenderError
	if !errors.As(err, &re) || re.Status != http.StatusBadRequest {
		t.Errorf("expected RenderError with status 400, got %v", err)
	}
}
