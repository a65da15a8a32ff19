package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/script"
)

type mockSummarizer struct {
	response string
	err      error
	captions []string
	locale   string
}

func (m *mockSummarizer) Summarize(_ context.Context, captions []string, locale string) (string, error) {
	m.captions = captions
	m.locale = locale
	return m.response, m.err
}

func (m *mockSummarizer) Name() string { return "mock" }

type mockScript struct {
	err    error
	assets int
}

func (m *mockScript) Generate(_ context.Context, assets []highlight.Asset, locale string) (*highlight.Script, error) {
	m.assets = len(assets)
	if m.err != nil {
		return nil, m.err
	}
	return &highlight.Script{
		Beats:      []highlight.ScriptBeat{{ID: "beat-1", Title: "Only", Content: "c"}},
		Locale:     locale,
		Provenance: map[string]any{"generator": "mock"},
	}, nil
}

func (m *mockScript) Name() string { return "mock" }

func testAssets(n int) []highlight.Asset {
	var out []highlight.Asset
	for i := 0; i < n; i++ {
		out = append(out, highlight.Asset{
			ID:       string(rune('a' + i)),
			Source:   "instagram",
			URL:      "https://cdn.example/" + string(rune('a'+i)) + ".jpg",
			Caption:  "Caption " + string(rune('A'+i)),
			Language: "es",
			Metrics:  highlight.Metrics{Likes: 10 * (i + 1), Comments: 1, Shares: 1},
			Scenes:   []string{"celebration"},
		})
	}
	return out
}

func TestComposeNoAssets(t *testing.T) {
	_, err := NewComposer(nil, nil, nil).Compose(context.Background(), nil, Config{})
	if !errors.Is(err, highlight.ErrNoAssets) {
		t.Errorf("expected ErrNoAssets, got %v", err)
	}
}

func TestComposeSingleAsset(t *testing.T) {
	n, err := NewComposer(nil, nil, nil).Compose(context.Background(), testAssets(1), Config{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(n.Frames) != 1 || len(n.AssetIDs) != 1 || len(n.Rationale) != 1 {
		t.Fatalf("expected aligned lengths of 1, got %d/%d/%d", len(n.Frames), len(n.AssetIDs), len(n.Rationale))
	}
	if len(n.Beats()) != len(script.DefaultBeats) {
		t.Errorf("expected %d beats, got %d", len(script.DefaultBeats), len(n.Beats()))
	}
	if n.Language != "es" {
		t.Errorf("expected language es, got %q", n.Language)
	}
	if len(n.Dialogue) != 3 {
		t.Errorf("expected dialogue for 3 locales, got %d", len(n.Dialogue))
	}
	if n.Provenance["summarizer"] != "static" || n.Provenance["script_generator"] != "static" {
		t.Errorf("unexpected provenance %v", n.Provenance)
	}
}

func TestComposeSamplesButSummarizesAll(t *testing.T) {
	sum := &mockSummarizer{response: "All good."}
	gen := &mockScript{}
	n, err := NewComposer(sum, gen, nil).Compose(context.Background(), testAssets(5), Config{FrameSampleSize: 2})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(n.Frames) != 2 || gen.assets != 2 {
		t.Errorf("expected a sample of 2, got frames=%d script=%d", len(n.Frames), gen.assets)
	}
	if len(sum.captions) != 5 || sum.locale != "es" {
		t.Errorf("expected all 5 captions in locale es, got %d %q", len(sum.captions), sum.locale)
	}
	if n.Summary != "All good." {
		t.Errorf("unexpected summary %q", n.Summary)
	}
}

func TestComposeRationaleTemplate(t *testing.T) {
	a := testAssets(1)[0]
	a.Caption = strings.Repeat("x", 100)
	a.Source = "tiktok"
	n, _ := NewComposer(nil, nil, nil).Compose(context.Background(), []highlight.Asset{a}, Config{})
	want := "Tiktok celebration (12 engagements) featuring " + strings.Repeat("x", 80)
	if n.Rationale[0] != want {
		t.Errorf("expected %q, got %q", want, n.Rationale[0])
	}

	a.Caption = ""
	a.Scenes = nil
	n, _ = NewComposer(nil, nil, nil).Compose(context.Background(), []highlight.Asset{a}, Config{})
	if n.Rationale[0] != "Tiktok highlight (12 engagements) featuring community moment" {
		t.Errorf("unexpected rationale %q", n.Rationale[0])
	}
	if n.Frames[0].Caption != "" {
		t.Errorf("expected empty frame caption, got %q", n.Frames[0].Caption)
	}
}

func TestComposeSummaryFallback(t *testing.T) {
	for _, sum := range []*mockSummarizer{{response: ""}, {err: errors.New("down")}} {
		n, err := NewComposer(sum, nil, nil).Compose(context.Background(), testAssets(2), Config{})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		want := "Highlight spotlight: Caption A is trending with 34 combined engagements across 2 assets."
		if n.Summary != want {
			t.Errorf("expected %q, got %q", want, n.Summary)
		}
		if n.Provenance["summary"] != "template" {
			t.Errorf("expected template summary provenance, got %v", n.Provenance["summary"])
		}
	}
}

func TestComposeScriptErrorPropagates(t *testing.T) {
	_, err := NewComposer(nil, &mockScript{err: highlight.ErrNoBeats}, nil).Compose(context.Background(), testAssets(1), Config{})
	if !errors.Is(err, highlight.ErrNoBeats) {
		t.Errorf("expected ErrNoBeats, got %v", err)
	}
}

func TestComposeDefaultLanguage(t *testing.T) {
	a := testAssets(1)
	a[0].Language = ""
	n, _ := NewComposer(nil, nil, nil).Compose(context.Background(), a, Config{})
	if n.Language != "en" {
		t.Errorf("expected en, got %q", n.Language)
	}
}
