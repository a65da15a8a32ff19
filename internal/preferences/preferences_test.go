package preferences

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/TobiSchelling/HighlightReel/internal/remote"
)

func TestDetectLanguageAndAccessibility(t *testing.T) {
	var p Profile
	raw := `{
		"settings": {"preferred_locale": "en-US"},
		"signals": [
			{"type": "locale_hint", "value": "es-MX"},
			{"type": "note", "value": "Needs captions when traveling"}
		],
		"conversation_history": [
			{"role": "user", "content": "¡Hola! Prefiero español y necesito subtítulos."},
			{"role": "assistant", "content": "Noted. Will add captions."}
		]
	}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}

	r := Detect(context.Background(), p)
	if r.PrimaryLocale != "es" {
		t.Errorf("expected es primary, got %q", r.PrimaryLocale)
	}
	if !slices.Contains(r.SecondaryLocales, "en") {
		t.Errorf("expected en among secondary locales, got %v", r.SecondaryLocales)
	}
	if !r.NeedsCaptions {
		t.Error("expected captions need")
	}
	if r.NeedsHaptics || r.NeedsReducedMotion {
		t.Errorf("unexpected needs %+v", r)
	}
	if len(r.Notes) != 1 || r.Notes[0] != "Prefers captions/subtitles based on conversation cues." {
		t.Errorf("unexpected notes %v", r.Notes)
	}
}

func TestDetectDefaultsToEnglish(t *testing.T) {
	var p Profile
	if err := json.Unmarshal([]byte(`{"conversation_history": ["Just browsing"]}`), &p); err != nil {
		t.Fatal(err)
	}
	r := Detect(context.Background(), p)
	if r.PrimaryLocale != "en" || len(r.SecondaryLocales) != 0 {
		t.Errorf("expected en only, got %q %v", r.PrimaryLocale, r.SecondaryLocales)
	}
}

func TestDetectFrenchKeywords(t *testing.T) {
	p := Profile{ConversationHistory: []Message{{Content: "Bonjour, merci! Vibration alerts please"}}}
	r := Detect(context.Background(), p)
	if r.PrimaryLocale != "fr" {
		t.Errorf("expected fr, got %q", r.PrimaryLocale)
	}
	if !slices.Equal(r.SecondaryLocales, []string{"en"}) {
		t.Errorf("expected en secondary, got %v", r.SecondaryLocales)
	}
	if !r.NeedsHaptics {
		t.Error("expected haptics need")
	}
}

func TestDetectAccentedSpanish(t *testing.T) {
	for _, text := range []string{"todo está bien", "¿cómo estás?", "Está listo"} {
		r := Detect(context.Background(), Profile{Settings: map[string]any{"bio": text}})
		if r.PrimaryLocale != "es" {
			t.Errorf("%q: expected es, got %q", text, r.PrimaryLocale)
		}
	}
	r := Detect(context.Background(), Profile{Settings: map[string]any{"bio": "establish the estate"}})
	if r.PrimaryLocale != "en" {
		t.Errorf("expected en for english words sharing a prefix, got %q", r.PrimaryLocale)
	}
}

func TestDetectorUsesService(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"primary_locale":    "fr",
			"secondary_locales": []string{"en"},
			"needs_captions":    "yes",
			"needs_haptics":     true,
			"notes":             "service synthesis",
		})
	}))
	defer srv.Close()

	d, err := New(remote.Settings{Provider: "auto", Endpoint: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	r := d.Detect(context.Background(), Profile{ConversationHistory: []Message{{Content: "Bonjour"}}})
	if _, ok := got["profile"]; !ok {
		t.Error("expected profile in request body")
	}
	if r.PrimaryLocale != "fr" || !slices.Equal(r.SecondaryLocales, []string{"en"}) {
		t.Errorf("unexpected locales %q %v", r.PrimaryLocale, r.SecondaryLocales)
	}
	if !r.NeedsCaptions || !r.NeedsHaptics || r.NeedsAudioDescription {
		t.Errorf("unexpected needs %+v", r)
	}
	if !slices.Equal(r.Notes, []string{"service synthesis"}) {
		t.Errorf("unexpected notes %v", r.Notes)
	}
}

func TestDetectorFallsBackOnServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	d, err := New(remote.Settings{Provider: "gpt", Endpoint: srv.URL, APIKey: "k", MaxAttempts: 1})
	if err != nil {
		t.Fatal(err)
	}
	r := d.Detect(context.Background(), Profile{PreferredLocale: "fr-CA"})
	if r.PrimaryLocale != "fr" {
		t.Errorf("expected heuristic fr, got %q", r.PrimaryLocale)
	}
}

func TestResultLocales(t *testing.T) {
	r := Result{PrimaryLocale: "es", SecondaryLocales: []string{"en"}}
	if !slices.Equal(r.Locales(), []string{"es", "en"}) {
		t.Errorf("got %v", r.Locales())
	}
}
