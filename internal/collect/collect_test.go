package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Felix Rooftop</title>
  <language>en</language>
  <item>
    <title>Sunset toast on the rooftop</title>
    <link>https://social.example/p/1</link>
    <guid>post-1</guid>
    <pubDate>Mon, 12 Oct 2026 18:00:00 +0000</pubDate>
    <category>Rooftop</category>
    <enclosure url="https://cdn.example/1.mp4" length="100" type="video/mp4"/>
    <media:community>
      <media:starRating count="42"/>
      <media:statistics views="900"/>
    </media:community>
  </item>
  <item>
    <title>Old post</title>
    <link>https://social.example/p/0</link>
    <guid>post-0</guid>
    <pubDate>Mon, 07 Sep 2026 18:00:00 +0000</pubDate>
  </item>
  <item>
    <description>&lt;b&gt;Live&lt;/b&gt; DJ set</description>
    <link>https://social.example/p/2</link>
  </item>
</channel>
</rss>`

func fixedNow() time.Time { return time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC) }

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedCollectorMapsItems(t *testing.T) {
	srv := feedServer(t)
	fc := NewFeedCollector([]FeedConfig{{URL: srv.URL + "/feed", Platform: "instagram"}}, 7, 2)
	fc.now = fixedNow

	assets, err := fc.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets within the window, got %d", len(assets))
	}

	a := assets[0]
	if a.ID != "instagram:post-1" || a.Source != "instagram" {
		t.Errorf("unexpected identity %q %q", a.ID, a.Source)
	}
	if a.URL != "https://cdn.example/1.mp4" {
		t.Errorf("expected enclosure url, got %q", a.URL)
	}
	if a.Caption != "Sunset toast on the rooftop" || a.Language != "en" {
		t.Errorf("unexpected caption/language %q %q", a.Caption, a.Language)
	}
	if a.Metrics.Views != 900 || a.Metrics.Likes != 42 {
		t.Errorf("unexpected metrics %+v", a.Metrics)
	}
	if !slices.Equal(a.Tags, []string{"rooftop"}) {
		t.Errorf("unexpected tags %v", a.Tags)
	}
	if a.Extra["permalink"] != "https://social.example/p/1" {
		t.Errorf("unexpected permalink %v", a.Extra["permalink"])
	}
	if score := a.TimestampScore(); score != 0.71 {
		t.Errorf("expected recency 0.71, got %v", score)
	}

	b := assets[1]
	if b.Caption != "Live DJ set" {
		t.Errorf("expected caption from description, got %q", b.Caption)
	}
	if b.ID != "instagram:https://social.example/p/2" || b.URL != "https://social.example/p/2" {
		t.Errorf("unexpected link fallback %q %q", b.ID, b.URL)
	}
	if b.TimestampScore() != 0 {
		t.Error("expected no timestamp score for undated item")
	}
}

func TestFeedCollectorSkipsFailingFeed(t *testing.T) {
	srv := feedServer(t)
	fc := NewFeedCollector([]FeedConfig{
		{URL: srv.URL + "/broken", Platform: "tiktok"},
		{URL: srv.URL + "/feed", Platform: "instagram"},
	}, 7, 2)
	fc.now = fixedNow

	assets, err := fc.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 2 {
		t.Errorf("expected assets from the working feed, got %d", len(assets))
	}
}

func TestParseFixtureArrayAndObject(t *testing.T) {
	arr := `[{"id":"a1","source":"tiktok","url":"https://cdn/a1.mp4","metrics":{"likes":5}}]`
	assets, err := ParseFixture([]byte(arr))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 1 || assets[0].Metrics.Likes != 5 {
		t.Errorf("unexpected assets %+v", assets)
	}

	obj := `{"assets":[{"id":"a1","source":"x","url":"u","extra":{"timestamp_score":0.5}}]}`
	assets, err = ParseFixture([]byte(obj))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assets[0].TimestampScore() != 0.5 {
		t.Errorf("expected extra to survive, got %v", assets[0].Extra)
	}
}

func TestParseFixtureRejectsMissingID(t *testing.T) {
	if _, err := ParseFixture([]byte(`[{"source":"x"}]`)); err == nil {
		t.Error("expected error for asset without id")
	}
	if _, err := ParseFixture([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed fixture")
	}
}

func TestCollectorDeduplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	data := `[{"id":"a1","source":"tiktok","url":"u1"},{"id":"a1","source":"tiktok","url":"u1"},{"id":"a2","source":"instagram","url":"u2"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewCollector(path, nil, 7, 1).Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TotalFound != 3 || len(r.Assets) != 2 || r.Duplicates != 1 {
		t.Errorf("unexpected result %+v", r)
	}
	if r.Sources["tiktok"] != 1 || r.Sources["instagram"] != 1 {
		t.Errorf("unexpected sources %v", r.Sources)
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing fixture")
	}
}

func TestExtractSourceName(t *testing.T) {
	if got := extractSourceName("https://www.instagram.com/felix/rss"); got != "Instagram" {
		t.Errorf("got %q", got)
	}
	if got := extractSourceName("https://rss.tiktok.com/@felix"); got != "Tiktok" {
		t.Errorf("got %q", got)
	}
}
