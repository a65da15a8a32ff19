package collect

import (
	"context"
	"log"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

const maxPerFeed = 20

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL      string
	Name     string
	Platform string
}

// FeedCollector turns RSS/Atom feeds of social accounts into assets.
type FeedCollector struct {
	feeds       []FeedConfig
	daysBack    int
	concurrency int
	now         func() time.Time
}

// NewFeedCollector creates a collector. concurrency below 1 fetches one feed at a time.
func NewFeedCollector(feeds []FeedConfig, daysBack, concurrency int) *FeedCollector {
	if daysBack <= 0 {
		daysBack = 7
	}
	return &FeedCollector{feeds: feeds, daysBack: daysBack, concurrency: max(concurrency, 1), now: time.Now}
}

// Collect fetches every feed in parallel. A failing feed is logged and skipped;
// the result keeps the configured feed order.
func (fc *FeedCollector) Collect(ctx context.Context) ([]highlight.Asset, error) {
	cutoff := fc.now().AddDate(0, 0, -fc.daysBack)
	perFeed := make([][]highlight.Asset, len(fc.feeds))

	var mu sync.Mutex
	failed := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fc.concurrency)
	for i, f := range fc.feeds {
		g.Go(func() error {
			platform := f.Platform
			if platform == "" {
				platform = strings.ToLower(extractSourceName(f.URL))
			}
			assets, err := fc.parseFeed(gctx, f.URL, platform, cutoff)
			if err != nil {
				log.Printf("Failed to parse feed %s: %v", f.URL, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			name := f.Name
			if name == "" {
				name = extractSourceName(f.URL)
			}
			log.Printf("Parsed %d assets from %s (within %d days)", len(assets), name, fc.daysBack)
			perFeed[i] = assets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []highlight.Asset
	for _, assets := range perFeed {
		all = append(all, assets...)
	}
	if failed > 0 {
		log.Printf("%d of %d feeds failed", failed, len(fc.feeds))
	}
	return all, nil
}

func (fc *FeedCollector) parseFeed(ctx context.Context, feedURL, platform string, cutoff time.Time) ([]highlight.Asset, error) {
	feed, err := gofeed.NewParser().ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var assets []highlight.Asset
	for _, item := range feed.Items {
		if len(assets) >= maxPerFeed {
			break
		}
		a := fc.parseItem(item, platform, feed.Language, cutoff)
		if a != nil {
			assets = append(assets, *a)
		}
	}
	return assets, nil
}

// parseItem maps a feed item to an asset, or nil when it has no link or is
// older than cutoff. Undated items are kept.
func (fc *FeedCollector) parseItem(item *gofeed.Item, platform, language string, cutoff time.Time) *highlight.Asset {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	if link == "" {
		return nil
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published != nil && published.Before(cutoff) {
		return nil
	}

	id := item.GUID
	if id == "" {
		id = link
	}

	mediaURL := link
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && (strings.HasPrefix(enc.Type, "video/") || strings.HasPrefix(enc.Type, "image/")) {
			mediaURL = enc.URL
			break
		}
	}

	caption := strings.TrimSpace(item.Title)
	if caption == "" {
		caption = stripHTML(item.Description)
	}

	extra := map[string]any{"permalink": link}
	if published != nil {
		extra["published"] = published.Format("2006-01-02")
		extra["timestamp_score"] = fc.recency(*published)
	}

	return &highlight.Asset{
		ID:       platform + ":" + id,
		Source:   platform,
		URL:      mediaURL,
		Caption:  caption,
		Language: language,
		Metrics:  mediaMetrics(item),
		Tags:     lowerAll(item.Categories),
		Extra:    extra,
	}
}

// recency is 1 for a post published now, falling linearly to 0 at the window edge.
func (fc *FeedCollector) recency(published time.Time) float64 {
	age := fc.now().Sub(published).Hours() / 24
	score := 1 - age/float64(fc.daysBack)
	return math.Round(math.Max(0, math.Min(1, score))*100) / 100
}

// mediaMetrics reads Media RSS community statistics when the feed carries them.
func mediaMetrics(item *gofeed.Item) highlight.Metrics {
	var m highlight.Metrics
	media, ok := item.Extensions["media"]
	if !ok {
		return m
	}
	communities := media["community"]
	for _, g := range media["group"] {
		communities = append(communities, g.Children["community"]...)
	}
	for _, c := range communities {
		for _, s := range c.Children["statistics"] {
			m.Views = atoi(s.Attrs["views"])
		}
		for _, r := range c.Children["starRating"] {
			m.Likes = atoi(r.Attrs["count"])
		}
	}
	return m
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	return strings.Join(strings.Fields(s), " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "rss.", "feeds.", "m."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
