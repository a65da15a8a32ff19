package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

// Result holds the results of a collection run.
type Result struct {
	Assets     []highlight.Asset
	TotalFound int
	Duplicates int
	Sources    map[string]int
}

// Collector gathers assets from a fixture file and social feeds.
type Collector struct {
	fixturePath string
	feeds       *FeedCollector
}

// NewCollector creates a collector. Either source may be empty.
func NewCollector(fixturePath string, feeds []FeedConfig, daysBack, concurrency int) *Collector {
	c := &Collector{fixturePath: fixturePath}
	if len(feeds) > 0 {
		c.feeds = NewFeedCollector(feeds, daysBack, concurrency)
	}
	return c
}

// Collect loads the fixture first, then the feeds. Assets are deduplicated
// by ID, keeping the first occurrence.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	r := &Result{Sources: make(map[string]int)}
	seen := make(map[string]bool)
	add := func(assets []highlight.Asset) {
		r.TotalFound += len(assets)
		for _, a := range assets {
			if seen[a.ID] {
				r.Duplicates++
				continue
			}
			seen[a.ID] = true
			r.Assets = append(r.Assets, a)
			r.Sources[a.Source]++
		}
	}

	if c.fixturePath != "" {
		log.Printf("Loading assets from %s...", c.fixturePath)
		assets, err := LoadFixture(c.fixturePath)
		if err != nil {
			return nil, err
		}
		add(assets)
	}

	if c.feeds != nil {
		log.Println("Collecting from social feeds...")
		assets, err := c.feeds.Collect(ctx)
		if err != nil {
			return nil, err
		}
		add(assets)
	}

	log.Printf("Collection complete: %d found, %d kept, %d duplicates", r.TotalFound, len(r.Assets), r.Duplicates)
	return r, nil
}

// LoadFixture reads assets from a JSON file holding either an array of assets
// or an object with an "assets" array.
func LoadFixture(path string) ([]highlight.Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture bytes. Assets without an ID are rejected.
func ParseFixture(data []byte) ([]highlight.Asset, error) {
	var assets []highlight.Asset
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		if err := json.Unmarshal(data, &assets); err != nil {
			return nil, fmt.Errorf("parsing fixture: %w", err)
		}
	} else {
		var wrapped struct {
			Assets []highlight.Asset `json:"assets"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing fixture: %w", err)
		}
		assets = wrapped.Assets
	}

	for i, a := range assets {
		if strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("parsing fixture: asset %d has no id", i)
		}
	}
	return assets, nil
}
