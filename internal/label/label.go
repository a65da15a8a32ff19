// Package label assigns scene labels to assets from caption and tag heuristics.
package label

import (
	"regexp"
	"sort"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

// DefaultLabel is used when nothing else matches.
const DefaultLabel = "general"

// thematic patterns are tried in order against the caption when no keyword matched.
var thematic = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"celebration", regexp.MustCompile(`(?i)celebrat|cheer|party`)},
	{"food-and-drink", regexp.MustCompile(`(?i)tapa|brunch|cocktail|wine`)},
	{"transit", regexp.MustCompile(`(?i)metro|train|ferry|path`)},
}

// DefaultKeywords is the label → keyword map used when none is configured.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		"celebration":    {"celebrat", "fans", "party"},
		"food-and-drink": {"tapa", "brunch", "cocktail", "wine"},
		"transit":        {"metro", "train", "ferry", "path"},
	}
}

// Labeler assigns labels to a single asset.
type Labeler interface {
	Label(asset highlight.Asset) []string
}

// KeywordLabeler matches keywords against the caption (substring) and tags
// (exact, case-insensitive).
type KeywordLabeler struct {
	Keywords     map[string][]string
	DefaultLabel string
}

// NewKeywordLabeler creates a labeler. A nil map uses DefaultKeywords.
func NewKeywordLabeler(keywords map[string][]string, defaultLabel string) *KeywordLabeler {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	if defaultLabel == "" {
		defaultLabel = DefaultLabel
	}
	return &KeywordLabeler{Keywords: keywords, DefaultLabel: defaultLabel}
}

// Label returns the sorted, deduplicated keyword labels, or a single thematic
// or default label when no keyword matches.
func (k *KeywordLabeler) Label(asset highlight.Asset) []string {
	caption := strings.ToLower(asset.Caption)
	tags := make(map[string]bool, len(asset.Tags))
	for _, t := range asset.Tags {
		tags[strings.ToLower(t)] = true
	}

	var labels []string
	for label, keywords := range k.Keywords {
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			if strings.Contains(caption, kw) || tags[kw] {
				labels = append(labels, label)
				break
			}
		}
	}
	if len(labels) > 0 {
		sort.Strings(labels)
		return labels
	}

	if caption != "" {
		for _, th := range thematic {
			if th.pattern.MatchString(caption) {
				return []string{th.label}
			}
		}
	}
	return []string{k.DefaultLabel}
}

// ApplyLabels sets Scenes on every asset in place and returns the slice.
func ApplyLabels(assets []highlight.Asset, l Labeler) []highlight.Asset {
	for i := range assets {
		assets[i].Scenes = l.Label(assets[i])
	}
	return assets
}
