// Package filter gates assets on moderation and engagement and ranks the survivors.
package filter

import (
	"slices"
	"sort"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

// Reasons recorded on filter decisions.
const (
	ReasonFlagged            = "asset_marked_flagged"
	ReasonModerationBlocked  = "moderation_blocked"
	ReasonLocaleNotSupported = "locale_not_supported"
	ReasonLowEngagement      = "engagement_below_threshold"
	ReasonEligible           = "eligible"
)

const (
	engagementWeight = 0.7
	timestampWeight  = 0.3
)

// Apply evaluates every asset against rules. It returns the survivors in input
// order and exactly one decision per asset.
func Apply(assets []highlight.Asset, rules highlight.FilterRules) ([]highlight.Asset, []highlight.FilterDecision) {
	banned := make(map[string]bool, len(rules.BannedLabels))
	for _, l := range rules.BannedLabels {
		banned[strings.ToLower(l)] = true
	}

	var survivors []highlight.Asset
	decisions := make([]highlight.FilterDecision, 0, len(assets))
	for _, a := range assets {
		d := evaluate(a, rules, banned)
		decisions = append(decisions, d)
		if d.Passed {
			survivors = append(survivors, a)
		}
	}
	return survivors, decisions
}

func evaluate(a highlight.Asset, rules highlight.FilterRules, banned map[string]bool) highlight.FilterDecision {
	engagement := float64(a.Metrics.Engagement())
	decision := func(passed bool, reason string, score float64) highlight.FilterDecision {
		return highlight.FilterDecision{AssetID: a.ID, Passed: passed, Reasons: []string{reason}, Score: score}
	}

	if a.IsFlagged {
		return decision(false, ReasonFlagged, 0)
	}
	for _, l := range a.ModerationLabels {
		if banned[strings.ToLower(l)] {
			return decision(false, ReasonModerationBlocked, 0)
		}
	}
	// Assets without a language are not subject to the whitelist.
	if len(rules.LocaleWhitelist) > 0 && a.Language != "" && !slices.Contains(rules.LocaleWhitelist, a.Language) {
		return decision(false, ReasonLocaleNotSupported, engagement)
	}
	if a.Metrics.Engagement() < rules.MinEngagement {
		return decision(false, ReasonLowEngagement, engagement)
	}
	return decision(true, ReasonEligible, engagement)
}

// Score is the ranking score of an asset.
func Score(a highlight.Asset) float64 {
	return engagementWeight*float64(a.Metrics.Engagement()) + timestampWeight*a.TimestampScore()
}

// Rank returns a copy of assets sorted by descending score. Equal scores keep
// their input order.
func Rank(assets []highlight.Asset) []highlight.Asset {
	ranked := slices.Clone(assets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i]) > Score(ranked[j])
	})
	return ranked
}
