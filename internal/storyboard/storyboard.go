// Package storyboard maps a composed narrative onto renderable segments.
package storyboard

import "github.com/TobiSchelling/HighlightReel/internal/highlight"

// Build creates one segment per narrative asset id that resolves in assets.
// Unresolved ids are skipped without renumbering: the segment built for
// narrative index i always reads frame, beat and rationale i.
func Build(n *highlight.Narrative, assets []highlight.Asset, poi highlight.POI, clipDuration float64) *highlight.Storyboard {
	byID := make(map[string]*highlight.Asset, len(assets))
	for i := range assets {
		byID[assets[i].ID] = &assets[i]
	}
	beats := n.Beats()
	if poi.Locale == "" {
		poi.Locale = highlight.DefaultLocale
	}

	sb := &highlight.Storyboard{POI: poi, Narrative: n, Segments: []highlight.Segment{}}
	for i, id := range n.AssetIDs {
		a, ok := byID[id]
		if !ok {
			continue
		}

		seg := highlight.Segment{
			AssetID:  a.ID,
			AssetURL: a.URL,
			Source:   a.Source,
			Tags:     append([]string{}, a.Tags...),
			Duration: clipDuration,
			Caption:  a.Caption,
			Metrics: highlight.SegmentMetrics{
				Views:      a.Metrics.Views,
				Likes:      a.Metrics.Likes,
				Comments:   a.Metrics.Comments,
				Shares:     a.Metrics.Shares,
				Engagement: a.Metrics.Engagement(),
			},
			Subtitles: make(map[string]string),
		}
		if i < len(n.Frames) {
			seg.Frame = &n.Frames[i]
			if seg.Frame.Caption != "" {
				seg.Caption = seg.Frame.Caption
			}
		}
		if i < len(beats) {
			seg.ScriptTitle = beats[i].Title
			seg.ScriptContent = beats[i].Content
		}
		if i < len(n.Rationale) {
			seg.Rationale = n.Rationale[i]
		}
		sb.Segments = append(sb.Segments, seg)
	}
	return sb
}
