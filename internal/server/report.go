package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/render"
)

// Report renders a stored manifest as a markdown document.
func Report(manifest []byte) (string, error) {
	var m render.Manifest
	if err := json.Unmarshal(manifest, &m); err != nil {
		return "", fmt.Errorf("decoding manifest: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", orDash(m.POI.Name))
	if m.Narrative.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", m.Narrative.Summary)
	}

	if len(m.Narrative.Rationale) > 0 {
		b.WriteString("### Why these moments\n\n")
		for _, r := range m.Narrative.Rationale {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	if beats := scriptBeats(m); len(beats) > 0 {
		b.WriteString("### Script\n\n")
		for i, beat := range beats {
			fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, beat[0], beat[1])
		}
		b.WriteString("\n")
	}

	if len(m.Segments) > 0 {
		b.WriteString("### Segments\n\n")
		b.WriteString("| Asset | Source | Duration | Engagement | Caption |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, s := range m.Segments {
			fmt.Fprintf(&b, "| %s | %s | %.1fs | %d | %s |\n",
				s.AssetID, orDash(s.Source), s.Duration, s.Metrics.Engagement, cell(s.Caption))
		}
		b.WriteString("\n")
	}

	a := m.Accessibility
	b.WriteString("### Accessibility\n\n")
	fmt.Fprintf(&b, "- Subtitles: %s\n", joinOrDash(a.SubtitleLocales))
	fmt.Fprintf(&b, "- Voice-over: %s\n", joinOrDash(a.VoiceLocales))
	fmt.Fprintf(&b, "- Captions: %t\n", a.Captions)

	return b.String(), nil
}

func scriptBeats(m render.Manifest) [][2]string {
	if m.Narrative.Script == nil {
		return nil
	}
	out := make([][2]string, 0, len(m.Narrative.Script.Beats))
	for _, beat := range m.Narrative.Script.Beats {
		out = append(out, [2]string{beat.Title, beat.Content})
	}
	return out
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return orDash(s)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinOrDash(items []string) string {
	return orDash(strings.Join(items, ", "))
}
