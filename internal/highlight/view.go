package highlight

import "sort"

// NarrativeView is the serialized narrative summary carried by manifests.
type NarrativeView struct {
	Summary         string                     `json:"summary" yaml:"summary"`
	Language        string                     `json:"language" yaml:"language"`
	AssetIDs        []string                   `json:"asset_ids" yaml:"asset_ids"`
	Rationale       []string                   `json:"rationale" yaml:"rationale"`
	DialogueLocales []string                   `json:"dialogue_locales" yaml:"dialogue_locales"`
	Narrations      map[string]LocaleNarration `json:"narrations" yaml:"narrations"`
	Script          *Script                    `json:"script,omitempty" yaml:"script,omitempty"`
}

// StoryboardView is the poi/narrative/segments document written as
// storyboard.json and embedded in manifests.
type StoryboardView struct {
	POI       POI           `json:"poi" yaml:"poi"`
	Narrative NarrativeView `json:"narrative" yaml:"narrative"`
	Segments  []Segment     `json:"segments" yaml:"segments"`
}

// View builds the serializable view of the storyboard.
func (s *Storyboard) View() StoryboardView {
	n := s.Narrative
	if n == nil {
		n = NewNarrative()
	}
	locales := make([]string, 0, len(n.Dialogue))
	for l := range n.Dialogue {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	segments := s.Segments
	if segments == nil {
		segments = []Segment{}
	}
	return StoryboardView{
		POI: s.POI,
		Narrative: NarrativeView{
			Summary:         n.Summary,
			Language:        n.Language,
			AssetIDs:        n.AssetIDs,
			Rationale:       n.Rationale,
			DialogueLocales: locales,
			Narrations:      n.Narrations,
			Script:          n.Script,
		},
		Segments: segments,
	}
}

// NarrationLocales returns the locales with a narration record, sorted.
func (n *Narrative) NarrationLocales() []string {
	out := make([]string, 0, len(n.Narrations))
	for l := range n.Narrations {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
