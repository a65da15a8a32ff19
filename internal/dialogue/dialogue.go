// Package dialogue writes the concierge lines shown next to a highlight reel.
package dialogue

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

// DefaultLocales are the locales dialogue is produced for when none are configured.
var DefaultLocales = []string{"en", "es", "fr"}

// Generator produces dialogue keyed by locale.
type Generator interface {
	Generate(assets []highlight.Asset) map[string]highlight.Dialogue
}

type lines struct {
	greeting    string
	guidance    string // %s is the scene list
	placeholder string
	celebration string
}

var catalog = map[string]lines{
	"en": {
		greeting:    "Your concierge here! Ready for today's adventure?",
		guidance:    "We spotted %s. Follow my cues for smooth hops.",
		placeholder: "city energy",
		celebration: "Meet me at the finale for the celebration!",
	},
	"es": {
		greeting:    "¡Aquí tu conserje! ¿Listo para la aventura de hoy?",
		guidance:    "Vimos %s. Sigue mis pistas para moverte sin fricciones.",
		placeholder: "ambiente urbano",
		celebration: "¡Te espero en el final para celebrar a lo grande!",
	},
	"fr": {
		greeting:    "Ton concierge est là ! Prêt pour l'aventure du jour ?",
		guidance:    "Nous avons repéré %s. Suis mes indications pour avancer sans stress.",
		placeholder: "l'énergie de la ville",
		celebration: "Rendez-vous au final pour la fête !",
	},
}

// Static renders canned lines per locale. Region subtags fall back to the base
// language, then to English.
type Static struct {
	Locales []string
}

// NewStatic creates a generator for locales, or DefaultLocales when empty.
func NewStatic(locales []string) *Static {
	if len(locales) == 0 {
		locales = DefaultLocales
	}
	return &Static{Locales: locales}
}

func (s *Static) Generate(assets []highlight.Asset) map[string]highlight.Dialogue {
	seen := make(map[string]bool)
	var scenes []string
	for _, a := range assets {
		for _, sc := range a.Scenes {
			if !seen[sc] {
				seen[sc] = true
				scenes = append(scenes, sc)
			}
		}
	}
	sort.Strings(scenes)

	out := make(map[string]highlight.Dialogue, len(s.Locales))
	for _, locale := range s.Locales {
		l, ok := catalog[highlight.BaseLanguage(locale)]
		if !ok {
			l = catalog["en"]
		}
		spotted := strings.Join(scenes, ", ")
		if spotted == "" {
			spotted = l.placeholder
		}
		out[locale] = highlight.Dialogue{
			Locale:      locale,
			Greeting:    l.greeting,
			Guidance:    fmt.Sprintf(l.guidance, spotted),
			Celebration: l.celebration,
		}
	}
	return out
}
