package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/TobiSchelling/HighlightReel/internal/accessibility"
	"github.com/TobiSchelling/HighlightReel/internal/collect"
	"github.com/TobiSchelling/HighlightReel/internal/compose"
	"github.com/TobiSchelling/HighlightReel/internal/config"
	"github.com/TobiSchelling/HighlightReel/internal/database"
	"github.com/TobiSchelling/HighlightReel/internal/dialogue"
	"github.com/TobiSchelling/HighlightReel/internal/fetch"
	"github.com/TobiSchelling/HighlightReel/internal/filter"
	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/label"
	"github.com/TobiSchelling/HighlightReel/internal/llm"
	"github.com/TobiSchelling/HighlightReel/internal/localize"
	"github.com/TobiSchelling/HighlightReel/internal/render"
	"github.com/TobiSchelling/HighlightReel/internal/script"
	"github.com/TobiSchelling/HighlightReel/internal/storage"
	"github.com/TobiSchelling/HighlightReel/internal/storyboard"
	"github.com/TobiSchelling/HighlightReel/internal/summarize"
	"github.com/TobiSchelling/HighlightReel/internal/translate"
	"github.com/TobiSchelling/HighlightReel/internal/tts"
)

const totalSteps = 12

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	POIID      string
	Steps      []StepResult
	Decisions  []highlight.FilterDecision
	Storyboard *highlight.Storyboard
	Payload    *render.Payload
	Manifest   *render.Manifest
	Response   map[string]any
	Stored     *storage.Result
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// Collector supplies assets for a run.
type Collector interface {
	Collect(ctx context.Context) (*collect.Result, error)
}

// Renderer submits a payload to the render backend.
type Renderer interface {
	Render(ctx context.Context, payload render.Payload, execute bool) (map[string]any, error)
}

// Deps overrides pipeline components. Nil fields are built from the config.
type Deps struct {
	DB            *database.DB
	Collector     Collector
	Enricher      *fetch.CaptionEnricher
	Labeler       label.Labeler
	Summarizer    summarize.Summarizer
	Script        script.Generator
	Dialogue      dialogue.Generator
	Translator    translate.Translator
	Accessibility accessibility.Generator
	TTS           tts.Synthesizer
	Renderer      Renderer
	Store         storage.Store
}

// Options controls a single run.
type Options struct {
	// Execute submits the payload to the render API; otherwise a dry-run stub is stored.
	Execute bool
	// Locales overrides localization.locales.
	Locales []string
	// SkipEnrich leaves missing captions empty.
	SkipEnrich bool
}

// Pipeline runs collection through storage for one point of interest.
type Pipeline struct {
	cfg  *config.Config
	deps Deps
}

// New resolves every component missing from deps. Provider configuration
// errors are returned here, before any work starts.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*Pipeline, error) {
	p := cfg.Providers
	provider := llm.CreateProvider(p.LLM.Provider, p.LLM.Model, p.LLM.OllamaURL, p.LLM.OpenAIModel, p.LLM.OpenAIBaseURL, p.LLM.APIKey)

	var err error
	if deps.Collector == nil {
		feeds := make([]collect.FeedConfig, len(cfg.Sources.Feeds))
		for i, f := range cfg.Sources.Feeds {
			feeds[i] = collect.FeedConfig{URL: f.URL, Name: f.Name, Platform: f.Platform}
		}
		deps.Collector = collect.NewCollector(cfg.Sources.Fixture, feeds, cfg.Sources.DaysBack, cfg.Sources.Concurrency)
	}
	if deps.Enricher == nil {
		deps.Enricher = fetch.NewCaptionEnricher(15 * time.Second)
	}
	if deps.Labeler == nil {
		deps.Labeler = label.NewKeywordLabeler(cfg.Labels.Keywords, cfg.Labels.DefaultLabel)
	}
	if deps.Summarizer == nil {
		deps.Summarizer, err = summarize.New(p.Summarizer.Settings(), summarize.Options{
			Template: cfg.Narrative.SummaryTemplate, Provider: provider, MaxTokens: p.LLM.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("summarizer: %w", err)
		}
	}
	if deps.Script == nil {
		deps.Script, err = script.New(p.Script.Settings(), script.Options{
			Beats: cfg.Narrative.ScriptBeats, Provider: provider, MaxTokens: p.LLM.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("script generator: %w", err)
		}
	}
	if deps.Dialogue == nil {
		deps.Dialogue = dialogue.NewStatic(cfg.Narrative.DialogueLocales)
	}
	if deps.Translator == nil {
		deps.Translator, err = translate.New(p.Translator.Settings(), translate.Options{Provider: provider, MaxTokens: p.LLM.MaxTokens})
		if err != nil {
			return nil, fmt.Errorf("translator: %w", err)
		}
	}
	if deps.Accessibility == nil {
		deps.Accessibility, err = accessibility.New(p.Accessibility.Settings())
		if err != nil {
			return nil, fmt.Errorf("accessibility generator: %w", err)
		}
	}
	if deps.TTS == nil {
		deps.TTS, err = tts.New(p.TTS.Provider.Settings(), tts.Options{DefaultVoice: p.TTS.DefaultVoice, VoiceOverrides: p.TTS.VoiceOverrides})
		if err != nil {
			return nil, fmt.Errorf("tts: %w", err)
		}
	}
	if deps.Renderer == nil {
		deps.Renderer = cfg.RenderClient()
	}
	if deps.Store == nil {
		deps.Store, err = storage.New(ctx, cfg.StorageConfig())
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	}

	return &Pipeline{cfg: cfg, deps: deps}, nil
}

// Collect runs only the collection step.
func (p *Pipeline) Collect(ctx context.Context) (*collect.Result, error) {
	return p.deps.Collector.Collect(ctx)
}

// Run executes every step in order and stops at the first fatal one.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	poi := p.cfg.POIRecord()
	r := &Result{POIID: poi.ID}
	add := func(s StepResult) bool {
		r.Steps = append(r.Steps, s)
		return s.Err == nil
	}

	// Step 1: Collect
	logStep(1, "Collecting assets...")
	collected, err := p.deps.Collector.Collect(ctx)
	if err != nil {
		add(StepResult{Name: "Collect", Err: err})
		return r
	}
	assets := collected.Assets
	add(StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Found %d assets (%d kept, %d duplicates)", collected.TotalFound, len(assets), collected.Duplicates),
	})

	// Step 2: Enrich captions
	logStep(2, "Enriching missing captions...")
	if opts.SkipEnrich {
		add(StepResult{Name: "Enrich", Summary: "Skipped"})
	} else {
		er := p.deps.Enricher.Enrich(ctx, assets)
		add(StepResult{Name: "Enrich", Summary: fmt.Sprintf("Enriched %d captions, %d failed", er.Enriched, er.Failed)})
	}

	// Step 3: Filter
	logStep(3, "Filtering assets...")
	survivors, decisions := filter.Apply(assets, p.cfg.FilterRules())
	r.Decisions = decisions
	if !add(StepResult{
		Name:    "Filter",
		Summary: fmt.Sprintf("%d of %d assets passed moderation and engagement rules", len(survivors), len(assets)),
		Err:     emptyErr(survivors),
	}) {
		return r
	}

	// Step 4: Rank
	logStep(4, "Ranking assets...")
	ranked := filter.Rank(survivors)
	add(StepResult{Name: "Rank", Summary: fmt.Sprintf("Top asset %s (score %.2f)", ranked[0].ID, filter.Score(ranked[0]))})

	// Step 5: Label
	logStep(5, "Labelling scenes...")
	labelled := label.ApplyLabels(ranked, p.deps.Labeler)
	add(StepResult{Name: "Label", Summary: fmt.Sprintf("Labelled %d assets", len(labelled))})

	// Step 6: Compose
	logStep(6, "Composing narrative...")
	composer := compose.NewComposer(p.deps.Summarizer, p.deps.Script, p.deps.Dialogue)
	narrative, err := composer.Compose(ctx, labelled, compose.Config{
		FrameSampleSize:   p.cfg.Narrative.FrameSampleSize,
		RationaleTemplate: p.cfg.Narrative.RationaleTemplate,
	})
	if err != nil {
		add(StepResult{Name: "Compose", Err: err})
		return r
	}
	add(StepResult{
		Name:    "Compose",
		Summary: fmt.Sprintf("Composed %d frames and %d beats", len(narrative.Frames), len(narrative.Beats())),
	})

	// Step 7: Storyboard
	logStep(7, "Building storyboard...")
	sb := storyboard.Build(narrative, labelled, poi, p.cfg.Render.ClipDuration)
	r.Storyboard = sb
	add(StepResult{Name: "Storyboard", Summary: fmt.Sprintf("Built %d segments", len(sb.Segments))})

	// Step 8: Localize
	locales := opts.Locales
	if len(locales) == 0 {
		locales = p.cfg.Localization.Locales
	}
	logStep(8, "Localizing storyboard...")
	localize.New(p.deps.Translator, p.deps.Accessibility, p.deps.TTS, p.cfg.Localization.AudioPrefix).Localize(ctx, sb, locales)
	add(StepResult{Name: "Localize", Summary: fmt.Sprintf("Localized into %d locales", len(narrative.Narrations))})

	// Step 9: Payload
	logStep(9, "Building render payload...")
	payload := render.BuildPayload(sb, p.cfg.RenderConfig())
	manifest := render.BuildManifest(sb, payload)
	r.Payload = &payload
	r.Manifest = &manifest
	add(StepResult{Name: "Payload", Summary: fmt.Sprintf("Built %d modifications", len(payload.Modifications))})

	// Step 10: Render
	logStep(10, "Submitting render...")
	response, err := p.deps.Renderer.Render(ctx, payload, opts.Execute)
	if err != nil {
		add(StepResult{Name: "Render", Err: err})
		return r
	}
	r.Response = response
	summary := "Dry run, render not submitted"
	if opts.Execute {
		summary = fmt.Sprintf("Render submitted (%v)", response["status"])
	}
	add(StepResult{Name: "Render", Summary: summary})

	// Step 11: Store
	logStep(11, "Storing artifacts...")
	stored, err := p.deps.Store.Store(ctx, sb, payload, manifest, response)
	if err != nil {
		add(StepResult{Name: "Store", Err: err})
		return r
	}
	r.Stored = stored
	add(StepResult{Name: "Store", Summary: fmt.Sprintf("Stored render %s via %s", stored.RenderID, stored.Provider)})

	// Step 12: Record
	logStep(12, "Recording render history...")
	add(p.record(sb, manifest, stored, !opts.Execute))

	return r
}

func (p *Pipeline) record(sb *highlight.Storyboard, manifest render.Manifest, stored *storage.Result, dryRun bool) StepResult {
	if p.deps.DB == nil {
		return StepResult{Name: "Record", Summary: "Skipped, no database"}
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		return StepResult{Name: "Record", Err: fmt.Errorf("encoding manifest: %w", err)}
	}
	_, err = p.deps.DB.InsertRender(database.Render{
		RenderID:          stored.RenderID,
		POIID:             sb.POI.ID,
		POIName:           sb.POI.Name,
		Locale:            sb.POI.Locale,
		Provider:          stored.Provider,
		ManifestPath:      stored.ManifestPath,
		PayloadPath:       stored.PayloadPath,
		StoryboardPath:    stored.StoryboardPath,
		ResponsePath:      stored.ResponsePath,
		SignedManifestURL: optional(stored.SignedManifestURL),
		SignedVideoURL:    optional(stored.SignedVideoURL),
		AssetCount:        len(sb.Segments),
		DryRun:            dryRun,
		Manifest:          string(data),
	})
	if err != nil {
		return StepResult{Name: "Record", Err: fmt.Errorf("inserting render: %w", err)}
	}
	return StepResult{Name: "Record", Summary: fmt.Sprintf("Recorded render %s", stored.RenderID)}
}

func logStep(n int, msg string) {
	log.Printf("Step %d/%d: %s", n, totalSteps, msg)
}

var errNoSurvivors = errors.New("no assets passed the filter")

func emptyErr(assets []highlight.Asset) error {
	if len(assets) == 0 {
		return fmt.Errorf("%w: %w", errNoSurvivors, highlight.ErrNoAssets)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
