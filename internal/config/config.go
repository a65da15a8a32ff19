package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/remote"
	"github.com/TobiSchelling/HighlightReel/internal/render"
	"github.com/TobiSchelling/HighlightReel/internal/storage"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources      Sources      `yaml:"sources"`
	Filter       Filter       `yaml:"filter"`
	Labels       Labels       `yaml:"labels"`
	Narrative    Narrative    `yaml:"narrative"`
	Providers    Providers    `yaml:"providers"`
	Localization Localization `yaml:"localization"`
	POI          POI          `yaml:"poi"`
	Render       Render       `yaml:"render"`
	Storage      Storage      `yaml:"storage"`
	Output       Output       `yaml:"output"`
	Server       Server       `yaml:"server"`
	Logging      Logging      `yaml:"logging"`
}

type Sources struct {
	Fixture     string `yaml:"fixture"`
	DaysBack    int    `yaml:"days_back"`
	Concurrency int    `yaml:"concurrency"`
	Feeds       []Feed `yaml:"feeds"`
}

type Feed struct {
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Platform string `yaml:"platform"`
}

type Filter struct {
	BannedLabels    []string `yaml:"banned_labels"`
	MinEngagement   int      `yaml:"min_engagement"`
	LocaleWhitelist []string `yaml:"locale_whitelist"`
}

type Labels struct {
	Keywords     map[string][]string `yaml:"keywords"`
	DefaultLabel string              `yaml:"default_label"`
}

type Narrative struct {
	FrameSampleSize   int      `yaml:"frame_sample_size"`
	RationaleTemplate string   `yaml:"rationale_template"`
	SummaryTemplate   string   `yaml:"summary_template"`
	ScriptBeats       []string `yaml:"script_beats"`
	DialogueLocales   []string `yaml:"dialogue_locales"`
}

// Provider configures one pluggable strategy. APIKey is filled by
// ResolveSecrets from the APIKeyEnv variable.
type Provider struct {
	Provider       string `yaml:"provider"`
	Endpoint       string `yaml:"endpoint"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxAttempts    int    `yaml:"max_attempts"`
	APIKey         string `yaml:"-"`
}

// Settings converts the section into remote call settings.
func (p Provider) Settings() remote.Settings {
	return remote.Settings{
		Provider:    p.Provider,
		Endpoint:    p.Endpoint,
		APIKey:      p.APIKey,
		Timeout:     time.Duration(p.TimeoutSeconds) * time.Second,
		MaxAttempts: p.MaxAttempts,
	}
}

type TTS struct {
	Provider       `yaml:",inline"`
	DefaultVoice   string            `yaml:"default_voice"`
	VoiceOverrides map[string]string `yaml:"voice_overrides"`
}

type LLM struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	OllamaURL     string `yaml:"ollama_url"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	APIKeyEnv     string `yaml:"api_key_env"`
	MaxTokens     int    `yaml:"max_tokens"`
	APIKey        string `yaml:"-"`
}

type Providers struct {
	Summarizer    Provider `yaml:"summarizer"`
	Script        Provider `yaml:"script"`
	Translator    Provider `yaml:"translator"`
	Accessibility Provider `yaml:"accessibility"`
	TTS           TTS      `yaml:"tts"`
	Preferences   Provider `yaml:"preferences"`
	LLM           LLM      `yaml:"llm"`
}

type Localization struct {
	Locales     []string `yaml:"locales"`
	AudioPrefix string   `yaml:"audio_prefix"`
}

type POI struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Locale   string   `yaml:"locale"`
	Distance string   `yaml:"distance"`
	Hours    string   `yaml:"hours"`
	Tags     []string `yaml:"tags"`
}

type Render struct {
	TemplateID        string         `yaml:"template_id"`
	AspectRatio       string         `yaml:"aspect_ratio"`
	OutputFormat      string         `yaml:"output_format"`
	ClipDuration      float64        `yaml:"clip_duration"`
	TransitionMS      int            `yaml:"transition_ms"`
	BrandColor        string         `yaml:"brand_color"`
	AccentColor       string         `yaml:"accent_color"`
	DefaultMusicTrack string         `yaml:"default_music_track"`
	WebhookURL        string         `yaml:"webhook_url"`
	Metadata          map[string]any `yaml:"metadata"`
	BaseURL           string         `yaml:"base_url"`
	APIKeyEnv         string         `yaml:"api_key_env"`
	TimeoutSeconds    int            `yaml:"timeout_seconds"`
	MaxAttempts       int            `yaml:"max_attempts"`
	APIKey            string         `yaml:"-"`
}

type Storage struct {
	Provider           string `yaml:"provider"`
	OutputDir          string `yaml:"output_dir"`
	BaseURL            string `yaml:"base_url"`
	RetentionDays      int    `yaml:"retention_days"`
	GenerateSignedURLs bool   `yaml:"generate_signed_urls"`
	GCSBucket          string `yaml:"gcs_bucket"`
	GCSPrefix          string `yaml:"gcs_prefix"`
	GCSCredentials     string `yaml:"gcs_credentials"`
	SignedURLTTL       int    `yaml:"signed_url_ttl"`
	CopyVideoAsset     bool   `yaml:"copy_video_asset"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for highlightreel.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "highlightreel")
}

// DataDir returns the XDG data directory for highlightreel.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "highlightreel")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/highlightreel/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'highlightreel init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

func remoteDefaults(timeout int) Provider {
	return Provider{Provider: "auto", TimeoutSeconds: timeout, MaxAttempts: 2}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	rules := highlight.DefaultFilterRules()
	rc := render.DefaultConfig()
	sc := storage.DefaultConfig()
	tts := TTS{Provider: remoteDefaults(15)}
	tts.Provider.Provider = "none"

	cfg := &Config{
		Sources: Sources{DaysBack: 7, Concurrency: 4},
		Filter: Filter{
			BannedLabels:  rules.BannedLabels,
			MinEngagement: rules.MinEngagement,
		},
		Narrative: Narrative{FrameSampleSize: 3},
		Providers: Providers{
			Summarizer:    remoteDefaults(10),
			Script:        remoteDefaults(15),
			Translator:    remoteDefaults(12),
			Accessibility: remoteDefaults(12),
			TTS:           tts,
			Preferences:   remoteDefaults(6),
			LLM: LLM{
				Provider:    "none",
				Model:       "qwen2.5:7b",
				OllamaURL:   "http://localhost:11434",
				OpenAIModel: "gpt-4o-mini",
				APIKeyEnv:   "OPENAI_API_KEY",
				MaxTokens:   512,
			},
		},
		Localization: Localization{Locales: []string{"en", "es", "fr"}},
		POI:          POI{Locale: highlight.DefaultLocale},
		Render: Render{
			AspectRatio:    rc.AspectRatio,
			OutputFormat:   rc.OutputFormat,
			ClipDuration:   rc.ClipDuration,
			TransitionMS:   rc.TransitionMS,
			BrandColor:     rc.BrandColor,
			AccentColor:    rc.AccentColor,
			BaseURL:        render.DefaultBaseURL,
			APIKeyEnv:      "CREATOMATE_API_KEY",
			TimeoutSeconds: 30,
			MaxAttempts:    1,
		},
		Storage: Storage{
			Provider:           sc.Provider,
			OutputDir:          sc.OutputDir,
			RetentionDays:      sc.RetentionDays,
			GenerateSignedURLs: sc.GenerateSignedURLs,
			GCSPrefix:          sc.GCSPrefix,
			SignedURLTTL:       sc.SignedURLTTL,
		},
		Server:  Server{Port: 8080},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ErrInvalidConfig is wrapped by Validate for value errors that are not
// about provider names.
var ErrInvalidConfig = errors.New("invalid config")

var providerNames = map[string][]string{
	"summarizer":    {"auto", "static", "screenapp", "llm"},
	"script":        {"auto", "static", "gpt", "llm"},
	"translator":    {"auto", "static", "gpt", "llm"},
	"accessibility": {"auto", "static", "gpt"},
	"tts":           {"auto", "none", "static", "gpt"},
	"preferences":   {"auto", "static", "heuristic", "gpt"},
	"llm":           {"none", "ollama", "openai"},
	"storage":       {"local", "gcs"},
}

// Validate rejects unknown provider names and out-of-range values.
func (c *Config) Validate() error {
	var errs []error
	check := func(kind, name string) {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "" {
			return
		}
		if !slices.Contains(providerNames[kind], n) {
			errs = append(errs, remote.Unsupported(kind, name))
		}
	}
	check("summarizer", c.Providers.Summarizer.Provider)
	check("script", c.Providers.Script.Provider)
	check("translator", c.Providers.Translator.Provider)
	check("accessibility", c.Providers.Accessibility.Provider)
	check("tts", c.Providers.TTS.Provider.Provider)
	check("preferences", c.Providers.Preferences.Provider)
	check("llm", c.Providers.LLM.Provider)
	check("storage", c.Storage.Provider)

	if c.Render.ClipDuration <= 0 {
		errs = append(errs, fmt.Errorf("render.clip_duration must be positive, got %v: %w", c.Render.ClipDuration, ErrInvalidConfig))
	}
	if c.Filter.MinEngagement < 0 {
		errs = append(errs, fmt.Errorf("filter.min_engagement must not be negative: %w", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// ResolveSecrets reads every api_key_env variable once and stores the values
// on the config. Nothing reads the environment after this.
func (c *Config) ResolveSecrets() {
	c.resolveSecrets(os.Getenv)
}

func (c *Config) resolveSecrets(getenv func(string) string) {
	lookup := func(name string) string {
		if name == "" {
			return ""
		}
		return strings.TrimSpace(getenv(name))
	}
	for _, p := range []*Provider{
		&c.Providers.Summarizer,
		&c.Providers.Script,
		&c.Providers.Translator,
		&c.Providers.Accessibility,
		&c.Providers.TTS.Provider,
		&c.Providers.Preferences,
	} {
		p.APIKey = lookup(p.APIKeyEnv)
	}
	c.Providers.LLM.APIKey = lookup(c.Providers.LLM.APIKeyEnv)
	c.Render.APIKey = lookup(c.Render.APIKeyEnv)
}

// FilterRules returns the moderation rules of the filter section.
func (c *Config) FilterRules() highlight.FilterRules {
	return highlight.FilterRules{
		BannedLabels:    c.Filter.BannedLabels,
		MinEngagement:   c.Filter.MinEngagement,
		LocaleWhitelist: c.Filter.LocaleWhitelist,
	}
}

// POIRecord returns the configured point of interest.
func (c *Config) POIRecord() highlight.POI {
	return highlight.POI{
		ID:       c.POI.ID,
		Name:     c.POI.Name,
		Locale:   c.POI.Locale,
		Distance: c.POI.Distance,
		Hours:    c.POI.Hours,
		Tags:     c.POI.Tags,
	}
}

// RenderConfig returns the payload settings of the render section.
func (c *Config) RenderConfig() render.Config {
	return render.Config{
		TemplateID:        c.Render.TemplateID,
		AspectRatio:       c.Render.AspectRatio,
		OutputFormat:      c.Render.OutputFormat,
		ClipDuration:      c.Render.ClipDuration,
		TransitionMS:      c.Render.TransitionMS,
		BrandColor:        c.Render.BrandColor,
		AccentColor:       c.Render.AccentColor,
		DefaultMusicTrack: c.Render.DefaultMusicTrack,
		WebhookURL:        c.Render.WebhookURL,
		Metadata:          c.Render.Metadata,
	}
}

// RenderClient builds the render backend client.
func (c *Config) RenderClient() *render.Client {
	return render.NewClient(c.Render.BaseURL, c.Render.APIKey,
		time.Duration(c.Render.TimeoutSeconds)*time.Second, c.Render.MaxAttempts)
}

// StorageConfig returns the storage backend settings. A relative local
// output directory is placed under the data directory.
func (c *Config) StorageConfig() storage.Config {
	out := c.Storage.OutputDir
	if out != "" && !filepath.IsAbs(out) {
		out = filepath.Join(c.GetDataDir(), out)
	}
	return storage.Config{
		Provider:           c.Storage.Provider,
		OutputDir:          out,
		BaseURL:            c.Storage.BaseURL,
		RetentionDays:      c.Storage.RetentionDays,
		GenerateSignedURLs: c.Storage.GenerateSignedURLs,
		GCSBucket:          c.Storage.GCSBucket,
		GCSPrefix:          c.Storage.GCSPrefix,
		GCSCredentials:     c.Storage.GCSCredentials,
		SignedURLTTL:       c.Storage.SignedURLTTL,
		CopyVideoAsset:     c.Storage.CopyVideoAsset,
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath returns the render history database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "highlightreel.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
