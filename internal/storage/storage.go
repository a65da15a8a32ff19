// Package storage persists render artifacts and hands back the URLs a client
// needs to fetch them.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/render"
)

// Artifact file names inside a render directory.
const (
	ManifestFile = "manifest.json"
	PayloadFile  = "render_payload.json"
	BoardFile    = "storyboard.json"
	ResponseFile = "render_response.json"
	VideoFile    = "render.mp4"
)

// Config selects and configures a backend.
type Config struct {
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

// DefaultConfig returns the local backend writing under ./renders.
func DefaultConfig() Config {
	return Config{
		Provider:           "local",
		OutputDir:          "renders",
		RetentionDays:      7,
		GenerateSignedURLs: true,
		GCSPrefix:          "renders",
		SignedURLTTL:       3600,
	}
}

// Result describes where the artifacts of one render ended up.
type Result struct {
	Provider          string         `json:"provider"`
	RenderID          string         `json:"render_id"`
	ManifestPath      string         `json:"manifest_path"`
	PayloadPath       string         `json:"payload_path"`
	StoryboardPath    string         `json:"storyboard_path"`
	ResponsePath      string         `json:"response_path"`
	SignedManifestURL string         `json:"signed_manifest_url,omitempty"`
	SignedVideoURL    string         `json:"signed_video_url,omitempty"`
	Metadata          map[string]any `json:"metadata"`
}

// Store persists the four render artifacts.
type Store interface {
	Store(ctx context.Context, sb *highlight.Storyboard, payload render.Payload, manifest render.Manifest, response map[string]any) (*Result, error)
	Name() string
}

// New returns the backend named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "local":
		return NewLocal(cfg), nil
	case "gcs":
		return NewGCS(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage provider %q: %w", cfg.Provider, highlight.ErrUnsupportedProvider)
	}
}

// RenderID picks the id reported by the render backend, or mints one when the
// backend reports none or one that is not a single path element.
func RenderID(response map[string]any) string {
	if v := firstString(response, "render_id", "id", "job_id"); v != "" {
		if safeID(v) {
			return v
		}
		log.Printf("Ignoring render id %q from backend response", v)
	}
	return "render-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func safeID(id string) bool {
	return id != "." && !strings.Contains(id, "..") && !strings.ContainsAny(id, `/\`)
}

// VideoURL returns the rendered video location from the backend response, if any.
func VideoURL(response map[string]any) string {
	return firstString(response, "download_url", "result_url", "url", "video_url")
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func metadata(cfg Config, sb *highlight.Storyboard) map[string]any {
	return map[string]any{
		"retention_days": cfg.RetentionDays,
		"locale":         sb.POI.Locale,
		"asset_count":    len(sb.Segments),
	}
}

// artifacts returns the four documents in write order.
func artifacts(sb *highlight.Storyboard, payload render.Payload, manifest render.Manifest, response map[string]any) ([]artifact, error) {
	if response == nil {
		response = map[string]any{}
	}
	docs := []struct {
		name string
		v    any
	}{
		{ManifestFile, manifest},
		{PayloadFile, payload},
		{BoardFile, sb.View()},
		{ResponseFile, response},
	}
	out := make([]artifact, 0, len(docs))
	for _, d := range docs {
		data, err := json.MarshalIndent(d.v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", d.name, err)
		}
		out = append(out, artifact{name: d.name, data: data})
	}
	return out, nil
}

type artifact struct {
	name string
	data []byte
}
