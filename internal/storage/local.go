package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/render"
)

// Local writes artifacts to the filesystem and fabricates demo signed URLs
// from the configured base URL.
type Local struct {
	cfg Config
}

func NewLocal(cfg Config) *Local {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "renders"
	}
	return &Local{cfg: cfg}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Store(_ context.Context, sb *highlight.Storyboard, payload render.Payload, manifest render.Manifest, response map[string]any) (*Result, error) {
	docs, err := artifacts(sb, payload, manifest, response)
	if err != nil {
		return nil, err
	}

	renderID := RenderID(response)
	dir := filepath.Join(l.cfg.OutputDir, sb.POI.ID, renderID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating render directory: %w", err)
	}

	paths := make(map[string]string, len(docs))
	for _, d := range docs {
		p := filepath.Join(dir, d.name)
		if err := os.WriteFile(p, d.data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", d.name, err)
		}
		paths[d.name] = p
	}

	video := VideoURL(response)
	if video == "" {
		video = l.signedURL(sb.POI.ID, renderID, VideoFile)
	}

	return &Result{
		Provider:          l.Name(),
		RenderID:          renderID,
		ManifestPath:      paths[ManifestFile],
		PayloadPath:       paths[PayloadFile],
		StoryboardPath:    paths[BoardFile],
		ResponsePath:      paths[ResponseFile],
		SignedManifestURL: l.signedURL(sb.POI.ID, renderID, ManifestFile),
		SignedVideoURL:    video,
		Metadata:          metadata(l.cfg, sb),
	}, nil
}

func (l *Local) signedURL(poiID, renderID, file string) string {
	if l.cfg.BaseURL == "" || !l.cfg.GenerateSignedURLs {
		return ""
	}
	base := strings.TrimRight(l.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/%s/%s/%s?signature=demo", base, poiID, renderID, file)
}
