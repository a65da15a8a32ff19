package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
	"github.com/TobiSchelling/HighlightReel/internal/render"
)

// ErrCopyVideo is returned when the rendered video cannot be fetched for copying.
var ErrCopyVideo = errors.New("fetching render asset failed")

// GCS uploads artifacts to a Cloud Storage bucket through the JSON API.
type GCS struct {
	cfg        Config
	svc        *gcs.Service
	httpClient *http.Client
}

// NewGCS builds the backend. Extra client options are appended after the
// credentials option, so callers can point the service at another endpoint.
func NewGCS(ctx context.Context, cfg Config, opts ...option.ClientOption) (*GCS, error) {
	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("storage.gcs_bucket is required when provider is gcs: %w", highlight.ErrMissingCredentials)
	}
	var all []option.ClientOption
	if cfg.GCSCredentials != "" {
		all = append(all, option.WithCredentialsFile(cfg.GCSCredentials))
	}
	all = append(all, opts...)

	svc, err := gcs.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("creating storage service: %w", err)
	}
	return &GCS{cfg: cfg, svc: svc, httpClient: &http.Client{Timeout: 30 * time.Second}}, nil
}

func (g *GCS) Name() string { return "gcs" }

func (g *GCS) Store(ctx context.Context, sb *highlight.Storyboard, payload render.Payload, manifest render.Manifest, response map[string]any) (*Result, error) {
	docs, err := artifacts(sb, payload, manifest, response)
	if err != nil {
		return nil, err
	}

	renderID := RenderID(response)
	objects := make(map[string]*gcs.Object, len(docs))
	for _, d := range docs {
		obj, err := g.upload(ctx, g.objectPath(sb.POI.ID, renderID, d.name), d.data, "application/json")
		if err != nil {
			return nil, err
		}
		objects[d.name] = obj
	}

	video := VideoURL(response)
	if g.cfg.CopyVideoAsset && video != "" {
		obj, err := g.copyVideo(ctx, video, g.objectPath(sb.POI.ID, renderID, VideoFile))
		if err != nil {
			log.Printf("Warning: could not copy render video into bucket: %v", err)
		} else if u := g.signedURL(obj); u != "" {
			video = u
		}
	}

	meta := metadata(g.cfg, sb)
	meta["bucket"] = g.cfg.GCSBucket
	meta["object_prefix"] = g.cfg.GCSPrefix
	meta["signed_url_ttl"] = g.cfg.SignedURLTTL

	return &Result{
		Provider:          g.Name(),
		RenderID:          renderID,
		ManifestPath:      g.uri(objects[ManifestFile]),
		PayloadPath:       g.uri(objects[PayloadFile]),
		StoryboardPath:    g.uri(objects[BoardFile]),
		ResponsePath:      g.uri(objects[ResponseFile]),
		SignedManifestURL: g.signedURL(objects[ManifestFile]),
		SignedVideoURL:    video,
		Metadata:          meta,
	}, nil
}

func (g *GCS) objectPath(poiID, renderID, file string) string {
	var parts []string
	for _, p := range []string{strings.Trim(g.cfg.GCSPrefix, "/"), poiID, renderID, file} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

func (g *GCS) upload(ctx context.Context, name string, data []byte, contentType string) (*gcs.Object, error) {
	obj, err := g.svc.Objects.Insert(g.cfg.GCSBucket, &gcs.Object{Name: name, ContentType: contentType}).
		Name(name).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}
	return obj, nil
}

func (g *GCS) copyVideo(ctx context.Context, source, name string) (*gcs.Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCopyVideo, err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCopyVideo, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", ErrCopyVideo, resp.StatusCode, source)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCopyVideo, err)
	}
	return g.upload(ctx, name, data, "video/mp4")
}

// signedURL returns the object's media link; the JSON API does not mint V4
// signatures, so the TTL is advisory and recorded in metadata only.
func (g *GCS) signedURL(obj *gcs.Object) string {
	if obj == nil || !g.cfg.GenerateSignedURLs {
		return ""
	}
	return obj.MediaLink
}

func (g *GCS) uri(obj *gcs.Object) string {
	if obj == nil {
		return ""
	}
	return fmt.Sprintf("gs://%s/%s", g.cfg.GCSBucket, obj.Name)
}
