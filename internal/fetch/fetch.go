package fetch

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/HighlightReel/internal/highlight"
)

const maxCaptionRunes = 280

// Result holds the results of a caption enrichment run.
type Result struct {
	Enriched       int
	AlreadyCaption int
	Failed         int
}

// CaptionEnricher fills in missing captions from the asset's permalink page
// via readability extraction.
type CaptionEnricher struct {
	client *http.Client
}

// NewCaptionEnricher creates a new enricher.
func NewCaptionEnricher(timeout time.Duration) *CaptionEnricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &CaptionEnricher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Enrich sets a caption on every asset lacking one, in place. After one HTTP
// error status, remaining assets on the same host are skipped.
func (e *CaptionEnricher) Enrich(ctx context.Context, assets []highlight.Asset) *Result {
	result := &Result{}
	failedHosts := make(map[string]struct{})

	for i := range assets {
		a := &assets[i]
		if strings.TrimSpace(a.Caption) != "" {
			result.AlreadyCaption++
			continue
		}

		page := permalink(*a)
		u, err := url.Parse(page)
		if err != nil || u.Host == "" {
			result.Failed++
			continue
		}
		host := strings.ToLower(u.Host)
		if _, failed := failedHosts[host]; failed {
			result.Failed++
			continue
		}

		caption, httpErr := e.fetchCaption(ctx, u)
		if httpErr != nil {
			failedHosts[host] = struct{}{}
			result.Failed++
			log.Printf("HTTP error for %s, skipping remaining assets from %s", page, host)
			continue
		}
		if caption == "" {
			result.Failed++
			log.Printf("No extractable caption from: %s", page)
			continue
		}
		a.Caption = caption
		result.Enriched++
	}

	if result.Enriched > 0 || result.Failed > 0 {
		log.Printf("Caption enrichment complete: %d enriched, %d failed", result.Enriched, result.Failed)
	}
	return result
}

func permalink(a highlight.Asset) string {
	if p, ok := a.Extra["permalink"].(string); ok && p != "" {
		return p
	}
	return a.URL
}

// fetchCaption returns an error only for HTTP error statuses; connection and
// extraction problems yield an empty caption.
func (e *CaptionEnricher) fetchCaption(ctx context.Context, pageURL *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", "HighlightReel/1.0 (caption enrichment)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", nil
	}

	for _, candidate := range []string{article.Excerpt, article.Title, article.TextContent} {
		text := strings.Join(strings.Fields(candidate), " ")
		if text != "" {
			return highlight.Truncate(text, maxCaptionRunes), nil
		}
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
