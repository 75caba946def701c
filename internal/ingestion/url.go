package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/logger"
)

// Page is the cleaned text of a job posting fetched from a URL
type Page struct {
	URL      string         `json:"url"`
	Platform fetch.Platform `json:"platform"`
	Text     string         `json:"text"`
	// Posting is the page's own schema.org headline, when it declares one
	Posting   *fetch.JobPosting `json:"posting,omitempty"`
	Hash      string            `json:"hash"`
	FromCache bool              `json:"from_cache"`
	Rendered  bool              `json:"rendered"`
}

// URLIngester fetches job postings. Renderer and Cache are optional.
type URLIngester struct {
	Options  *fetch.Options
	Renderer fetch.Renderer
	Cache    fetch.PageCache
	Log      logger.Logger
}

// IngestURL fetches urlStr and extracts the posting text, rendering it in a browser when
// the plain fetch yields too little.
func (in *URLIngester) IngestURL(ctx context.Context, urlStr string) (*Page, error) {
	log := in.Log
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(zap.String("url", urlStr))

	if err := fetch.ValidateURL(urlStr); err != nil {
		return nil, err
	}
	platform := fetch.DetectPlatform(urlStr)

	if in.Cache != nil {
		cached, ok, err := in.Cache.Get(ctx, urlStr)
		if err != nil {
			log.Warn("page cache read failed", zap.Error(err))
		} else if ok {
			page := newPage(urlStr, platform, cached.Text, cached.Posting)
			page.FromCache = true
			return page, nil
		}
	}

	result, err := fetch.Get(ctx, urlStr, in.Options)
	if err != nil {
		return nil, err
	}

	contentSelectors := fetch.ContentSelectors(platform)
	noiseSelectors := fetch.NoiseSelectors(platform)
	text, err := fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return nil, fmt.Errorf("content extraction failed: %w", err)
	}
	posting, _ := fetch.ExtractJobPosting(result.HTML)
	if posting != nil && len(posting.Description) > len(text) {
		text = posting.Description
	}

	rendered := false
	if in.Renderer != nil && fetch.ShouldUseBrowser(text) {
		log.Info("content too short, rendering in browser", zap.Int("chars", len(text)))
		html, err := in.Renderer.Render(ctx, urlStr)
		if err != nil {
			log.Warn("browser rendering failed, keeping HTTP content", zap.Error(err))
		} else if browserText, err := fetch.ExtractMainText(html, contentSelectors, noiseSelectors...); err == nil && len(browserText) > len(text) {
			text = browserText
			rendered = true
		}
	}

	text = CleanText(text)
	if in.Cache != nil && text != "" {
		if err := in.Cache.Set(ctx, urlStr, &fetch.CachedPage{Text: text, Posting: posting}); err != nil {
			log.Warn("page cache write failed", zap.Error(err))
		}
	}

	log.Info("ingested job posting",
		zap.String("platform", string(platform)),
		zap.Int("chars", len(text)),
		zap.Bool("rendered", rendered),
		zap.Bool("structured", posting != nil),
	)
	page := newPage(urlStr, platform, text, posting)
	page.Rendered = rendered
	return page, nil
}

func newPage(urlStr string, platform fetch.Platform, text string, posting *fetch.JobPosting) *Page {
	sum := sha256.Sum256([]byte(text))
	return &Page{
		URL:      urlStr,
		Platform: platform,
		Text:     text,
		Posting:  posting,
		Hash:     hex.EncodeToString(sum[:]),
	}
}
