package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the shortest extracted text accepted from a plain HTTP fetch.
// Shorter pages are likely rendered client-side.
const MinContentLength = 500

// ShouldUseBrowser reports whether extracted text is too short to trust
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer returns the HTML of a page after scripts have run
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeRenderer renders pages in headless Chrome. Chrome or Chromium must be installed.
// Hosts resolving to non-public addresses are refused unless AllowPrivateNetworks is set.
type ChromeRenderer struct {
	Timeout              time.Duration
	Settle               time.Duration
	AllowPrivateNetworks bool
}

// NewChromeRenderer creates a renderer with the default timings
func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{Timeout: 30 * time.Second, Settle: 3 * time.Second}
}

// Render navigates to url and returns the rendered document
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	if !r.AllowPrivateNetworks {
		if err := CheckPublicHost(ctx, url); err != nil {
			return "", err
		}
	}
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(r.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}
