// Package fetch retrieves job posting pages and reduces their HTML to text.
package fetch

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeBuilder/1.0)"
	// MaxBodyBytes caps how much of a response body is read
	MaxBodyBytes = 5 << 20
)

// Result is a downloaded page
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error reports a failed fetch. Status is set when the server answered with a non-200 code.
type Error struct {
	URL    string
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := "fetch " + e.URL + ": " + e.Op
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures a fetch. Client overrides Timeout and AllowPrivateNetworks when set.
// Without AllowPrivateNetworks, connections to loopback, private and link-local addresses fail
// with ErrPrivateAddress.
type Options struct {
	Timeout              time.Duration
	UserAgent            string
	Headers              map[string]string
	Client               *http.Client
	AllowPrivateNetworks bool
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() *Options {
	return &Options{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
}

func (o *Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	client := &http.Client{Timeout: o.Timeout}
	if !o.AllowPrivateNetworks {
		client.Transport = publicTransport()
	}
	return client
}

// ValidateURL accepts absolute http and https URLs only
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &Error{URL: rawURL, Op: "invalid URL", Err: err}
	}
	return nil
}

// Get downloads rawURL. On a non-200 status the partial Result is returned with the error.
func Get(ctx context.Context, rawURL string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Op: "build request", Err: err}
	}
	req.Header.Set("User-Agent", cmp.Or(opts.UserAgent, DefaultUserAgent))
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := opts.httpClient().Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Op: "request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, &Error{URL: rawURL, Op: "read body", Err: err}
	}

	result := &Result{
		URL:         rawURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: rawURL, Op: "unexpected response", Status: resp.StatusCode}
	}
	return result, nil
}

// ExtractMainText parses HTML and returns the main body text.
// Noise is removed first; the first matching content selector wins, falling back to body.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// cleanWhitespace trims every line and drops blank ones
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
