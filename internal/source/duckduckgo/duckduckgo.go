// Package duckduckgo implements the live DuckDuckGo connector against the
// HTML (non-JS) endpoint.
package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seekerlab/deepsearch/internal/domain/search/result"
)

// SourceID is the registry id of this connector.
const SourceID = "duckduckgo"

const defaultEndpoint = "https://html.duckduckgo.com/html/"

// Browser-like UA; the HTML endpoint serves a captcha page to obvious bots.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Adapter queries DuckDuckGo's HTML endpoint and scrapes organic results.
// DuckDuckGo exposes no per-result score or language, so RawScore stays zero
// (the merger applies its default weight) and results are tagged with the
// first requested language.
type Adapter struct {
	client   *http.Client
	endpoint string
}

// Option configures the adapter.
type Option func(*Adapter)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// WithEndpoint overrides the search endpoint (tests point it at a stub).
func WithEndpoint(endpoint string) Option {
	return func(a *Adapter) { a.endpoint = endpoint }
}

// New creates a DuckDuckGo adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		client:   &http.Client{Timeout: 30 * time.Second},
		endpoint: defaultEndpoint,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Search fetches and parses one page of organic results.
func (a *Adapter) Search(
	ctx context.Context, query string, languages []string, maxResults int,
) ([]result.Raw, error) {
	reqURL := a.endpoint + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}

	language := ""
	if len(languages) > 0 {
		language = languages[0]
	}

	results := make([]result.Raw, 0, maxResults)
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find(".result__a").First()
		if link.Length() == 0 {
			return true
		}
		href, _ := link.Attr("href")
		target := unwrapRedirect(href)
		if target == "" {
			return true
		}

		results = append(results, result.Raw{
			Title:    strings.TrimSpace(link.Text()),
			URL:      target,
			Snippet:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
			SourceID: SourceID,
			Language: language,
		})
		return len(results) < maxResults
	})

	return results, nil
}

// unwrapRedirect resolves DuckDuckGo redirect links of the form
// /l/?kh=1&uddg=<encoded_url> to their destination. Direct http(s) links
// pass through; anything else is dropped.
func unwrapRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !strings.HasPrefix(u.Path, "/l/") {
		return ""
	}
	return u.Query().Get("uddg")
}
