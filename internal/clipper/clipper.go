// Package clipper fetches a web page and reduces it to the text a model
// needs to extract a recipe from it.
package clipper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxChars bounds the page text sent to the model.
const DefaultMaxChars = 20000

// Clipper handles fetching and cleaning recipe pages.
type Clipper struct {
	httpClient *http.Client
	maxChars   int
}

// NewClipper creates a new Clipper instance.
func NewClipper(httpClient *http.Client) *Clipper {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Clipper{httpClient: httpClient, maxChars: DefaultMaxChars}
}

// Page is the cleaned content of a fetched URL.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetch downloads url and strips scripts, styles, navigation and ads.
func (c *Clipper) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "miam-planner/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Remove noise to save tokens
	doc.Find("script, style, noscript, nav, header, footer, iframe, form, ads, .ads, #ads").Remove()

	text := collapseSpaces(doc.Find("body").Text())
	if r := []rune(text); len(r) > c.maxChars {
		text = string(r[:c.maxChars])
	}

	return &Page{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  text,
	}, nil
}

func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
