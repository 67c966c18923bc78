// Package scrape enriches a candidate page with its real title, meta
// description and a short excerpt by fetching and parsing the live HTML.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const maxExcerptLen = 500

// PageContent is what the scraper extracts for the drafting prompt.
type PageContent struct {
	Title   string
	Summary string // meta description, or a leading-text excerpt
	Tags    string // comma-separated tag labels, listings only
}

// Scraper fetches a page and pulls out the pieces worth showing the LLM.
type Scraper struct {
	client       *http.Client
	tagsSelector string
}

// New creates a scraper. tagsSelector is the CSS selector for tag badges on
// listing pages; empty disables tag extraction.
func New(timeout time.Duration, tagsSelector string) *Scraper {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		client:       &http.Client{Timeout: timeout},
		tagsSelector: tagsSelector,
	}
}

// Fetch downloads the page and extracts title, summary and tags. Selector
// misses are not errors: whatever was found is returned and the drafting
// prompt copes with blanks.
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (*PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "tweetbot/1.0 (content promotion)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}

	content := s.extract(body)

	// When the selectors came up empty, fall back to readability extraction
	// so the prompt at least gets some leading text.
	if content.Summary == "" {
		if text := extractReadable(body, pageURL); text != "" {
			content.Summary = clip(text, maxExcerptLen)
		}
	}

	return content, nil
}

func (s *Scraper) extract(body []byte) *PageContent {
	content := &PageContent{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return content
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		content.Title = strings.TrimSpace(og)
	} else {
		content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		content.Summary = strings.TrimSpace(desc)
	}
	if content.Summary == "" {
		content.Summary = clip(strings.TrimSpace(doc.Find("article p, main p").First().Text()), maxExcerptLen)
	}

	if s.tagsSelector != "" {
		var tags []string
		doc.Find(s.tagsSelector).Each(func(_ int, sel *goquery.Selection) {
			if len(tags) >= 5 {
				return
			}
			if t := strings.TrimSpace(sel.Text()); t != "" {
				tags = append(tags, t)
			}
		})
		content.Tags = strings.Join(tags, ", ")
	}

	return content
}

func extractReadable(body []byte, pageURL string) string {
	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

func clip(text string, max int) string {
	if len(text) <= max {
		return text
	}
	clipped := text[:max]
	if idx := strings.LastIndex(clipped, " "); idx > 0 {
		clipped = clipped[:idx]
	}
	return clipped
}
