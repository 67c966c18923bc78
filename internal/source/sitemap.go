package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SitemapSource parses a WordPress-style XML sitemap. Entries below the
// minimum priority and non-content paths (wp- internals, tag/category
// archives, the root page) are skipped.
type SitemapSource struct {
	sitemapURL  string
	minPriority float64
	client      *http.Client
}

// NewSitemapSource creates a sitemap adapter. minPriority of 0 keeps every
// entry that has any priority at all.
func NewSitemapSource(sitemapURL string, minPriority float64) *SitemapSource {
	return &SitemapSource{
		sitemapURL:  sitemapURL,
		minPriority: minPriority,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type sitemapXML struct {
	URLs []sitemapEntry `xml:"url"`
}

type sitemapEntry struct {
	Loc      string   `xml:"loc"`
	LastMod  string   `xml:"lastmod"`
	Priority string   `xml:"priority"`
	Images   []string `xml:"image>loc"`
}

// Fetch downloads and parses the sitemap. An unreachable or unparseable
// sitemap is an error, not an empty result.
func (s *SitemapSource) Fetch(ctx context.Context) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sitemapURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching sitemap: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading sitemap: %w", err)
	}

	candidates, err := s.parse(body)
	if err != nil {
		return nil, err
	}

	log.Printf("Parsed %d promotable pages from sitemap", len(candidates))
	return candidates, nil
}

func (s *SitemapSource) parse(body []byte) ([]Candidate, error) {
	var sm sitemapXML
	if err := xml.Unmarshal(body, &sm); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}

	var candidates []Candidate
	for _, entry := range sm.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}

		priority := 0.0
		if entry.Priority != "" {
			p, err := strconv.ParseFloat(strings.TrimSpace(entry.Priority), 64)
			if err != nil {
				continue
			}
			priority = p
		}
		if priority < s.minPriority {
			continue
		}

		kind, ok := inferKind(loc)
		if !ok {
			continue
		}

		lastMod := strings.TrimSpace(entry.LastMod)
		if len(lastMod) >= 10 {
			lastMod = lastMod[:10]
		}

		var image string
		if len(entry.Images) > 0 {
			image = strings.TrimSpace(entry.Images[0])
		}

		candidates = append(candidates, Candidate{
			URL:      loc,
			Title:    titleFromSlug(loc),
			Kind:     kind,
			LastMod:  lastMod,
			ImageURL: image,
			Priority: priority,
		})
	}

	return candidates, nil
}

// inferKind classifies a page by its URL path. Blog articles live under
// /blog/, district and neighborhood guides are one or two path segments,
// individual listings are three. Everything else is not promotable.
func inferKind(rawURL string) (Kind, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	path := strings.ToLower(u.Path)

	for _, excluded := range []string{
		"/wp-", "/feed", "/sitemap", "/category/", "/tag/",
		"/author/", "/search/", "/page/", "/privacy", "/terms",
	} {
		if strings.Contains(path, excluded) {
			return "", false
		}
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		return "", false
	}

	if parts[0] == "blog" {
		if len(parts) == 1 {
			return "", false // the blog index page, not an article
		}
		return KindBlog, true
	}

	switch len(parts) {
	case 1, 2:
		return KindDistrict, true
	case 3:
		return KindListing, true
	}
	return "", false
}

// titleFromSlug derives a display title from the final URL path segment.
// The scraper replaces it with the real page title later; this is only a
// fallback label.
func titleFromSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	path := strings.Trim(u.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	slug := strings.NewReplacer("-", " ", "_", " ").Replace(path)
	words := strings.Fields(slug)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
