// Package source fetches the candidate list of promotable pages. Three
// adapters exist: a sitemap parser, an RSS/Atom feed parser, and a direct
// read of the site's own database. All of them return the same Candidate
// shape so the rest of the pipeline doesn't care where a page came from.
package source

import (
	"context"
	"fmt"

	"github.com/pikeandvine/tweetbot/internal/config"
)

// Kind classifies a promotable page. The prompt builder dispatches on it.
type Kind string

const (
	KindBlog     Kind = "blog"     // blog article
	KindListing  Kind = "listing"  // individual business listing
	KindDistrict Kind = "district" // district or neighborhood guide
)

// Candidate is one promotable page.
type Candidate struct {
	URL      string
	Title    string
	Kind     Kind
	Summary  string
	LastMod  string // YYYY-MM-DD or empty
	ImageURL string // featured image, if the source knows one
	Priority float64
}

// Source produces the full candidate list for one run.
type Source interface {
	Fetch(ctx context.Context) ([]Candidate, error)
}

// New builds the configured source adapter.
func New(cfg *config.Config) (Source, error) {
	switch cfg.Source.Kind {
	case "sitemap":
		return NewSitemapSource(cfg.Source.Sitemap.URL, cfg.Source.Sitemap.MinPriority), nil
	case "feed":
		feeds := make([]FeedConfig, len(cfg.Source.Feeds))
		for i, f := range cfg.Source.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		return NewFeedSource(feeds), nil
	case "database":
		return NewSiteDBSource(cfg.Source.Database.Path), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
